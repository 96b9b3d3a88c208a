package config

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
)

type Config struct {
	Port     string `json:"port"`
	DSLDir   string `json:"dslDir"`
	ViewsDir string `json:"viewsDir"`
	DBURL    string `json:"dbUrl"`

	// Снапшот: загружать ли данные из Postgres при старте
	SnapshotLoad bool `json:"snapshotLoad"`
}

func def() Config {
	return Config{
		Port:         "8080",
		DSLDir:       "dsl",
		ViewsDir:     "views",
		DBURL:        "",
		SnapshotLoad: false,
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

// applyEnv накладывает OBLIK_* переменные окружения поверх конфига.
func applyEnv(c Config) Config {
	c.Port = getenv("OBLIK_PORT", c.Port)
	c.DSLDir = getenv("OBLIK_DSL_DIR", c.DSLDir)
	c.ViewsDir = getenv("OBLIK_VIEWS_DIR", c.ViewsDir)
	c.DBURL = getenv("OBLIK_DB_URL", c.DBURL)
	c.SnapshotLoad = getenvBool("OBLIK_SNAPSHOT_LOAD", c.SnapshotLoad)
	return c
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	return load(flag.CommandLine, os.Args[1:], jsonPath)
}

// load — тело загрузки; набор флагов передаётся явно, чтобы не плодить
// повторных регистраций в глобальном наборе.
func load(fs *flag.FlagSet, args []string, jsonPath string) Config {
	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg = applyEnv(cfg)

	// Flags overrides
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	dslDir := fs.String("dsl", cfg.DSLDir, "Path to DSL directory")
	viewsDir := fs.String("views", cfg.ViewsDir, "Path to views directory")
	db := fs.String("db", cfg.DBURL, "Postgres URL (empty = in-memory only)")
	snap := fs.Bool("snapshot-load", cfg.SnapshotLoad, "Load snapshot from Postgres on start")

	_ = fs.Parse(args)

	// Через флаг передали другой конфиг: перечитываем файл и накладываем ENV
	// заново. Значения по умолчанию у остальных флагов посчитаны от старого
	// конфига, поэтому дальше применяются только явно переданные флаги.
	if *configPath != jsonPath {
		if c2, err := loadJSON(*configPath); err == nil {
			cfg = applyEnv(c2)
		}
		explicit := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		if explicit["port"] {
			cfg.Port = strings.TrimSpace(*port)
		}
		if explicit["dsl"] {
			cfg.DSLDir = strings.TrimSpace(*dslDir)
		}
		if explicit["views"] {
			cfg.ViewsDir = strings.TrimSpace(*viewsDir)
		}
		if explicit["db"] {
			cfg.DBURL = strings.TrimSpace(*db)
		}
		if explicit["snapshot-load"] {
			cfg.SnapshotLoad = *snap
		}
		return cfg
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.DSLDir = strings.TrimSpace(*dslDir)
	cfg.ViewsDir = strings.TrimSpace(*viewsDir)
	cfg.DBURL = strings.TrimSpace(*db)
	cfg.SnapshotLoad = *snap

	return cfg
}

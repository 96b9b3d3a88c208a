package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"oblik/internal/entity"
)

// Config описывает наборы полей проекции одной сущности.
// Один YAML-файл — одна сущность.
type Config struct {
	Entity       string          `yaml:"entity"`
	ShowComments bool            `yaml:"show_comments"`
	FullInfo     entity.FieldSet `yaml:"full_info"`
	SimpleInfo   entity.FieldSet `yaml:"simple_info"`
}

// LoadCatalog читает все view-описания (*.yaml|*.yml) из директории.
// Ключ результата — FQN сущности из поля entity.
func LoadCatalog(dir string) (map[string]Config, error) {
	result := make(map[string]Config)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file.IsDir() || !(strings.HasSuffix(file.Name(), ".yaml") || strings.HasSuffix(file.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("views: %s: %w", path, err)
		}
		if cfg.Entity == "" {
			return nil, fmt.Errorf("views: %s: missing `entity`", path)
		}
		if _, exists := result[cfg.Entity]; exists {
			return nil, fmt.Errorf("views: duplicate config for %q (file: %s)", cfg.Entity, path)
		}
		result[cfg.Entity] = cfg
	}
	return result, nil
}

// Apply навешивает конфигурацию проекций на схемы по FQN.
func Apply(schemas map[string]*entity.Schema, catalog map[string]Config) error {
	for fqn, cfg := range catalog {
		s, ok := schemas[fqn]
		if !ok {
			return fmt.Errorf("views: unknown entity %q", fqn)
		}
		s.FullInfoFields = cfg.FullInfo
		s.SimpleInfoFields = cfg.SimpleInfo
		s.ShowComments = cfg.ShowComments
	}
	return nil
}

package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("oblik-test", flag.ContinueOnError)
}

// LoadWithPath регистрирует флаги в глобальном наборе, поэтому вызывается
// в тестовом бинаре ровно один раз; остальные тесты ходят через load.
func TestLoadWithPathLayering(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.json", `{
		"port": "7070",
		"dslDir": "custom-dsl",
		"snapshotLoad": true
	}`)

	// ENV сильнее JSON
	t.Setenv("OBLIK_PORT", "9090")
	t.Setenv("OBLIK_DB_URL", "postgres://localhost/oblik")

	cfg := LoadWithPath(path)

	assert.Equal(t, "9090", cfg.Port)                       // env поверх json
	assert.Equal(t, "custom-dsl", cfg.DSLDir)               // из json
	assert.Equal(t, "views", cfg.ViewsDir)                  // дефолт
	assert.Equal(t, "postgres://localhost/oblik", cfg.DBURL)
	assert.True(t, cfg.SnapshotLoad)
}

func TestConfigFlagSwitchesFile(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "first.json", `{"port": "1000", "dslDir": "first-dsl"}`)
	second := writeConfig(t, dir, "second.json", `{"port": "2000", "dslDir": "second-dsl", "snapshotLoad": true}`)

	cfg := load(testFlagSet(), []string{"-config", second}, first)

	// значения нового файла выживают, хотя остальные флаги не передавались
	assert.Equal(t, "2000", cfg.Port)
	assert.Equal(t, "second-dsl", cfg.DSLDir)
	assert.True(t, cfg.SnapshotLoad)
	assert.Equal(t, "views", cfg.ViewsDir) // дефолт из нового файла
}

func TestExplicitFlagBeatsSwitchedFile(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "first.json", `{"port": "1000"}`)
	second := writeConfig(t, dir, "second.json", `{"port": "2000", "dslDir": "second-dsl"}`)

	cfg := load(testFlagSet(), []string{"-config", second, "-port", "1111"}, first)

	assert.Equal(t, "1111", cfg.Port)         // явный флаг сильнее файла
	assert.Equal(t, "second-dsl", cfg.DSLDir) // непереданный флаг не затирает
}

func TestEnvAppliesToSwitchedFile(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "first.json", `{}`)
	second := writeConfig(t, dir, "second.json", `{"viewsDir": "file-views"}`)

	t.Setenv("OBLIK_VIEWS_DIR", "env-views")

	cfg := load(testFlagSet(), []string{"-config", second}, first)
	assert.Equal(t, "env-views", cfg.ViewsDir) // env накладывается и на новый файл
}

func TestDefaults(t *testing.T) {
	cfg := def()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dsl", cfg.DSLDir)
	assert.Equal(t, "views", cfg.ViewsDir)
	assert.Empty(t, cfg.DBURL)
	assert.False(t, cfg.SnapshotLoad)
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("OBLIK_TEST_FLAG", "yes")
	assert.True(t, getenvBool("OBLIK_TEST_FLAG", false))

	t.Setenv("OBLIK_TEST_FLAG", "0")
	assert.False(t, getenvBool("OBLIK_TEST_FLAG", true))

	t.Setenv("OBLIK_TEST_FLAG", "garbage")
	assert.True(t, getenvBool("OBLIK_TEST_FLAG", true))
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, home, body string) {
	t.Helper()
	dir := filepath.Join(home, "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "feed-db"), cfg.DBDir)
	require.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr)
	require.False(t, cfg.ReinitGuard)
	require.Empty(t, cfg.Moderators)
	require.Equal(t, 100, cfg.FeedQueryLimit)
}

func TestLoadFile(t *testing.T) {
	home := t.TempDir()
	mod := strings.Repeat("ab", 32)
	writeConfig(t, home, `
db_dir = "/var/lib/feed"
http_addr = "0.0.0.0:9090"
max_record_size = 512
reinit_guard = true
moderators = ["`+mod+`"]
feed_query_limit = 20
`)
	cfg, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/feed", cfg.DBDir)
	require.Equal(t, "0.0.0.0:9090", cfg.HTTPAddr)
	require.Equal(t, 512, cfg.MaxRecordSize)
	require.True(t, cfg.ReinitGuard)
	require.Equal(t, []string{mod}, cfg.Moderators)
	require.Equal(t, 20, cfg.FeedQueryLimit)
}

func TestLoadEnvOverride(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, `http_addr = "0.0.0.0:9090"`)
	t.Setenv("FEED_HTTP_ADDR", "127.0.0.1:7070")

	cfg, err := Load(home)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:7070", cfg.HTTPAddr)
}

func TestLoadInvalid(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, `moderators = ["not-hex"]`)
	_, err := Load(home)
	require.Error(t, err)

	home = t.TempDir()
	writeConfig(t, home, `max_record_size = 10`)
	_, err = Load(home)
	require.Error(t, err)
}

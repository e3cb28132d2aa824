package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IS_DEV", "true")

	cfg, err := Load(writeConfig(t, "log_level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "admin", cfg.Mongo.Database)
	assert.Equal(t, "flightData", cfg.Mongo.FlightsCollection)
	assert.Equal(t, "memory", cfg.Regions.Backend)
	assert.Equal(t, int32(6), cfg.Parsing.CoordinatePrecision)
	assert.Equal(t, 48*time.Hour, cfg.Parsing.MaxDuration)
	assert.Equal(t, 10, cfg.Stats.TopN)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)
	assert.True(t, cfg.Auth.DevMode)
}

func TestLoadFileAndLegacyEnv(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
regions:
  backend: mongo
  dir: /srv/geojson
stats:
  top_n: 5
`)
	t.Setenv("MONGO_URI", "mongodb://mongo:27017/")
	t.Setenv("KEYCLOAK_URL", "http://keycloak:8080/realms/drones")
	t.Setenv("FRONT_URLS", "http://localhost:3000/, http://localhost:5173")
	t.Setenv("PARSING_WORKERS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "mongo", cfg.Regions.Backend)
	assert.Equal(t, "/srv/geojson", cfg.Regions.Dir)
	assert.Equal(t, 5, cfg.Stats.TopN)
	assert.Equal(t, "mongodb://mongo:27017/", cfg.Mongo.URI)
	assert.Equal(t, "http://keycloak:8080/realms/drones", cfg.Auth.Issuer)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.Origins)
	assert.Equal(t, 8, cfg.Parsing.Workers)
}

func TestLoadValidation(t *testing.T) {
	t.Run("issuer required outside dev mode", func(t *testing.T) {
		t.Setenv("IS_DEV", "false")
		t.Setenv("KEYCLOAK_URL", "")
		_, err := Load(writeConfig(t, "log_level: info\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Issuer")
	})

	t.Run("unknown resolver backend", func(t *testing.T) {
		t.Setenv("IS_DEV", "true")
		_, err := Load(writeConfig(t, "regions:\n  backend: postgis\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Backend")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

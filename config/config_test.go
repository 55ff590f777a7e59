package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `engine:
  crane_truck_name: "S17"
  suggestions: 5
  fallback_days: 21
tides:
  data_dir: "/var/lib/haulplan/tides"
  application: "yard"
store:
  backend: "postgres"
  dsn: "postgres://haul@localhost/haulplan"
metrics:
  prometheus_enabled: true
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  topic_prefix: "yard"
  qos: 1
api:
  addr: ":9000"
logging:
  level: "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"crane", cfg.Engine.CraneTruckName, "S17"},
		{"suggestions", cfg.Engine.Suggestions, 5},
		{"fallback_days", cfg.Engine.FallbackDays, 21},
		{"piggyback default", cfg.Engine.PiggybackDays, 7},
		{"tick default", cfg.Engine.TickMinutes, 15},
		{"data_dir", cfg.Tides.DataDir, "/var/lib/haulplan/tides"},
		{"application", cfg.Tides.Application, "yard"},
		{"timeout default", cfg.Tides.TimeoutSeconds, 15},
		{"backend", cfg.Store.Backend, "postgres"},
		{"prometheus", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus port", cfg.Metrics.PrometheusPort, ":9090"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"api", cfg.API.Addr, ":9000"},
		{"level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store":{"backend":"sqlite","path":"a.db"}}`), 0o644))
	t.Setenv("HAUL_STORE__PATH", "b.db")
	t.Setenv("HAUL_ENGINE__CRANE_TRUCK_NAME", "C1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "b.db", cfg.Store.Path)
	assert.Equal(t, "C1", cfg.Engine.CraneTruckName)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "config.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("logging:\n  level: loud\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	bad = filepath.Join(dir, "store.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("store:\n  backend: postgres\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err, "postgres requires a dsn")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.API.Addr)
}

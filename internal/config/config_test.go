package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Telemetry.SeriesCapacity)
	assert.Equal(t, 50*time.Millisecond, cfg.Telemetry.PointCloudRate)
	assert.Equal(t, 2*time.Second, cfg.Mission.ConnectDelay)
	assert.Equal(t, "simulated", cfg.Transport.Kind)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": 9001},
		"telemetry": {"cameras": 2},
		"redis": {"enabled": true, "host": "cache"}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Telemetry.Cameras)
	assert.Equal(t, "cache", cfg.Redis.Host)
	assert.True(t, cfg.Redis.Enabled)
	// campos fora do arquivo mantêm o padrão
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, time.Second, cfg.Telemetry.PlotRate)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": `), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MISSION_SERVER_PORT", "7000")
	t.Setenv("MISSION_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvironmentOverrides(t *testing.T) {
	env := map[string]string{
		"MISSION_REDIS_HOST":      "redis.local",
		"MISSION_REDIS_ENABLED":   "true",
		"MISSION_TRANSPORT":       "redis",
		"MISSION_PLC_SLOT":        "2",
		"MISSION_POINTCLOUD_RATE": "100ms",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, applyEnvironmentOverrides(cfg, lookup))

	assert.Equal(t, "redis.local", cfg.Redis.Host)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis", cfg.Transport.Kind)
	assert.Equal(t, 2, cfg.PLC.Slot)
	assert.Equal(t, 100*time.Millisecond, cfg.Telemetry.PointCloudRate)
	assert.NoError(t, cfg.Validate())
}

func TestEnvironmentOverrideErrors(t *testing.T) {
	for key, value := range map[string]string{
		"MISSION_SERVER_PORT":   "oito mil",
		"MISSION_PLC_ENABLED":   "talvez",
		"MISSION_CONNECT_DELAY": "2 segundos",
	} {
		t.Run(key, func(t *testing.T) {
			lookup := func(k string) (string, bool) {
				if k == key {
					return value, true
				}
				return "", false
			}
			assert.Error(t, applyEnvironmentOverrides(Default(), lookup))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"porta", func(c *Config) { c.Server.Port = 70000 }},
		{"período", func(c *Config) { c.Telemetry.PlotRate = 0 }},
		{"capacidade", func(c *Config) { c.Telemetry.SeriesCapacity = 0 }},
		{"câmeras", func(c *Config) { c.Telemetry.Cameras = 0 }},
		{"amount", func(c *Config) { c.Command.AmountMin = 200 }},
		{"atraso", func(c *Config) { c.Mission.GoalDelayMin = time.Hour }},
		{"transporte desconhecido", func(c *Config) { c.Transport.Kind = "serial" }},
		{"plc desabilitado", func(c *Config) { c.Transport.Kind = "plc"; c.PLC.Enabled = false }},
		{"redis desabilitado", func(c *Config) { c.Transport.Kind = "redis"; c.Redis.Enabled = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

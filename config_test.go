package fluxzero

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(*Config){
		"no name":         func(c *Config) { c.Name = "" },
		"unknown game":    func(c *Config) { c.Game = "go" },
		"tiny board":      func(c *Config) { c.Rows = 2 },
		"n too long":      func(c *Config) { c.ConnectN = 8 },
		"no games":        func(c *Config) { c.ArenaGames = 0 },
		"learning rate":   func(c *Config) { c.Agent.LearningRate = 1.5 },
		"no simulations":  func(c *Config) { c.Agent.Simulations = 0 },
		"temperature":     func(c *Config) { c.Agent.RandomTemperature = 0 },
		"metrics address": func(c *Config) { c.MetricsAddr = "not an address" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			conf := DefaultConfig()
			mutate(&conf)
			assert.Error(t, conf.Validate())
		})
	}

	conf := DefaultConfig()
	conf.MetricsAddr = ":9090"
	assert.NoError(t, conf.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "fluxzero.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(`
name: Connect Five
rows: 8
cols: 9
connect_n: 5
agent:
  simulations: 50
  exploration: 0.5
`), 0644))

	conf, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, "Connect Five", conf.Name)
	assert.Equal(t, 8, conf.Rows)
	assert.Equal(t, 5, conf.ConnectN)
	assert.Equal(t, 50, conf.Agent.Simulations)
	assert.Equal(t, 0.5, conf.Agent.Exploration)
	assert.Equal(t, DefaultConfig().Agent.LearningRate, conf.Agent.LearningRate, "unset fields keep their defaults")
	assert.Equal(t, DefaultConfig().ArenaGames, conf.ArenaGames)

	require.NoError(t, os.WriteFile(filename, []byte("name: x\nboard: 3\n"), 0644))
	_, err = LoadConfig(filename)
	assert.Error(t, err, "unknown fields are rejected")

	require.NoError(t, os.WriteFile(filename, []byte("rows: 1\n"), 0644))
	_, err = LoadConfig(filename)
	assert.Error(t, err, "loaded configs are validated")

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

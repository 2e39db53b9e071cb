package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero baud", func(c *Config) { c.BaudRate = 0 }},
		{"negative tick", func(c *Config) { c.TickPeriod = -1 }},
		{"no output dir", func(c *Config) { c.OutputDir = "" }},
		{"no log file", func(c *Config) { c.LogFile = "" }},
		{"auto-connect without port", func(c *Config) { c.AutoConnect = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

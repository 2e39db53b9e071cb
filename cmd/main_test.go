package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sleepywoodpecker/gsr-logger/internal/config"
	"sleepywoodpecker/gsr-logger/internal/export"
	"sleepywoodpecker/gsr-logger/internal/pipeline"
)

func TestFlagsBindIntoConfig(t *testing.T) {
	var got config.Config
	cmd := newRootCommand(func(ctx context.Context, cfg config.Config) error {
		got = cfg
		return nil
	})
	cmd.SetArgs([]string{
		"--port", "/dev/ttyACM0",
		"--baud", "115200",
		"--tick", "20ms",
		"--out", "exports",
		"--http", "",
		"--telegraf", "127.0.0.1:4020",
		"--headless",
		"--auto-connect",
	})

	require.NoError(t, cmd.Execute())
	require.Equal(t, "/dev/ttyACM0", got.PortName)
	require.Equal(t, 115200, got.BaudRate)
	require.Equal(t, 20*time.Millisecond, got.TickPeriod)
	require.Equal(t, "exports", got.OutputDir)
	require.Empty(t, got.HTTPAddr)
	require.Equal(t, "127.0.0.1:4020", got.TelegrafAddr)
	require.Equal(t, config.DefaultMQTTTopic, got.MQTTTopic)
	require.True(t, got.Headless)
	require.True(t, got.AutoConnect)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	called := false
	cmd := newRootCommand(func(ctx context.Context, cfg config.Config) error {
		called = true
		return nil
	})
	cmd.SetArgs([]string{"--baud", "0"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	require.Error(t, cmd.Execute())
	require.False(t, called)
}

func TestBuildSinksWithNothingConfigured(t *testing.T) {
	require.Empty(t, buildSinks(config.Default(), zap.NewNop()))
}

func TestSaveOnExit(t *testing.T) {
	dir := t.TempDir()
	p := pipeline.New(pipeline.Options{TickPeriod: time.Millisecond}, zap.NewNop())

	now := time.Now()
	p.Start(now)
	p.OnTick(now)

	saveOnExit(p, dir, zap.NewNop())
	require.False(t, p.Snapshot().Recording)
	require.FileExists(t, filepath.Join(dir, export.CSVFilename))
	require.FileExists(t, filepath.Join(dir, export.JSONFilename))
}

func TestSaveOnExitWithoutSessionKeepsEarlierExports(t *testing.T) {
	dir := t.TempDir()
	first := pipeline.New(pipeline.Options{TickPeriod: time.Millisecond}, zap.NewNop())

	now := time.Now()
	first.Start(now)
	first.OnTick(now)
	saveOnExit(first, dir, zap.NewNop())

	jsonPath := filepath.Join(dir, export.JSONFilename)
	saved, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	idle := pipeline.New(pipeline.Options{TickPeriod: time.Millisecond}, zap.NewNop())
	saveOnExit(idle, dir, zap.NewNop())

	after, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.Equal(t, string(saved), string(after))
	require.FileExists(t, filepath.Join(dir, export.CSVFilename))
}

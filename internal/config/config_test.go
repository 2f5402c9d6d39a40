package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "navgrid.yaml")
	data := `
grid:
  snapshot: maps/arena.grid
  obstacle_percentage: 10
regions:
  tile_width: 5
  tile_height: 6
precompute:
  parallel: true
  workers: 8
database:
  enabled: true
  host: db
server:
  port: 9090
  read_timeout: 30s
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "maps/arena.grid", cfg.Grid.Snapshot)
	assert.Equal(t, 10.0, cfg.Grid.ObstaclePercentage)
	assert.Equal(t, 100, cfg.Grid.Width, "unset keys keep defaults")
	assert.Equal(t, 5.0, cfg.Regions.TileWidth)
	assert.Equal(t, 6.0, cfg.Regions.TileHeight)
	assert.Equal(t, 8, cfg.Precompute.Workers)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://navgrid:navgrid@db:5432/navgrid?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "grid: [\n"},
		{"tile too small", "regions:\n  tile_width: 0.5\n"},
		{"infinite tile", "regions:\n  tile_height: .inf\n"},
		{"nan tile", "regions:\n  tile_width: .nan\n"},
		{"percentage", "grid:\n  obstacle_percentage: 120\n"},
		{"no workers", "precompute:\n  parallel: true\n  workers: 0\n"},
		{"no size", "grid:\n  width: 0\n"},
		{"log level", "log_level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "navgrid.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

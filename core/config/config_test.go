package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.True(t, cfg.Scheduler.RunOnStart)
	assert.Equal(t, 3*time.Second, cfg.Sync.PendingDelay)
	assert.Equal(t, 5, cfg.Sync.MaxPendingRetries)
	assert.Equal(t, 600, cfg.Assets.MaxDimension)
	assert.Equal(t, "https://api.discogs.com", cfg.Records.BaseURL)
	assert.Equal(t, 20, cfg.Books.OpenLibraryCallsPerMinute)
	assert.False(t, cfg.BoardGames.Enabled)
	assert.Empty(t, cfg.OverridesFile)
}

func TestLoadConfigSources(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		env    string
		setenv map[string]string
		check  func(t *testing.T, cfg *Config)
	}{
		{
			name: "YAMLFile",
			yaml: "scheduler:\n  interval: 5m\nrecords:\n  enabled: true\n  user_id: collector\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
				assert.True(t, cfg.Records.Enabled)
				assert.Equal(t, "collector", cfg.Records.UserID)
			},
		},
		{
			name: "EnvFileOverridesYAML",
			yaml: "server:\n  port: \"9000\"\n",
			env:  "SERVER_PORT=9100\nBOOKS_KEY=abc\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9100", cfg.Server.Port)
				assert.Equal(t, "abc", cfg.Books.Key)
			},
		},
		{
			name:   "Environment",
			setenv: map[string]string{"SYNC_RETRY_DELAY": "250ms", "NOTIFY_REDIS_ENABLED": "true"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 250*time.Millisecond, cfg.Sync.RetryDelay)
				assert.True(t, cfg.Notify.RedisEnabled)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.yaml != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.yaml), 0o644))
			}
			if tt.env != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(tt.env), 0o644))
				t.Cleanup(func() {
					os.Unsetenv("SERVER_PORT")
					os.Unsetenv("BOOKS_KEY")
				})
			}
			for k, v := range tt.setenv {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig(dir)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0o644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

package logger_test

import (
	"net/http/httptest"
	"testing"

	"collection-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       logger.Config
		enabled   zapcore.Level
		disabled  zapcore.Level
		expectErr bool
	}{
		{name: "Default", cfg: logger.Config{}, enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel},
		{name: "Debug", cfg: logger.Config{Level: "debug", Format: "console"}, enabled: zapcore.DebugLevel, disabled: zapcore.DebugLevel - 1},
		{name: "Warn", cfg: logger.Config{Level: "warn"}, enabled: zapcore.WarnLevel, disabled: zapcore.InfoLevel},
		{name: "Invalid", cfg: logger.Config{Level: "loud"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := logger.New(&tt.cfg)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.disabled))
		})
	}
}

func TestWithRayID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		c.Locals("ray_id", "abc-123")
		logger.WithRayID(base, c).Info("with id")
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/none", func(c *fiber.Ctx) error {
		logger.WithRayID(base, c).Info("without id")
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/none", nil))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "abc-123", entries[0].ContextMap()["ray_id"])
	assert.NotContains(t, entries[1].ContextMap(), "ray_id")
}

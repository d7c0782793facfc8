package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"collection-sync/core/catalog"
	"collection-sync/core/config"
	"collection-sync/core/database"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database = database.Config{Driver: "sqlite", Name: ":memory:"}
	cfg.Assets.Root = t.TempDir()
	cfg.Assets.URLPrefix = "/images"
	return cfg
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("EnabledProvidersOnly", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Records.Enabled = true
		cfg.Books.Enabled = true

		rt, err := bootstrap(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer rt.close(ctx)

		all, err := rt.adaptersFor(nil)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, catalog.KindRecord, all[0].Kind())
		assert.Equal(t, catalog.KindBook, all[1].Kind())

		named, err := rt.adaptersFor([]string{"book"})
		require.NoError(t, err)
		require.Len(t, named, 1)
		assert.Equal(t, catalog.KindBook, named[0].Kind())

		_, err = rt.adaptersFor([]string{"boardgame"})
		assert.ErrorContains(t, err, "not enabled")

		_, err = rt.adaptersFor([]string{"movie"})
		assert.Error(t, err)
	})

	t.Run("OverridesAreLoaded", func(t *testing.T) {
		cfg := testConfig(t)
		path := filepath.Join(t.TempDir(), "overrides.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"books": {"replacements": {"titles": {"A": "B"}}}}`), 0o644))
		cfg.OverridesFile = path

		rt, err := bootstrap(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		rt.close(ctx)
	})

	t.Run("BrokenOverrides", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.OverridesFile = filepath.Join(t.TempDir(), "missing.json")

		_, err := bootstrap(ctx, cfg, zap.NewNop())
		assert.ErrorContains(t, err, "overrides")
	})
}

func TestConfirmDestructiveAction(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		yes    bool
		expect bool
	}{
		{name: "Typed", input: "yes\n", expect: true},
		{name: "Declined", input: "no\n"},
		{name: "NoInput"},
		{name: "Flag", yes: true, expect: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yesConfirm = tt.yes
			t.Cleanup(func() { yesConfirm = false })

			c := &cobra.Command{}
			var out bytes.Buffer
			c.SetIn(strings.NewReader(tt.input))
			c.SetOut(&out)

			assert.Equal(t, tt.expect, confirmDestructiveAction(c, "drop every stored book"))
			if !tt.yes {
				assert.Contains(t, out.String(), "drop every stored book")
			}
		})
	}
}

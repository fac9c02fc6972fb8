package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofr/notifier/pkg/config"
)

type basicConfig struct {
	Name  string `env:"TEST_CONFIG_NAME" envDefault:"fallback"`
	Count int    `env:"TEST_CONFIG_COUNT" envDefault:"5"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CONFIG_MISSING_SECRET,required"`
}

type cachedConfig struct {
	Value string `env:"TEST_CONFIG_CACHED" envDefault:"initial"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		var cfg basicConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "fallback", cfg.Name)
		assert.Equal(t, 5, cfg.Count)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		type envConfig struct {
			Name string `env:"TEST_CONFIG_ENV_NAME" envDefault:"fallback"`
		}
		t.Setenv("TEST_CONFIG_ENV_NAME", "from-env")

		var cfg envConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "from-env", cfg.Name)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[basicConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("parsed values are cached per type", func(t *testing.T) {
		t.Setenv("TEST_CONFIG_CACHED", "first")

		var cfg cachedConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "first", cfg.Value)

		// Later environment changes don't affect the cached type.
		t.Setenv("TEST_CONFIG_CACHED", "second")

		var again cachedConfig
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "first", again.Value)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("returns loaded config", func(t *testing.T) {
		var cfg basicConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, "fallback", cfg.Name)
	})

	t.Run("panics on failure", func(t *testing.T) {
		var cfg requiredConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}

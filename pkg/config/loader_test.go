package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/pkg/config"
)

type serverConfig struct {
	Addr         string        `env:"TEST_SERVER_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"TEST_SERVER_READ_TIMEOUT" envDefault:"10s"`
	DebugEnabled bool          `env:"TEST_SERVER_DEBUG" envDefault:"false"`
}

type tokenConfig struct {
	SigningSecret string        `env:"TEST_TOKEN_SECRET,required"`
	TTL           time.Duration `env:"TEST_TOKEN_TTL" envDefault:"168h"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"initial"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg serverConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
		assert.False(t, cfg.DebugEnabled)
	})

	t.Run("required missing", func(t *testing.T) {
		var cfg tokenConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[serverConfig](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("cached after first load", func(t *testing.T) {
		t.Setenv("TEST_CACHED_VALUE", "first")

		var cfg cachedConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "first", cfg.Value)

		// Environment changes after the first load are not observed.
		t.Setenv("TEST_CACHED_VALUE", "second")

		var again cachedConfig
		require.NoError(t, config.Load(&again))
		assert.Equal(t, "first", again.Value)
	})
}

package envconf

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nestedConf struct {
	DSN     string        `env:"TEST_ENVCONF_DSN"`
	Timeout time.Duration `env:"TEST_ENVCONF_TIMEOUT" envDefault:"5s"`
}

type testConf struct {
	Name   string     `env:"TEST_ENVCONF_NAME" envDefault:"fallback"`
	Port   uint16     `env:"TEST_ENVCONF_PORT" envDefault:"8080"`
	Level  slog.Level `env:"TEST_ENVCONF_LEVEL" envDefault:"INFO"`
	Nested nestedConf
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_ENVCONF_NAME", "from-env")
	t.Setenv("TEST_ENVCONF_LEVEL", "WARN")
	t.Setenv("TEST_ENVCONF_DSN", "postgres://localhost/app")
	t.Setenv("TEST_ENVCONF_TIMEOUT", "250ms")

	var cfg testConf
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, uint16(8080), cfg.Port) // unset, default applies
	assert.Equal(t, slog.LevelWarn, cfg.Level)
	assert.Equal(t, "postgres://localhost/app", cfg.Nested.DSN)
	assert.Equal(t, 250*time.Millisecond, cfg.Nested.Timeout)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg testConf
	err := Load(&cfg)
	require.ErrorIs(t, err, ErrMissingRequired)
	assert.Contains(t, err.Error(), "TEST_ENVCONF_DSN")
}

func TestLoad_EmptyValueKeepsZero(t *testing.T) {
	t.Setenv("TEST_ENVCONF_DSN", "x")
	t.Setenv("TEST_ENVCONF_PORT", "")

	var cfg testConf
	require.NoError(t, Load(&cfg))
	assert.Equal(t, uint16(0), cfg.Port)
}

func TestLoad_RejectsNonPointer(t *testing.T) {
	assert.Error(t, Load(testConf{}))
	assert.Error(t, Load(nil))
}

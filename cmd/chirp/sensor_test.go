package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/soil/config"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in       string
		expected byte
		err      bool
	}{
		{"0x20", 0x20, false},
		{"32", 0x20, false},
		{"0x77", 0x77, false},
		{"0x100", 0, true},
		{"chirp", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			addr, err := parseAddress(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, addr)
		})
	}
}

func newTestContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "", "")
	set.String("adapter", "", "")
	set.String("device", "", "")
	set.String("addr", "", "")
	set.Bool("verbose", false, "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chirp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: 0x21\nmoisture: {}\n"), 0o600))

	cfg, err := loadConfig(newTestContext(t, "-config", path, "-adapter", "mcp2221", "-addr", "0x30"))

	require.NoError(t, err)
	assert.Equal(t, config.AdapterMCP2221, cfg.Bus.Adapter)
	assert.Equal(t, byte(0x30), cfg.Address)
	assert.NotNil(t, cfg.Moisture)
	assert.Nil(t, cfg.Temperature)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(newTestContext(t))

	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(newTestContext(t, "-addr", "0x78"))
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = loadConfig(newTestContext(t, "-adapter", "spi"))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

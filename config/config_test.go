package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "info", c.Main.LogLevel)
	assert.Equal(t, "input.png", c.Files.Input)
	assert.Equal(t, "red_image.png", c.Files.Red)
	assert.Equal(t, "black_image.png", c.Files.Black)
	assert.Equal(t, "result.png", c.Files.Combined)
	assert.Equal(t, 30000000, c.Image.MaxPixels)
	assert.Equal(t, 5100, c.Server.Port)
	assert.Greater(t, c.Batch.Workers, 0)
	assert.False(t, c.Frame.Compress)
}

func TestLoadConfiguration(t *testing.T) {
	t.Cleanup(func() { Config = Default() })

	path := filepath.Join(t.TempDir(), "tricolor.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[main]
log_level = "debug"

[files]
input = "photo.jpg"

[image]
fit_width = 400
fit_height = 300

[frame]
compress = true
`), 0o644))

	require.NoError(t, LoadConfiguration(path))
	assert.Equal(t, "debug", Config.Main.LogLevel)
	assert.Equal(t, "photo.jpg", Config.Files.Input)
	assert.Equal(t, 400, Config.Image.FitWidth)
	assert.Equal(t, 300, Config.Image.FitHeight)
	assert.True(t, Config.Frame.Compress)

	// Keys missing from the file keep their defaults.
	assert.Equal(t, "result.png", Config.Files.Combined)
	assert.Equal(t, 30000000, Config.Image.MaxPixels)
	assert.Equal(t, "127.0.0.1", Config.Server.Host)
}

func TestLoadConfigurationErrors(t *testing.T) {
	t.Cleanup(func() { Config = Default() })

	require.NoError(t, LoadConfiguration(""))
	assert.Equal(t, Default(), Config)

	assert.Error(t, LoadConfiguration(filepath.Join(t.TempDir(), "missing.toml")))

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[main\nlog_level = "), 0o644))
	assert.Error(t, LoadConfiguration(path))
}

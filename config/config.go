// Package config holds the tricolor settings, read from an optional TOML file
// and overridden by command line flags.
package config

import (
	"os"
	"runtime"

	"github.com/pelletier/go-toml"
)

type config struct {
	Main   configMain   `toml:"main"`
	Files  configFiles  `toml:"files"`
	Image  configImage  `toml:"image"`
	Server configServer `toml:"server"`
	Batch  configBatch  `toml:"batch"`
	Frame  configFrame  `toml:"frame"`
}

type configMain struct {
	LogLevel string `toml:"log_level"`
}

type configFiles struct {
	Input    string `toml:"input"`
	Red      string `toml:"red"`
	Black    string `toml:"black"`
	Combined string `toml:"combined"`
}

type configImage struct {
	FitWidth  int `toml:"fit_width"`
	FitHeight int `toml:"fit_height"`
	MaxPixels int `toml:"max_pixels"`
}

type configServer struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	BodyLimit string `toml:"body_limit"`
}

type configBatch struct {
	Workers   int    `toml:"workers"`
	OutputDir string `toml:"output_dir"`
}

type configFrame struct {
	Compress bool `toml:"compress"`
}

// Default returns the built-in settings.
func Default() config {
	return config{
		Main: configMain{
			LogLevel: "info",
		},
		Files: configFiles{
			Input:    "input.png",
			Red:      "red_image.png",
			Black:    "black_image.png",
			Combined: "result.png",
		},
		Image: configImage{
			MaxPixels: 30000000,
		},
		Server: configServer{
			Host:      "127.0.0.1",
			Port:      5100,
			BodyLimit: "32M",
		},
		Batch: configBatch{
			Workers: runtime.NumCPU(),
		},
	}
}

// Config holds the configuration data from configuration files
// or flags.
//
// It starts with the default values, which might be overwritten
// by a configuration file.
var Config = Default()

// LoadConfiguration loads the configuration file. An empty path keeps the
// current values.
func LoadConfiguration(configPath string) error {
	if configPath == "" {
		return nil
	}

	fd, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer fd.Close()

	dec := toml.NewDecoder(fd)
	return dec.Decode(&Config)
}

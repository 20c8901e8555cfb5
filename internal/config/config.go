// Package config loads the serve subcommand's settings from a YAML file,
// falling back to sane defaults when none is present.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

type Config struct {
	Server struct {
		Addr string `koanf:"addr"`
	} `koanf:"server"`
	Limits struct {
		MaxExpressionBytes int `koanf:"max_expression_bytes"`
		MaxJSONBytes       int `koanf:"max_json_bytes"`
	} `koanf:"limits"`
}

func defaults() Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Limits.MaxExpressionBytes = 4096
	c.Limits.MaxJSONBytes = 1 << 20
	return c
}

// Load reads config.yaml, or the file named by $FILTEREXPR_CONFIG, merging
// it over the defaults. A missing file is not an error: the defaults stand
// on their own for a zero-config run.
func Load() (Config, error) {
	cfg := defaults()

	path := os.Getenv("FILTEREXPR_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	return cfg, nil
}

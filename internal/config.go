package internal

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the settings for a conversion run
type Config struct {
	Source      string `mapstructure:"source" yaml:"source"`
	Destination string `mapstructure:"destination" yaml:"destination"`
	Extension   string `mapstructure:"extension" yaml:"extension"`
	Manifest    string `mapstructure:"manifest" yaml:"manifest"`
	Verbose     bool   `mapstructure:"verbose" yaml:"verbose"`

	// SkipCheckpoints leaves .ipynb_checkpoints directories out of runs
	SkipCheckpoints bool `mapstructure:"skip_checkpoints" yaml:"skip_checkpoints"`

	// File is the config file that was read, if any
	File string `mapstructure:"-" yaml:"-"`
}

// DefaultConfig values. The run manifest is off unless a path is set.
var DefaultConfig = Config{
	Source:      "notebooks",
	Destination: "site/content/docs",
	Extension:   ".ipynb",
}

// SuggestedManifest is the manifest path documented for users turning it on
var SuggestedManifest = filepath.Join(".nbsite", "manifest.yaml")

const (
	configName = "nbsite"
	envPrefix  = "NBSITE"
)

// flagKeys maps CLI flag names to config keys
var flagKeys = map[string]string{
	"source":    "source",
	"dest":      "destination",
	"extension": "extension",
	"manifest":  "manifest",
	"verbose":   "verbose",

	"skip-checkpoints": "skip_checkpoints",
}

// LoadConfig resolves the configuration from flags, NBSITE_* environment
// variables, a config file and defaults, in that order of precedence.
// An explicit cfgFile must exist; otherwise nbsite.{yaml,yml,json,toml} is
// looked up in dir and skipped when absent.
func LoadConfig(flags *pflag.FlagSet, cfgFile, dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("source", DefaultConfig.Source)
	v.SetDefault("destination", DefaultConfig.Destination)
	v.SetDefault("extension", DefaultConfig.Extension)
	v.SetDefault("manifest", DefaultConfig.Manifest)
	v.SetDefault("verbose", DefaultConfig.Verbose)
	v.SetDefault("skip_checkpoints", DefaultConfig.SkipCheckpoints)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Key: "config", Err: err}
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &ConfigError{Key: "config", Err: err}
			}
			LogDebug("No %s config file found in %s, using defaults", configName, dir)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Key: "config", Err: fmt.Errorf("unable to decode: %w", err)}
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values a run cannot work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return &ConfigError{Key: "source", Err: errors.New("must not be empty")}
	}
	if strings.TrimSpace(c.Destination) == "" {
		return &ConfigError{Key: "destination", Err: errors.New("must not be empty")}
	}
	if len(c.Extension) < 2 || !strings.HasPrefix(c.Extension, ".") {
		return &ConfigError{Key: "extension", Err: fmt.Errorf("%q must start with a dot", c.Extension)}
	}
	if filepath.Clean(c.Source) == filepath.Clean(c.Destination) {
		return &ConfigError{Key: "destination", Err: errors.New("must differ from source")}
	}
	return nil
}

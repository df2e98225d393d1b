// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config layers the engine configuration: built-in defaults, then
// the YAML config file, then INTEL_ENGINE_* environment variables, then
// bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// Name is the config file base name and the directory name under
// ~/.config.
const Name = "intel-engine"

// EnvPrefix prefixes environment overrides; "oracle.host" is read from
// INTEL_ENGINE_ORACLE_HOST.
const EnvPrefix = "INTEL_ENGINE"

// Init points v at the config file and environment and reads the file if
// one exists. An explicit cfgFile must exist. It returns the file used, or
// "" when running on defaults.
func Init(v *viper.Viper, cfgFile string) (string, error) {
	if err := SetDefaults(v, types.DefaultConfig()); err != nil {
		return "", err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// SetDefaults registers every field of cfg as a viper default so that
// environment variables can override keys the file does not mention.
func SetDefaults(v *viper.Viper, cfg types.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decoding defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Load decodes v into a Config. Keys use the YAML field names; embedded
// settings structs are flattened. Defaults come from v, so Init or
// SetDefaults must run first.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.Squash = true
	})
	if err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func Validate(cfg types.Config) error {
	var errs []error
	if cfg.Store.DataDir == "" || cfg.Store.DBName == "" {
		errs = append(errs, errors.New("store.data_dir and store.db_name are required"))
	}
	if cfg.Brief.Hours < 0 || cfg.Brief.ReportHours < 0 {
		errs = append(errs, errors.New("brief windows must not be negative"))
	}
	if cfg.Geo.CloudMax < 0 || cfg.Geo.CloudMax > 100 {
		errs = append(errs, fmt.Errorf("geo.cloud_max %v outside [0,100]", cfg.Geo.CloudMax))
	}
	for i, f := range cfg.Cyber.Feeds {
		if f.Name == "" || f.URL == "" {
			errs = append(errs, fmt.Errorf("cyber.feeds[%d]: name and url are required", i))
		}
	}
	for _, d := range cfg.Sweep.Domains {
		if _, err := types.ParseCategory(d); err != nil {
			errs = append(errs, fmt.Errorf("sweep.domains: %w", err))
		}
	}
	return errors.Join(errs...)
}

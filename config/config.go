// Package config loads the service configuration from a yaml or json file
// with optional environment overrides (FS_ prefix, __ as the key separator).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fieldserve/dispatch/core/factory"
	"github.com/fieldserve/dispatch/core/metrics"
	"github.com/fieldserve/dispatch/core/recommend"
	"github.com/fieldserve/dispatch/infra/notify"
)

type Config struct {
	Recommend recommend.Config     `json:"recommend"`
	Geocoder  factory.ModuleConfig `json:"geocoder"`
	Metrics   metrics.Config       `json:"metrics"`
	Notify    notify.Config        `json:"notify"`
	Logging   LoggingConfig        `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Recommend.SetDefaults()
	if cfg.Geocoder.Type == "" {
		cfg.Geocoder.Type = "static"
	}
	cfg.Notify.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

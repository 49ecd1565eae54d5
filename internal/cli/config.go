package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigFile is read from the working directory when --config is not set.
const DefaultConfigFile = "smartcoll.toml"

// EnvPrefix prefixes environment overrides. SMARTCOLL_LOG_LEVEL maps to log.level.
const EnvPrefix = "SMARTCOLL_"

// Config holds settings shared by all commands.
type Config struct {
	DB     string `koanf:"db"`
	Specs  string `koanf:"specs"`
	Format string `koanf:"format"`
	Log    struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func defaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"db":        "smartcoll.db",
		"specs":     "",
		"format":    "text",
		"log.level": "warn",
	}
}

// LoadConfig layers defaults, the TOML file and environment variables, in
// that order. An explicit path must exist; the default file is optional.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfig(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return &cfg, nil
}

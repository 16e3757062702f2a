package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/ckit-sh/ckit/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// ConfigFileNames are probed at the install root in order; the first
// match wins.
var ConfigFileNames = []string{".ckit.toml", "ckit.toml"}

const envPrefix = "CKIT_"

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Load builds the effective configuration for an install root: embedded
// defaults first, then the root's config file, then CKIT_ environment
// variables.
func Load(root string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load system defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad,
			"failed to load defaults")
	}

	// 2. Load root config if it exists
	if root != "" {
		for _, filename := range ConfigFileNames {
			path := filepath.Join(root, filename)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse,
					"failed to load config from %s", path)
			}
			break
		}
	}

	// 3. Load env vars
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad,
			"failed to load environment variables")
	}

	return unmarshal(k)
}

// envKey maps CKIT_DIFF__CONTEXT_LINES to diff.context_lines. Double
// underscores separate sections so single underscores survive inside
// key names.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func parseDefaults() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad,
			"failed to load defaults")
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse,
			"failed to unmarshal configuration")
	}
	return &cfg, nil
}

package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. BVHTOOLKIT_REMAP_STRIDE.
const EnvPrefix = "BVHTOOLKIT_"

// EnvConfigFile names the variable holding an optional YAML config path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// sections are the nested config blocks addressable from the environment.
var sections = []string{"extract", "remap", "metrics"}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if BVHTOOLKIT_CONFIG is set
//  3. env (prefix BVHTOOLKIT_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// BVHTOOLKIT_REMAP_STRIDE -> remap.stride, BVHTOOLKIT_LOG_LEVEL -> log_level.
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *New()
	// Vector keys decode element-wise onto existing slices, so drop the
	// defaults and restore them only if nothing was configured.
	cfg.Remap.Scale, cfg.Remap.LateralAxis = nil, nil
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf(&cfg)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	defaults := New()
	if cfg.Remap.Scale == nil {
		cfg.Remap.Scale = defaults.Remap.Scale
	}
	if cfg.Remap.LateralAxis == nil {
		cfg.Remap.LateralAxis = defaults.Remap.LateralAxis
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// unmarshalConf extends koanf's default decoder so env values such as
// BVHTOOLKIT_REMAP_SCALE=1,1,1.2 fill slice fields.
func unmarshalConf(out *Config) koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				commaSliceHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc()),
			Result:           out,
			WeaklyTypedInput: true,
		},
	}
}

// commaSliceHookFunc splits a comma separated string bound for any slice
// type. Elements are then converted by the weakly typed decoder.
func commaSliceHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(s, section+"_"); ok {
			return section + "." + rest
		}
	}
	return s
}

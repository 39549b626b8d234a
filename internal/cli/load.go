package cli

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/saferstep/internal/model"
)

// loadConfig resolves the effective configuration from v on top of the
// built-in defaults, then fills provider credentials from their usual
// environment variables.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()

	setDefaults(v, cfg)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyProviderEnv(cfg)

	if v.GetBool("verbose") {
		cfg.Log.Level = "debug"
		cfg.Log.Pretty = true
	}

	return cfg, nil
}

// setDefaults registers every mapstructure key of cfg with v, empty values
// included, so that SAFERSTEP_* env variables are honored for keys absent
// from the config file.
func setDefaults(v *viper.Viper, cfg *model.Config) {
	setDefaultsFrom(v, "", reflect.ValueOf(cfg).Elem())
}

func setDefaultsFrom(v *viper.Viper, prefix string, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		key, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if key == "" || key == "-" || !field.IsExported() {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		fv := val.Field(i)
		if fv.Kind() == reflect.Struct {
			setDefaultsFrom(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}

// applyProviderEnv reads the conventional credential variables when no key
// was configured explicitly.
func applyProviderEnv(cfg *model.Config) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// redacted returns a copy of cfg safe to print.
func redacted(cfg *model.Config) *model.Config {
	cp := *cfg
	if cp.LLM.APIKey != "" {
		cp.LLM.APIKey = "<redacted>"
	}
	return &cp
}

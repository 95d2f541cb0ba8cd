package config

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jorge-barreto/sitepatch/internal/grammar"
)

var validModels = map[string]bool{
	"":       true,
	"opus":   true,
	"sonnet": true,
	"haiku":  true,
}

var validLevels = map[string]bool{
	"":      true,
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config, projectRoot string) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("config: 'name' is required")
	}

	if cfg.Entry != "" {
		entry := grammar.NormalizePath(cfg.Entry)
		if entry == "" {
			return fmt.Errorf("config: 'entry' %q is not a usable file path", cfg.Entry)
		}
		cfg.Entry = entry
	}

	if err := newValidator().Struct(cfg); err != nil {
		return describe(err)
	}

	if !validModels[cfg.Generator.Model] && !strings.HasPrefix(cfg.Generator.Model, "claude-") {
		return fmt.Errorf("config: generator: unknown model %q (valid: opus, sonnet, haiku or a claude-* id)", cfg.Generator.Model)
	}

	applyDefaults(cfg)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Entry == "" {
		cfg.Entry = "index.html"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverFiles
	}
	if cfg.Store.Path == "" {
		if cfg.Store.Driver == DriverSQLite {
			cfg.Store.Path = path.Join(Dir, "site.db")
		} else {
			cfg.Store.Path = "site"
		}
	}
	if cfg.Checkpoints.CompressionLevel == 0 {
		cfg.Checkpoints.CompressionLevel = 3
	}
	if cfg.Generator.Command == "" {
		cfg.Generator.Command = "claude"
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = 10
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 150
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return validLevels[strings.ToLower(fl.Field().String())]
	})
	return v
}

// describe turns validator errors into one "config: ..." message naming
// the first offending field by its YAML key.
func describe(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("config: %w", err)
	}
	e := errs[0]
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Errorf("config: '%s' is required", field)
	case "oneof":
		return fmt.Errorf("config: '%s' must be one of [%s], got %q", field, e.Param(), e.Value())
	case "min", "max":
		return fmt.Errorf("config: '%s' must be %s %s, got %v", field, boundWord(e.Tag()), e.Param(), e.Value())
	case "loglevel":
		return fmt.Errorf("config: '%s' is not a log level (trace, debug, info, warn, error), got %q", field, e.Value())
	default:
		return fmt.Errorf("config: '%s' failed %q validation", field, e.Tag())
	}
}

func boundWord(tag string) string {
	if tag == "min" {
		return "at least"
	}
	return "at most"
}

// Package config loads bookshelf settings from an optional YAML file and
// BOOKSHELF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given. A missing file at the
// default path is not an error.
const DefaultPath = "bookshelf.yaml"

const envPrefix = "BOOKSHELF_"

// Config is the full set of runtime settings.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Websocket WebsocketConfig `yaml:"websocket"`

	// Seed controls whether the list starts with the four sample books.
	Seed bool `yaml:"seed"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
	// Mode is the gin mode: debug, release or test.
	Mode string `yaml:"mode" validate:"oneof=debug release test"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"loglevel"`
	Format string `yaml:"format" validate:"oneof=text json"`
	// File receives log output instead of stderr. The terminal UI always
	// logs to a file or nowhere.
	File string `yaml:"file"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type WebsocketConfig struct {
	// Buffer is the number of pending snapshots kept per client before
	// older ones are dropped.
	Buffer int `yaml:"buffer" validate:"gte=1"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Websocket: WebsocketConfig{
			Buffer: 8,
		},
		Seed: true,
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. An empty path means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(envPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("ADDR", &c.Server.Addr)
	str("MODE", &c.Server.Mode)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	str("METRICS_PATH", &c.Metrics.Path)
	if err := boolean("METRICS_ENABLED", &c.Metrics.Enabled); err != nil {
		return err
	}
	if err := boolean("SEED", &c.Seed); err != nil {
		return err
	}
	if v, ok := lookup(envPrefix + "WS_BUFFER"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWS_BUFFER: %w", envPrefix, err)
		}
		c.Websocket.Buffer = n
	}
	return nil
}

// validate checks the struct tags below. Field names in errors are the YAML
// keys, so messages point at the line to fix.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, err := ParseLogLevel(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("config: register loglevel validation: %v", err))
	}
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		m := sl.Current().Interface().(MetricsConfig)
		if m.Enabled && !strings.HasPrefix(m.Path, "/") {
			sl.ReportError(m.Path, "path", "Path", "abspath", "")
		}
	}, MetricsConfig{})
	return v
}

// ParseLogLevel maps a log.level value to its slog.Level. An empty name means
// info.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate config: %w", err)
	}
	fe := verrs[0]
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return fmt.Errorf("%s %v: must satisfy %s=%s", key, fe.Value(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%s %v: must satisfy %s", key, fe.Value(), fe.Tag())
}

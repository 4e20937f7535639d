// Package settings loads the application settings file.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a settings file that decodes but fails validation.
var ErrInvalid = errors.New("invalid settings")

// Settings holds the tunables shared by every command.
type Settings struct {
	// GlobalTimeout applies to generators that declare no timeout. Zero is unbounded.
	GlobalTimeout time.Duration `mapstructure:"global_timeout" json:"global_timeout"`
	TickInterval  time.Duration `mapstructure:"tick_interval" json:"tick_interval"`
	LogHistory    int           `mapstructure:"log_history" json:"log_history"`
	ScratchDir    string        `mapstructure:"scratch_dir" json:"scratch_dir"`
	GeneratorsDir string        `mapstructure:"generators_dir" json:"generators_dir"`
	OutputDir     string        `mapstructure:"output_dir" json:"output_dir"`
	Listen        string        `mapstructure:"listen" json:"listen"`
	Redis         Redis         `mapstructure:"redis" json:"redis"`
	Logging       Logging       `mapstructure:"logging" json:"logging"`
}

// Redis configures the shared project store used by serve.
type Redis struct {
	Addr     string `mapstructure:"addr" json:"addr"`
	Password string `mapstructure:"password" json:"password"`
	DB       int    `mapstructure:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" json:"prefix"`
}

type Logging struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// Defaults returns the settings used when no file is given.
func Defaults() Settings {
	return Settings{
		TickInterval: domain.DefaultTickInterval,
		LogHistory:   domain.DefaultLogHistory,
		Listen:       ":8080",
		Redis:        Redis{Prefix: "mediabridge:project:"},
		Logging:      Logging{Level: "warn", Format: string(logging.FormatText)},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := s.decode(data); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, s.Validate()
}

func (s *Settings) decode(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		ErrorUnused: true,
		Result:      s,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return nil
}

// secondsToDurationHook reads bare numbers as seconds, matching the
// generator document's timeout field.
func secondsToDurationHook(from, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

// Validate checks ranges and enumerations.
func (s Settings) Validate() error {
	var errs []error
	if s.GlobalTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: global_timeout must be non-negative", ErrInvalid))
	}
	if s.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: tick_interval must be positive", ErrInvalid))
	}
	if s.LogHistory < 1 {
		errs = append(errs, fmt.Errorf("%w: log_history must be at least 1", ErrInvalid))
	}
	if s.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("%w: redis.db must be non-negative", ErrInvalid))
	}
	if _, err := s.Level(); err != nil {
		errs = append(errs, err)
	}
	switch logging.Format(strings.ToLower(s.Logging.Format)) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: invalid log format: %s", ErrInvalid, s.Logging.Format))
	}
	return errors.Join(errs...)
}

// Level returns the configured log level.
func (s Settings) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: invalid log level: %s", ErrInvalid, s.Logging.Level)
	}
	return l, nil
}

// Format returns the configured log handler format.
func (s Settings) Format() logging.Format {
	return logging.Format(strings.ToLower(s.Logging.Format))
}

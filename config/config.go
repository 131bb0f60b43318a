// Package config loads the settings shared by the blocks programs from flags,
// BLOCKS_* environment variables, an optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/plus3/blocks/game"
	"github.com/plus3/blocks/playfield"
	"github.com/plus3/blocks/shape"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const EnvPrefix = "BLOCKS"

// Keys
const (
	KeyConfig         = "config"
	KeySystem         = "system"
	KeySeed           = "seed"
	KeyRows           = "rows"
	KeyCols           = "cols"
	KeyDropDelay      = "drop-delay"
	KeyShiftDelay     = "shift-delay"
	KeyQuickDropDelay = "quick-drop-delay"
	KeyLogLevel       = "log-level"
)

type Config struct {
	System   shape.System
	Seed     uint64
	Rows     int
	Cols     int
	Timing   game.Timing
	LogLevel log.Level
}

// SessionOptions turns the configuration into game.NewSession options. A zero
// seed leaves the session on a wall-clock seed.
func (c *Config) SessionOptions() []game.Option {
	opts := []game.Option{
		game.WithSystem(c.System),
		game.WithGridSize(c.Rows, c.Cols),
	}
	if c.Seed != 0 {
		opts = append(opts, game.WithSeed(c.Seed))
	}
	return opts
}

// RegisterFlags adds the shared flags to a command's flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	timing := game.DefaultTiming()

	flags.String(KeyConfig, "", "config file (yaml, toml or json)")
	flags.String(KeySystem, shape.SRS.String(), "rotation system: srs or nes")
	flags.Uint64(KeySeed, 0, "piece sequence seed, 0 for a time based seed")
	flags.Int(KeyRows, playfield.DefaultRows, "grid rows including the floor")
	flags.Int(KeyCols, playfield.DefaultCols, "grid columns including both walls")
	flags.Duration(KeyDropDelay, timing.DropDelay, "gravity interval")
	flags.Duration(KeyShiftDelay, timing.ShiftDelay, "repeat interval of held left/right")
	flags.Duration(KeyQuickDropDelay, timing.QuickDropDelay, "repeat interval of held soft drop")
	flags.String(KeyLogLevel, "info", "log level: debug, info, warn or error")
}

// Load reads a .env file when present, binds flags and environment, reads the
// config file named by the config key and validates the result.
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	return parse(v)
}

func parse(v *viper.Viper) (*Config, error) {
	timing := game.DefaultTiming()
	v.SetDefault(KeySystem, shape.SRS.String())
	v.SetDefault(KeyRows, playfield.DefaultRows)
	v.SetDefault(KeyCols, playfield.DefaultCols)
	v.SetDefault(KeyDropDelay, timing.DropDelay)
	v.SetDefault(KeyShiftDelay, timing.ShiftDelay)
	v.SetDefault(KeyQuickDropDelay, timing.QuickDropDelay)
	v.SetDefault(KeyLogLevel, "info")

	sys, err := shape.ParseSystem(v.GetString(KeySystem))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	level, err := log.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := &Config{
		System: sys,
		Seed:   v.GetUint64(KeySeed),
		Rows:   v.GetInt(KeyRows),
		Cols:   v.GetInt(KeyCols),
		Timing: game.Timing{
			DropDelay:      v.GetDuration(KeyDropDelay),
			ShiftDelay:     v.GetDuration(KeyShiftDelay),
			QuickDropDelay: v.GetDuration(KeyQuickDropDelay),
		},
		LogLevel: level,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// Room for the hidden rows, one visible row, the floor and a 4 wide piece.
	if c.Rows < playfield.HiddenRows+2 {
		return fmt.Errorf("%w: rows must be at least %d, got %d", ErrInvalidConfig, playfield.HiddenRows+2, c.Rows)
	}
	if c.Cols < 6 {
		return fmt.Errorf("%w: cols must be at least 6, got %d", ErrInvalidConfig, c.Cols)
	}
	for name, d := range map[string]time.Duration{
		KeyDropDelay:      c.Timing.DropDelay,
		KeyShiftDelay:     c.Timing.ShiftDelay,
		KeyQuickDropDelay: c.Timing.QuickDropDelay,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, name, d)
		}
	}
	return nil
}

// NewLogger returns a timestamped logger writing to w with the given prefix.
func NewLogger(w io.Writer, prefix string, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
}

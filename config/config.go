// Package config holds the client's externally supplied settings.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/plus3/blockfall/board"
)

const envPrefix = "BLOCKFALL_"

type Config struct {
	ServerURL string
	Username  string
	// ShapeLockTime only scales the render-time lock fraction.
	ShapeLockTime time.Duration
	GridWidth     int
	GridHeight    int
	LogLevel      string
	Debug         bool
}

func Default() Config {
	return Config{
		ServerURL:     "ws://localhost:7777/play",
		Username:      "player",
		ShapeLockTime: 500 * time.Millisecond,
		GridWidth:     board.DefaultWidth,
		GridHeight:    board.DefaultHeight,
		LogLevel:      "info",
	}
}

// Load starts from Default, applies BLOCKFALL_* environment overrides and
// then command line flags, and validates the result.
func Load(args []string) (Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("blockfall", flag.ContinueOnError)
	cfg.Bind(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Bind registers a flag for every field, defaulting to the current values.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.ServerURL, "server", c.ServerURL, "websocket URL of the game server")
	fs.StringVar(&c.Username, "name", c.Username, "display name")
	fs.DurationVar(&c.ShapeLockTime, "lock-time", c.ShapeLockTime, "shape lock animation duration")
	fs.IntVar(&c.GridWidth, "width", c.GridWidth, "grid width in cells")
	fs.IntVar(&c.GridHeight, "height", c.GridHeight, "grid height in cells")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "show the board inspector")
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(envPrefix + "SERVER"); v != "" {
		c.ServerURL = v
	}
	if v := getenv(envPrefix + "NAME"); v != "" {
		c.Username = v
	}
	if v := getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv(envPrefix + "LOCK_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sLOCK_TIME: %w", envPrefix, err)
		}
		c.ShapeLockTime = d
	}
	if v := getenv(envPrefix + "DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", envPrefix, err)
		}
		c.Debug = b
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.ServerURL == "" {
		errs = append(errs, errors.New("server URL is required"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.ShapeLockTime <= 0 {
		errs = append(errs, fmt.Errorf("lock time must be positive, got %s", c.ShapeLockTime))
	}
	if c.GridWidth < 4 || c.GridHeight < 4 {
		errs = append(errs, fmt.Errorf("grid must be at least 4x4, got %dx%d", c.GridWidth, c.GridHeight))
	}
	return errors.Join(errs...)
}

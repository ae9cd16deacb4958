// Package config resolves the run configuration: built-in defaults,
// overlaid by the optional user defaults file, overlaid by command-line
// flags. The result is immutable for the whole run.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	prismerr "github.com/arthur-debert/prism/pkg/errors"
	"github.com/arthur-debert/prism/pkg/logging"
)

// Config holds every knob of a run. Fields tagged toml can be given
// defaults in the user config file; the rest only make sense per
// invocation.
type Config struct {
	// Spread is how many characters one color-wheel step stretches over.
	Spread float64 `toml:"spread"`
	// Freq is the overall rate of hue change along the stream.
	Freq float64 `toml:"freq"`
	// Seed fixes the starting phase; 0 picks one from the clock.
	Seed uint64 `toml:"seed"`
	// Duration is the animation length in frames.
	Duration int `toml:"duration"`
	// Speed is the animation rate in frames per second.
	Speed float64 `toml:"speed"`
	// Invert colors the background instead of the foreground.
	Invert bool `toml:"invert"`
	// TrueColor forces 24-bit output.
	TrueColor bool `toml:"truecolor"`
	// Force colors even when stdout is not a terminal.
	Force bool `toml:"force"`
	// NoColor disables coloring entirely.
	NoColor bool `toml:"no_color"`

	Animate bool     `toml:"-"`
	Debug   bool     `toml:"-"`
	Files   []string `toml:"-"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Spread:   3.0,
		Freq:     0.1,
		Seed:     0,
		Duration: 12,
		Speed:    20.0,
	}
}

// Load returns the defaults overlaid with the user defaults file, if one
// exists at $XDG_CONFIG_HOME/prism/config.toml.
func Load() (Config, error) {
	return loadFrom(userConfigPath())
}

func loadFrom(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, prismerr.Wrapf(err, prismerr.ErrConfigLoad, "reading config file %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, prismerr.Wrapf(err, prismerr.ErrConfigLoad, "parsing config file %s", path)
	}

	logger := logging.GetLogger("config")
	logger.Debug().Str("path", path).Msg("Loaded user defaults")
	return cfg, nil
}

func userConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "prism", "config.toml")
}

// Validate rejects values the color pipeline cannot work with. In
// particular a near-zero spread would divide the gradient step by zero.
func (c *Config) Validate() error {
	if c.Spread < 0.1 {
		return prismerr.New(prismerr.ErrConfigValid, "--spread must be >= 0.1")
	}
	if c.Speed < 0.1 {
		return prismerr.New(prismerr.ErrConfigValid, "--speed must be >= 0.1")
	}
	if c.Duration < 1 {
		return prismerr.New(prismerr.ErrConfigValid, "--duration must be >= 1")
	}
	return nil
}

// FrameInterval is the wait between animation frames.
func (c Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Speed)
}

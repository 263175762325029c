/*
Package config holds the configuration of a projector and of the browser it
may drive, read from YAML.

A configuration file looks like this:

	render:
	  recompute_interval: 10ms
	  event_classes: [click, keydown]
	browser:
	  remote: ws://127.0.0.1:9222/devtools/browser/…
	  viewport: { width: 1280, height: 800 }

Missing values are set to defaults.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"
)

// tracer traces with key 'sdom.config'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.config")
}

// ErrLoad is returned if a configuration cannot be read or decoded.
var ErrLoad = errors.New("config: cannot load configuration")

// ErrInvalid is returned for configurations with illegal values.
var ErrInvalid = errors.New("config: invalid configuration")

// DefaultRecomputeInterval is the window in which requests for re-sampling
// geometry are coalesced.
const DefaultRecomputeInterval = 10 * time.Millisecond

// Config is the top-level configuration.
type Config struct {
	Render  Render  `yaml:"render"`
	Browser Browser `yaml:"browser"`
}

// Render configures a projector.
type Render struct {
	RecomputeInterval time.Duration `yaml:"recompute_interval"`
	// EventClasses are the native event types to listen to. Empty means the
	// default set.
	EventClasses []string `yaml:"event_classes"`
}

// Browser controls the lifecycle of a headless browser.
type Browser struct {
	Bin         string        `yaml:"bin"`    // browser binary; empty for auto-download
	Remote      string        `yaml:"remote"` // connect to a running browser instead
	Headful     bool          `yaml:"headful"`
	NoSandbox   bool          `yaml:"no_sandbox"`
	UserDataDir string        `yaml:"user_data_dir"`
	Timeout     time.Duration `yaml:"timeout"`
	Viewport    Viewport      `yaml:"viewport"`
}

// Viewport is the size of a browser page, in CSS pixels.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Default returns a configuration with all values set to defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	tracer().Infof("loading configuration from %s", path)
	return Parse(data)
}

// Parse decodes a YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Render.RecomputeInterval < 0 {
		return fmt.Errorf("%w: negative recompute interval %v", ErrInvalid, c.Render.RecomputeInterval)
	}
	if c.Browser.Viewport.Width < 0 || c.Browser.Viewport.Height < 0 {
		return fmt.Errorf("%w: negative viewport %dx%d", ErrInvalid,
			c.Browser.Viewport.Width, c.Browser.Viewport.Height)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Render.RecomputeInterval == 0 {
		c.Render.RecomputeInterval = DefaultRecomputeInterval
	}
	if c.Browser.Timeout <= 0 {
		c.Browser.Timeout = 30 * time.Second
	}
	if c.Browser.Viewport.Width == 0 {
		c.Browser.Viewport.Width = 1280
	}
	if c.Browser.Viewport.Height == 0 {
		c.Browser.Viewport.Height = 800
	}
}

// String returns the configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config error: %v", err)
	}
	return string(out)
}

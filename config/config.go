// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the YAML runtime configuration. Pin numbers and
// the SPI device path are wiring facts, not preferences, and stay
// compile-time constants in the driver.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy names accepted in the config file.
const (
	StrategySpinner = "spinner"
	StrategyPattern = "pattern"
	StrategyBanner  = "banner"
)

// Config is the application configuration.
type Config struct {
	// Interval is the pause between quick refreshes.
	Interval time.Duration `yaml:"interval"`

	// Strategy selects the frame source: spinner, pattern, or banner.
	Strategy string `yaml:"strategy"`

	// BannerPath is the image file for the banner strategy.
	BannerPath string `yaml:"banner_path,omitempty"`

	// TimeFormat is the time.Time layout the spinner renders.
	TimeFormat string `yaml:"time_format"`

	// Rotation orients the framebuffer: 0, 90, 180 or 270 degrees.
	Rotation int `yaml:"rotation"`

	// Listen is the echo listener address. Empty disables it.
	Listen string `yaml:"listen,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Interval:   500 * time.Millisecond,
		Strategy:   StrategySpinner,
		TimeFormat: "15:04:05",
		Rotation:   270,
	}
}

// Normalize fills zero values and rejects values that have no safe
// fallback.
func (c *Config) Normalize() error {
	if c.Interval <= 0 {
		c.Interval = 500 * time.Millisecond
	}
	switch c.Strategy {
	case StrategySpinner, StrategyPattern:
	case "":
		c.Strategy = StrategySpinner
	case StrategyBanner:
		if c.BannerPath == "" {
			return errors.New("strategy banner needs banner_path")
		}
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.TimeFormat == "" {
		c.TimeFormat = "15:04:05"
	}
	switch c.Rotation {
	case 90, 180, 270:
	case 0:
		c.Rotation = 270
	default:
		return fmt.Errorf("rotation %d not a multiple of 90", c.Rotation)
	}
	return nil
}

// Load reads the configuration at path. On first run the file does not
// exist yet: the default config is written there with 0600 perms and
// returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically: temp file in the same directory,
// 0600, then rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".inkclock-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

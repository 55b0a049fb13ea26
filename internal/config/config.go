// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads and saves the inkling configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Transport names
const (
	TransportRFCOMM    = "rfcomm"
	TransportSerial    = "serial"
	TransportWebSocket = "websocket"
	TransportWired     = "wired"
)

// Config is the top-level configuration file.
type Config struct {
	LogLevel string          `yaml:"log_level" toml:"log_level"`
	LogFile  string          `yaml:"log_file" toml:"log_file"`
	Displays []DisplayConfig `yaml:"displays" toml:"displays"`
	Watch    WatchConfig     `yaml:"watch" toml:"watch"`
}

// DisplayConfig describes one panel and how to reach it.
type DisplayConfig struct {
	Name      string `yaml:"name" toml:"name"`
	Model     string `yaml:"model" toml:"model"`
	Color     string `yaml:"color" toml:"color"`
	Transport string `yaml:"transport" toml:"transport"`

	// rfcomm
	Address string `yaml:"address,omitempty" toml:"address,omitempty"`
	Channel uint8  `yaml:"channel,omitempty" toml:"channel,omitempty"` // 0 = discover via SDP

	// serial
	Port string `yaml:"port,omitempty" toml:"port,omitempty"`
	Baud int    `yaml:"baud,omitempty" toml:"baud,omitempty"`

	// websocket
	URL         string `yaml:"url,omitempty" toml:"url,omitempty"`
	Username    string `yaml:"username,omitempty" toml:"username,omitempty"`
	NoSSLVerify bool   `yaml:"no_ssl_verify,omitempty" toml:"no_ssl_verify,omitempty"`

	// wired
	Wiring WiringConfig `yaml:"wiring,omitempty" toml:"wiring,omitempty"`
	Border int          `yaml:"border,omitempty" toml:"border,omitempty"`

	HFlip bool `yaml:"hflip" toml:"hflip"`
	VFlip bool `yaml:"vflip" toml:"vflip"`

	Quiescence   string `yaml:"quiescence" toml:"quiescence"`
	PollInterval string `yaml:"poll_interval" toml:"poll_interval"`
	Timeout      string `yaml:"timeout" toml:"timeout"`
}

// WiringConfig names the SPI port and GPIO pins of a wired panel.
type WiringConfig struct {
	SPI  string `yaml:"spi,omitempty" toml:"spi,omitempty"`
	DC   string `yaml:"dc,omitempty" toml:"dc,omitempty"`
	CS   string `yaml:"cs,omitempty" toml:"cs,omitempty"`
	RST  string `yaml:"rst,omitempty" toml:"rst,omitempty"`
	Busy string `yaml:"busy,omitempty" toml:"busy,omitempty"`
}

// WatchConfig drives `inkling watch`.
type WatchConfig struct {
	Cron  string `yaml:"cron" toml:"cron"`
	Image string `yaml:"image" toml:"image"`
}

// DefaultConfig returns a config with one placeholder RFCOMM display.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Displays: []DisplayConfig{{
			Name:      "default",
			Model:     "epd7in5b",
			Color:     "red",
			Transport: TransportRFCOMM,
		}},
		Watch: WatchConfig{Cron: "*/15 * * * *"},
	}
}

// Normalize fills defaults in place.
func (c *Config) Normalize() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Watch.Cron == "" {
		c.Watch.Cron = "*/15 * * * *"
	}
	for i := range c.Displays {
		c.Displays[i].normalize(i)
	}
}

func (d *DisplayConfig) normalize(i int) {
	if d.Name == "" {
		d.Name = fmt.Sprintf("display%d", i)
	}
	if d.Color == "" {
		d.Color = "black"
	}
	d.Transport = strings.ToLower(d.Transport)
	if d.Transport == "" {
		d.Transport = TransportRFCOMM
	}
	if d.Baud == 0 {
		d.Baud = 115200
	}
	if d.Quiescence == "" {
		d.Quiescence = "10ms"
	}
	if d.PollInterval == "" {
		d.PollInterval = "100ms"
	}
	if d.Timeout == "" {
		d.Timeout = "60s"
	}
}

// Validate reports the first display entry that cannot be used.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Displays))
	for _, d := range c.Displays {
		if seen[d.Name] {
			return fmt.Errorf("config: duplicate display name %q", d.Name)
		}
		seen[d.Name] = true
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that the transport has the fields it needs and that the
// durations parse.
func (d DisplayConfig) Validate() error {
	if d.Model == "" {
		return fmt.Errorf("config: display %q: model is required", d.Name)
	}
	switch d.Transport {
	case TransportRFCOMM:
		if d.Address == "" {
			return fmt.Errorf("config: display %q: rfcomm transport needs an address", d.Name)
		}
	case TransportSerial:
		if d.Port == "" {
			return fmt.Errorf("config: display %q: serial transport needs a port", d.Name)
		}
	case TransportWebSocket:
		if d.URL == "" {
			return fmt.Errorf("config: display %q: websocket transport needs a url", d.Name)
		}
	case TransportWired:
	default:
		return fmt.Errorf("config: display %q: unknown transport %q", d.Name, d.Transport)
	}
	for field, v := range map[string]string{
		"quiescence":    d.Quiescence,
		"poll_interval": d.PollInterval,
		"timeout":       d.Timeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("config: display %q: %s: %w", d.Name, field, err)
		}
	}
	return nil
}

// Durations returns the parsed quiescence, poll interval and transfer
// timeout. Empty values yield zero.
func (d DisplayConfig) Durations() (quiescence, poll, timeout time.Duration, err error) {
	if quiescence, err = parseDuration(d.Quiescence); err != nil {
		return 0, 0, 0, err
	}
	if poll, err = parseDuration(d.PollInterval); err != nil {
		return 0, 0, 0, err
	}
	if timeout, err = parseDuration(d.Timeout); err != nil {
		return 0, 0, 0, err
	}
	return quiescence, poll, timeout, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Display returns the entry with the given name. An empty name selects the
// first entry.
func (c *Config) Display(name string) (DisplayConfig, error) {
	if len(c.Displays) == 0 {
		return DisplayConfig{}, errors.New("config: no displays configured")
	}
	if name == "" {
		return c.Displays[0], nil
	}
	for _, d := range c.Displays {
		if d.Name == name {
			return d, nil
		}
	}
	return DisplayConfig{}, fmt.Errorf("config: display %q not found", name)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads the config at path. A missing file is created with defaults.
func Load(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(fsys, path, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
func Save(fsys afero.Fs, path string, cfg *Config) error {
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmp, err := afero.TempFile(fsys, dir, ".inkling-config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = fsys.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("config: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("config: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp: %w", err)
	}
	if err := fsys.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("config: chmod temp: %w", err)
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		return fmt.Errorf("config: rename: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.config/inkling/config.yaml, falling back to the
// working directory when the user config dir is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "inkling.yaml"
	}
	return filepath.Join(dir, "inkling", "config.yaml")
}

// Package config manages the CLI's profile configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds CLI profiles and defaults, persisted to
// $HOME/.parley/config.yaml.
type Config struct {
	CurrentProfile string              `yaml:"current_profile"`
	Profiles       map[string]*Profile `yaml:"profiles"`
	Defaults       *Defaults           `yaml:"defaults"`
	path           string
}

// Profile holds endpoint and token configuration for one hub.
type Profile struct {
	HubURL      string `yaml:"hub_url"`
	AccessToken string `yaml:"access_token"`
}

// Defaults holds fallback endpoints when no profile matches.
type Defaults struct {
	HubURL string `yaml:"hub_url"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		CurrentProfile: "default",
		Profiles:       make(map[string]*Profile),
		Defaults: &Defaults{
			HubURL: "http://localhost:8080",
		},
	}
}

// Load reads the config file at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".parley", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = path
			return cfg, nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = path
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if c.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(home, ".parley", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// SaveProfile stores a token under the named profile and makes it current.
func (c *Config) SaveProfile(name, hubURL, accessToken string) error {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile)
	}

	c.Profiles[name] = &Profile{
		HubURL:      hubURL,
		AccessToken: accessToken,
	}
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile returns the named profile, or the current one when name is "".
func (c *Config) GetProfile(name string) (*Profile, error) {
	if name == "" {
		name = c.CurrentProfile
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}
	return profile, nil
}

// HubURL resolves the hub endpoint from the profile or defaults.
func (c *Config) HubURL(profile string) string {
	if p, err := c.GetProfile(profile); err == nil && p.HubURL != "" {
		return p.HubURL
	}
	return c.Defaults.HubURL
}

// AccessToken resolves the access token from the profile, or "".
func (c *Config) AccessToken(profile string) string {
	if p, err := c.GetProfile(profile); err == nil {
		return p.AccessToken
	}
	return ""
}

// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at path. If path is empty it
// searches default locations ("hapticsync.yaml", "config.yaml"). If no file
// is found the built-in defaults are used. Environment overrides are applied
// after loading, and the final configuration is clamped into valid ranges.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		candidates := []string{
			"hapticsync.yaml",
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			cfg.Clamp()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides win over file values.
	cfg.applyEnvOverrides()
	cfg.Clamp()

	return cfg, nil
}

// applyEnvOverrides applies HAPTIC_* environment variables on top of the
// current configuration. Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("HAPTIC_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("HAPTIC_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("HAPTIC_WS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.WSEnabled = b
		}
	}
	if val, ok := os.LookupEnv("HAPTIC_WS_ADDR"); ok {
		c.Transport.WSAddr = val
	}
	if val, ok := os.LookupEnv("HAPTIC_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
		}
	}
	if val, ok := os.LookupEnv("HAPTIC_UDP_TARGET"); ok {
		c.Transport.UDPTarget = val
	}
	if val, ok := os.LookupEnv("HAPTIC_INPUT_DEVICE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = n
		}
	}
	if val, ok := os.LookupEnv("HAPTIC_SAMPLE_RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.SampleRate = f
		}
	}
}

// Package config loads pbxd's runtime configuration: the JSON file named by
// PBXD_CONF plus a handful of environment variables, mirroring the shape of
// the teacher's config package (a typed struct tree loaded with a single
// Load/LoadFrom pair) but for JSON, since that is the wire format spec.md
// §6 requires for this file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything needed to construct a pbxterm.Terminal and an
// HTTP server.
type Config struct {
	// From the JSON file named by PBXD_CONF.
	ConnectionCommand string `json:"connection_command"`
	PBXUsername       string `json:"pbx_username"`
	PBXPassword       string `json:"pbx_password"`

	// From the environment.
	CommandTimeout  time.Duration
	PBXName         string
	ApplicationRoot string
	RuntimeDir      string
}

const defaultCommandTimeout = 300 * time.Second

// Load reads the JSON config file named by the PBXD_CONF environment
// variable and layers in the other recognized environment variables.
func Load() (*Config, error) {
	path := os.Getenv("PBXD_CONF")
	if path == "" {
		return nil, fmt.Errorf("PBXD_CONF is not set")
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the JSON config file at path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.CommandTimeout = defaultCommandTimeout
	if v := os.Getenv("PBX_COMMAND_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("PBX_COMMAND_TIMEOUT must be a positive integer, got %q", v)
		}
		cfg.CommandTimeout = time.Duration(secs) * time.Second
	}

	cfg.PBXName = os.Getenv("PBX_NAME")
	cfg.ApplicationRoot = os.Getenv("APPLICATION_ROOT")
	if cfg.ApplicationRoot == "" || cfg.ApplicationRoot == "/" {
		cfg.ApplicationRoot = ""
	}
	cfg.RuntimeDir = os.Getenv("PBXD_RUNTIME_DIR")
	if cfg.RuntimeDir == "" {
		cfg.RuntimeDir = "/tmp"
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ConnectionCommand == "" {
		return fmt.Errorf("connection_command is required")
	}
	if c.PBXUsername == "" {
		return fmt.Errorf("pbx_username is required")
	}
	if c.PBXPassword == "" {
		return fmt.Errorf("pbx_password is required")
	}
	return nil
}

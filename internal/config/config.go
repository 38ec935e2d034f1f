// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uigen/internal/validation"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `json:"host" yaml:"host"`
		Port int    `json:"port" yaml:"port" validate:"min=1,max=65535"`
		// RateLimit is the sustained requests per second per client; 0 disables limiting.
		RateLimit float64 `json:"rate_limit" yaml:"rate_limit" validate:"min=0"`
		Burst     int     `json:"burst" yaml:"burst" validate:"min=0"`
	} `json:"server" yaml:"server"`

	Database struct {
		// Path is the badger directory; empty keeps projects in memory.
		Path string `json:"path" yaml:"path"`
	} `json:"database" yaml:"database"`

	Sessions struct {
		MaxSessions int `json:"max_sessions" yaml:"max_sessions" validate:"min=1"`
	} `json:"sessions" yaml:"sessions"`

	Provider struct {
		Kind         string `json:"kind" yaml:"kind" validate:"oneof=auto stub openai"`
		APIKey       string `json:"api_key" yaml:"api_key"`
		BaseURL      string `json:"base_url" yaml:"base_url"`
		Model        string `json:"model" yaml:"model"`
		MaxSteps     int    `json:"max_steps" yaml:"max_steps" validate:"min=1"`
		SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
	} `json:"provider" yaml:"provider"`

	Environment string `json:"environment" yaml:"environment" validate:"oneof=development production test"`
	LogLevel    string `json:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile     string `json:"log_file" yaml:"log_file"`
}

// Default returns a configuration usable without any file.
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080
	cfg.Server.RateLimit = 20
	cfg.Server.Burst = 40
	cfg.Sessions.MaxSessions = 256
	cfg.Provider.Kind = "auto"
	cfg.Provider.Model = "gpt-4o-mini"
	cfg.Provider.MaxSteps = 40
	cfg.Environment = "development"
	cfg.LogLevel = "info"
	return &cfg
}

// Path returns the conventional config file for the current UIGEN_ENV.
func Path() string {
	env := os.Getenv("UIGEN_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

// Load reads path over the defaults. YAML is chosen by extension, anything
// else is decoded as JSON. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = json.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	config.applyEnv()

	if err := validation.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if env := os.Getenv("UIGEN_ENV"); env != "" {
		c.Environment = env
	}
	if c.Provider.APIKey == "" {
		for _, key := range []string{"UIGEN_API_KEY", "OPENAI_API_KEY"} {
			if v := os.Getenv(key); v != "" {
				c.Provider.APIKey = v
				break
			}
		}
	}
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

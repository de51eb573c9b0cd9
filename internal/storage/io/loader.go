package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/taskpilot/taskpilot/internal/model"
)

// ConfigYAMLRepository loads application configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads the configuration from a YAML file and returns a validated
// domain model. Missing fields fall back to the defaults.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.Config, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Config{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Config{}, ctx.Err()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parsing YAML: %w", err)
	}

	cfg.defaults()

	result := cfg.toModel()
	if err := result.Validate(); err != nil {
		return model.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return result, nil
}

// Config represents the YAML structure for application configuration.
type Config struct {
	Chat    ChatConfig `yaml:"chat"`
	DataDir string     `yaml:"data_dir"`
}

// ChatConfig represents the YAML structure for the chat model settings.
type ChatConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

func (c *Config) defaults() {
	if c.Chat.Model == "" {
		c.Chat.Model = model.DefaultChatModel
	}
	if c.Chat.APIKeyEnv == "" {
		c.Chat.APIKeyEnv = model.DefaultAPIKeyEnv
	}
}

func (c Config) toModel() model.Config {
	return model.Config{
		ChatModel: c.Chat.Model,
		BaseURL:   c.Chat.BaseURL,
		APIKeyEnv: c.Chat.APIKeyEnv,
		DataDir:   c.DataDir,
	}
}

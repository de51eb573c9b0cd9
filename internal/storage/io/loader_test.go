package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskpilot/taskpilot/internal/model"
)

func TestConfigYAMLRepository_GetConfig(t *testing.T) {
	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		expCfg model.Config
		expErr bool
		errMsg string
	}{
		"Full config should load successfully": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`chat:
  model: gpt-4o
  base_url: http://localhost:11434/v1
  api_key_env: MY_API_KEY
data_dir: /var/lib/taskpilot
`),
				},
			},
			path: "config.yaml",
			expCfg: model.Config{
				ChatModel: "gpt-4o",
				BaseURL:   "http://localhost:11434/v1",
				APIKeyEnv: "MY_API_KEY",
				DataDir:   "/var/lib/taskpilot",
			},
		},

		"Empty config should fall back to defaults": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`---
`),
				},
			},
			path: "config.yaml",
			expCfg: model.Config{
				ChatModel: model.DefaultChatModel,
				APIKeyEnv: model.DefaultAPIKeyEnv,
			},
		},

		"Partial config should keep defaults for missing fields": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{
					Data: []byte(`chat:
  model: llama3
`),
				},
			},
			path: "config.yaml",
			expCfg: model.Config{
				ChatModel: "llama3",
				APIKeyEnv: model.DefaultAPIKeyEnv,
			},
		},

		"Missing file should return error": {
			fs:     fstest.MapFS{},
			path:   "nonexistent.yaml",
			expErr: true,
			errMsg: "reading config file",
		},

		"Invalid YAML should return error": {
			fs: fstest.MapFS{
				"invalid.yaml": &fstest.MapFile{
					Data: []byte(`invalid: yaml: content: {}`),
				},
			},
			path:   "invalid.yaml",
			expErr: true,
			errMsg: "parsing YAML",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewConfigYAMLRepository(test.fs)

			cfg, err := repo.GetConfig(context.Background(), test.path)
			if test.expErr {
				require.Error(t, err)
				if test.errMsg != "" {
					assert.Contains(t, err.Error(), test.errMsg)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expCfg, cfg)
		})
	}
}

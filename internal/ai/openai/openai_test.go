package openai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskpilot/taskpilot/internal/ai/openai"
)

func TestNewClientValidation(t *testing.T) {
	tests := map[string]struct {
		config openai.ClientConfig
		expErr bool
	}{
		"Missing API key should fail.": {
			config: openai.ClientConfig{},
			expErr: true,
		},

		"API key only should be enough.": {
			config: openai.ClientConfig{APIKey: "sk-test"},
		},

		"Custom base URL should be accepted.": {
			config: openai.ClientConfig{APIKey: "sk-test", BaseURL: "http://localhost:11434/v1"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := openai.NewClient(test.config)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

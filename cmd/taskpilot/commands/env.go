package commands

import (
	"github.com/taskpilot/taskpilot/internal/utils/env"
)

// parseEnvSpecs parses --env values into an environment map. A spec is either
// "KEY=VALUE" or a bare "KEY" that inherits the value from the current
// environment. Later entries override earlier ones.
func parseEnvSpecs(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	return env.ParseSpecs(specs)
}

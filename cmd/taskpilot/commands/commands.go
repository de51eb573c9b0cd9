package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/taskpilot/taskpilot/internal/conventions"
	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	storageio "github.com/taskpilot/taskpilot/internal/storage/io"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DataDir    string
	DBPath     string
	ConfigPath string
	Model      string
	APIKeyEnv  string
	BaseURL    string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("data-dir", "Directory for the database and session workspaces.").Envar("TASKPILOT_DATA_DIR").Default(defaultDataDir).StringVar(&c.DataDir)
	app.Flag("db-path", "Path to the SQLite database file (defaults to the data dir).").Envar("TASKPILOT_DB_PATH").StringVar(&c.DBPath)
	app.Flag("config", "Path to the YAML configuration file (defaults to the data dir).").Envar("TASKPILOT_CONFIG").StringVar(&c.ConfigPath)
	app.Flag("model", "Chat model used for planning and execution.").Envar("TASKPILOT_MODEL").StringVar(&c.Model)
	app.Flag("api-key-env", "Environment variable holding the chat API key.").Envar("TASKPILOT_API_KEY_ENV").StringVar(&c.APIKeyEnv)
	app.Flag("base-url", "OpenAI-compatible API base URL.").Envar("TASKPILOT_BASE_URL").StringVar(&c.BaseURL)

	return c
}

// LoadConfig resolves the effective application configuration: YAML file
// values (when the file exists) overridden by the global flags.
func (c *RootCommand) LoadConfig(ctx context.Context) (*model.Config, error) {
	cfg := model.Config{
		ChatModel: model.DefaultChatModel,
		APIKeyEnv: model.DefaultAPIKeyEnv,
		DataDir:   c.DataDir,
	}

	configPath := c.ConfigPath
	if configPath == "" {
		configPath = conventions.ConfigPath(c.DataDir)
	}

	if _, err := os.Stat(configPath); err == nil {
		repo := storageio.NewConfigYAMLRepository(os.DirFS(filepath.Dir(configPath)))
		loaded, err := repo.GetConfig(ctx, filepath.Base(configPath))
		if err != nil {
			return nil, err
		}
		cfg.ChatModel = loaded.ChatModel
		cfg.BaseURL = loaded.BaseURL
		cfg.APIKeyEnv = loaded.APIKeyEnv
		if loaded.DataDir != "" {
			cfg.DataDir = loaded.DataDir
		}
	}

	// Flags take precedence over the file.
	if c.Model != "" {
		cfg.ChatModel = c.Model
	}
	if c.APIKeyEnv != "" {
		cfg.APIKeyEnv = c.APIKeyEnv
	}
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EffectiveDBPath returns the SQLite database path, derived from the data dir
// unless overridden.
func (c *RootCommand) EffectiveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return conventions.DBPath(c.DataDir)
}

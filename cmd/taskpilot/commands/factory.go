package commands

import (
	"context"
	"fmt"
	"os"

	aiopenai "github.com/taskpilot/taskpilot/internal/ai/openai"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/orchestrator"
	"github.com/taskpilot/taskpilot/internal/process/local"
	"github.com/taskpilot/taskpilot/internal/session"
	"github.com/taskpilot/taskpilot/internal/storage/sqlite"
)

// newRepository opens the SQLite session repository, running migrations.
func newRepository(ctx context.Context, rootCmd *RootCommand) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: rootCmd.EffectiveDBPath(),
		Logger: rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}
	return repo, nil
}

// newTaskRepository opens the task repository on top of an open database.
func newTaskRepository(repo *sqlite.Repository, rootCmd *RootCommand) (*sqlite.TaskRepository, error) {
	taskRepo, err := sqlite.NewTaskRepository(sqlite.TaskRepositoryConfig{
		DB:     repo.DB(),
		Logger: rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create task repository: %w", err)
	}
	return taskRepo, nil
}

// newSessionManager assembles the session manager over the local process
// engine.
func newSessionManager(repo *sqlite.Repository, rootCmd *RootCommand) (*session.Manager, error) {
	engine, err := local.NewEngine(local.EngineConfig{
		Logger: rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create process engine: %w", err)
	}

	manager, err := session.NewManager(session.ManagerConfig{
		Engine:     engine,
		Repository: repo,
		DataDir:    rootCmd.DataDir,
		Logger:     rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create session manager: %w", err)
	}

	return manager, nil
}

// newOrchestrator assembles the task orchestrator with the chat client and an
// optional session manager.
func newOrchestrator(cfg *model.Config, taskRepo *sqlite.TaskRepository, sessions *session.Manager, rootCmd *RootCommand) (*orchestrator.Service, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("chat API key not set (environment variable %q)", cfg.APIKeyEnv)
	}

	client, err := aiopenai.NewClient(aiopenai.ClientConfig{
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Logger:  rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create chat client: %w", err)
	}

	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Repository: taskRepo,
		AIClient:   client,
		Sessions:   sessions,
		Model:      cfg.ChatModel,
		Logger:     rootCmd.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create orchestrator: %w", err)
	}

	return svc, nil
}

package backend

import (
	"context"
	"errors"
	"fmt"

	"billed/internal/adapters"
	"billed/internal/amqp"
	"billed/internal/auth"
	"billed/internal/config"
	"billed/internal/log"
	"billed/internal/services"
	"billed/internal/session"
	"billed/internal/storage"
	"billed/internal/store/api"
	"billed/internal/store/google"
	"billed/internal/store/memory"
)

// FromAppConfig maps the process configuration onto a backend Config.
func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := BackendType(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:                t,
		DataDirectory:       c.DataDir,
		SQLiteDBPath:        c.SQLiteDBPath,
		AMQPURL:             c.AMQPURL,
		AMQPExchange:        c.AMQPExchange,
		AMQPQueue:           c.AMQPQueue,
		GoogleSpreadsheetID: c.GoogleSpreadsheetID,
		GoogleSheetName:     c.GoogleSheetName,
		BillsAPIURL:         c.BillsAPIURL,
	}, nil
}

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentStorage)}
}

// Create builds the backend named by cfg.Type.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	switch cfg.Type {
	case SQLiteBackend:
		return f.createSQLite(cfg)
	case SheetsBackend:
		return f.createSheets(ctx, cfg)
	case APIBackend:
		return f.createAPI(cfg)
	case MemoryBackend:
		return f.createMemory(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func (f *Factory) createSQLite(cfg Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// A nil *amqp.Client must not leak into the Publisher interface.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", log.FieldError, err)
		} else {
			publisher = client
			f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewBillService(repo, publisher, f.logger)
	adapter := adapters.NewSQLiteAdapter(repo, svc)

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath, "amqp_enabled", publisher != nil)

	return &Result{
		Bills:   adapter,
		Users:   repo,
		Ready:   adapter.Ping,
		Cleanup: svc.Close,
	}, nil
}

func (f *Factory) createSheets(ctx context.Context, cfg Config) (*Result, error) {
	cli, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "sheet", cfg.GoogleSheetName)
	return &Result{Bills: cli, Users: auth.NewMemoryUsers(), Ready: alwaysReady}, nil
}

func (f *Factory) createAPI(cfg Config) (*Result, error) {
	cli, err := api.New(cfg.BillsAPIURL, session.TokenFromContext)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bills API client: %w", err)
	}
	f.logger.Info("Initialized bills API backend", "url", cfg.BillsAPIURL)
	return &Result{Bills: cli, Users: auth.NewMemoryUsers(), Ready: alwaysReady}, nil
}

func (f *Factory) createMemory(cfg Config) *Result {
	dir := cfg.DataDirectory
	if dir == "" {
		dir = "data"
	}
	f.logger.Info("Initialized memory backend", "data_directory", dir)
	return &Result{Bills: memory.NewFromFiles(dir), Users: auth.NewMemoryUsers(), Ready: alwaysReady}
}

func alwaysReady(context.Context) error { return nil }

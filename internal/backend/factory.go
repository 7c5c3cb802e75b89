package backend

import (
	"context"
	"errors"
	"fmt"
	"os"

	"risparmi/internal/amqp"
	"risparmi/internal/core"
	"risparmi/internal/log"
	"risparmi/internal/ports"
	"risparmi/internal/storage"
	"risparmi/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger    *log.Logger
	estimator storage.Estimator
}

// NewFactory creates a backend factory. estimator derives the income
// estimate columns kept by the SQLite store.
func NewFactory(logger *log.Logger, estimator storage.Estimator) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger:    logger.WithComponent(log.ComponentBackend),
		estimator: estimator,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store ports.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteStore(ctx, config)
	case MemoryBackend:
		store, err = f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store, Cleanup: store.Close}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, config.AMQPPrefetch, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldErrorKind, log.ErrorKind(err))
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			result.Cleanup = func() error {
				return errors.Join(client.Close(), store.Close())
			}
		}
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (ports.Store, error) {
	if f.estimator == nil {
		return nil, errors.New("sqlite backend requires an income estimator")
	}
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.estimator)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if config.SeedFile != "" {
		d, err := ReadDataset(config.SeedFile, config.DefaultOwner)
		if err == nil {
			err = repo.Import(ctx, d)
		}
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("import seed file: %w", err)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		log.FieldDBPath, config.SQLiteDBPath,
		"seeded", config.SeedFile != "")
	return repo, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (ports.Store, error) {
	store, err := memory.NewFromFile(config.SeedFile, config.DefaultOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory store: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seeded", config.SeedFile != "")
	return store, nil
}

// ReadDataset decodes a JSON dataset file.
func ReadDataset(path, defaultOwner string) (core.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return core.Dataset{}, err
	}
	defer file.Close()
	return core.DecodeDataset(file, defaultOwner)
}

// Package di provides dependency injection container
package di

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ssargent/recordkv/pkg/adapter" //nolint:depguard
	"github.com/ssargent/recordkv/pkg/api"     //nolint:depguard
	"github.com/ssargent/recordkv/pkg/config"  //nolint:depguard
	"github.com/ssargent/recordkv/pkg/logging" //nolint:depguard
	"github.com/ssargent/recordkv/pkg/remote"  //nolint:depguard
	"github.com/ssargent/recordkv/pkg/store"   //nolint:depguard
)

// StoreFactory creates the store commands run against
type StoreFactory interface {
	CreateStore(cfg *config.Config) (store.Store, error)
}

// DefaultStoreFactory opens a local engine behind a shared handle, or a
// remote client when an endpoint is configured.
type DefaultStoreFactory struct {
	Logger *slog.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(logger *slog.Logger) StoreFactory {
	return &DefaultStoreFactory{Logger: logger}
}

// CreateStore builds the store selected by cfg. Local engines are opened
// lazily on first use.
func (f *DefaultStoreFactory) CreateStore(cfg *config.Config) (store.Store, error) {
	if cfg.Remote.Endpoint != "" {
		f.Logger.Info("using remote store", "endpoint", cfg.Remote.Endpoint, "format", cfg.Remote.Format)
		return remote.New(remote.Config{
			Endpoint: cfg.Remote.Endpoint,
			APIKey:   cfg.Remote.APIKey,
			Timeout:  cfg.Remote.Timeout,
			Format:   remote.Format(strings.ToLower(cfg.Remote.Format)),
		})
	}

	variant, err := cfg.Variant.Parse()
	if err != nil {
		return nil, &config.ConfigError{Field: "variant", Reason: err.Error()}
	}
	opts := store.Options{
		Path:          cfg.DataDir,
		Sync:          cfg.Store.Sync,
		FsyncInterval: cfg.Store.FsyncInterval,
	}

	logger := f.Logger
	return store.NewHandle(func() (store.Store, error) {
		logger.Info("opening store", "variant", variant.String(), "data_dir", cfg.DataDir, "sync", opts.Sync)
		s, err := store.Open(variant, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", variant, err)
		}
		return s, nil
	}), nil
}

// Container holds all the dependencies for the application
type Container struct {
	config        *config.Config
	logger        *slog.Logger
	metrics       *api.Metrics
	storeFactory  StoreFactory
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container. A nil logger
// is built from cfg.Logging.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		l, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := api.NewMetrics(registry)

	return &Container{
		config:        cfg,
		logger:        logger,
		metrics:       metrics,
		storeFactory:  NewStoreFactory(logger),
		serverFactory: api.NewServerFactory(logger, metrics),
	}, nil
}

// Config returns the configuration the container was built from
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the shared logger
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Metrics returns the metrics registered with the container's registry
func (c *Container) Metrics() *api.Metrics {
	return c.metrics
}

// GetStoreFactory returns the store factory
func (c *Container) GetStoreFactory() StoreFactory {
	return c.storeFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetStoreFactory allows overriding the store factory (for testing)
func (c *Container) SetStoreFactory(factory StoreFactory) {
	c.storeFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// NewDB creates the store and wraps it in a record adapter that reports to
// the container's metrics.
func (c *Container) NewDB() (*adapter.DB, error) {
	s, err := c.storeFactory.CreateStore(c.config)
	if err != nil {
		return nil, err
	}
	return adapter.New(s,
		adapter.WithLogger(c.logger),
		adapter.WithObserver(c.metrics),
		adapter.WithScanWorkers(c.config.Scan.Workers),
	), nil
}

// OpenDB is NewDB for long-running callers: a local store is opened before
// it returns, and a failure to open it is a ConfigError.
func (c *Container) OpenDB() (*adapter.DB, error) {
	db, err := c.NewDB()
	if err != nil {
		return nil, err
	}
	h, ok := db.Store().(*store.Handle)
	if !ok {
		return db, nil
	}
	if _, err := h.Acquire(); err != nil {
		_ = db.Close()
		return nil, &config.ConfigError{Field: "data_dir", Reason: err.Error(), Err: err}
	}
	return db, nil
}

// ServerConfig derives the HTTP server settings for db
func (c *Container) ServerConfig(db *adapter.DB) api.ServerConfig {
	sc := api.ServerConfig{
		Port:   c.config.Port,
		Bind:   c.config.Bind,
		APIKey: c.config.Security.ClientAPIKey,
	}
	if stats, ok := db.Store().(api.StatsSource); ok {
		sc.Stats = stats
	}
	return sc
}

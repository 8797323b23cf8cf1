// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/ssargent/recordkv/pkg/codec"
	"github.com/ssargent/recordkv/pkg/store"
)

// RecordDB is the record-level database the server exposes. *adapter.DB
// implements it.
type RecordDB interface {
	Read(key string, filter codec.FieldFilter) (codec.Record, error)
	Insert(key string, fields codec.Record) error
	Update(key string, fields codec.Record) error
	Delete(key string) error
	Scan(startKey string, count int, filter codec.FieldFilter) ([]codec.Record, error)
}

// StatsSource reports storage statistics for the metrics gauges
type StatsSource interface {
	Stats() *store.StoreStats
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves until ctx is cancelled or the listener fails
	StartServer(ctx context.Context, db RecordDB, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}

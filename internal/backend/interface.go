package backend

import (
	"context"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/services"
)

// BackendType selects the transaction store.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (t BackendType) String() string { return string(t) }

// IsValid reports whether t names a supported store.
func (t BackendType) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is a wired ledger service plus the resources behind it.
type BackendResult struct {
	Service *services.TransactionService
	// AMQP is nil when no broker is configured or it could not be reached.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string

	AMQPURL         string
	AMQPExchange    string
	AMQPEventsQueue string
	AMQPImportQueue string

	CacheSize int
	CacheTTL  time.Duration
}

package dataaccess

import (
	"context"
	"errors"

	"github.com/Jacobbrewer1/supportbot/pkg/entities"
)

var (
	// ErrGuildNotFound is returned when a guild has no support configuration.
	ErrGuildNotFound = errors.New("guild not found")

	// ErrTicketNotFound is returned when a channel is not an active ticket.
	ErrTicketNotFound = errors.New("ticket not found")
)

// Backend is the durable storage for the store document.
type Backend interface {
	// Name is the name of the backend, used in metrics and logs.
	Name() string

	// Load reads the document. A missing document is returned as an empty document, not an error.
	Load(ctx context.Context) (entities.Document, error)

	// Save replaces the document.
	Save(ctx context.Context, doc entities.Document) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close(ctx context.Context) error
}

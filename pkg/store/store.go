// Package store persists named filter chains in their exchange
// representation, so a session's chains can be saved and restored.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/glowkit/filterchain/pkg/chain"
)

var (
	// ErrChainNotFound is returned when a named chain does not exist.
	ErrChainNotFound = errors.New("chain not found")

	// ErrChainExists is returned when saving over an existing name without
	// overwrite.
	ErrChainExists = errors.New("chain already exists")

	// ErrInvalidName is returned for empty chain names.
	ErrInvalidName = errors.New("invalid chain name")
)

// Record is one stored chain with its metadata.
type Record struct {
	Name    string         `json:"name"`
	Created time.Time      `json:"created_at"`
	Updated time.Time      `json:"updated_at"`
	Chain   chain.Document `json:"chain"`
}

// Store is the interface for chain persistence.
type Store interface {
	// Save stores a chain under a name. Overwrites an existing record only
	// when overwrite is set; otherwise returns ErrChainExists.
	Save(ctx context.Context, name string, c chain.Chain, overwrite bool) error

	// Load retrieves a chain by name.
	Load(ctx context.Context, name string) (chain.Chain, error)

	// List returns all records sorted by name.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes a record by name; deleting an absent name is a no-op.
	Delete(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}

// Package store defines the capability surface of a liquidstore instance.
//
// The interfaces here are the contract both backends honor identically: the
// embedded engine (internal/storage/memory) and the remote client (pkg/sdk).
// Callers depend only on Store and pick a backend at construction time.
package store

import (
	"context"

	"github.com/celerix-dev/liquidstore/internal/core/domain"
)

// Reader fetches single values.
type Reader interface {
	// Get returns the value at (persona, app, key). Misses fail with
	// ErrPersonaNotFound, ErrAppNotFound or ErrKeyNotFound, checked in
	// that nesting order.
	Get(ctx context.Context, persona, app, key string) (domain.Value, error)
}

// Writer upserts and deletes single values.
type Writer interface {
	// Set upserts the value, creating intermediate containers as needed.
	Set(ctx context.Context, persona, app, key string, value domain.Value) error

	// Delete removes the key if present. Absence at any level is not an
	// error.
	Delete(ctx context.Context, persona, app, key string) error
}

// Enumerator lists hierarchy identifiers.
type Enumerator interface {
	// ListPersonas returns all persona IDs.
	ListPersonas(ctx context.Context) ([]string, error)

	// ListApps returns all app IDs under a persona. An absent persona
	// yields an empty result, not an error.
	ListApps(ctx context.Context, persona string) ([]string, error)
}

// Exporter retrieves bulk data.
type Exporter interface {
	// DumpApp returns the full Key -> Value map for (persona, app).
	DumpApp(ctx context.Context, persona, app string) (domain.AppData, error)

	// DumpAppGlobal returns Persona -> Key -> Value for every persona that
	// contains the given app.
	DumpAppGlobal(ctx context.Context, app string) (map[string]domain.AppData, error)
}

// Searcher scans across personas.
type Searcher interface {
	// GetGlobal scans every persona's app for the key, in ascending
	// persona order, returning the first value and the persona it was
	// found in. Fails with ErrKeyNotFound when no persona holds it.
	GetGlobal(ctx context.Context, app, key string) (domain.Value, string, error)
}

// Orchestrator performs multi-persona data operations.
type Orchestrator interface {
	// MoveKey moves the key from srcPersona to dstPersona within the same
	// app, atomically with respect to other operations on the key. A
	// failed move leaves both sides unchanged.
	MoveKey(ctx context.Context, srcPersona, dstPersona, app, key string) error
}

// Store is the full capability surface of a liquidstore backend.
type Store interface {
	Reader
	Writer
	Enumerator
	Exporter
	Searcher
	Orchestrator
}

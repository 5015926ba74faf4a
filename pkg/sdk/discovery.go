package sdk

import (
	"os"

	"github.com/celerix-dev/liquidstore/internal/core/store"
	"github.com/celerix-dev/liquidstore/internal/storage/memory"
	"github.com/celerix-dev/liquidstore/internal/storage/scopefile"
	"github.com/celerix-dev/liquidstore/internal/telemetry/logger"
)

// EnvRemoteAddr switches the SDK into remote mode when set.
const EnvRemoteAddr = "LIQUIDSTORE_ADDR"

// New initializes a store backend based on the environment.
//
// When LIQUIDSTORE_ADDR is set, it returns a remote client for that
// address (the connection itself is established lazily). Otherwise it
// returns an embedded engine persisting to dataDir, preloaded with
// whatever the directory already holds.
func New(dataDir string) (store.Store, error) {
	if addr := os.Getenv(EnvRemoteAddr); addr != "" {
		return Dial(addr), nil
	}
	return Embedded(dataDir)
}

// Embedded builds an in-process engine persisting to dataDir.
func Embedded(dataDir string) (store.Store, error) {
	files, err := scopefile.New(dataDir)
	if err != nil {
		return nil, err
	}
	initial, err := files.LoadAll()
	if err != nil {
		return nil, err
	}
	return memory.New(initial, files), nil
}

// Close releases a backend obtained from New: embedded engines drain
// their outstanding persistence work, remote clients drop their
// connection.
func Close(s store.Store) error {
	switch b := s.(type) {
	case *memory.Store:
		b.Drain()
		return nil
	case *Client:
		return b.Close()
	default:
		logger.Default().Warn("close called on unknown backend")
		return nil
	}
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/celerix-dev/liquidstore/internal/core/domain"
	"github.com/celerix-dev/liquidstore/internal/telemetry/logger"
)

// Persister writes one persona's full data durably. Implemented by
// scopefile.Store; nil disables durability entirely.
type Persister interface {
	SavePersona(persona string, data domain.PersonaData) error
}

// Store is the embedded engine. It satisfies store.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.PersonaData

	persister Persister
	log       logger.Logger

	// Per-persona single-flight save writers.
	wmu     sync.Mutex
	writers map[string]*personaWriter
	pending sync.WaitGroup
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates an engine seeded with initial data (normally the result of
// scopefile.LoadAll). The initial map is owned by the engine afterwards.
func New(initial map[string]domain.PersonaData, persister Persister, opts ...Option) *Store {
	if initial == nil {
		initial = make(map[string]domain.PersonaData)
	}
	s := &Store{
		data:      initial,
		persister: persister,
		log:       logger.Default(),
		writers:   make(map[string]*personaWriter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value at (persona, app, key), checked in hierarchy order.
func (s *Store) Get(_ context.Context, persona, app, key string) (domain.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps, ok := s.data[persona]
	if !ok {
		return nil, domain.ErrPersonaNotFound
	}
	keys, ok := apps[app]
	if !ok {
		return nil, domain.ErrAppNotFound
	}
	val, ok := keys[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}

	// Clone so callers can never mutate the hierarchy through the result.
	out := make(domain.Value, len(val))
	copy(out, val)
	return out, nil
}

// Set upserts the value, creating intermediate containers as needed, and
// schedules persistence of the affected persona.
func (s *Store) Set(_ context.Context, persona, app, key string, value domain.Value) error {
	cp := make(domain.Value, len(value))
	copy(cp, value)

	s.mu.Lock()
	apps, ok := s.data[persona]
	if !ok {
		apps = make(domain.PersonaData)
		s.data[persona] = apps
	}
	keys, ok := apps[app]
	if !ok {
		keys = make(domain.AppData)
		apps[app] = keys
	}
	keys[key] = cp
	s.mu.Unlock()

	s.persist(persona)
	return nil
}

// Delete removes the key if present. Absence at any level is not an error.
func (s *Store) Delete(_ context.Context, persona, app, key string) error {
	s.mu.Lock()
	if apps, ok := s.data[persona]; ok {
		if keys, ok := apps[app]; ok {
			delete(keys, key)
		}
	}
	s.mu.Unlock()

	s.persist(persona)
	return nil
}

// ListPersonas returns all persona IDs in ascending order.
func (s *Store) ListPersonas(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.data))
	for persona := range s.data {
		out = append(out, persona)
	}
	sort.Strings(out)
	return out, nil
}

// ListApps returns all app IDs under a persona in ascending order. An
// absent persona yields an empty result.
func (s *Store) ListApps(_ context.Context, persona string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps := s.data[persona]
	out := make([]string, 0, len(apps))
	for app := range apps {
		out = append(out, app)
	}
	sort.Strings(out)
	return out, nil
}

// DumpApp returns a copy of the full Key -> Value map for (persona, app).
func (s *Store) DumpApp(_ context.Context, persona, app string) (domain.AppData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apps, ok := s.data[persona]
	if !ok {
		return nil, domain.ErrPersonaNotFound
	}
	keys, ok := apps[app]
	if !ok {
		return nil, domain.ErrAppNotFound
	}
	return keys.Clone(), nil
}

// DumpAppGlobal returns Persona -> Key -> Value for every persona holding
// the given app.
func (s *Store) DumpAppGlobal(_ context.Context, app string) (map[string]domain.AppData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.AppData)
	for persona, apps := range s.data {
		if keys, ok := apps[app]; ok {
			out[persona] = keys.Clone()
		}
	}
	return out, nil
}

// GetGlobal scans every persona's app for the key in ascending persona
// order and returns the first match with its persona. Linear in the number
// of personas; not indexed.
func (s *Store) GetGlobal(_ context.Context, app, key string) (domain.Value, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	personas := make([]string, 0, len(s.data))
	for persona := range s.data {
		personas = append(personas, persona)
	}
	sort.Strings(personas)

	for _, persona := range personas {
		if keys, ok := s.data[persona][app]; ok {
			if val, ok := keys[key]; ok {
				out := make(domain.Value, len(val))
				copy(out, val)
				return out, persona, nil
			}
		}
	}
	return nil, "", domain.ErrKeyNotFound
}

// MoveKey moves the key between personas within the same app in one
// critical section. A failed move leaves both sides unchanged; a
// successful move repersists both personas.
func (s *Store) MoveKey(_ context.Context, srcPersona, dstPersona, app, key string) error {
	s.mu.Lock()
	srcApps, ok := s.data[srcPersona]
	if !ok {
		s.mu.Unlock()
		return domain.ErrPersonaNotFound
	}
	srcKeys, ok := srcApps[app]
	if !ok {
		s.mu.Unlock()
		return domain.ErrAppNotFound
	}
	val, ok := srcKeys[key]
	if !ok {
		s.mu.Unlock()
		return domain.ErrKeyNotFound
	}

	delete(srcKeys, key)

	dstApps, ok := s.data[dstPersona]
	if !ok {
		dstApps = make(domain.PersonaData)
		s.data[dstPersona] = dstApps
	}
	dstKeys, ok := dstApps[app]
	if !ok {
		dstKeys = make(domain.AppData)
		dstApps[app] = dstKeys
	}
	dstKeys[key] = val
	s.mu.Unlock()

	s.persist(srcPersona)
	s.persist(dstPersona)
	return nil
}

// Drain blocks until every outstanding persistence task has completed.
// Called on shutdown before the process may exit.
func (s *Store) Drain() {
	s.pending.Wait()
}

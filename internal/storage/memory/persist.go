package memory

import (
	"github.com/celerix-dev/liquidstore/internal/core/domain"
	"github.com/celerix-dev/liquidstore/internal/telemetry/metric"
)

// personaWriter serializes saves for one persona. While a save is running,
// newer snapshots replace each other in the queued slot, so the disk only
// ever sees the latest state and never a stale file after a burst of
// writes.
type personaWriter struct {
	running  bool
	queued   domain.PersonaData
	queuedOK bool
}

// persist snapshots the persona under a read lock and hands the snapshot
// to its single-flight writer. A persona that no longer exists (never
// created, or lost to a failed load) is skipped.
func (s *Store) persist(persona string) {
	if s.persister == nil {
		return
	}

	s.mu.RLock()
	apps, ok := s.data[persona]
	var snapshot domain.PersonaData
	if ok {
		snapshot = apps.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return
	}

	s.enqueue(persona, snapshot)
}

func (s *Store) enqueue(persona string, snapshot domain.PersonaData) {
	s.wmu.Lock()
	w, ok := s.writers[persona]
	if !ok {
		w = &personaWriter{}
		s.writers[persona] = w
	}
	if w.running {
		// Coalesce: the in-flight save will pick this up when it finishes.
		w.queued = snapshot
		w.queuedOK = true
		s.wmu.Unlock()
		return
	}
	w.running = true
	s.pending.Add(1)
	s.wmu.Unlock()

	go s.runWriter(persona, w, snapshot)
}

func (s *Store) runWriter(persona string, w *personaWriter, snapshot domain.PersonaData) {
	defer s.pending.Done()

	for {
		// A failed save is logged and swallowed: memory is already
		// updated and the next mutation repersists the persona.
		if err := s.persister.SavePersona(persona, snapshot); err != nil {
			metric.PersistFailures.Inc()
			s.log.Error("failed to persist persona", "persona", persona, "error", err)
		} else {
			metric.PersistTotal.Inc()
		}

		s.wmu.Lock()
		if w.queuedOK {
			snapshot = w.queued
			w.queued = nil
			w.queuedOK = false
			s.wmu.Unlock()
			continue
		}
		w.running = false
		s.wmu.Unlock()
		return
	}
}

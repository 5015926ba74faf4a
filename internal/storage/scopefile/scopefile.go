// Package scopefile handles disk I/O for the embedded engine.
//
// Each persona maps 1:1 to one JSON file, <data-dir>/<persona>.json,
// holding the persona's full App -> Key -> Value object. Saves stage the
// bytes at <persona>.json.tmp and rename into place, so a crash mid-write
// never leaves a torn file at the canonical path. The layer provides no
// locking between concurrent saves of the same persona; the engine's
// per-persona writer is what serializes them.
package scopefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/celerix-dev/liquidstore/internal/core/domain"
	"github.com/celerix-dev/liquidstore/internal/telemetry/logger"
)

const (
	fileExtension = ".json"
	tempExtension = ".json.tmp"
)

// Store persists persona data under one data directory.
type Store struct {
	dir string
	log logger.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger used for load warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates a scopefile store, creating the data directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("scopefile: data dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("scopefile: create dir: %w", err)
	}

	s := &Store{dir: dir, log: logger.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// SavePersona writes one persona's full data atomically. Persona names
// that could resolve outside the data directory are rejected.
func (s *Store) SavePersona(persona string, data domain.PersonaData) error {
	if !validPersona(persona) {
		return fmt.Errorf("scopefile: invalid persona name %q", persona)
	}
	finalPath := filepath.Join(s.dir, persona+fileExtension)
	tempPath := filepath.Join(s.dir, persona+tempExtension)

	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("scopefile: marshal persona %s: %w", persona, err)
	}

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("scopefile: create temp file: %w", err)
	}
	if _, err := f.Write(bytes); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("scopefile: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("scopefile: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("scopefile: close temp file: %w", err)
	}

	// The rename is the only state transition observers can see.
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("scopefile: rename: %w", err)
	}
	return nil
}

// LoadAll scans the data directory and parses every persona file. A file
// that is unreadable or malformed is skipped with a warning; one corrupt
// persona must never prevent the rest of the store from loading.
func (s *Store) LoadAll() (map[string]domain.PersonaData, error) {
	all := make(map[string]domain.PersonaData)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil
		}
		return nil, fmt.Errorf("scopefile: read dir: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExtension) || strings.HasSuffix(name, tempExtension) {
			continue
		}
		persona := strings.TrimSuffix(name, fileExtension)
		path := filepath.Join(s.dir, name)

		content, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("could not read persona file", "path", path, "error", err)
			continue
		}

		var data domain.PersonaData
		if err := json.Unmarshal(content, &data); err != nil {
			s.log.Warn("could not unmarshal persona file", "path", path, "error", err)
			continue
		}

		compactValues(data)
		all[persona] = data
	}

	return all, nil
}

// compactValues strips the file indentation that Unmarshal leaves inside
// raw values. MarshalIndent re-indents nested raw JSON on save, so without
// this a reloaded value would carry newlines and padding the client never
// wrote.
func compactValues(data domain.PersonaData) {
	for _, keys := range data {
		for key, val := range keys {
			var buf bytes.Buffer
			if err := json.Compact(&buf, val); err != nil {
				continue
			}
			keys[key] = domain.Value(buf.Bytes())
		}
	}
}

func validPersona(persona string) bool {
	if persona == "" || persona == "." || persona == ".." {
		return false
	}
	return !strings.ContainsAny(persona, "/\\")
}

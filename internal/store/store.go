package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FlushObserver receives the duration and outcome of each flush.
type FlushObserver func(took time.Duration, err error)

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFlushObserver registers a hook called after every flush.
func WithFlushObserver(fn FlushObserver) Option {
	return func(s *Store) { s.observe = fn }
}

// WithClock overrides the time source used for metadata stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the in-memory document mirrored to a single JSON file. All access
// goes through View and Update, which serialise readers against writers.
type Store struct {
	path    string
	logger  *zap.Logger
	observe FlushObserver
	now     func() time.Time

	mu  sync.RWMutex
	doc *Document
}

// Open loads path into memory. A missing file is created with an empty document.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist) || (err == nil && len(bytes.TrimSpace(raw)) == 0):
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
		s.doc = NewDocument(s.now())
		if err := s.flushLocked(); err != nil {
			return err
		}
		s.logger.Info("store file created", zap.String("path", s.path))
		return nil
	case err != nil:
		return fmt.Errorf("read store file: %w", err)
	}

	doc, err := Decode(raw)
	if err != nil {
		return err
	}
	s.doc = doc
	s.logger.Info("store loaded",
		zap.String("path", s.path),
		zap.Int("users", len(doc.Users)),
		zap.String("version", doc.Metadata.Version),
	)
	return nil
}

// Decode parses a store document.
func Decode(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}
	doc.normalize()
	return &doc, nil
}

// View runs fn with shared access. fn must not modify the document.
func (s *Store) View(fn func(*Document) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.doc)
}

// Update runs fn with exclusive access and flushes the whole document before
// returning. If fn or the flush fails, in-memory state is rolled back.
func (s *Store) Update(fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.doc.clone()
	if err := fn(s.doc); err != nil {
		s.doc = snapshot
		return err
	}
	if err := s.flushLocked(); err != nil {
		s.doc = snapshot
		return err
	}
	return nil
}

// Flush writes the current document to disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

// Replace swaps in doc wholesale and flushes it.
func (s *Store) Replace(doc *Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	doc.normalize()
	return s.Update(func(d *Document) error {
		*d = *doc
		return nil
	})
}

// Snapshot returns the encoded document as it would be written to disk.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encode(s.doc)
}

// Check verifies the backing file is still present and readable.
func (s *Store) Check() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("store file unavailable: %w", err)
	}
	return f.Close()
}

// Stats counts records as of now.
func (s *Store) Stats() Stats {
	var st Stats
	_ = s.View(func(d *Document) error {
		st = d.Stats(s.now())
		return nil
	})
	return st
}

func (s *Store) flushLocked() (err error) {
	start := time.Now()
	defer func() {
		if s.observe != nil {
			s.observe(time.Since(start), err)
		}
	}()

	data, err := encode(s.doc)
	if err != nil {
		return err
	}
	return WriteFileAtomic(s.path, data)
}

func encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode store: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp store file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

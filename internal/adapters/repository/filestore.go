package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/rbd-scoreboard/internal/domain/model"
)

// FileStore keeps the score collection in a JSON document on disk. The
// document maps keys to values like browser local storage; the scores live
// under a single key as a JSON array.
//
// Writes are serialised within the process and replace the file atomically.
// Several processes sharing one file can still lose each other's appends.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileStore creates a store backed by the document at path. The file is
// created on the first insert.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: %w", ErrNotConfigured)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	o := newOptions(opts)
	return &FileStore{path: path, key: o.key}, nil
}

// Insert implements Store.
func (s *FileStore) Insert(ctx context.Context, score model.GameScore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer observe(BackendFile, "insert", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDoc()
	if err != nil {
		return err
	}
	scores, err := decodeScores(doc[s.key])
	if err != nil {
		return err
	}
	raw, err := encodeScores(append(scores, score))
	if err != nil {
		return err
	}
	doc[s.key] = raw
	return s.writeDoc(doc)
}

// List implements Store.
func (s *FileStore) List(ctx context.Context) ([]model.GameScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer observe(BackendFile, "list", time.Now())

	s.mu.Lock()
	doc, err := s.readDoc()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	scores, err := decodeScores(doc[s.key])
	if err != nil {
		return nil, err
	}
	newestFirst(scores)
	return scores, nil
}

// Backend implements Store.
func (s *FileStore) Backend() string { return BackendFile }

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) readDoc() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	return doc, nil
}

func (s *FileStore) writeDoc(doc map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".rbd-scores-*")
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("file store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("file store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	return nil
}

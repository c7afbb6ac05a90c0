package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"navio/api/internal/repository"
)

const layoutFile = "cmr-layout.json"

// FileLayoutStore keeps the layout as one JSON file under the data dir.
type FileLayoutStore struct {
	path string
	mu   sync.Mutex
}

var _ LayoutStore = (*FileLayoutStore)(nil)

func NewFileLayoutStore(dir string) (*FileLayoutStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create layout dir: %w", err)
	}
	return &FileLayoutStore{path: filepath.Join(dir, layoutFile)}, nil
}

func (s *FileLayoutStore) Get(_ context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return DefaultLayout(), nil
	case err != nil:
		return nil, fmt.Errorf("read layout: %w", err)
	}

	// A file that exists but does not decode is an integrity problem, not a
	// first-run default.
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", repository.ErrCorruptState, s.path)
	}
	return raw, nil
}

func (s *FileLayoutStore) Put(_ context.Context, layout json.RawMessage) error {
	if err := validateLayout(layout); err != nil {
		return err
	}

	var pretty json.RawMessage
	if buf, err := json.MarshalIndent(json.RawMessage(layout), "", "  "); err == nil {
		pretty = buf
	} else {
		pretty = layout
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, pretty, 0o644); err != nil {
		return fmt.Errorf("write layout: %w", err)
	}
	return os.Rename(tmp, s.path)
}

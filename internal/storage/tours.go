package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"navio/api/internal/models"
	"navio/api/internal/repository"
)

const toursFile = "tours.json"

// TourStore persists the tour board. Update serializes read-modify-write
// cycles so concurrent transitions never clobber each other.
type TourStore interface {
	Load(ctx context.Context) (models.TourBoard, error)
	Update(ctx context.Context, fn func(board *models.TourBoard) error) (models.TourBoard, error)
}

// FileTourStore keeps the board as one JSON file, guarded by a mutex.
type FileTourStore struct {
	path string
	mu   sync.Mutex
}

var _ TourStore = (*FileTourStore)(nil)

func NewFileTourStore(dir string) (*FileTourStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tours dir: %w", err)
	}
	return &FileTourStore{path: filepath.Join(dir, toursFile)}, nil
}

func (s *FileTourStore) loadLocked() (models.TourBoard, error) {
	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return models.TourBoard{Active: []models.Tour{}, Archive: []models.Tour{}}, nil
	case err != nil:
		return models.TourBoard{}, fmt.Errorf("read tours: %w", err)
	}

	var board models.TourBoard
	if err := json.Unmarshal(raw, &board); err != nil {
		return models.TourBoard{}, fmt.Errorf("%w: %s: %v", repository.ErrCorruptState, s.path, err)
	}
	if board.Active == nil {
		board.Active = []models.Tour{}
	}
	if board.Archive == nil {
		board.Archive = []models.Tour{}
	}
	return board, nil
}

func (s *FileTourStore) saveLocked(board models.TourBoard) error {
	raw, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tours: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write tours: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileTourStore) Load(_ context.Context) (models.TourBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *FileTourStore) Update(_ context.Context, fn func(board *models.TourBoard) error) (models.TourBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.loadLocked()
	if err != nil {
		return models.TourBoard{}, err
	}
	if err := fn(&board); err != nil {
		return models.TourBoard{}, err
	}
	if err := s.saveLocked(board); err != nil {
		return models.TourBoard{}, err
	}
	return board, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"navio/api/internal/ids"
	"navio/api/internal/models"
	"navio/api/internal/storage"
)

// TourService runs the per-tour state machine: active tours wait at the
// ramp, archived tours are loaded and on the road. "Mark loaded" moves
// active→archived, "mark unloaded" moves archived→active.
type TourService struct {
	store storage.TourStore
	log   zerolog.Logger
}

func NewTourService(store storage.TourStore, log zerolog.Logger) *TourService {
	return &TourService{store: store, log: log}
}

func (s *TourService) Board(ctx context.Context) (models.TourBoard, error) {
	return s.store.Load(ctx)
}

// SetActive replaces the active list with the dispatcher's current
// planning. Tours without orders are dropped; missing ids and names get
// stable fallbacks. The archive is left untouched.
func (s *TourService) SetActive(ctx context.Context, incoming []models.Tour) (models.TourBoard, error) {
	var active []models.Tour
	for idx, tour := range incoming {
		if len(tour.Orders) == 0 {
			continue
		}
		if tour.ID == "" {
			tour.ID = fmt.Sprintf("tour-%d-%s", idx, ids.New())
		}
		if tour.Name == "" {
			tour.Name = fmt.Sprintf("Tour %d", idx+1)
		}
		tour.Status = models.TourStatusActive
		active = append(active, tour)
	}
	if active == nil {
		active = []models.Tour{}
	}

	return s.store.Update(ctx, func(board *models.TourBoard) error {
		board.Active = active
		return nil
	})
}

type LoadInput struct {
	Note     string
	ImageURL string
	Actor    string
}

func (s *TourService) MarkLoaded(ctx context.Context, tourID string, input LoadInput) (models.TourBoard, error) {
	now := time.Now()
	return s.store.Update(ctx, func(board *models.TourBoard) error {
		idx := findTour(board.Active, tourID)
		if idx < 0 {
			return ErrTourNotFound
		}

		tour := board.Active[idx]
		tour.Status = models.TourStatusArchived
		tour.LoadedAt = &now
		tour.LoadedBy = input.Actor
		tour.LoadNote = input.Note
		if input.ImageURL != "" {
			tour.LoadImage = &models.TourImage{URL: input.ImageURL, Timestamp: now}
		}

		board.Active = append(board.Active[:idx], board.Active[idx+1:]...)
		board.Archive = append([]models.Tour{tour}, board.Archive...)
		return nil
	})
}

func (s *TourService) MarkUnloaded(ctx context.Context, tourID string, actor string) (models.TourBoard, error) {
	now := time.Now()
	return s.store.Update(ctx, func(board *models.TourBoard) error {
		idx := findTour(board.Archive, tourID)
		if idx < 0 {
			return ErrTourNotFound
		}

		tour := board.Archive[idx]
		tour.Status = models.TourStatusActive
		tour.UnloadedAt = &now
		tour.UnloadedBy = actor

		board.Archive = append(board.Archive[:idx], board.Archive[idx+1:]...)
		board.Active = append([]models.Tour{tour}, board.Active...)
		return nil
	})
}

func findTour(tours []models.Tour, id string) int {
	for i := range tours {
		if tours[i].ID == id {
			return i
		}
	}
	return -1
}

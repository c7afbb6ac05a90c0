package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navio/api/internal/models"
	"navio/api/internal/storage"
)

func newTourFixture(t *testing.T) *TourService {
	t.Helper()
	store, err := storage.NewFileTourStore(t.TempDir())
	require.NoError(t, err)
	return NewTourService(store, zerolog.Nop())
}

func order(ref string) json.RawMessage {
	return json.RawMessage(`{"ref":"` + ref + `"}`)
}

func TestSetActiveDropsEmptyToursAndFillsDefaults(t *testing.T) {
	svc := newTourFixture(t)
	ctx := context.Background()

	board, err := svc.SetActive(ctx, []models.Tour{
		{Name: "Nord", Orders: []json.RawMessage{order("A1")}},
		{ID: "keep-me", Orders: []json.RawMessage{order("B2")}},
		{Name: "leer"},
	})
	require.NoError(t, err)

	require.Len(t, board.Active, 2, "order-less tours are dropped")
	assert.NotEmpty(t, board.Active[0].ID, "missing ids get a fallback")
	assert.Equal(t, "keep-me", board.Active[1].ID)
	assert.Equal(t, "Tour 2", board.Active[1].Name, "missing names get a fallback")
	for _, tour := range board.Active {
		assert.Equal(t, models.TourStatusActive, tour.Status)
	}
}

func TestSetActiveLeavesArchiveAlone(t *testing.T) {
	svc := newTourFixture(t)
	ctx := context.Background()

	_, err := svc.SetActive(ctx, []models.Tour{{ID: "t1", Orders: []json.RawMessage{order("A1")}}})
	require.NoError(t, err)
	_, err = svc.MarkLoaded(ctx, "t1", LoadInput{Actor: "lager"})
	require.NoError(t, err)

	board, err := svc.SetActive(ctx, []models.Tour{{ID: "t2", Orders: []json.RawMessage{order("B2")}}})
	require.NoError(t, err)

	require.Len(t, board.Archive, 1)
	assert.Equal(t, "t1", board.Archive[0].ID)
}

func TestMarkLoadedMovesTourToArchive(t *testing.T) {
	svc := newTourFixture(t)
	ctx := context.Background()

	_, err := svc.SetActive(ctx, []models.Tour{{ID: "t1", Orders: []json.RawMessage{order("A1")}}})
	require.NoError(t, err)

	board, err := svc.MarkLoaded(ctx, "t1", LoadInput{
		Note:     "Rampe 4",
		ImageURL: "https://cdn.test/p.jpg",
		Actor:    "lager",
	})
	require.NoError(t, err)

	assert.Empty(t, board.Active)
	require.Len(t, board.Archive, 1)
	tour := board.Archive[0]
	assert.Equal(t, models.TourStatusArchived, tour.Status)
	assert.NotNil(t, tour.LoadedAt)
	assert.Equal(t, "lager", tour.LoadedBy)
	assert.Equal(t, "Rampe 4", tour.LoadNote)
	require.NotNil(t, tour.LoadImage)
	assert.Equal(t, "https://cdn.test/p.jpg", tour.LoadImage.URL)
}

func TestMarkUnloadedReturnsTourToActive(t *testing.T) {
	svc := newTourFixture(t)
	ctx := context.Background()

	_, err := svc.SetActive(ctx, []models.Tour{{ID: "t1", Orders: []json.RawMessage{order("A1")}}})
	require.NoError(t, err)
	_, err = svc.MarkLoaded(ctx, "t1", LoadInput{Actor: "lager"})
	require.NoError(t, err)

	board, err := svc.MarkUnloaded(ctx, "t1", "lager")
	require.NoError(t, err)

	assert.Empty(t, board.Archive)
	require.Len(t, board.Active, 1)
	tour := board.Active[0]
	assert.Equal(t, models.TourStatusActive, tour.Status)
	assert.NotNil(t, tour.UnloadedAt)
	assert.Equal(t, "lager", tour.UnloadedBy)
	assert.NotNil(t, tour.LoadedAt, "the loading history survives the round trip")
}

func TestMarkLoadedUnknownTour(t *testing.T) {
	svc := newTourFixture(t)
	ctx := context.Background()

	_, err := svc.MarkLoaded(ctx, "ghost", LoadInput{Actor: "lager"})
	assert.ErrorIs(t, err, ErrTourNotFound)

	_, err = svc.MarkUnloaded(ctx, "ghost", "lager")
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestBoardSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := storage.NewFileTourStore(dir)
	require.NoError(t, err)
	svc := NewTourService(store, zerolog.Nop())
	_, err = svc.SetActive(ctx, []models.Tour{{ID: "t1", Orders: []json.RawMessage{order("A1")}}})
	require.NoError(t, err)

	reopened, err := storage.NewFileTourStore(dir)
	require.NoError(t, err)
	board, err := NewTourService(reopened, zerolog.Nop()).Board(ctx)
	require.NoError(t, err)
	require.Len(t, board.Active, 1)
	assert.Equal(t, "t1", board.Active[0].ID)
}

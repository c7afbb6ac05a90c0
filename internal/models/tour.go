package models

import (
	"encoding/json"
	"time"
)

type TourStatus string

const (
	TourStatusActive   TourStatus = "active"
	TourStatusArchived TourStatus = "archived"
)

type TourImage struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Tour is one tracked dispatch unit. Orders are carried as opaque JSON so
// the planning frontend can evolve its shape without backend churn.
type Tour struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Status     TourStatus        `json:"status"`
	Orders     []json.RawMessage `json:"orders"`
	LoadedAt   *time.Time        `json:"loadedAt,omitempty"`
	LoadedBy   string            `json:"loadedBy,omitempty"`
	LoadNote   string            `json:"loadNote,omitempty"`
	LoadImage  *TourImage        `json:"loadImage,omitempty"`
	UnloadedAt *time.Time        `json:"unloadedAt,omitempty"`
	UnloadedBy string            `json:"unloadedBy,omitempty"`
}

// TourBoard is the full tracked state: tours waiting to be loaded and
// tours already on the road.
type TourBoard struct {
	Active  []Tour `json:"active"`
	Archive []Tour `json:"archive"`
}

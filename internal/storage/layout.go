// Package storage holds the blob store for the CMR form layout. The layout
// is one JSON document the frontend editor reads and writes as a whole, so
// the store surface is just Get and Put over interchangeable back-ends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidLayout rejects write payloads that are not a JSON object.
var ErrInvalidLayout = errors.New("layout must be a JSON object")

type LayoutStore interface {
	// Get returns the stored layout, or the seeded default when none has
	// been saved yet.
	Get(ctx context.Context) (json.RawMessage, error)
	Put(ctx context.Context, layout json.RawMessage) error
}

// DefaultLayout is the first-run CMR layout: an empty A4 page in points
// with neutral calibration.
func DefaultLayout() json.RawMessage {
	return json.RawMessage(`{
  "pageWidth": 595.28,
  "pageHeight": 841.89,
  "backgroundPdfBase64": "",
  "calibration": { "offsetX": 0, "offsetY": 0, "scaleX": 1, "scaleY": 1, "rotationDeg": 0 },
  "fields": {}
}`)
}

func validateLayout(raw json.RawMessage) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	return nil
}

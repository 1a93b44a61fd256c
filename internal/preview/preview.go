// Package preview hands draft content from the admin panel to the preview view through
// the visitor's session store, without touching canonical storage.
package preview

import (
	"encoding/json"
	"errors"
	"fmt"

	"aetheria-site/internal/model"
	"aetheria-site/internal/storage"
)

var (
	// ErrAbsent means no snapshot was ever written in this session.
	ErrAbsent = errors.New("preview: no snapshot")

	// ErrCorrupt means a snapshot exists but cannot be read back.
	ErrCorrupt = errors.New("preview: snapshot unreadable")
)

const (
	absentMessage  = "No preview data found. Please generate a preview from the admin panel."
	corruptMessage = "Failed to parse preview data. It might be corrupted."
)

var payloadShape = storage.HasObjectKeys("pageData")

// Snapshot stores the draft content and products as the session's preview.
func Snapshot(a *storage.Adapter, content model.SiteContent, products []model.Product) error {
	payload := model.PreviewPayload{Content: content.Clone(), Products: model.CloneProducts(products)}
	if err := storage.Save(a, storage.KeyPreview, payload); err != nil {
		return fmt.Errorf("preview snapshot: %w", err)
	}
	return nil
}

// Read returns the last snapshot, ErrAbsent when there is none, or ErrCorrupt when the
// stored value is not a preview payload.
func Read(store storage.Store) (model.PreviewPayload, error) {
	raw, err := store.Get(storage.KeyPreview)
	if errors.Is(err, storage.ErrNotFound) {
		return model.PreviewPayload{}, ErrAbsent
	}
	if err != nil {
		return model.PreviewPayload{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !payloadShape(raw) {
		return model.PreviewPayload{}, fmt.Errorf("%w: missing pageData", ErrCorrupt)
	}

	var payload model.PreviewPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.PreviewPayload{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if payload.Products == nil {
		payload.Products = []model.Product{}
	}
	return payload, nil
}

// Message returns the text shown to the visitor for a Read error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAbsent):
		return absentMessage
	default:
		return corruptMessage
	}
}

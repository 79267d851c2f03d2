package store

import (
	"context"

	"github.com/amishk599/remotehub/internal/model"
)

// NopStore is a writer used in dry-run mode. It stores nothing, so every
// job is reported as newly created.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Upsert(_ context.Context, _ model.Job) (model.UpsertResult, error) {
	return model.UpsertResult{Created: true}, nil
}

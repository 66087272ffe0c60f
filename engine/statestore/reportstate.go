package statestore

import (
	"context"

	"github.com/finalyze/core/engine/core"
)

const collectionWorkflowState = "workflow_state"

// ReportStateStore implements core.StateStore over the workflow_state
// collection.
type ReportStateStore struct {
	repo *CollectionRepo[core.ReportState]
}

// NewReportStateStore builds a core.StateStore backed by store.
func NewReportStateStore(store *Store) *ReportStateStore {
	return &ReportStateStore{
		repo: NewCollectionRepo(store, collectionWorkflowState, func(s core.ReportState) string { return s.ID }),
	}
}

// Upsert replaces the persisted document for s.ID.
func (r *ReportStateStore) Upsert(ctx context.Context, s core.ReportState) error {
	return r.repo.Upsert(ctx, s)
}

// Get loads the persisted state for id, returning a wrapped core.ErrNotFound
// if no such report exists.
func (r *ReportStateStore) Get(ctx context.Context, id string) (core.ReportState, error) {
	return r.repo.Get(ctx, id)
}

var _ core.StateStore = (*ReportStateStore)(nil)

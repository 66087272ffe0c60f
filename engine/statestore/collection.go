package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/finalyze/core/engine/core"
	"github.com/finalyze/core/pkg/repo"
)

// idFunc extracts the document id from an entity of type T.
type idFunc[T any] func(T) string

// CollectionRepo is a repo.Repository[T, string] backed by one named
// collection in a Store's documents table. Entities round-trip through
// encoding/json, so T needs no SQL-specific tagging — it is the same
// struct the rest of the engine already passes around.
type CollectionRepo[T any] struct {
	store      *Store
	collection string
	id         idFunc[T]
}

// NewCollectionRepo builds a repository over the given collection name. id
// extracts the document id from an entity for Create/Update.
func NewCollectionRepo[T any](store *Store, collection string, id idFunc[T]) *CollectionRepo[T] {
	return &CollectionRepo[T]{store: store, collection: collection, id: id}
}

var _ repo.Repository[struct{}, string] = (*CollectionRepo[struct{}])(nil)

// Get loads the entity with the given id, wrapping core.ErrNotFound when
// absent.
func (r *CollectionRepo[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var data string
	err := r.store.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		r.collection, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return zero, fmt.Errorf("statestore: get %s/%s: %w", r.collection, id, core.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("statestore: get %s/%s: %w", r.collection, id, err)
	}
	var out T
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return zero, fmt.Errorf("statestore: unmarshal %s/%s: %w", r.collection, id, err)
	}
	return out, nil
}

// List returns entities in the collection, applying Offset/Limit. Filter is
// unused — every caller in this engine selects by id, not by predicate.
func (r *CollectionRepo[T]) List(ctx context.Context, opts repo.ListOpts) ([]T, error) {
	query := `SELECT data FROM documents WHERE collection = ? ORDER BY id`
	args := []any{r.collection}
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("statestore: list %s: %w", r.collection, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("statestore: scan %s: %w", r.collection, err)
		}
		var entity T
		if err := json.Unmarshal([]byte(data), &entity); err != nil {
			return nil, fmt.Errorf("statestore: unmarshal %s: %w", r.collection, err)
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

// Create upserts entity under its id and returns it unchanged.
func (r *CollectionRepo[T]) Create(ctx context.Context, entity T) (T, error) {
	return entity, r.Upsert(ctx, entity)
}

// Update upserts entity under its id and returns it unchanged. Create and
// Update are the same operation here: upserts replace the entire document,
// with no separate insert-only path.
func (r *CollectionRepo[T]) Update(ctx context.Context, entity T) (T, error) {
	return entity, r.Upsert(ctx, entity)
}

// Delete removes the entity with the given id. Deleting a missing id is not
// an error.
func (r *CollectionRepo[T]) Delete(ctx context.Context, id string) error {
	_, err := r.store.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		r.collection, id,
	)
	if err != nil {
		return fmt.Errorf("statestore: delete %s/%s: %w", r.collection, id, err)
	}
	return nil
}

// Upsert writes entity, replacing any existing document with the same id.
func (r *CollectionRepo[T]) Upsert(ctx context.Context, entity T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("statestore: marshal %s: %w", r.collection, err)
	}
	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, updated_at)
		 VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT(collection, id) DO UPDATE SET
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		r.collection, r.id(entity), string(data),
	)
	if err != nil {
		return fmt.Errorf("statestore: upsert %s/%s: %w", r.collection, r.id(entity), err)
	}
	return nil
}

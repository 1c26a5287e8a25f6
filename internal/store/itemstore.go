package store

import (
	"context"
	"database/sql"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
)

// Items exposes the item functions as the item store used by the lifecycle
// engine and the matcher. Missing records become apperror NOT_FOUND.
type Items struct {
	DB *sql.DB
}

// NewItems returns an item store backed by db.
func NewItems(db *sql.DB) *Items {
	return &Items{DB: db}
}

// Create inserts item and returns the stored record.
func (s *Items) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	return CreateItem(ctx, s.DB, item)
}

// Get returns the item with id.
func (s *Items) Get(ctx context.Context, id string) (*model.Item, error) {
	item, err := GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NotFound("item", id)
	}
	return item, nil
}

// List returns items matching filter.
func (s *Items) List(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error) {
	return ListItems(ctx, s.DB, filter)
}

// ListByType returns every item of type t.
func (s *Items) ListByType(ctx context.Context, t model.ItemType) ([]*model.Item, error) {
	return ListItems(ctx, s.DB, model.ItemFilter{Type: t})
}

// Save persists a validated status transition.
func (s *Items) Save(ctx context.Context, item *model.Item, change model.StatusChange) (*model.Item, error) {
	return SaveItemStatus(ctx, s.DB, item, change)
}

// Delete removes the item with id.
func (s *Items) Delete(ctx context.Context, id string) error {
	found, err := DeleteItem(ctx, s.DB, id)
	if err != nil {
		return err
	}
	if !found {
		return apperror.NotFound("item", id)
	}
	return nil
}

// History returns the status history of the item with id.
func (s *Items) History(ctx context.Context, id string) ([]model.StatusChange, error) {
	return ListStatusHistory(ctx, s.DB, id)
}

// Stats returns per-status counts.
func (s *Items) Stats(ctx context.Context) (*model.ItemStats, error) {
	return CountItemsByStatus(ctx, s.DB)
}

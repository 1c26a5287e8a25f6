// Package lifecycle creates, moves and deletes items. Every mutation is
// authorized by the policy package first; status changes are then checked
// against the lifecycle graph and saved with compare-and-swap.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/keywords"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/policy"
)

// ItemStore persists items. Missing records are reported as apperror
// NOT_FOUND. Save must reject a stale item.Version with apperror CONFLICT and
// leave the stored record unchanged.
type ItemStore interface {
	Create(ctx context.Context, item *model.Item) (*model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	List(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error)
	ListByType(ctx context.Context, t model.ItemType) ([]*model.Item, error)
	Save(ctx context.Context, item *model.Item, change model.StatusChange) (*model.Item, error)
	Delete(ctx context.Context, id string) error
}

// Policy is the authorization check the engine relies on.
type Policy interface {
	Authorize(ctx context.Context, id *model.Identity, item *model.Item, action policy.Action) error
}

// ApplyTransition returns a copy of item moved to target. Authorization is
// checked before the lifecycle graph, so a non-admin asking for an illegal
// edge gets UNAUTHORIZED rather than INVALID_TRANSITION. item is not modified.
func ApplyTransition(ctx context.Context, p Policy, item *model.Item, target model.ItemStatus, id *model.Identity) (*model.Item, error) {
	if err := p.Authorize(ctx, id, item, policy.ActionUpdateStatus(target)); err != nil {
		return nil, err
	}
	if !item.Status.CanTransitionTo(target) {
		return nil, apperror.InvalidTransition(string(item.Status), string(target))
	}

	next := item.Clone()
	next.Status = target
	return next, nil
}

// Engine runs item mutations against a store.
type Engine struct {
	Store  ItemStore
	Policy Policy
	Logger *slog.Logger
}

// New returns an engine. A nil logger means slog.Default().
func New(store ItemStore, p Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Store: store, Policy: p, Logger: logger}
}

// Create validates draft and stores a new OPEN item posted by id. Validation
// happens before the store is touched.
func (e *Engine) Create(ctx context.Context, id *model.Identity, draft model.ItemDraft) (*model.Item, error) {
	if err := e.Policy.Authorize(ctx, id, nil, policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	item := &model.Item{
		Type:        draft.Type,
		Status:      model.StatusOpen,
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Location:    draft.Location,
		Keywords:    keywords.Derive(draft.Title, draft.Category, draft.Description),
		ImageRef:    draft.ImageRef,
		PostedBy:    id.ID,
		ContactInfo: draft.ContactInfo,
	}

	created, err := e.Store.Create(ctx, item)
	if err != nil {
		return nil, storeError(err)
	}

	e.Logger.InfoContext(ctx, "item created",
		"item", created.ID, "type", created.Type, "actor", id.ID)
	return created, nil
}

// Get loads an item. Reads are open to everyone; callers project the result.
func (e *Engine) Get(ctx context.Context, itemID string) (*model.Item, error) {
	item, err := e.Store.Get(ctx, itemID)
	if err != nil {
		return nil, storeError(err)
	}
	return item, nil
}

// List returns the items matching filter.
func (e *Engine) List(ctx context.Context, filter model.ItemFilter) ([]*model.Item, error) {
	var (
		items []*model.Item
		err   error
	)
	if filter.Status == "" && filter.Type != "" {
		items, err = e.Store.ListByType(ctx, filter.Type)
	} else {
		items, err = e.Store.List(ctx, filter)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return items, nil
}

// Transition moves the item to target on behalf of id and saves it. When a
// concurrent change wins the race, the item is re-read and the request fails
// with INVALID_TRANSITION against the advanced status.
func (e *Engine) Transition(ctx context.Context, id *model.Identity, itemID string, target model.ItemStatus) (*model.Item, error) {
	item, err := e.Store.Get(ctx, itemID)
	if err != nil {
		return nil, storeError(err)
	}

	next, err := ApplyTransition(ctx, e.Policy, item, target, id)
	if err != nil {
		return nil, err
	}

	saved, err := e.Store.Save(ctx, next, model.StatusChange{
		ItemID:    item.ID,
		From:      item.Status,
		To:        target,
		ChangedBy: id.ID,
		ChangedAt: time.Now().UTC(),
	})
	if errors.Is(err, apperror.ErrConflict) {
		current, getErr := e.Store.Get(ctx, itemID)
		if getErr != nil {
			return nil, storeError(getErr)
		}
		e.Logger.WarnContext(ctx, "status change lost a race",
			"item", itemID, "target", target, "current", current.Status, "actor", id.ID)
		return nil, apperror.InvalidTransition(string(current.Status), string(target))
	}
	if err != nil {
		return nil, storeError(err)
	}

	e.Logger.InfoContext(ctx, "item status changed",
		"item", saved.ID, "from", item.Status, "to", saved.Status, "actor", id.ID)
	return saved, nil
}

// Delete removes the item on behalf of id, whatever its status.
func (e *Engine) Delete(ctx context.Context, id *model.Identity, itemID string) error {
	item, err := e.Store.Get(ctx, itemID)
	if err != nil {
		return storeError(err)
	}

	if err := e.Policy.Authorize(ctx, id, item, policy.ActionDelete); err != nil {
		return err
	}

	if err := e.Store.Delete(ctx, itemID); err != nil {
		return storeError(err)
	}

	e.Logger.InfoContext(ctx, "item deleted", "item", itemID, "actor", id.ID)
	return nil
}

// storeError passes domain errors through and reports anything else as an
// unavailable store.
func storeError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Unavailable("item store", err)
}

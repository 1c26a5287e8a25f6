package policy

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

// ItemView is the outward representation of an item. Values are created by
// Project only; the sensitive fields are unexported and serialized only when
// the viewer was allowed to see them.
type ItemView struct {
	ID          string           `json:"id"`
	Type        model.ItemType   `json:"type"`
	Status      model.ItemStatus `json:"status"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Location    string           `json:"location"`
	Keywords    []string         `json:"keywords"`
	ImageRef    string           `json:"image_ref,omitempty"`
	PostedBy    string           `json:"posted_by"`

	private *privateFields
}

type privateFields struct {
	contactInfo *string
	createdAt   time.Time
}

// Redacted reports whether the sensitive fields were withheld.
func (v ItemView) Redacted() bool {
	return v.private == nil
}

// ContactInfo returns the contact info and whether the viewer may see it.
// A visible but unset contact returns (nil, true).
func (v ItemView) ContactInfo() (*string, bool) {
	if v.private == nil {
		return nil, false
	}
	return v.private.contactInfo, true
}

// CreatedAt returns the creation time and whether the viewer may see it.
func (v ItemView) CreatedAt() (time.Time, bool) {
	if v.private == nil {
		return time.Time{}, false
	}
	return v.private.createdAt, true
}

// MarshalJSON writes contact_info and created_at only for privileged views.
// A privileged view of an item without contact info writes contact_info as
// null; a redacted view omits both keys.
func (v ItemView) MarshalJSON() ([]byte, error) {
	type public ItemView
	if v.private == nil {
		return json.Marshal(public(v))
	}
	return json.Marshal(struct {
		public
		ContactInfo *string   `json:"contact_info"`
		CreatedAt   time.Time `json:"created_at"`
	}{public(v), v.private.contactInfo, v.private.createdAt})
}

// MatchView is a projected match candidate.
type MatchView struct {
	Item  ItemView `json:"item"`
	Score float64  `json:"score"`
}

// Project returns the view of item that id may see. Contact info and creation
// time are present only for the owner and for administrators.
func (a *Authorizer) Project(ctx context.Context, id *model.Identity, item *model.Item) ItemView {
	keywords := slices.Clone(item.Keywords)
	if keywords == nil {
		keywords = []string{}
	}

	v := ItemView{
		ID:          item.ID,
		Type:        item.Type,
		Status:      item.Status,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		Keywords:    keywords,
		ImageRef:    item.ImageRef,
		PostedBy:    item.PostedBy,
	}

	if a.Decide(ctx, id, Action{Kind: KindViewPrivate}, item).Allowed {
		p := &privateFields{createdAt: item.CreatedAt}
		if item.ContactInfo != nil {
			c := *item.ContactInfo
			p.contactInfo = &c
		}
		v.private = p
	}
	return v
}

// ProjectAll projects every item. The result is never nil.
func (a *Authorizer) ProjectAll(ctx context.Context, id *model.Identity, items []*model.Item) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, a.Project(ctx, id, item))
	}
	return views
}

// ProjectMatch projects a scored candidate.
func (a *Authorizer) ProjectMatch(ctx context.Context, id *model.Identity, c model.Candidate) MatchView {
	return MatchView{Item: a.Project(ctx, id, c.Item), Score: c.Score}
}

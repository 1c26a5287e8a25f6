package model

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/apperror"
)

// ItemType tells whether an item was reported lost or found.
type ItemType string

// Item types.
const (
	ItemTypeLost  ItemType = "LOST"
	ItemTypeFound ItemType = "FOUND"
)

// ParseItemType converts s to an ItemType. Matching is case-insensitive.
func ParseItemType(s string) (ItemType, bool) {
	t := ItemType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid reports whether t is a known type.
func (t ItemType) Valid() bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// Opposite returns the type that items of type t are matched against.
func (t ItemType) Opposite() ItemType {
	switch t {
	case ItemTypeLost:
		return ItemTypeFound
	case ItemTypeFound:
		return ItemTypeLost
	}
	return ""
}

// ItemStatus is the lifecycle state of an item.
type ItemStatus string

// Item statuses.
const (
	StatusOpen            ItemStatus = "OPEN"
	StatusReceivedByAdmin ItemStatus = "RECEIVED_BY_ADMIN"
	StatusClaimed         ItemStatus = "CLAIMED"
	StatusResolved        ItemStatus = "RESOLVED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []ItemStatus{StatusOpen, StatusReceivedByAdmin, StatusClaimed, StatusResolved}

// transitions holds the edges of the lifecycle graph. CLAIMED has no
// outgoing edge and RESOLVED has no inbound one.
var transitions = map[ItemStatus][]ItemStatus{
	StatusOpen:            {StatusReceivedByAdmin, StatusClaimed},
	StatusReceivedByAdmin: {StatusClaimed},
}

// ParseItemStatus converts s to an ItemStatus. Matching is case-insensitive.
func ParseItemStatus(s string) (ItemStatus, bool) {
	st := ItemStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	return slices.Contains(AllStatuses, s)
}

// Successors returns the statuses an item in state s may move to.
func (s ItemStatus) Successors() []ItemStatus {
	return slices.Clone(transitions[s])
}

// CanTransitionTo reports whether s -> target is an edge of the lifecycle graph.
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	return slices.Contains(transitions[s], target)
}

// Item is the stored representation of a lost or found report. It holds
// sensitive fields and refuses to serialize itself; outward views are built
// by policy.Project.
type Item struct {
	ID          string
	Type        ItemType
	Status      ItemStatus
	Title       string
	Description string
	Category    string
	Location    string
	Keywords    []string
	ImageRef    string
	PostedBy    string
	ContactInfo *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Version is bumped on every save and used for compare-and-swap.
	Version int64
}

// errUnprojected is returned when an Item is marshaled directly.
var errUnprojected = errors.New("model: item must be projected before serialization")

// MarshalJSON always fails so that a raw Item never reaches a client.
func (Item) MarshalJSON() ([]byte, error) {
	return nil, errUnprojected
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Keywords = slices.Clone(i.Keywords)
	if i.ContactInfo != nil {
		v := *i.ContactInfo
		c.ContactInfo = &v
	}
	return &c
}

// ItemDraft is the caller-supplied part of a new item.
type ItemDraft struct {
	Type        ItemType
	Title       string
	Description string
	Category    string
	Location    string
	ImageRef    string
	ContactInfo *string
}

// Validate checks that every required field is present. All missing fields
// are reported together, in the order title, location, description, type,
// category.
func (d ItemDraft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(d.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	if d.Type == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(d.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return apperror.Validation("missing required fields: "+strings.Join(missing, ", "), missing...)
	}
	if !d.Type.Valid() {
		return apperror.Validation("type must be LOST or FOUND", "type")
	}
	return nil
}

// ItemFilter narrows item listings. Zero values match everything.
type ItemFilter struct {
	Type   ItemType
	Status ItemStatus
}

// StatusChange is one recorded lifecycle transition.
type StatusChange struct {
	ItemID    string     `json:"item_id"`
	From      ItemStatus `json:"from"`
	To        ItemStatus `json:"to"`
	ChangedBy string     `json:"changed_by"`
	ChangedAt time.Time  `json:"changed_at"`
}

// ItemStats counts items per status.
type ItemStats struct {
	Total    int                `json:"total"`
	ByStatus map[ItemStatus]int `json:"by_status"`
}

// Candidate is an externally scored pairing for an item.
type Candidate struct {
	Item  *Item
	Score float64
}

package policy

import "github.com/erazemk/najdeno/internal/model"

// ActionKind names a Cedar action.
type ActionKind string

// Item actions.
const (
	KindCreate       ActionKind = "item:create"
	KindRead         ActionKind = "item:read"
	KindUpdateStatus ActionKind = "item:update_status"
	KindDelete       ActionKind = "item:delete"

	// KindViewPrivate gates the sensitive fields in Project.
	KindViewPrivate ActionKind = "item:view_private"
	KindReadHistory ActionKind = "item:read_history"
)

// System actions. They are not tied to an item.
const (
	KindViewStats   ActionKind = "system:view_stats"
	KindManageUsers ActionKind = "system:manage_users"
)

// Action is a requested operation. Target is set only for status changes.
type Action struct {
	Kind   ActionKind
	Target model.ItemStatus
}

// Predefined actions.
var (
	ActionCreate      = Action{Kind: KindCreate}
	ActionRead        = Action{Kind: KindRead}
	ActionDelete      = Action{Kind: KindDelete}
	ActionReadHistory = Action{Kind: KindReadHistory}
	ActionViewStats   = Action{Kind: KindViewStats}
	ActionManageUsers = Action{Kind: KindManageUsers}
)

// ActionUpdateStatus returns the action of moving an item to target.
func ActionUpdateStatus(target model.ItemStatus) Action {
	return Action{Kind: KindUpdateStatus, Target: target}
}

// String returns a short human-readable name, used in errors and logs.
func (a Action) String() string {
	if a.Kind == KindUpdateStatus && a.Target != "" {
		return string(a.Kind) + "(" + string(a.Target) + ")"
	}
	return string(a.Kind)
}

// itemScoped reports whether the action is evaluated against a specific item.
func (a Action) itemScoped() bool {
	switch a.Kind {
	case KindViewStats, KindManageUsers:
		return false
	}
	return true
}

package policy

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
)

func newTestAuthorizer(t *testing.T) *Authorizer {
	t.Helper()

	a, err := New(Config{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	if err != nil {
		t.Fatalf("Failed to create authorizer: %v", err)
	}
	return a
}

var (
	owner    = model.NewIdentity("u1", model.RoleUser)
	stranger = model.NewIdentity("u2", model.RoleUser)
	admin    = model.NewIdentity("a1", model.RoleAdmin)
)

func testItem(status model.ItemStatus) *model.Item {
	contact := "u1@example.edu"
	return &model.Item{
		ID:          "item-1",
		Type:        model.ItemTypeLost,
		Status:      status,
		Title:       "Wallet",
		Description: "Brown leather",
		Category:    "accessories",
		Location:    "Library",
		Keywords:    []string{"wallet", "brown"},
		PostedBy:    "u1",
		ContactInfo: &contact,
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestCanPerform(t *testing.T) {
	t.Parallel()

	a := newTestAuthorizer(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		id     *model.Identity
		item   *model.Item
		action Action
		want   bool
	}{
		{"anonymous create", nil, nil, ActionCreate, false},
		{"empty identity create", &model.Identity{}, nil, ActionCreate, false},
		{"user create", stranger, nil, ActionCreate, true},
		{"anonymous read", nil, testItem(model.StatusOpen), ActionRead, true},
		{"user read claimed", stranger, testItem(model.StatusClaimed), ActionRead, true},

		{"admin open to received", admin, testItem(model.StatusOpen), ActionUpdateStatus(model.StatusReceivedByAdmin), true},
		{"admin open to claimed", admin, testItem(model.StatusOpen), ActionUpdateStatus(model.StatusClaimed), true},
		{"admin received to claimed", admin, testItem(model.StatusReceivedByAdmin), ActionUpdateStatus(model.StatusClaimed), true},
		{"admin received to open", admin, testItem(model.StatusReceivedByAdmin), ActionUpdateStatus(model.StatusOpen), false},
		{"admin claimed to resolved", admin, testItem(model.StatusClaimed), ActionUpdateStatus(model.StatusResolved), false},
		{"admin open to resolved", admin, testItem(model.StatusOpen), ActionUpdateStatus(model.StatusResolved), false},
		{"owner update status", owner, testItem(model.StatusOpen), ActionUpdateStatus(model.StatusClaimed), false},
		{"stranger update status", stranger, testItem(model.StatusOpen), ActionUpdateStatus(model.StatusClaimed), false},
		{"anonymous update status", nil, testItem(model.StatusOpen), ActionUpdateStatus(model.StatusClaimed), false},

		{"owner delete", owner, testItem(model.StatusOpen), ActionDelete, true},
		{"owner delete claimed", owner, testItem(model.StatusClaimed), ActionDelete, true},
		{"admin delete", admin, testItem(model.StatusReceivedByAdmin), ActionDelete, true},
		{"stranger delete", stranger, testItem(model.StatusOpen), ActionDelete, false},
		{"anonymous delete", nil, testItem(model.StatusOpen), ActionDelete, false},

		{"owner history", owner, testItem(model.StatusOpen), ActionReadHistory, true},
		{"stranger history", stranger, testItem(model.StatusOpen), ActionReadHistory, false},
		{"admin stats", admin, nil, ActionViewStats, true},
		{"user stats", owner, nil, ActionViewStats, false},
		{"admin manage users", admin, nil, ActionManageUsers, true},
		{"anonymous manage users", nil, nil, ActionManageUsers, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.CanPerform(ctx, tt.id, tt.item, tt.action); got != tt.want {
				t.Errorf("CanPerform(%s) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}

func TestOwnershipRequiresMatchingID(t *testing.T) {
	t.Parallel()

	a := newTestAuthorizer(t)
	item := testItem(model.StatusOpen)
	item.PostedBy = ""

	// An item without a poster has no owner, even for an identity with an empty ID.
	if a.CanPerform(context.Background(), &model.Identity{}, item, ActionDelete) {
		t.Error("expected delete to be denied for unowned item")
	}
}

func TestAuthorizeReturnsUnauthorized(t *testing.T) {
	t.Parallel()

	a := newTestAuthorizer(t)

	err := a.Authorize(context.Background(), stranger, testItem(model.StatusOpen), ActionUpdateStatus(model.StatusOpen))
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	// Authorize ignores the lifecycle graph; that check belongs to the caller.
	if err := a.Authorize(context.Background(), admin, testItem(model.StatusClaimed), ActionUpdateStatus(model.StatusOpen)); err != nil {
		t.Errorf("expected admin to pass the policy check, got %v", err)
	}
}

func TestDecisionReasons(t *testing.T) {
	t.Parallel()

	a := newTestAuthorizer(t)
	ctx := context.Background()

	if d := a.Decide(ctx, nil, ActionCreate, nil); d.Reason != "authentication required" {
		t.Errorf("unexpected reason %q", d.Reason)
	}
	if d := a.Decide(ctx, stranger, ActionUpdateStatus(model.StatusClaimed), testItem(model.StatusOpen)); d.Reason != "admin role required" {
		t.Errorf("unexpected reason %q", d.Reason)
	}
	if d := a.Decide(ctx, admin, ActionDelete, testItem(model.StatusOpen)); !d.Allowed || d.PolicyID == "" {
		t.Errorf("expected allow with a policy id, got %+v", d)
	}
}

func TestPolicyParseError(t *testing.T) {
	t.Parallel()

	invalid := []byte(`
		permit(
			principal,
			action,
			resource
		) when {
			context.is_owner ==
		};
	`)

	if _, err := New(Config{PolicyBytes: invalid}); err == nil {
		t.Error("Expected error for invalid policy syntax, got nil")
	}
}

func TestDecisionLogging(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	a, err := New(Config{Logger: logger})
	if err != nil {
		t.Fatalf("Failed to create authorizer: %v", err)
	}

	a.Decide(context.Background(), admin, ActionDelete, testItem(model.StatusOpen))

	out := logBuf.String()
	for _, want := range []string{`"msg":"authorization decision"`, `"action":"item:delete"`, `"decision":true`} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("expected log to contain %s, got %s", want, out)
		}
	}
}

package policy

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/cedar-policy/cedar-go"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
)

//go:embed policies.cedar
var policiesContent []byte

// Config contains options for the Authorizer.
type Config struct {
	// Logger receives decision logs at debug level. If nil, uses slog.Default().
	Logger *slog.Logger

	// PolicyBytes replaces the embedded policies.cedar (for testing).
	PolicyBytes []byte
}

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Allowed  bool
	Reason   string
	PolicyID string
	Duration time.Duration
}

// Authorizer evaluates item permissions and builds projected views.
// It is safe for concurrent use.
type Authorizer struct {
	policies *cedar.PolicySet
	logger   *slog.Logger
}

// New creates an authorizer with the given configuration.
func New(cfg Config) (*Authorizer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	data := cfg.PolicyBytes
	if data == nil {
		data = policiesContent
	}

	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", data)
	if err != nil {
		return nil, fmt.Errorf("parsing policies: %w", err)
	}

	return &Authorizer{policies: ps, logger: logger}, nil
}

// MustNew is like New with the embedded policies and panics on error.
func MustNew(logger *slog.Logger) *Authorizer {
	a, err := New(Config{Logger: logger})
	if err != nil {
		panic(err)
	}
	return a
}

// Decide evaluates the Cedar policies for (identity, action, item). It does
// not consult the lifecycle graph. item may be nil for creation and for
// system actions.
func (a *Authorizer) Decide(ctx context.Context, id *model.Identity, action Action, item *model.Item) Decision {
	start := time.Now()

	entities, req := buildRequest(id, action, item)
	decision, diag := cedar.Authorize(a.policies, entities, req)

	result := Decision{
		Allowed:  decision == cedar.Allow,
		Duration: time.Since(start),
	}
	if len(diag.Reasons) > 0 {
		result.PolicyID = string(diag.Reasons[0].PolicyID)
	}
	if result.Allowed {
		result.Reason = "access permitted"
	} else {
		result.Reason = denyReason(id, action)
	}

	a.logger.DebugContext(ctx, "authorization decision",
		"principal", req.Principal.String(),
		"action", action.String(),
		"resource", req.Resource.String(),
		"decision", result.Allowed,
		"reason", result.Reason,
		"policy_id", result.PolicyID,
		"duration_us", result.Duration.Microseconds(),
	)
	for _, e := range diag.Errors {
		a.logger.ErrorContext(ctx, "policy evaluation error",
			"policy", e.PolicyID,
			"error", e.Message,
		)
	}

	return result
}

// denyReason explains a denial in terms a client can act on.
func denyReason(id *model.Identity, action Action) string {
	if !model.Authenticated(id) && action.Kind != KindRead {
		return "authentication required"
	}
	switch action.Kind {
	case KindUpdateStatus, KindViewStats, KindManageUsers:
		return "admin role required"
	case KindDelete, KindViewPrivate, KindReadHistory:
		return "only the owner or an admin may do this"
	}
	return "no matching permit policy"
}

// CanPerform reports whether id may perform action on item. For a status
// change the target must also be a successor of the item's current status.
func (a *Authorizer) CanPerform(ctx context.Context, id *model.Identity, item *model.Item, action Action) bool {
	if !a.Decide(ctx, id, action, item).Allowed {
		return false
	}
	if action.Kind == KindUpdateStatus {
		return item != nil && item.Status.CanTransitionTo(action.Target)
	}
	return true
}

// Authorize is Decide reported as an error: nil when allowed, an apperror
// UNAUTHORIZED otherwise. The lifecycle graph is not consulted.
func (a *Authorizer) Authorize(ctx context.Context, id *model.Identity, item *model.Item, action Action) error {
	d := a.Decide(ctx, id, action, item)
	if d.Allowed {
		return nil
	}
	return apperror.Unauthorized(action.String(), d.Reason)
}

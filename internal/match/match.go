// Package match attaches ranked LOST/FOUND pairings to an item. Scoring is
// done by an external matcher; this package only filters, orders and projects
// its output.
package match

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/policy"
)

// Matcher returns scored candidates of the opposite type for an item.
type Matcher interface {
	FindCandidates(ctx context.Context, item *model.Item) ([]model.Candidate, error)
}

// Projector builds the outward view of a candidate.
type Projector interface {
	ProjectMatch(ctx context.Context, id *model.Identity, c model.Candidate) policy.MatchView
}

// Surfacer turns matcher output into the match list shown with an item.
type Surfacer struct {
	Matcher   Matcher
	Projector Projector
	Logger    *slog.Logger
}

// NewSurfacer returns a surfacer. A nil logger means slog.Default().
func NewSurfacer(m Matcher, p Projector, logger *slog.Logger) *Surfacer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Surfacer{Matcher: m, Projector: p, Logger: logger}
}

// GetMatches returns the projected candidates for item, best score first and
// ties ordered by candidate id. Candidates that reference item itself, share
// its type or carry a score outside [0, 1] are dropped. The result is empty,
// never nil, when nothing remains.
func (s *Surfacer) GetMatches(ctx context.Context, id *model.Identity, item *model.Item) ([]policy.MatchView, error) {
	candidates, err := s.Matcher.FindCandidates(ctx, item)
	if err != nil {
		if _, ok := apperror.As(err); ok {
			return nil, err
		}
		return nil, apperror.Unavailable("matcher", err)
	}

	want := item.Type.Opposite()
	kept := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		switch {
		case c.Item == nil || c.Item.ID == item.ID:
			continue
		case c.Item.Type != want:
			continue
		case math.IsNaN(c.Score) || c.Score < 0 || c.Score > 1:
			s.Logger.WarnContext(ctx, "dropping candidate with invalid score",
				"item", item.ID, "candidate", c.Item.ID, "score", c.Score)
			continue
		}
		kept = append(kept, c)
	}

	slices.SortStableFunc(kept, func(a, b model.Candidate) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Item.ID, b.Item.ID)
	})

	views := make([]policy.MatchView, 0, len(kept))
	for _, c := range kept {
		views = append(views, s.Projector.ProjectMatch(ctx, id, c))
	}
	return views, nil
}

// NoopMatcher never finds candidates. It is used when no matcher is configured.
type NoopMatcher struct{}

// FindCandidates implements Matcher.
func (NoopMatcher) FindCandidates(context.Context, *model.Item) ([]model.Candidate, error) {
	return nil, nil
}

package match

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/najdeno/internal/apperror"
	"github.com/erazemk/najdeno/internal/model"
)

const tracerName = "github.com/erazemk/najdeno/internal/match"

// ItemGetter resolves candidate ids returned by the matcher.
type ItemGetter interface {
	Get(ctx context.Context, id string) (*model.Item, error)
}

// HTTPMatcher asks a remote scoring service for candidates. It posts the
// item's public fields to {BaseURL}/candidates and expects
// {"candidates": [{"id": "...", "score": 0.9}]} back.
type HTTPMatcher struct {
	BaseURL string
	Items   ItemGetter
	Client  *http.Client
}

// NewHTTPMatcher returns a matcher for baseURL with the given request timeout.
func NewHTTPMatcher(baseURL string, items ItemGetter, timeout time.Duration) *HTTPMatcher {
	return &HTTPMatcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Items:   items,
		Client:  &http.Client{Timeout: timeout},
	}
}

type candidateRequest struct {
	ID          string         `json:"id"`
	Type        model.ItemType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Location    string         `json:"location"`
	Keywords    []string       `json:"keywords"`
	Want        model.ItemType `json:"want"`
}

type candidateResponse struct {
	Candidates []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"candidates"`
}

// FindCandidates implements Matcher. Ids the store no longer knows are skipped.
func (m *HTTPMatcher) FindCandidates(ctx context.Context, item *model.Item) ([]model.Candidate, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "match.FindCandidates", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("item.id", item.ID),
		attribute.String("item.type", string(item.Type)),
	)

	resp, err := m.request(ctx, item)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "matcher request failed")
		return nil, apperror.Unavailable("matcher", err)
	}

	candidates := make([]model.Candidate, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		candidate, err := m.Items.Get(ctx, c.ID)
		if errors.Is(err, apperror.ErrNotFound) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "resolving candidate failed")
			if _, ok := apperror.As(err); ok {
				return nil, err
			}
			return nil, apperror.Unavailable("item store", err)
		}
		candidates = append(candidates, model.Candidate{Item: candidate, Score: c.Score})
	}

	span.SetAttributes(attribute.Int("match.candidates", len(candidates)))
	return candidates, nil
}

func (m *HTTPMatcher) request(ctx context.Context, item *model.Item) (*candidateResponse, error) {
	body, err := json.Marshal(candidateRequest{
		ID:          item.ID,
		Type:        item.Type,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		Keywords:    item.Keywords,
		Want:        item.Type.Opposite(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/candidates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling matcher: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("matcher returned %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out candidateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding matcher response: %w", err)
	}
	return &out, nil
}

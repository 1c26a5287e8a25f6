package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound("item", "abc"))

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected wrapped NotFound to match ErrNotFound")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("expected NotFound not to match ErrUnauthorized")
	}
}

func TestUnauthorizedAndInvalidTransitionAreDistinct(t *testing.T) {
	unauth := Unauthorized("update_status", "admin role required")
	invalid := InvalidTransition("CLAIMED", "OPEN")

	if errors.Is(unauth, ErrInvalidTransition) {
		t.Error("Unauthorized must not match ErrInvalidTransition")
	}
	if errors.Is(invalid, ErrUnauthorized) {
		t.Error("InvalidTransition must not match ErrUnauthorized")
	}
	if unauth.HTTPStatus() == invalid.HTTPStatus() {
		t.Errorf("expected different statuses, both %d", unauth.HTTPStatus())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFound("item", "x"), http.StatusNotFound},
		{Unauthorized("delete", "not owner"), http.StatusForbidden},
		{InvalidTransition("OPEN", "RESOLVED"), http.StatusConflict},
		{Validation("missing fields", "title"), http.StatusBadRequest},
		{Unavailable("matcher", errors.New("dial tcp")), http.StatusServiceUnavailable},
		{&Error{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.want {
			t.Errorf("%s: HTTPStatus() = %d, want %d", tt.err.Code, got, tt.want)
		}
	}
}

func TestUnavailableUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("item store", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if got := err.Error(); got != "item store unavailable: connection refused" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", Validation("bad", "title", "type"))); got != CodeValidation {
		t.Errorf("CodeOf = %q, want %q", got, CodeValidation)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
}

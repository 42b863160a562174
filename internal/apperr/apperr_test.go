package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSentinel = New(NotFound, "thing not found")

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("get thing: %w", errSentinel)
	if got := KindOf(err); got != NotFound {
		t.Fatalf("kind=%v, want %v", got, NotFound)
	}
	if !errors.Is(err, errSentinel) {
		t.Fatalf("errors.Is lost the sentinel")
	}
	if Message(err) != "thing not found" {
		t.Fatalf("message=%q", Message(err))
	}
}

func TestKindOf_PlainError(t *testing.T) {
	err := errors.New("boom")
	if KindOf(err) != Internal {
		t.Fatalf("plain errors must map to Internal")
	}
	if Message(err) != "internal error" {
		t.Fatalf("internal details leaked: %q", Message(err))
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:      http.StatusBadRequest,
		EmptyCart:       http.StatusBadRequest,
		Unauthorized:    http.StatusUnauthorized,
		Forbidden:       http.StatusForbidden,
		NotFound:        http.StatusNotFound,
		Conflict:        http.StatusConflict,
		UpstreamFailure: http.StatusBadGateway,
		Internal:        http.StatusInternalServerError,
	}
	for k, want := range cases {
		if got := HTTPStatus(k); got != want {
			t.Errorf("HTTPStatus(%v)=%d, want %d", k, got, want)
		}
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(UpstreamFailure, "payment gateway unavailable", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable through Unwrap")
	}
	if err.Error() != "payment gateway unavailable: dial tcp: refused" {
		t.Fatalf("Error()=%q", err.Error())
	}
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := Rule("Saldo insuficiente")
	err := fmt.Errorf("withdraw: %w", base)
	if got := KindOf(err); got != RuleViolation {
		t.Fatalf("KindOf = %v, want %v", got, RuleViolation)
	}
	if !errors.Is(err, New(RuleViolation, "")) {
		t.Fatal("expected errors.Is to match on kind")
	}
	if errors.Is(err, New(Conflict, "")) {
		t.Fatal("expected kinds to differ")
	}
	if got := MessageOf(err); got != "Saldo insuficiente" {
		t.Fatalf("MessageOf = %q", got)
	}
}

func TestUnclassifiedIsInternal(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	if got := KindOf(err); got != Internal {
		t.Fatalf("KindOf = %v, want internal", got)
	}
	if got := MessageOf(err); got == err.Error() {
		t.Fatal("internal error message leaked")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		NotFound:      http.StatusNotFound,
		Validation:    http.StatusBadRequest,
		RuleViolation: http.StatusBadRequest,
		Conflict:      http.StatusConflict,
		Internal:      http.StatusInternalServerError,
	}
	for k, want := range cases {
		if got := k.HTTPStatus(); got != want {
			t.Errorf("%v.HTTPStatus() = %d, want %d", k, got, want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(Internal, "falha", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
}

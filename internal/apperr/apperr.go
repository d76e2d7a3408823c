// Package apperr defines the error taxonomy shared by the ledger service and
// its HTTP adapter.  Every failure that reaches a client is one of five
// kinds, and each kind maps to one HTTP status.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// Internal is an unexpected failure: storage errors, broken invariants.
	Internal Kind = iota
	// NotFound means a referenced session, player, property or record does not exist.
	NotFound
	// Validation means a malformed request: missing field, non-positive amount.
	Validation
	// RuleViolation means a well-formed request that the game rules reject.
	RuleViolation
	// Conflict means the current state makes the request impossible, such as
	// buying a property that already has an owner.
	Conflict
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case RuleViolation:
		return "rule_violation"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status for k.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Validation, RuleViolation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure.  Message is safe to show to players.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.New(apperr.Conflict, ""))
// works as a kind test.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a classified error around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NotFoundf(message string) *Error   { return New(NotFound, message) }
func Invalid(message string) *Error     { return New(Validation, message) }
func Rule(message string) *Error        { return New(RuleViolation, message) }
func Conflicting(message string) *Error { return New(Conflict, message) }

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the player-facing message of err.  Unclassified errors
// get a generic message so storage details never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "Erro interno do servidor"
}

// Package repository error values shared by every adapter.  Higher layers
// translate them into classified application errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup by ID (or by name for color groups)
// matches no row.  Adapters wrap it with the entity name, so callers should
// test with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with a uniqueness
// constraint, such as a duplicated player name inside a session.
var ErrConflict = errors.New("conflict")

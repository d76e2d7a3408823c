package model

import "time"

// Session is one game in progress.  Every player, ownership record and
// history entry belongs to exactly one session and is removed with it.
type Session struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nome"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionState is the full read model of a session as returned when a client
// loads a saved game.  The session's own fields sit at the top level of the
// JSON object, next to its players, records and history.
type SessionState struct {
	Session
	Players    []Player       `json:"jogadores"`
	Ownerships []Ownership    `json:"sessionPosses"`
	History    []HistoryEntry `json:"historico"`
}

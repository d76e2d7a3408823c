package model

// Player holds a balance inside one session.  Balance may go negative only
// through a collect-from-all operation; every other debit is checked first.
type Player struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"sessionId"`
	Name      string `json:"nome"`
	Color     string `json:"cor"`
	Balance   int64  `json:"saldo"`
}

// Palette lists the token colors a player can pick.  Colors are unique
// within a session.
var Palette = []string{"red", "blue", "green", "yellow", "purple", "black", "orange", "pink", "emerald"}

// ValidColor reports whether c is part of the palette.
func ValidColor(c string) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

const (
	MinPlayers = 2
	MaxPlayers = 6
)

// PlayerDetail is a player together with the ownership records they hold.
type PlayerDetail struct {
	Player
	Properties []Ownership `json:"sessionPosses"`
}

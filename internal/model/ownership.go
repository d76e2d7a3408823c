package model

// MaxHouses is the building cap per property; the fifth house is the hotel.
const MaxHouses = 5

// Ownership is the per-session state of one catalog property.  A nil
// OwnerID means the bank holds it.  A mortgaged record is always unowned
// and has no houses.
type Ownership struct {
	ID         int64  `json:"id"`
	SessionID  int64  `json:"sessionId"`
	PropertyID int64  `json:"possesId"`
	OwnerID    *int64 `json:"playerId"`
	Houses     int    `json:"casas"`
	Mortgaged  bool   `json:"hipotecada"`
}

// OwnedBy reports whether playerID currently owns the record.
func (o Ownership) OwnedBy(playerID int64) bool {
	return o.OwnerID != nil && *o.OwnerID == playerID
}

// Owned reports whether any player owns the record.
func (o Ownership) Owned() bool { return o.OwnerID != nil }

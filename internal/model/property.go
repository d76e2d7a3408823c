package model

// PropertyType distinguishes regular lots, which take houses and pay rent
// from the tier table, from shares whose rent depends on a dice roll.
type PropertyType string

const (
	PropertyNormal PropertyType = "normal"
	PropertyShare  PropertyType = "share"
)

// ColorGroup carries the number of properties that make up a full set.
type ColorGroup struct {
	Name  string `json:"nome"`
	Total int    `json:"total"`
}

// Property is a catalog entry.  Catalog rows are loaded once at startup and
// never change at runtime.
type Property struct {
	ID        int64        `json:"id"`
	Name      string       `json:"nome"`
	Group     string       `json:"grupo_cor"`
	Type      PropertyType `json:"tipo"`
	Cost      int64        `json:"custo_compra"`
	RentBase  int64        `json:"aluguel_base"`
	Rent1     int64        `json:"aluguel_1c"`
	Rent2     int64        `json:"aluguel_2c"`
	Rent3     int64        `json:"aluguel_3c"`
	Rent4     int64        `json:"aluguel_4c"`
	RentHotel int64        `json:"aluguel_hotel"`
	HouseCost int64        `json:"custo_casa"`
	Mortgage  int64        `json:"hipoteca"`
}

// IsShare reports whether p is a share-type property.
func (p Property) IsShare() bool { return p.Type == PropertyShare }

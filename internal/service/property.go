package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/sgp-controller/internal/apperr"
	"github.com/iliyamo/sgp-controller/internal/model"
	"github.com/iliyamo/sgp-controller/internal/repository"
)

// MortgageSurcharge is the percentage added to the price of a mortgaged
// property when it is bought back from the bank.
const MortgageSurcharge = 20

// PropertyAction names a player acting on one property of a session.  The
// property is addressed by its catalog ID.
type PropertyAction struct {
	PlayerID   int64
	SessionID  int64
	PropertyID int64
}

func (a PropertyAction) session() int64 { return a.SessionID }

func (a PropertyAction) validate() error {
	if err := requireID(a.PropertyID, "propriedadeId"); err != nil {
		return err
	}
	if err := requireID(a.SessionID, "sessionId"); err != nil {
		return err
	}
	return requireID(a.PlayerID, "userId")
}

// load locks the ownership record and then the acting player.
func (a PropertyAction) load(ctx context.Context, tx repository.Tx) (model.Ownership, model.Property, model.Player, error) {
	o, prop, err := loadRecord(ctx, tx, a.SessionID, a.PropertyID)
	if err != nil {
		return o, prop, model.Player{}, err
	}
	p, err := loadPlayer(ctx, tx, a.SessionID, a.PlayerID)
	return o, prop, p, err
}

// ownedWithoutHouses checks the preconditions shared by sell and mortgage.
func ownedWithoutHouses(o model.Ownership, playerID int64) error {
	if !o.OwnedBy(playerID) {
		return apperr.Rule(msgNotOwner)
	}
	if o.Houses > 0 {
		return apperr.Rule("Venda as casas antes de negociar a propriedade")
	}
	return nil
}

// BuyProperty buys an unowned property from the bank.
type BuyProperty struct{ PropertyAction }

func (c BuyProperty) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	o, prop, p, err := c.load(ctx, tx)
	if err != nil {
		return outcome{}, err
	}
	if o.Owned() {
		return outcome{}, apperr.Conflicting("Propriedade já foi comprada")
	}
	price := prop.Cost
	if o.Mortgaged {
		price = prop.Cost * (100 + MortgageSurcharge) / 100
	}
	if p.Balance < price {
		return outcome{}, apperr.Rule(msgInsufficient)
	}
	o.OwnerID = &p.ID
	o.Houses = 0
	o.Mortgaged = false
	if err := tx.SaveOwnership(ctx, o); err != nil {
		return outcome{}, err
	}
	if err := tx.AdjustBalance(ctx, p.ID, -price); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:      model.KindBuyProperty,
		detail:    fmt.Sprintf("%s comprou a propriedade em %s por R$ %d", p.Name, prop.Name, price),
		message:   "Propriedade comprada com sucesso!",
		amount:    price,
		ownership: &o,
	}, nil
}

// BuyProperty runs cmd.
func (s *Service) BuyProperty(ctx context.Context, cmd BuyProperty) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// SellProperty returns an owned property to the bank for its mortgage value.
type SellProperty struct{ PropertyAction }

func (c SellProperty) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	o, prop, p, err := c.load(ctx, tx)
	if err != nil {
		return outcome{}, err
	}
	if err := ownedWithoutHouses(o, p.ID); err != nil {
		return outcome{}, err
	}
	o.OwnerID = nil
	o.Houses = 0
	if err := tx.SaveOwnership(ctx, o); err != nil {
		return outcome{}, err
	}
	if err := credit(ctx, tx, p, prop.Mortgage); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:      model.KindSellProperty,
		detail:    fmt.Sprintf("%s vendeu a propriedade %s por R$ %d", p.Name, prop.Name, prop.Mortgage),
		message:   "Propriedade vendida com sucesso!",
		amount:    prop.Mortgage,
		ownership: &o,
	}, nil
}

// SellProperty runs cmd.
func (s *Service) SellProperty(ctx context.Context, cmd SellProperty) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// MortgageProperty hands an owned property to the bank flagged as
// mortgaged and credits its mortgage value.  Buying it back costs the
// surcharged price.
type MortgageProperty struct{ PropertyAction }

func (c MortgageProperty) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	o, prop, p, err := c.load(ctx, tx)
	if err != nil {
		return outcome{}, err
	}
	if err := ownedWithoutHouses(o, p.ID); err != nil {
		return outcome{}, err
	}
	o.OwnerID = nil
	o.Houses = 0
	o.Mortgaged = true
	if err := tx.SaveOwnership(ctx, o); err != nil {
		return outcome{}, err
	}
	if err := credit(ctx, tx, p, prop.Mortgage); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:      model.KindMortgage,
		detail:    fmt.Sprintf("%s hipotecou a propriedade %s por R$ %d", p.Name, prop.Name, prop.Mortgage),
		message:   "Propriedade hipotecada com sucesso!",
		amount:    prop.Mortgage,
		ownership: &o,
	}, nil
}

// MortgageProperty runs cmd.
func (s *Service) MortgageProperty(ctx context.Context, cmd MortgageProperty) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// BuyHouse adds a house to a property of a color group the player fully
// owns.  The fifth house is the hotel.
type BuyHouse struct{ PropertyAction }

func (c BuyHouse) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	prop, err := loadProperty(ctx, tx, c.PropertyID)
	if err != nil {
		return outcome{}, err
	}
	// The whole group is locked, in ID order, before the player.
	o, owned, err := loadGroupRecord(ctx, tx, c.SessionID, prop, c.PlayerID)
	if err != nil {
		return outcome{}, err
	}
	p, err := loadPlayer(ctx, tx, c.SessionID, c.PlayerID)
	if err != nil {
		return outcome{}, err
	}
	if !o.OwnedBy(p.ID) {
		return outcome{}, apperr.Rule(msgNotOwner)
	}
	if prop.IsShare() {
		return outcome{}, apperr.Rule("Ações não recebem casas")
	}
	if o.Houses >= model.MaxHouses {
		return outcome{}, apperr.Rule("Limite de casas atingido")
	}
	group, err := tx.GetColorGroup(ctx, prop.Group)
	if err != nil {
		return outcome{}, err
	}
	if owned < group.Total {
		return outcome{}, apperr.Rule(fmt.Sprintf("É preciso possuir todas as propriedades do grupo %s", group.Name))
	}
	if p.Balance < prop.HouseCost {
		return outcome{}, apperr.Rule(msgInsufficient)
	}
	o.Houses++
	if err := tx.SaveOwnership(ctx, o); err != nil {
		return outcome{}, err
	}
	if err := tx.AdjustBalance(ctx, p.ID, -prop.HouseCost); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:      model.KindBuyHouse,
		detail:    fmt.Sprintf("%s comprou uma casa em %s por R$ %d", p.Name, prop.Name, prop.HouseCost),
		message:   "Casa comprada com sucesso!",
		amount:    prop.HouseCost,
		ownership: &o,
	}, nil
}

// BuyHouse runs cmd.
func (s *Service) BuyHouse(ctx context.Context, cmd BuyHouse) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// SellHouse removes one house and credits its cost to the owner.
type SellHouse struct{ PropertyAction }

func (c SellHouse) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	o, prop, p, err := c.load(ctx, tx)
	if err != nil {
		return outcome{}, err
	}
	if !o.OwnedBy(p.ID) {
		return outcome{}, apperr.Rule(msgNotOwner)
	}
	if o.Houses <= 0 {
		return outcome{}, apperr.Rule("A propriedade não possui casas")
	}
	o.Houses--
	if err := tx.SaveOwnership(ctx, o); err != nil {
		return outcome{}, err
	}
	if err := credit(ctx, tx, p, prop.HouseCost); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:      model.KindSellHouse,
		detail:    fmt.Sprintf("%s vendeu uma casa em %s por R$ %d", p.Name, prop.Name, prop.HouseCost),
		message:   "Casa vendida com sucesso!",
		amount:    prop.HouseCost,
		ownership: &o,
	}, nil
}

// SellHouse runs cmd.
func (s *Service) SellHouse(ctx context.Context, cmd SellHouse) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// SwapProperty reassigns a property to the acting player.  Whoever held it
// before is not checked; pairing the two sides of a trade is up to the
// caller.
type SwapProperty struct{ PropertyAction }

func (c SwapProperty) apply(ctx context.Context, tx repository.Tx) (outcome, error) {
	o, prop, p, err := c.load(ctx, tx)
	if err != nil {
		return outcome{}, err
	}
	if o.OwnedBy(p.ID) {
		return outcome{}, apperr.Rule("Você já é o proprietário")
	}
	if o.Houses > 0 {
		return outcome{}, apperr.Rule("Venda as casas antes de negociar a propriedade")
	}
	if o.Mortgaged {
		return outcome{}, apperr.Rule("Propriedade hipotecada não pode ser trocada")
	}
	o.OwnerID = &p.ID
	o.Houses = 0
	if err := tx.SaveOwnership(ctx, o); err != nil {
		return outcome{}, err
	}
	return outcome{
		kind:      model.KindSwapProperty,
		detail:    fmt.Sprintf("%s adquiriu a propriedade %s", p.Name, prop.Name),
		message:   "Propriedade trocada com sucesso!",
		ownership: &o,
	}, nil
}

// SwapProperty runs cmd.
func (s *Service) SwapProperty(ctx context.Context, cmd SwapProperty) (*Receipt, error) {
	return s.execute(ctx, cmd)
}

// Package rent computes what a visiting player owes the owner of a property.
package rent

import "github.com/iliyamo/sgp-controller/internal/model"

// SharePerDie is the rent charged per die rolled when landing on a share.
const SharePerDie = 500

// MaxDice is the highest dice count a share rent can be charged for.
const MaxDice = 12

// Due returns the rent for a normal property with the given number of
// houses.  Five or more houses count as a hotel; negative counts are
// treated as zero.
func Due(p model.Property, houses int) int64 {
	switch {
	case houses <= 0:
		return p.RentBase
	case houses == 1:
		return p.Rent1
	case houses == 2:
		return p.Rent2
	case houses == 3:
		return p.Rent3
	case houses == 4:
		return p.Rent4
	default:
		return p.RentHotel
	}
}

// Share returns the rent for a share-type property given the dice count.
// Counts outside 0..MaxDice are clamped.
func Share(dice int64) int64 {
	switch {
	case dice < 0:
		dice = 0
	case dice > MaxDice:
		dice = MaxDice
	}
	return dice * SharePerDie
}

package rent

import (
	"testing"

	"github.com/iliyamo/sgp-controller/internal/model"
)

func TestDueByHouseCount(t *testing.T) {
	p := model.Property{RentBase: 20, Rent1: 100, Rent2: 300, Rent3: 750, Rent4: 925, RentHotel: 1100}
	cases := []struct {
		houses int
		want   int64
	}{
		{-1, 20},
		{0, 20},
		{1, 100},
		{2, 300},
		{3, 750},
		{4, 925},
		{5, 1100},
		{9, 1100},
	}
	for _, tc := range cases {
		if got := Due(p, tc.houses); got != tc.want {
			t.Errorf("Due(houses=%d) = %d, want %d", tc.houses, got, tc.want)
		}
	}
}

func TestShare(t *testing.T) {
	if got := Share(3); got != 1500 {
		t.Fatalf("Share(3) = %d, want 1500", got)
	}
	if got := Share(0); got != 0 {
		t.Fatalf("Share(0) = %d, want 0", got)
	}
}

func TestShareClampsDice(t *testing.T) {
	if got := Share(18446744073709552); got != MaxDice*SharePerDie {
		t.Fatalf("Share(huge) = %d, want %d", got, MaxDice*SharePerDie)
	}
	if got := Share(-4); got != 0 {
		t.Fatalf("Share(-4) = %d, want 0", got)
	}
}

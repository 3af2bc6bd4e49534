package core

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/core/dao"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// postBond locks the given bond into addr's bonded balance. The bond has
// to match the configured dispute bond exactly.
func (p *Plasma) postBond(cache *dao.Simple, addr util.Uint160, bond *uint256.Int) error {
	if bond == nil || !bond.Eq(p.bondAmount) {
		return fmt.Errorf("%w: want %s", ErrInvalidBond, p.bondAmount.Dec())
	}
	b, err := cache.GetBalanceOrNew(addr)
	if err != nil {
		return err
	}
	b.Bonded = new(uint256.Int).Add(b.Bonded, bond)
	return cache.PutBalance(addr, b)
}

// slashBond moves one dispute bond from the loser's bonded balance into
// the winner's withdrawable one.
func (p *Plasma) slashBond(cache *dao.Simple, from, to util.Uint160) error {
	fb, err := cache.GetBalanceOrNew(from)
	if err != nil {
		return err
	}
	if fb.Bonded.Lt(p.bondAmount) {
		return fmt.Errorf("%w: %s has %s bonded", ErrBondUnderflow, from, fb.Bonded.Dec())
	}
	fb.Bonded = new(uint256.Int).Sub(fb.Bonded, p.bondAmount)
	if err := cache.PutBalance(from, fb); err != nil {
		return err
	}
	tb, err := cache.GetBalanceOrNew(to)
	if err != nil {
		return err
	}
	tb.Withdrawable = new(uint256.Int).Add(tb.Withdrawable, p.bondAmount)
	return cache.PutBalance(to, tb)
}

// freeBond releases one dispute bond of addr back into its own
// withdrawable balance.
func (p *Plasma) freeBond(cache *dao.Simple, addr util.Uint160) error {
	b, err := cache.GetBalanceOrNew(addr)
	if err != nil {
		return err
	}
	if b.Bonded.Lt(p.bondAmount) {
		return fmt.Errorf("%w: %s has %s bonded", ErrBondUnderflow, addr, b.Bonded.Dec())
	}
	b.Bonded = new(uint256.Int).Sub(b.Bonded, p.bondAmount)
	b.Withdrawable = new(uint256.Int).Add(b.Withdrawable, p.bondAmount)
	return cache.PutBalance(addr, b)
}

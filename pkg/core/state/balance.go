package state

import (
	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/io"
)

// Balance holds the per-address bond accounting. Bonded value backs
// outstanding exits and challenges, withdrawable value is free to be paid
// out.
type Balance struct {
	Bonded       *uint256.Int
	Withdrawable *uint256.Int
}

// NewBalance returns a new zero balance.
func NewBalance() *Balance {
	return &Balance{
		Bonded:       uint256.NewInt(0),
		Withdrawable: uint256.NewInt(0),
	}
}

// EncodeBinary implements the io.Serializable interface.
func (b *Balance) EncodeBinary(bw *io.BinWriter) {
	writeUint256(bw, b.Bonded)
	writeUint256(bw, b.Withdrawable)
}

// DecodeBinary implements the io.Serializable interface.
func (b *Balance) DecodeBinary(br *io.BinReader) {
	b.Bonded = readUint256(br)
	b.Withdrawable = readUint256(br)
}

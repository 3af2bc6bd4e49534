package state

import (
	"github.com/plasmacash/plasma-go/pkg/io"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// Challenge records an open challenge against an exiting coin. It is only
// valid while the coin stays in the Challenged or Responded state and is
// settled at finalization.
type Challenge struct {
	// Challenger posted the challenge bond and receives the slashed exit
	// bond if the challenge stands.
	Challenger util.Uint160
	// TxHash is the hash of the challenging transaction.
	TxHash util.Uint256
	// TxOwner is the receiver of the challenging transaction, a valid
	// response has to be signed by it.
	TxOwner util.Uint160
	// Block is the child block including the challenging transaction.
	Block uint64
}

// EncodeBinary implements the io.Serializable interface.
func (c *Challenge) EncodeBinary(bw *io.BinWriter) {
	bw.WriteBytes(c.Challenger[:])
	bw.WriteBytes(c.TxHash[:])
	bw.WriteBytes(c.TxOwner[:])
	bw.WriteU64LE(c.Block)
}

// DecodeBinary implements the io.Serializable interface.
func (c *Challenge) DecodeBinary(br *io.BinReader) {
	br.ReadBytes(c.Challenger[:])
	br.ReadBytes(c.TxHash[:])
	br.ReadBytes(c.TxOwner[:])
	c.Block = br.ReadU64LE()
}

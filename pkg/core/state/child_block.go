package state

import (
	"github.com/plasmacash/plasma-go/pkg/io"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// ChildBlock is a root commitment of a child chain block. Blocks with a
// number that is a multiple of the submission interval carry merkle roots
// of operator batches, all the others carry single deposit hashes.
// Entries are immutable once written.
type ChildBlock struct {
	// Root is the committed root hash.
	Root util.Uint256
	// CreatedAt is the Unix time the commitment was recorded at.
	CreatedAt uint64
}

// EncodeBinary implements the io.Serializable interface.
func (b *ChildBlock) EncodeBinary(bw *io.BinWriter) {
	bw.WriteBytes(b.Root[:])
	bw.WriteU64LE(b.CreatedAt)
}

// DecodeBinary implements the io.Serializable interface.
func (b *ChildBlock) DecodeBinary(br *io.BinReader) {
	br.ReadBytes(b.Root[:])
	b.CreatedAt = br.ReadU64LE()
}

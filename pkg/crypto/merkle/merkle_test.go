package merkle

import (
	"testing"

	"github.com/plasmacash/plasma-go/pkg/internal/random"
	"github.com/plasmacash/plasma-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestEmptyTreeRoot(t *testing.T) {
	tr := NewTree(nil)
	require.Equal(t, defaultHashes[Depth], tr.Root())

	// A proof for any slot of an empty tree carries no siblings and
	// proves the default leaf.
	proof := tr.CreateProof(42)
	require.Len(t, proof, ProofHeaderSize)
	require.True(t, VerifyMembership(defaultHashes[0], tr.Root(), 42, proof))
}

func TestMembership(t *testing.T) {
	leaves := map[uint64]util.Uint256{
		2:           random.Uint256(),
		3:           random.Uint256(),
		70:          random.Uint256(),
		1 << 40:     random.Uint256(),
		^uint64(12): random.Uint256(),
	}
	tr := NewTree(leaves)
	root := tr.Root()

	for slot, leaf := range leaves {
		proof := tr.CreateProof(slot)
		require.True(t, VerifyMembership(leaf, root, slot, proof), "slot %d", slot)
	}
}

func TestNonMembership(t *testing.T) {
	leaves := map[uint64]util.Uint256{7: random.Uint256()}
	tr := NewTree(leaves)
	root := tr.Root()

	// An empty slot proves the default leaf, which is a proof the slot
	// holds no transaction.
	proof := tr.CreateProof(1000)
	require.True(t, VerifyMembership(defaultHashes[0], root, 1000, proof))
	require.False(t, VerifyMembership(random.Uint256(), root, 1000, proof))
}

func TestVerifyRejections(t *testing.T) {
	leaves := map[uint64]util.Uint256{
		5: random.Uint256(),
		6: random.Uint256(),
	}
	tr := NewTree(leaves)
	root := tr.Root()
	proof := tr.CreateProof(5)

	require.False(t, VerifyMembership(leaves[5], root, 6, proof), "wrong slot")
	require.False(t, VerifyMembership(leaves[6], root, 5, proof), "wrong leaf")
	require.False(t, VerifyMembership(leaves[5], random.Uint256(), 5, proof), "wrong root")
	require.False(t, VerifyMembership(leaves[5], root, 5, proof[:len(proof)-1]), "truncated proof")
	require.False(t, VerifyMembership(leaves[5], root, 5, append(proof, 0)), "oversized proof")
	require.False(t, VerifyMembership(leaves[5], root, 5, nil), "no proof")
}

func TestRootChangesWithLeaves(t *testing.T) {
	a := NewTree(map[uint64]util.Uint256{1: random.Uint256()})
	b := NewTree(map[uint64]util.Uint256{1: random.Uint256()})
	require.NotEqual(t, a.Root(), b.Root())
}

// Package merkle implements the fixed-depth sparse merkle tree used for
// batch block commitments. Leaves are indexed by a 64-bit slot number,
// missing leaves have a well-known default hash per level, so proofs only
// carry non-default siblings together with a bitmap saying which levels
// they belong to.
package merkle

import (
	"encoding/binary"

	"github.com/plasmacash/plasma-go/pkg/crypto/hash"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// Depth is the number of levels between a leaf and the root, it matches
// the slot number width.
const Depth = 64

// ProofHeaderSize is the size of the sibling bitmap prepended to every
// proof.
const ProofHeaderSize = 8

// defaultHashes[i] is the hash of a subtree of height i with no leaves set.
var defaultHashes [Depth + 1]util.Uint256

func init() {
	for i := 1; i <= Depth; i++ {
		defaultHashes[i] = hash.Keccak256Concat(defaultHashes[i-1], defaultHashes[i-1])
	}
}

// Tree is a sparse merkle tree built from a slot-indexed leaf set. A nil
// Tree is not usable, use NewTree.
type Tree struct {
	levels [Depth + 1]map[uint64]util.Uint256
}

// NewTree returns a new sparse merkle tree with the given leaves. The
// leaves map is not retained.
func NewTree(leaves map[uint64]util.Uint256) *Tree {
	t := new(Tree)
	for i := range t.levels {
		t.levels[i] = make(map[uint64]util.Uint256)
	}
	for slot, leaf := range leaves {
		t.levels[0][slot] = leaf
	}
	for lvl := 0; lvl < Depth; lvl++ {
		for idx := range t.levels[lvl] {
			parent := idx >> 1
			if _, ok := t.levels[lvl+1][parent]; ok {
				continue
			}
			left := t.node(lvl, parent<<1)
			right := t.node(lvl, parent<<1|1)
			t.levels[lvl+1][parent] = hash.Keccak256Concat(left, right)
		}
	}
	return t
}

// node returns the hash of the node with the given index at the given
// level falling back to the level's default hash.
func (t *Tree) node(lvl int, idx uint64) util.Uint256 {
	if h, ok := t.levels[lvl][idx]; ok {
		return h
	}
	return defaultHashes[lvl]
}

// Root returns the root hash of the tree.
func (t *Tree) Root() util.Uint256 {
	return t.node(Depth, 0)
}

// CreateProof returns a membership proof for the given slot. The proof is
// valid for the tree's current root and the leaf stored at slot (the
// default hash if the slot is empty, which makes it a proof of
// non-membership).
func (t *Tree) CreateProof(slot uint64) []byte {
	var (
		bitmap   uint64
		siblings []util.Uint256
	)
	idx := slot
	for lvl := 0; lvl < Depth; lvl++ {
		sib := t.node(lvl, idx^1)
		if !sib.Equals(defaultHashes[lvl]) {
			bitmap |= 1 << uint(lvl)
			siblings = append(siblings, sib)
		}
		idx >>= 1
	}
	proof := make([]byte, ProofHeaderSize, ProofHeaderSize+len(siblings)*util.Uint256Size)
	binary.BigEndian.PutUint64(proof, bitmap)
	for _, sib := range siblings {
		proof = append(proof, sib[:]...)
	}
	return proof
}

// VerifyMembership checks that leaf is stored at the given slot of a
// sparse merkle tree with the given root. Malformed or truncated proofs
// simply fail the check.
func VerifyMembership(leaf, root util.Uint256, slot uint64, proof []byte) bool {
	if len(proof) < ProofHeaderSize {
		return false
	}
	bitmap := binary.BigEndian.Uint64(proof)
	rest := proof[ProofHeaderSize:]

	cur := leaf
	for lvl := 0; lvl < Depth; lvl++ {
		var sib util.Uint256
		if bitmap&(1<<uint(lvl)) != 0 {
			if len(rest) < util.Uint256Size {
				return false
			}
			copy(sib[:], rest)
			rest = rest[util.Uint256Size:]
		} else {
			sib = defaultHashes[lvl]
		}
		if slot>>uint(lvl)&1 == 1 {
			cur = hash.Keccak256Concat(sib, cur)
		} else {
			cur = hash.Keccak256Concat(cur, sib)
		}
	}
	return len(rest) == 0 && cur.Equals(root)
}

package hash

import (
	"encoding/binary"

	"github.com/plasmacash/plasma-go/pkg/util"
	"golang.org/x/crypto/sha3"
)

// Hashable represents an object which can be hashed. Usually these objects
// are io.Serializable and signable.
type Hashable interface {
	Hash() util.Uint256
}

// Keccak256 hashes the incoming byte slice using the Keccak-256 algorithm.
func Keccak256(data []byte) util.Uint256 {
	var hash util.Uint256
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	hasher.Sum(hash[:0])
	return hash
}

// Keccak256Concat hashes the concatenation of a and b using the Keccak-256
// algorithm. It is used for merkle node hashes.
func Keccak256Concat(a, b util.Uint256) util.Uint256 {
	var hash util.Uint256
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(a[:])
	hasher.Write(b[:])
	hasher.Sum(hash[:0])
	return hash
}

// Keccak256U64 hashes the big-endian encoding of the given number using the
// Keccak-256 algorithm. Deposit block roots are computed this way.
func Keccak256U64(u uint64) util.Uint256 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], u)
	return Keccak256(b[:])
}

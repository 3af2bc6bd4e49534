package keys

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// PrivateKey represents a Secp256k1 private key and provides a high level
// API around it.
type PrivateKey struct {
	b *secp256k1.PrivateKey
}

// NewPrivateKey creates a new random Secp256k1 private key.
func NewPrivateKey() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{b: k}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex
// string.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given byte slice.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", 32, len(b),
		)
	}
	return &PrivateKey{b: secp256k1.PrivKeyFromBytes(b)}, nil
}

// PublicKey derives the public key from the private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{b: p.b.PubKey()}
}

// Address derives the address coupled with the private key.
func (p *PrivateKey) Address() util.Uint160 {
	return p.PublicKey().Address()
}

// SignHash produces a compact recoverable signature over the given digest.
// The resulting signature allows recovering the signing public key from the
// digest, see RecoverSigner.
func (p *PrivateKey) SignHash(digest util.Uint256) []byte {
	return ecdsa.SignCompact(p.b, digest[:], false)
}

// Sign signs hashable item h with the private key.
func (p *PrivateKey) Sign(h interface{ Hash() util.Uint256 }) []byte {
	return p.SignHash(h.Hash())
}

// String implements the stringer interface.
func (p *PrivateKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// Bytes returns the underlying bytes of the PrivateKey.
func (p *PrivateKey) Bytes() []byte {
	return p.b.Serialize()
}

package keys

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/plasmacash/plasma-go/pkg/crypto/hash"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// SignatureLen is the length of a compact recoverable signature.
const SignatureLen = 65

// ErrInvalidSignature is returned when a signature can not be decoded or
// does not recover to a valid public key.
var ErrInvalidSignature = errors.New("invalid signature")

// PublicKey represents a Secp256k1 public key.
type PublicKey struct {
	b *secp256k1.PublicKey
}

// NewPublicKeyFromBytes returns a public key created from the given
// serialized (compressed or uncompressed) representation.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	k, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, err
	}
	return &PublicKey{b: k}, nil
}

// Bytes returns the compressed serialized representation of the public key.
func (p *PublicKey) Bytes() []byte {
	return p.b.SerializeCompressed()
}

// Address derives the 20-byte address from the public key, the last 20
// bytes of the Keccak-256 hash of the uncompressed point without its
// format prefix.
func (p *PublicKey) Address() util.Uint160 {
	b := p.b.SerializeUncompressed()
	h := hash.Keccak256(b[1:])
	var u util.Uint160
	copy(u[:], h[util.Uint256Size-util.Uint160Size:])
	return u
}

// Verify returns true if the given signature over the given digest was
// produced by the key owner.
func (p *PublicKey) Verify(digest util.Uint256, signature []byte) bool {
	signer, err := RecoverSigner(digest, signature)
	if err != nil {
		return false
	}
	return signer.Equals(p.Address())
}

// RecoverSigner recovers the address of the key that produced the given
// compact signature over the given digest.
func RecoverSigner(digest util.Uint256, signature []byte) (util.Uint160, error) {
	if len(signature) != SignatureLen {
		return util.Uint160{}, ErrInvalidSignature
	}
	pub, _, err := ecdsa.RecoverCompact(signature, digest[:])
	if err != nil {
		return util.Uint160{}, ErrInvalidSignature
	}
	return (&PublicKey{b: pub}).Address(), nil
}

package keys

import (
	"testing"

	"github.com/plasmacash/plasma-go/pkg/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateKeyRoundtrip(t *testing.T) {
	k, err := NewPrivateKey()
	require.NoError(t, err)

	k2, err := NewPrivateKeyFromHex(k.String())
	require.NoError(t, err)
	require.Equal(t, k.Bytes(), k2.Bytes())
	require.Equal(t, k.Address(), k2.Address())

	_, err = NewPrivateKeyFromHex("zz")
	require.Error(t, err)
	_, err = NewPrivateKeyFromBytes(make([]byte, 31))
	require.Error(t, err)
}

func TestSignAndRecover(t *testing.T) {
	k, err := NewPrivateKey()
	require.NoError(t, err)

	digest := random.Uint256()
	sig := k.SignHash(digest)
	require.Len(t, sig, SignatureLen)

	signer, err := RecoverSigner(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, k.Address(), signer)
	assert.True(t, k.PublicKey().Verify(digest, sig))

	// A different digest recovers some other key.
	other, err := RecoverSigner(random.Uint256(), sig)
	require.NoError(t, err)
	assert.NotEqual(t, k.Address(), other)

	_, err = RecoverSigner(digest, sig[:SignatureLen-1])
	require.ErrorIs(t, err, ErrInvalidSignature)
	sig[0] = 0xff
	_, err = RecoverSigner(digest, sig)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPublicKeyBytes(t *testing.T) {
	k, err := NewPrivateKey()
	require.NoError(t, err)

	pub := k.PublicKey()
	pub2, err := NewPublicKeyFromBytes(pub.Bytes())
	require.NoError(t, err)
	require.Equal(t, pub.Address(), pub2.Address())

	_, err = NewPublicKeyFromBytes([]byte{0x02})
	require.Error(t, err)
}

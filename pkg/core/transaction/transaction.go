// Package transaction defines the coin transfer format committed into
// child blocks. A transaction moves the coin in the given slot from the
// owner of the previous transaction (referenced by block number) to the
// new owner. Deposit transactions are the degenerate form with a zero
// previous block, their hash is derived from the slot number alone.
package transaction

import (
	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/crypto/hash"
	"github.com/plasmacash/plasma-go/pkg/crypto/keys"
	"github.com/plasmacash/plasma-go/pkg/io"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// Transaction is a single coin transfer.
type Transaction struct {
	// Slot is the identifier of the coin being transferred.
	Slot uint64
	// PrevBlock is the child block number holding the previous transfer
	// of this coin. It is zero for deposit transactions.
	PrevBlock uint64
	// Denomination is the value of the coin in wei.
	Denomination *uint256.Int
	// NewOwner is the receiver of the coin.
	NewOwner util.Uint160
	// Signature is a compact recoverable signature of the transaction
	// hash made by the previous owner.
	Signature []byte
}

// NewDeposit returns a deposit transaction for the given slot.
func NewDeposit(slot uint64, owner util.Uint160, denomination *uint256.Int) *Transaction {
	return &Transaction{
		Slot:         slot,
		Denomination: denomination,
		NewOwner:     owner,
	}
}

// IsDeposit returns true for the canonical deposit form of a transaction.
func (t *Transaction) IsDeposit() bool {
	return t.PrevBlock == 0
}

// Hash returns the signed digest of the transaction. For deposit
// transactions it is the deterministic deposit hash of the slot, so the
// root recorded for a deposit block can be recomputed from the
// transaction alone.
func (t *Transaction) Hash() util.Uint256 {
	if t.IsDeposit() {
		return hash.Keccak256U64(t.Slot)
	}
	buf := io.NewBufBinWriter()
	t.encodeUnsigned(buf.BinWriter)
	return hash.Keccak256(buf.Bytes())
}

// Sign signs the transaction with the given key placing the signature
// inside the transaction.
func (t *Transaction) Sign(key *keys.PrivateKey) {
	t.Signature = key.SignHash(t.Hash())
}

// Signer recovers the address that signed the transaction.
func (t *Transaction) Signer() (util.Uint160, error) {
	return keys.RecoverSigner(t.Hash(), t.Signature)
}

func (t *Transaction) encodeUnsigned(bw *io.BinWriter) {
	bw.WriteU64LE(t.Slot)
	bw.WriteU64LE(t.PrevBlock)
	d := t.Denomination
	if d == nil {
		d = uint256.NewInt(0)
	}
	b32 := d.Bytes32()
	bw.WriteBytes(b32[:])
	bw.WriteBytes(t.NewOwner[:])
}

// EncodeBinary implements the io.Serializable interface.
func (t *Transaction) EncodeBinary(bw *io.BinWriter) {
	t.encodeUnsigned(bw)
	bw.WriteVarBytes(t.Signature)
}

// DecodeBinary implements the io.Serializable interface.
func (t *Transaction) DecodeBinary(br *io.BinReader) {
	t.Slot = br.ReadU64LE()
	t.PrevBlock = br.ReadU64LE()
	var b32 [util.Uint256Size]byte
	br.ReadBytes(b32[:])
	t.Denomination = new(uint256.Int).SetBytes(b32[:])
	br.ReadBytes(t.NewOwner[:])
	t.Signature = br.ReadVarBytes(keys.SignatureLen)
}

// Decode is the transaction wire codec, it deserializes a transaction
// from the given raw bytes.
func Decode(data []byte) (*Transaction, error) {
	t := new(Transaction)
	if err := io.FromByteArray(t, data); err != nil {
		return nil, err
	}
	return t, nil
}

// Bytes serializes the transaction. It panics on unserializable
// transactions which can only happen with a broken writer.
func (t *Transaction) Bytes() []byte {
	b, err := io.ToByteArray(t)
	if err != nil {
		panic(err)
	}
	return b
}

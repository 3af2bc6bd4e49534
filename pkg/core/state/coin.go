package state

import (
	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/io"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// CoinState is the lifecycle state of a coin.
type CoinState byte

// Possible coin states.
const (
	// Deposited is the state of a coin which is fully inside the child
	// chain custody and not involved in any dispute.
	Deposited CoinState = iota
	// Exiting coins have an active exit claim pending maturity.
	Exiting
	// Challenged coins have their exit claim contested and wait for a
	// response from the exitor.
	Challenged
	// Responded coins have a contested exit claim with a rebuttal
	// recorded, the dispute settles at finalization.
	Responded
	// Exited is the terminal state, the coin left the child chain.
	Exited
)

// String implements the stringer interface.
func (s CoinState) String() string {
	switch s {
	case Deposited:
		return "DEPOSITED"
	case Exiting:
		return "EXITING"
	case Challenged:
		return "CHALLENGED"
	case Responded:
		return "RESPONDED"
	case Exited:
		return "EXITED"
	default:
		return "UNKNOWN"
	}
}

// Coin represents the custody record of one unique token. A coin is
// created by a deposit and never deleted, only its state changes.
type Coin struct {
	// Slot is the registry identifier of the coin, assigned sequentially
	// at deposit time and never reused.
	Slot uint64
	// AssetID identifies the underlying token held by the custodian.
	AssetID util.Uint256
	// Denomination is the coin value in wei.
	Denomination *uint256.Int
	// DepositBlock is the child block created by the deposit.
	DepositBlock uint64
	// Owner is the current owner as recorded on the root ledger. It is
	// only updated when an exit settles.
	Owner util.Uint160
	// State is the lifecycle state of the coin.
	State CoinState
	// Withdrawn is set once the underlying asset of an exited coin was
	// handed out, it never resets.
	Withdrawn bool
	// Exit is the active exit claim. It is non-nil exactly while the
	// coin is in the Exiting, Challenged or Responded state.
	Exit *Exit
}

// Exit is an active exit claim owned by its coin.
type Exit struct {
	// Owner is the party which started the exit and posted the bond.
	Owner util.Uint160
	// PrevOwner is the coin owner as of PrevBlock, the one whose
	// transfer the exit claims as the latest. Direct fraud proofs are
	// authenticated against it. For exits directly off a deposit it
	// equals Owner.
	PrevOwner util.Uint160
	// CreatedAt is the Unix time the exit was started at, the maturity
	// window counts from here.
	CreatedAt uint64
	// Bond is the amount bonded by the owner for this exit.
	Bond *uint256.Int
	// PrevBlock is the block of the transaction preceding the exiting
	// one, zero when exiting directly off a deposit.
	PrevBlock uint64
	// ExitBlock is the block of the transaction the claim is based on.
	ExitBlock uint64
}

// EncodeBinary implements the io.Serializable interface.
func (c *Coin) EncodeBinary(bw *io.BinWriter) {
	bw.WriteU64LE(c.Slot)
	bw.WriteBytes(c.AssetID[:])
	writeUint256(bw, c.Denomination)
	bw.WriteU64LE(c.DepositBlock)
	bw.WriteBytes(c.Owner[:])
	bw.WriteB(byte(c.State))
	bw.WriteBool(c.Withdrawn)
	bw.WriteBool(c.Exit != nil)
	if c.Exit != nil {
		c.Exit.EncodeBinary(bw)
	}
}

// DecodeBinary implements the io.Serializable interface.
func (c *Coin) DecodeBinary(br *io.BinReader) {
	c.Slot = br.ReadU64LE()
	br.ReadBytes(c.AssetID[:])
	c.Denomination = readUint256(br)
	c.DepositBlock = br.ReadU64LE()
	br.ReadBytes(c.Owner[:])
	c.State = CoinState(br.ReadB())
	c.Withdrawn = br.ReadBool()
	if br.ReadBool() {
		c.Exit = new(Exit)
		c.Exit.DecodeBinary(br)
	} else {
		c.Exit = nil
	}
}

// EncodeBinary implements the io.Serializable interface.
func (e *Exit) EncodeBinary(bw *io.BinWriter) {
	bw.WriteBytes(e.Owner[:])
	bw.WriteBytes(e.PrevOwner[:])
	bw.WriteU64LE(e.CreatedAt)
	writeUint256(bw, e.Bond)
	bw.WriteU64LE(e.PrevBlock)
	bw.WriteU64LE(e.ExitBlock)
}

// DecodeBinary implements the io.Serializable interface.
func (e *Exit) DecodeBinary(br *io.BinReader) {
	br.ReadBytes(e.Owner[:])
	br.ReadBytes(e.PrevOwner[:])
	e.CreatedAt = br.ReadU64LE()
	e.Bond = readUint256(br)
	e.PrevBlock = br.ReadU64LE()
	e.ExitBlock = br.ReadU64LE()
}

func writeUint256(bw *io.BinWriter, v *uint256.Int) {
	if v == nil {
		v = uint256.NewInt(0)
	}
	b32 := v.Bytes32()
	bw.WriteBytes(b32[:])
}

func readUint256(br *io.BinReader) *uint256.Int {
	var b32 [util.Uint256Size]byte
	br.ReadBytes(b32[:])
	return new(uint256.Int).SetBytes(b32[:])
}

package core

import (
	"fmt"

	"github.com/plasmacash/plasma-go/pkg/core/dao"
	"github.com/plasmacash/plasma-go/pkg/core/transaction"
	"github.com/plasmacash/plasma-go/pkg/crypto/hash"
	"github.com/plasmacash/plasma-go/pkg/crypto/merkle"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// inclusionKey identifies a checked transaction inclusion in the verifier
// cache. Child blocks are immutable, so a successful check never becomes
// stale.
type inclusionKey struct {
	hash  util.Uint256
	block uint64
}

// isDepositBlock tells deposit block numbers from batch block numbers by
// the modulus rule.
func (p *Plasma) isDepositBlock(index uint64) bool {
	return index%p.config.ChildBlockInterval != 0
}

// checkInclusion verifies that tx was committed into the child block with
// the given number. For deposit blocks the stored root is the deposit
// hash of the slot itself and the transaction has to be signed by the
// depositing owner, for batch blocks the transaction hash has to be a
// member of the committed merkle root at the transaction's slot.
func (p *Plasma) checkInclusion(d *dao.Simple, tx *transaction.Transaction, incBlock uint64, proof []byte) error {
	key := inclusionKey{hash: tx.Hash(), block: incBlock}
	if !p.isDepositBlock(incBlock) {
		// Deposit checks also verify the signature which is not a part
		// of the cache key, so only batch checks are cached.
		if _, ok := p.incCache.Get(key); ok {
			return nil
		}
	}

	blk, err := d.GetChildBlock(incBlock)
	if err != nil {
		return fmt.Errorf("%w: %d", ErrUnknownBlock, incBlock)
	}

	if p.isDepositBlock(incBlock) {
		if !tx.IsDeposit() {
			return fmt.Errorf("%w: spend transaction in deposit block %d", ErrTxNotIncluded, incBlock)
		}
		if !hash.Keccak256U64(tx.Slot).Equals(blk.Root) {
			return fmt.Errorf("%w: deposit hash mismatch in block %d", ErrTxNotIncluded, incBlock)
		}
		signer, err := tx.Signer()
		if err != nil || !signer.Equals(tx.NewOwner) {
			return fmt.Errorf("%w: deposit not signed by its owner", ErrInvalidSignature)
		}
		return nil
	}

	if !merkle.VerifyMembership(tx.Hash(), blk.Root, tx.Slot, proof) {
		return fmt.Errorf("%w: merkle check failed for slot %d in block %d", ErrTxNotIncluded, tx.Slot, incBlock)
	}
	p.incCache.Add(key, true)
	return nil
}

// checkSpendChain verifies the two-transaction chain of custody an exit
// claim is based on: both transactions move the same coin, the blocks are
// properly ordered, the exiting transaction references and is signed by
// the owner the previous transaction assigned, and both transactions are
// committed into their claimed blocks.
func (p *Plasma) checkSpendChain(d *dao.Simple, prevTx, exitTx *transaction.Transaction,
	prevBlock, exitBlock uint64, prevProof, exitProof []byte) error {
	if prevTx.Slot != exitTx.Slot {
		return fmt.Errorf("%w: %d vs %d", ErrSlotMismatch, prevTx.Slot, exitTx.Slot)
	}
	if prevBlock >= exitBlock {
		return fmt.Errorf("%w: previous block %d not before exiting block %d", ErrBlockOrder, prevBlock, exitBlock)
	}
	if exitTx.PrevBlock != prevBlock {
		return fmt.Errorf("%w: exiting transaction references block %d, claimed %d", ErrBlockOrder, exitTx.PrevBlock, prevBlock)
	}
	signer, err := exitTx.Signer()
	if err != nil || !signer.Equals(prevTx.NewOwner) {
		return fmt.Errorf("%w: exiting transaction not signed by the previous owner", ErrInvalidSignature)
	}
	if err := p.checkInclusion(d, prevTx, prevBlock, prevProof); err != nil {
		return err
	}
	return p.checkInclusion(d, exitTx, exitBlock, exitProof)
}

// decodeTx deserializes a transaction and checks it against the expected
// slot.
func decodeTx(data []byte, slot uint64) (*transaction.Transaction, error) {
	tx, err := transaction.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTxDecode, err)
	}
	if tx.Slot != slot {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSlotMismatch, tx.Slot, slot)
	}
	return tx, nil
}

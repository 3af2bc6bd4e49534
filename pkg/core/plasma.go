// Package core implements the root ledger side of the child chain: the
// coin registry, the child block ledger and the exit game played over
// them. All operations are serialized and atomic, an operation either
// runs to completion or leaves no trace in the store.
package core

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/config"
	"github.com/plasmacash/plasma-go/pkg/core/dao"
	"github.com/plasmacash/plasma-go/pkg/core/state"
	"github.com/plasmacash/plasma-go/pkg/core/storage"
	"github.com/plasmacash/plasma-go/pkg/crypto/hash"
	"github.com/plasmacash/plasma-go/pkg/util"
	"go.uber.org/zap"
)

// version of the storage schema.
const version = "0.1.0"

// verifiedInclusionCacheSize is the number of verified batch inclusions
// kept around.
const verifiedInclusionCacheSize = 1000

// Plasma is the authority side of the child chain. It keeps the coin
// registry, the ledger of child block commitments and the bond balances,
// and it arbitrates the exit game.
type Plasma struct {
	config     config.ProtocolConfiguration
	bondAmount *uint256.Int
	maturity   time.Duration

	// Write lock for all state transitions, so every accepted operation
	// runs to completion before the next one is admitted.
	lock sync.RWMutex
	dao  *dao.Simple

	custodian AssetCustodian

	incCache *lru.Cache

	log     *zap.Logger
	nowFunc func() time.Time

	subLock     sync.RWMutex
	subscribers map[chan<- state.NotificationEvent]bool
}

// TxProof carries a transaction together with the evidence of its
// inclusion into a child block.
type TxProof struct {
	// Tx is the serialized transaction.
	Tx []byte
	// Block is the child block the transaction is claimed to be in.
	Block uint64
	// Proof is the merkle membership proof, ignored for deposit blocks.
	Proof []byte
}

// ExitClaim is the two-transaction evidence an exit is based on: the
// exiting transaction and the one directly preceding it in the coin
// history. For exits directly off a deposit the previous part is left
// empty.
type ExitClaim struct {
	Prev TxProof
	Exit TxProof
}

// NewPlasma returns a new Plasma object using the given store as its
// backend.
func NewPlasma(st storage.Store, cfg config.ProtocolConfiguration, log *zap.Logger) (*Plasma, error) {
	if log == nil {
		return nil, fmt.Errorf("empty logger")
	}
	if cfg.ChildBlockInterval == 0 {
		cfg.ChildBlockInterval = config.DefaultChildBlockInterval
	}
	if cfg.MaturityPeriodSeconds == 0 {
		cfg.MaturityPeriodSeconds = uint64(config.DefaultMaturityPeriod / time.Second)
	}
	if cfg.BondAmount == "" {
		cfg.BondAmount = config.DefaultBondAmount
	}
	bond, err := cfg.Bond()
	if err != nil {
		return nil, err
	}
	cache, err := lru.New(verifiedInclusionCacheSize)
	if err != nil {
		return nil, err
	}
	p := &Plasma{
		config:      cfg,
		bondAmount:  bond,
		maturity:    cfg.MaturityPeriod(),
		dao:         dao.NewSimple(st),
		incCache:    cache,
		log:         log,
		nowFunc:     time.Now,
		subscribers: make(map[chan<- state.NotificationEvent]bool),
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plasma) init() error {
	ver, err := p.dao.GetVersion()
	if err != nil {
		if err != storage.ErrKeyNotFound {
			return err
		}
		p.log.Info("no storage version found, initializing fresh storage")
		if err = p.dao.PutVersion(version); err != nil {
			return err
		}
		_, err = p.dao.Persist()
		return err
	}
	if ver != version {
		return fmt.Errorf("storage version mismatch: %s != %s", ver, version)
	}
	count, err := p.dao.GetCoinCount()
	if err != nil {
		return err
	}
	index, err := p.dao.GetCurrentBlockIndex()
	if err != nil {
		return err
	}
	updateCoinCountMetric(count)
	updateBlockIndexMetric(index)
	p.log.Info("restoring ledger",
		zap.Uint64("coinCount", count),
		zap.Uint64("blockIndex", index))
	return nil
}

// persist flushes the operation changeset down to the backing store.
func (p *Plasma) persist(cache *dao.Simple) error {
	if _, err := cache.Persist(); err != nil {
		return err
	}
	_, err := p.dao.Persist()
	return err
}

// Config returns the protocol configuration used.
func (p *Plasma) Config() config.ProtocolConfiguration {
	return p.config
}

// BondAmount returns the fixed dispute bond size.
func (p *Plasma) BondAmount() *uint256.Int {
	return p.bondAmount.Clone()
}

// RegisterCustodian binds the asset custodian the withdrawals are paid
// through. It can only be bound once.
func (p *Plasma) RegisterCustodian(c AssetCustodian) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.custodian != nil {
		return fmt.Errorf("%w: custodian already bound", ErrPrecondition)
	}
	p.custodian = c
	return nil
}

// Deposit creates a coin for a just-received asset reported by the
// custodian. It assigns the next free slot, records a single-transaction
// deposit block for it and returns the assigned slot.
func (p *Plasma) Deposit(depositor util.Uint160, assetID util.Uint256, denomination *uint256.Int) (uint64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	cache := p.dao.GetWrapped()
	slot, err := cache.GetCoinCount()
	if err != nil {
		return 0, err
	}
	index, err := cache.GetCurrentBlockIndex()
	if err != nil {
		return 0, err
	}
	index++
	if index%p.config.ChildBlockInterval == 0 {
		// The numbering scheme can't tell this block from a batch one.
		return 0, fmt.Errorf("%w: deposit block window exhausted, wait for the next batch", ErrPrecondition)
	}
	if _, err := cache.GetChildBlock(index); err == nil {
		return 0, fmt.Errorf("%w: %d", ErrBlockExists, index)
	}

	coin := &state.Coin{
		Slot:         slot,
		AssetID:      assetID,
		Denomination: denomination,
		DepositBlock: index,
		Owner:        depositor,
		State:        state.Deposited,
	}
	if err := cache.PutCoin(coin); err != nil {
		return 0, err
	}
	blk := &state.ChildBlock{
		Root:      hash.Keccak256U64(slot),
		CreatedAt: uint64(p.nowFunc().Unix()),
	}
	if err := cache.PutChildBlock(index, blk); err != nil {
		return 0, err
	}
	if err := cache.PutCoinCount(slot + 1); err != nil {
		return 0, err
	}
	if err := cache.PutCurrentBlockIndex(index); err != nil {
		return 0, err
	}
	if err := p.persist(cache); err != nil {
		return 0, err
	}

	updateCoinCountMetric(slot + 1)
	updateBlockIndexMetric(index)
	p.log.Info("coin deposited",
		zap.Uint64("slot", slot),
		zap.Uint64("block", index),
		zap.Stringer("owner", depositor))
	p.notify(state.NotificationEvent{
		Type:    state.EventDeposit,
		Slot:    slot,
		Block:   index,
		Address: depositor,
		Amount:  denomination,
	})
	return slot, nil
}

// SubmitBlock records an operator batch commitment under the next batch
// block number. Only the configured operator identity may call it.
func (p *Plasma) SubmitBlock(caller util.Uint160, root util.Uint256) (uint64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if !caller.Equals(p.config.Operator) {
		return 0, ErrUnauthorized
	}
	cache := p.dao.GetWrapped()
	index, err := cache.GetCurrentBlockIndex()
	if err != nil {
		return 0, err
	}
	index += p.config.ChildBlockInterval - index%p.config.ChildBlockInterval
	if _, err := cache.GetChildBlock(index); err == nil {
		return 0, fmt.Errorf("%w: %d", ErrBlockExists, index)
	}
	blk := &state.ChildBlock{
		Root:      root,
		CreatedAt: uint64(p.nowFunc().Unix()),
	}
	if err := cache.PutChildBlock(index, blk); err != nil {
		return 0, err
	}
	if err := cache.PutCurrentBlockIndex(index); err != nil {
		return 0, err
	}
	if err := p.persist(cache); err != nil {
		return 0, err
	}

	updateBlockIndexMetric(index)
	p.log.Info("block submitted",
		zap.Uint64("block", index),
		zap.Stringer("root", root))
	p.notify(state.NotificationEvent{
		Type:  state.EventBlockSubmitted,
		Block: index,
	})
	return index, nil
}

// StartExit starts the exit game for the given slot. The caller has to
// prove ownership of the coin as of the claimed exiting block and post
// the exact dispute bond. On success the coin enters the Exiting state
// and joins the outstanding exit set.
func (p *Plasma) StartExit(caller util.Uint160, slot uint64, claim ExitClaim, bond *uint256.Int) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	cache := p.dao.GetWrapped()
	coin, err := cache.GetCoin(slot)
	if err != nil {
		return ErrCoinNotFound
	}
	if coin.State != state.Deposited {
		return fmt.Errorf("%w: %s", ErrWrongCoinState, coin.State)
	}

	exitTx, err := decodeTx(claim.Exit.Tx, slot)
	if err != nil {
		return err
	}
	if !exitTx.NewOwner.Equals(caller) {
		return ErrWrongOwner
	}

	var (
		prevBlock uint64
		prevOwner = caller
	)
	if p.isDepositBlock(claim.Exit.Block) {
		// Exiting directly off the deposit, there is no previous
		// transaction and the deposit is self-evident.
		if !exitTx.IsDeposit() {
			return fmt.Errorf("%w: spend transaction claimed as deposit", ErrProofInvalid)
		}
		if err := p.checkInclusion(cache, exitTx, claim.Exit.Block, claim.Exit.Proof); err != nil {
			return err
		}
	} else {
		prevTx, err := decodeTx(claim.Prev.Tx, slot)
		if err != nil {
			return err
		}
		if err := p.checkSpendChain(cache, prevTx, exitTx,
			claim.Prev.Block, claim.Exit.Block, claim.Prev.Proof, claim.Exit.Proof); err != nil {
			return err
		}
		prevBlock = claim.Prev.Block
		prevOwner = prevTx.NewOwner
	}

	if err := p.postBond(cache, caller, bond); err != nil {
		return err
	}

	coin.State = state.Exiting
	coin.Exit = &state.Exit{
		Owner:     caller,
		PrevOwner: prevOwner,
		CreatedAt: uint64(p.nowFunc().Unix()),
		Bond:      bond,
		PrevBlock: prevBlock,
		ExitBlock: claim.Exit.Block,
	}
	if err := cache.PutCoin(coin); err != nil {
		return err
	}
	if err := cache.PutOutstandingExit(slot); err != nil {
		return err
	}
	if err := p.persist(cache); err != nil {
		return err
	}

	exitsStarted.Inc()
	updateOutstandingExitsMetric(len(p.dao.GetOutstandingExits()))
	p.log.Info("exit started",
		zap.Uint64("slot", slot),
		zap.Uint64("exitBlock", claim.Exit.Block),
		zap.Stringer("exitor", caller))
	p.notify(state.NotificationEvent{
		Type:    state.EventExitStarted,
		Slot:    slot,
		Block:   claim.Exit.Block,
		Address: caller,
		Amount:  bond,
	})
	return nil
}

// ChallengeBefore contests an exit with a transaction from deeper in the
// coin history, claiming the state the exit builds on is itself invalid.
// The challenger posts a bond and the exitor gets a chance to respond,
// the dispute settles at finalization.
func (p *Plasma) ChallengeBefore(caller util.Uint160, slot uint64, proof TxProof, bond *uint256.Int) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	cache := p.dao.GetWrapped()
	coin, err := cache.GetCoin(slot)
	if err != nil {
		return ErrCoinNotFound
	}
	if coin.State != state.Exiting {
		return fmt.Errorf("%w: %s", ErrWrongCoinState, coin.State)
	}

	tx, err := decodeTx(proof.Tx, slot)
	if err != nil {
		return err
	}
	contested := coin.Exit.PrevBlock
	if contested == 0 {
		contested = coin.Exit.ExitBlock
	}
	if proof.Block >= contested {
		return fmt.Errorf("%w: challenge block %d not before %d", ErrBlockOrder, proof.Block, contested)
	}
	if err := p.checkInclusion(cache, tx, proof.Block, proof.Proof); err != nil {
		return err
	}
	if err := p.postBond(cache, caller, bond); err != nil {
		return err
	}

	coin.State = state.Challenged
	if err := cache.PutCoin(coin); err != nil {
		return err
	}
	ch := &state.Challenge{
		Challenger: caller,
		TxHash:     tx.Hash(),
		TxOwner:    tx.NewOwner,
		Block:      proof.Block,
	}
	if err := cache.PutChallenge(slot, ch); err != nil {
		return err
	}
	if err := p.persist(cache); err != nil {
		return err
	}

	challenges.Inc()
	p.log.Info("exit challenged",
		zap.Uint64("slot", slot),
		zap.Uint64("challengeBlock", proof.Block),
		zap.Stringer("challenger", caller))
	p.notify(state.NotificationEvent{
		Type:    state.EventChallenged,
		Slot:    slot,
		Block:   proof.Block,
		Address: caller,
		Amount:  bond,
	})
	return nil
}

// RespondChallengeBefore rebuts an open challenge by proving the
// challenging transaction was itself spent on the way to the exiting
// one. No bond moves yet, the dispute settles at finalization.
func (p *Plasma) RespondChallengeBefore(caller util.Uint160, slot uint64, proof TxProof) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	cache := p.dao.GetWrapped()
	coin, err := cache.GetCoin(slot)
	if err != nil {
		return ErrCoinNotFound
	}
	if coin.State != state.Challenged {
		return fmt.Errorf("%w: %s", ErrWrongCoinState, coin.State)
	}
	ch, err := cache.GetChallenge(slot)
	if err != nil {
		return err
	}

	tx, err := decodeTx(proof.Tx, slot)
	if err != nil {
		return err
	}
	if tx.PrevBlock != ch.Block {
		return fmt.Errorf("%w: response references block %d, challenge is at %d", ErrBlockOrder, tx.PrevBlock, ch.Block)
	}
	signer, err := tx.Signer()
	if err != nil || !signer.Equals(ch.TxOwner) {
		return fmt.Errorf("%w: response not signed by the challenged owner", ErrInvalidSignature)
	}
	if proof.Block <= ch.Block || proof.Block > coin.Exit.ExitBlock {
		return fmt.Errorf("%w: response block %d outside (%d, %d]", ErrBlockOrder, proof.Block, ch.Block, coin.Exit.ExitBlock)
	}
	if err := p.checkInclusion(cache, tx, proof.Block, proof.Proof); err != nil {
		return err
	}

	coin.State = state.Responded
	if err := cache.PutCoin(coin); err != nil {
		return err
	}
	if err := p.persist(cache); err != nil {
		return err
	}

	p.log.Info("challenge rebutted",
		zap.Uint64("slot", slot),
		zap.Uint64("responseBlock", proof.Block),
		zap.Stringer("responder", caller))
	p.notify(state.NotificationEvent{
		Type:    state.EventResponded,
		Slot:    slot,
		Block:   proof.Block,
		Address: caller,
	})
	return nil
}

// ChallengeBetween contests an exit with a transaction signed by the
// owner the exit history starts from and committed strictly between the
// exit's previous and exiting blocks, proving the claimed ownership was
// superseded. This is a direct fraud proof: the exit is thrown out
// immediately and the exitor's bond goes to the caller.
func (p *Plasma) ChallengeBetween(caller util.Uint160, slot uint64, proof TxProof) error {
	return p.challengeWithProof(caller, slot, proof, false)
}

// ChallengeAfter contests an exit with a direct spend of the exiting
// transaction, signed by the exitor and committed strictly after the
// exiting block, proving the coin was spent after the claimed exit
// state. Like ChallengeBetween it settles immediately.
func (p *Plasma) ChallengeAfter(caller util.Uint160, slot uint64, proof TxProof) error {
	return p.challengeWithProof(caller, slot, proof, true)
}

func (p *Plasma) challengeWithProof(caller util.Uint160, slot uint64, proof TxProof, after bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	cache := p.dao.GetWrapped()
	coin, err := cache.GetCoin(slot)
	if err != nil {
		return ErrCoinNotFound
	}
	switch coin.State {
	case state.Exiting, state.Challenged, state.Responded:
	default:
		return fmt.Errorf("%w: %s", ErrWrongCoinState, coin.State)
	}

	tx, err := decodeTx(proof.Tx, slot)
	if err != nil {
		return err
	}
	if after {
		if proof.Block <= coin.Exit.ExitBlock {
			return fmt.Errorf("%w: challenge block %d not after exiting block %d", ErrBlockOrder, proof.Block, coin.Exit.ExitBlock)
		}
		if tx.PrevBlock != coin.Exit.ExitBlock {
			return fmt.Errorf("%w: challenge spends block %d, exiting block is %d", ErrBlockOrder, tx.PrevBlock, coin.Exit.ExitBlock)
		}
	} else {
		if proof.Block <= coin.Exit.PrevBlock || proof.Block >= coin.Exit.ExitBlock {
			return fmt.Errorf("%w: challenge block %d outside (%d, %d)", ErrBlockOrder, proof.Block, coin.Exit.PrevBlock, coin.Exit.ExitBlock)
		}
	}
	// Inclusion alone is not enough, batch contents are operator
	// controlled. The challenging transaction has to be an authorized
	// spend: a later spend is signed by the exiting owner, a superseding
	// one by the owner the exit history starts from.
	signer, err := tx.Signer()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if after {
		if !signer.Equals(coin.Exit.Owner) {
			return fmt.Errorf("%w: challenge not signed by the exiting owner", ErrInvalidSignature)
		}
	} else if !signer.Equals(coin.Exit.PrevOwner) {
		return fmt.Errorf("%w: challenge not signed by the owner preceding the exit", ErrInvalidSignature)
	}
	if err := p.checkInclusion(cache, tx, proof.Block, proof.Proof); err != nil {
		return err
	}

	exitor := coin.Exit.Owner
	if err := p.slashBond(cache, exitor, caller); err != nil {
		return err
	}
	// An open before-challenge is mooted by the proven fraud, give the
	// challenger their bond back without penalty.
	if ch, err := cache.GetChallenge(slot); err == nil {
		if err := p.freeBond(cache, ch.Challenger); err != nil {
			return err
		}
		if err := cache.DeleteChallenge(slot); err != nil {
			return err
		}
	}

	coin.State = state.Deposited
	coin.Exit = nil
	if err := cache.PutCoin(coin); err != nil {
		return err
	}
	if err := cache.DeleteOutstandingExit(slot); err != nil {
		return err
	}
	if err := p.persist(cache); err != nil {
		return err
	}

	challenges.Inc()
	exitsInvalidated.Inc()
	updateOutstandingExitsMetric(len(p.dao.GetOutstandingExits()))
	p.log.Info("exit proven fraudulent",
		zap.Uint64("slot", slot),
		zap.Uint64("challengeBlock", proof.Block),
		zap.Stringer("challenger", caller),
		zap.Stringer("exitor", exitor))
	p.notify(state.NotificationEvent{
		Type:    state.EventSlashed,
		Slot:    slot,
		Address: caller,
		Amount:  p.bondAmount,
	})
	p.notify(state.NotificationEvent{
		Type:    state.EventExitInvalidated,
		Slot:    slot,
		Address: exitor,
	})
	return nil
}

// FinalizeExit settles the exit game of the given slot once the maturity
// window has passed. It is callable by anyone and is a no-op when the
// coin is not exiting or the exit is not mature yet, so it can safely be
// retried.
func (p *Plasma) FinalizeExit(slot uint64) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.finalizeExit(slot)
}

// FinalizeExits sweeps the whole outstanding exit set settling every
// mature exit in it.
func (p *Plasma) FinalizeExits() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, slot := range p.dao.GetOutstandingExits() {
		if err := p.finalizeExit(slot); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plasma) finalizeExit(slot uint64) error {
	cache := p.dao.GetWrapped()
	coin, err := cache.GetCoin(slot)
	if err != nil {
		return ErrCoinNotFound
	}
	if coin.State == state.Deposited || coin.State == state.Exited {
		return nil
	}
	createdAt := time.Unix(int64(coin.Exit.CreatedAt), 0)
	if p.nowFunc().Sub(createdAt) <= p.maturity {
		return nil
	}

	exit := coin.Exit
	settled := false
	switch coin.State {
	case state.Challenged:
		// The exitor never responded, the challenge stands.
		ch, err := cache.GetChallenge(slot)
		if err != nil {
			return err
		}
		if err := p.slashBond(cache, exit.Owner, ch.Challenger); err != nil {
			return err
		}
		if err := cache.DeleteChallenge(slot); err != nil {
			return err
		}
		coin.State = state.Deposited
	case state.Responded:
		// The challenge was rebutted, the challenger pays.
		ch, err := cache.GetChallenge(slot)
		if err != nil {
			return err
		}
		if err := p.slashBond(cache, ch.Challenger, exit.Owner); err != nil {
			return err
		}
		if err := cache.DeleteChallenge(slot); err != nil {
			return err
		}
		settled = true
	case state.Exiting:
		settled = true
	}

	if settled {
		if err := p.freeBond(cache, exit.Owner); err != nil {
			return err
		}
		coin.Owner = exit.Owner
		coin.State = state.Exited
	}
	coin.Exit = nil
	if err := cache.PutCoin(coin); err != nil {
		return err
	}
	if err := cache.DeleteOutstandingExit(slot); err != nil {
		return err
	}
	if err := p.persist(cache); err != nil {
		return err
	}

	updateOutstandingExitsMetric(len(p.dao.GetOutstandingExits()))
	if settled {
		exitsFinalized.Inc()
		p.log.Info("exit finalized",
			zap.Uint64("slot", slot),
			zap.Stringer("owner", exit.Owner))
		p.notify(state.NotificationEvent{
			Type:    state.EventExitFinalized,
			Slot:    slot,
			Address: exit.Owner,
		})
	} else {
		exitsInvalidated.Inc()
		p.log.Info("unanswered challenge upheld, exit invalidated",
			zap.Uint64("slot", slot),
			zap.Stringer("exitor", exit.Owner))
		p.notify(state.NotificationEvent{
			Type:    state.EventExitInvalidated,
			Slot:    slot,
			Address: exit.Owner,
		})
	}
	return nil
}

// Withdraw hands the underlying asset of an exited coin back to its
// owner through the bound custodian. The coin stays in the Exited state
// and is marked withdrawn, slots are never reused and a coin pays out
// at most once.
func (p *Plasma) Withdraw(caller util.Uint160, slot uint64) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	cache := p.dao.GetWrapped()
	coin, err := cache.GetCoin(slot)
	if err != nil {
		return ErrCoinNotFound
	}
	if coin.State != state.Exited {
		return fmt.Errorf("%w: %s", ErrWrongCoinState, coin.State)
	}
	if !coin.Owner.Equals(caller) {
		return ErrWrongOwner
	}
	if coin.Withdrawn {
		return fmt.Errorf("%w: coin already withdrawn", ErrPrecondition)
	}
	if p.custodian == nil {
		return ErrNoCustodian
	}
	coin.Withdrawn = true
	if err := cache.PutCoin(coin); err != nil {
		return err
	}
	if err := p.custodian.TransferAsset(caller, coin.AssetID); err != nil {
		return fmt.Errorf("asset transfer failed: %w", err)
	}
	if err := p.persist(cache); err != nil {
		return err
	}

	p.log.Info("coin withdrawn",
		zap.Uint64("slot", slot),
		zap.Stringer("owner", caller))
	p.notify(state.NotificationEvent{
		Type:    state.EventWithdrawal,
		Slot:    slot,
		Address: caller,
		Amount:  coin.Denomination,
	})
	return nil
}

// WithdrawBonds pays the caller's whole withdrawable balance out through
// the bound custodian. The balance is zeroed strictly before the
// external payout is made.
func (p *Plasma) WithdrawBonds(caller util.Uint160) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	cache := p.dao.GetWrapped()
	balance, err := cache.GetBalanceOrNew(caller)
	if err != nil {
		return err
	}
	if balance.Withdrawable.IsZero() {
		return nil
	}
	amount := balance.Withdrawable
	balance.Withdrawable = uint256.NewInt(0)
	if err := cache.PutBalance(caller, balance); err != nil {
		return err
	}
	if p.custodian == nil {
		return ErrNoCustodian
	}
	if err := p.custodian.TransferValue(caller, amount); err != nil {
		return fmt.Errorf("bond payout failed: %w", err)
	}
	if err := p.persist(cache); err != nil {
		return err
	}

	p.log.Info("bonds withdrawn",
		zap.Stringer("address", caller),
		zap.String("amount", amount.Dec()))
	return nil
}

// -- start getters.

// GetCoin returns the coin record of the given slot.
func (p *Plasma) GetCoin(slot uint64) (*state.Coin, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	coin, err := p.dao.GetCoin(slot)
	if err != nil {
		return nil, ErrCoinNotFound
	}
	return coin, nil
}

// GetChildBlock returns the block commitment recorded under the given
// number.
func (p *Plasma) GetChildBlock(index uint64) (*state.ChildBlock, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.dao.GetChildBlock(index)
}

// GetBalance returns the bond balance of the given address.
func (p *Plasma) GetBalance(addr util.Uint160) (*state.Balance, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.dao.GetBalanceOrNew(addr)
}

// GetOutstandingExits returns all slots currently mid-exit.
func (p *Plasma) GetOutstandingExits() []uint64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.dao.GetOutstandingExits()
}

// CoinCount returns the number of coins deposited so far.
func (p *Plasma) CoinCount() (uint64, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.dao.GetCoinCount()
}

// CurrentBlockIndex returns the current child block pointer.
func (p *Plasma) CurrentBlockIndex() (uint64, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.dao.GetCurrentBlockIndex()
}

// -- end getters.

// Close releases the resources held.
func (p *Plasma) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dao.Store.Close()
}

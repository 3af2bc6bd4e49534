package core

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/plasmacash/plasma-go/pkg/config"
	"github.com/plasmacash/plasma-go/pkg/core/state"
	"github.com/plasmacash/plasma-go/pkg/core/storage"
	"github.com/plasmacash/plasma-go/pkg/core/transaction"
	"github.com/plasmacash/plasma-go/pkg/crypto/keys"
	"github.com/plasmacash/plasma-go/pkg/crypto/merkle"
	"github.com/plasmacash/plasma-go/pkg/internal/random"
	"github.com/plasmacash/plasma-go/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testInterval = 8
	testMaturity = 60
	testBond     = 1000
)

// testCustodian records transfers instead of making them.
type testCustodian struct {
	assets  []util.Uint256
	payouts map[util.Uint160]*uint256.Int
	failing bool
}

func newTestCustodian() *testCustodian {
	return &testCustodian{payouts: make(map[util.Uint160]*uint256.Int)}
}

func (c *testCustodian) TransferAsset(recipient util.Uint160, assetID util.Uint256) error {
	if c.failing {
		return errors.New("custody unavailable")
	}
	c.assets = append(c.assets, assetID)
	return nil
}

func (c *testCustodian) TransferValue(recipient util.Uint160, amount *uint256.Int) error {
	if c.failing {
		return errors.New("custody unavailable")
	}
	old := c.payouts[recipient]
	if old == nil {
		old = uint256.NewInt(0)
	}
	c.payouts[recipient] = new(uint256.Int).Add(old, amount)
	return nil
}

type testEnv struct {
	p         *Plasma
	custodian *testCustodian
	operator  util.Uint160
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithStore(t, storage.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, st storage.Store) *testEnv {
	e := &testEnv{
		custodian: newTestCustodian(),
		operator:  random.Uint160(),
		now:       time.Unix(1600000000, 0),
	}
	cfg := config.ProtocolConfiguration{
		ChildBlockInterval:    testInterval,
		MaturityPeriodSeconds: testMaturity,
		BondAmount:            "1000",
		Operator:              e.operator,
	}
	p, err := NewPlasma(st, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	p.nowFunc = func() time.Time { return e.now }
	require.NoError(t, p.RegisterCustodian(e.custodian))
	e.p = p
	return e
}

func (e *testEnv) mature() {
	e.now = e.now.Add(time.Duration(testMaturity+1) * time.Second)
}

func (e *testEnv) bond() *uint256.Int {
	return uint256.NewInt(testBond)
}

// deposit creates a coin owned by the given key and returns its slot and
// deposit block.
func (e *testEnv) deposit(t *testing.T, owner *keys.PrivateKey) (uint64, uint64) {
	slot, err := e.p.Deposit(owner.Address(), random.Uint256(), uint256.NewInt(1))
	require.NoError(t, err)
	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	return slot, coin.DepositBlock
}

// submitBatch commits the given transactions into the next batch block
// and returns the block number and the tree to make proofs from.
func (e *testEnv) submitBatch(t *testing.T, txs ...*transaction.Transaction) (uint64, *merkle.Tree) {
	leaves := make(map[uint64]util.Uint256)
	for _, tx := range txs {
		leaves[tx.Slot] = tx.Hash()
	}
	tree := merkle.NewTree(leaves)
	index, err := e.p.SubmitBlock(e.operator, tree.Root())
	require.NoError(t, err)
	return index, tree
}

// spend creates a signed transfer of the coin in the given slot.
func spend(slot, prevBlock uint64, from *keys.PrivateKey, to util.Uint160) *transaction.Transaction {
	tx := &transaction.Transaction{
		Slot:         slot,
		PrevBlock:    prevBlock,
		Denomination: uint256.NewInt(1),
		NewOwner:     to,
	}
	tx.Sign(from)
	return tx
}

// depositTx recreates the canonical deposit transaction of a coin.
func depositTx(slot uint64, owner *keys.PrivateKey) *transaction.Transaction {
	tx := transaction.NewDeposit(slot, owner.Address(), uint256.NewInt(1))
	tx.Sign(owner)
	return tx
}

func proofFor(tx *transaction.Transaction, block uint64, tree *merkle.Tree) TxProof {
	p := TxProof{Tx: tx.Bytes(), Block: block}
	if tree != nil {
		p.Proof = tree.CreateProof(tx.Slot)
	}
	return p
}

func requireBalance(t *testing.T, e *testEnv, addr util.Uint160, bonded, withdrawable uint64) {
	b, err := e.p.GetBalance(addr)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(bonded), b.Bonded, "bonded")
	require.Equal(t, uint256.NewInt(withdrawable), b.Withdrawable, "withdrawable")
}

func newKey(t *testing.T) *keys.PrivateKey {
	k, err := keys.NewPrivateKey()
	require.NoError(t, err)
	return k
}

func TestDepositAssignsSlotsAndBlocks(t *testing.T) {
	e := newTestEnv(t)
	alice := newKey(t)

	slot, blk := e.deposit(t, alice)
	require.EqualValues(t, 0, slot)
	require.EqualValues(t, 1, blk)

	slot, blk = e.deposit(t, alice)
	require.EqualValues(t, 1, slot)
	require.EqualValues(t, 2, blk)

	coin, err := e.p.GetCoin(0)
	require.NoError(t, err)
	require.Equal(t, state.Deposited, coin.State)
	require.Equal(t, alice.Address(), coin.Owner)

	count, err := e.p.CoinCount()
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	cb, err := e.p.GetChildBlock(1)
	require.NoError(t, err)
	require.Equal(t, depositTx(0, alice).Hash(), cb.Root)
}

func TestDepositWindowExhausted(t *testing.T) {
	e := newTestEnv(t)
	alice := newKey(t)

	for i := 0; i < testInterval-1; i++ {
		_, err := e.p.Deposit(alice.Address(), random.Uint256(), uint256.NewInt(1))
		require.NoError(t, err)
	}
	_, err := e.p.Deposit(alice.Address(), random.Uint256(), uint256.NewInt(1))
	require.ErrorIs(t, err, ErrPrecondition)

	// A batch block opens the next window.
	_, err = e.p.SubmitBlock(e.operator, random.Uint256())
	require.NoError(t, err)
	_, err = e.p.Deposit(alice.Address(), random.Uint256(), uint256.NewInt(1))
	require.NoError(t, err)
}

func TestSubmitBlock(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.p.SubmitBlock(random.Uint160(), random.Uint256())
	require.ErrorIs(t, err, ErrUnauthorized)

	index, err := e.p.SubmitBlock(e.operator, random.Uint256())
	require.NoError(t, err)
	require.EqualValues(t, testInterval, index)

	index, err = e.p.SubmitBlock(e.operator, random.Uint256())
	require.NoError(t, err)
	require.EqualValues(t, 2*testInterval, index)

	cur, err := e.p.CurrentBlockIndex()
	require.NoError(t, err)
	require.Equal(t, index, cur)
}

func TestExitOffDeposit(t *testing.T) {
	e := newTestEnv(t)
	alice := newKey(t)
	slot, blk := e.deposit(t, alice)

	dtx := depositTx(slot, alice)
	err := e.p.StartExit(alice.Address(), slot, ExitClaim{
		Exit: proofFor(dtx, blk, nil),
	}, e.bond())
	require.NoError(t, err)

	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Exiting, coin.State)
	require.NotNil(t, coin.Exit)
	require.EqualValues(t, 0, coin.Exit.PrevBlock)
	require.Equal(t, blk, coin.Exit.ExitBlock)
	require.Equal(t, alice.Address(), coin.Exit.PrevOwner)
	require.Equal(t, []uint64{slot}, e.p.GetOutstandingExits())
	requireBalance(t, e, alice.Address(), testBond, 0)

	// Not mature yet, finalization does nothing.
	require.NoError(t, e.p.FinalizeExits())
	coin, err = e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Exiting, coin.State)

	e.mature()
	require.NoError(t, e.p.FinalizeExits())
	coin, err = e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Exited, coin.State)
	require.Nil(t, coin.Exit)
	require.Equal(t, alice.Address(), coin.Owner)
	require.Empty(t, e.p.GetOutstandingExits())
	requireBalance(t, e, alice.Address(), 0, testBond)

	// Finalizing an already settled slot again is a no-op.
	require.NoError(t, e.p.FinalizeExit(slot))
	requireBalance(t, e, alice.Address(), 0, testBond)

	require.NoError(t, e.p.Withdraw(alice.Address(), slot))
	require.Equal(t, []util.Uint256{coin.AssetID}, e.custodian.assets)

	require.NoError(t, e.p.WithdrawBonds(alice.Address()))
	require.Equal(t, uint256.NewInt(testBond), e.custodian.payouts[alice.Address()])
	requireBalance(t, e, alice.Address(), 0, 0)
}

func TestExitWithHistory(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	txAB := spend(slot, blk, alice, bob.Address())
	batch, tree := e.submitBatch(t, txAB)

	dtx := depositTx(slot, alice)
	err := e.p.StartExit(bob.Address(), slot, ExitClaim{
		Prev: proofFor(dtx, blk, nil),
		Exit: proofFor(txAB, batch, tree),
	}, e.bond())
	require.NoError(t, err)

	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, alice.Address(), coin.Exit.PrevOwner)

	e.mature()
	require.NoError(t, e.p.FinalizeExits())
	coin, err = e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Exited, coin.State)
	require.Equal(t, bob.Address(), coin.Owner)
	requireBalance(t, e, bob.Address(), 0, testBond)
}

func TestStartExitRejections(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)
	dtx := depositTx(slot, alice)

	t.Run("unknown coin", func(t *testing.T) {
		err := e.p.StartExit(alice.Address(), 42, ExitClaim{Exit: proofFor(dtx, blk, nil)}, e.bond())
		require.ErrorIs(t, err, ErrCoinNotFound)
	})
	t.Run("wrong bond", func(t *testing.T) {
		err := e.p.StartExit(alice.Address(), slot, ExitClaim{Exit: proofFor(dtx, blk, nil)}, uint256.NewInt(1))
		require.ErrorIs(t, err, ErrInvalidBond)
		err = e.p.StartExit(alice.Address(), slot, ExitClaim{Exit: proofFor(dtx, blk, nil)}, nil)
		require.ErrorIs(t, err, ErrInvalidBond)
	})
	t.Run("caller is not the new owner", func(t *testing.T) {
		err := e.p.StartExit(bob.Address(), slot, ExitClaim{Exit: proofFor(dtx, blk, nil)}, e.bond())
		require.ErrorIs(t, err, ErrWrongOwner)
	})
	t.Run("slot mismatch", func(t *testing.T) {
		err := e.p.StartExit(alice.Address(), slot, ExitClaim{Exit: proofFor(depositTx(slot+1, alice), blk, nil)}, e.bond())
		require.ErrorIs(t, err, ErrSlotMismatch)
	})
	t.Run("malformed transaction", func(t *testing.T) {
		err := e.p.StartExit(alice.Address(), slot, ExitClaim{Exit: TxProof{Tx: []byte{0xff}, Block: blk}}, e.bond())
		require.ErrorIs(t, err, ErrTxDecode)
	})
	t.Run("unknown block", func(t *testing.T) {
		err := e.p.StartExit(alice.Address(), slot, ExitClaim{Exit: proofFor(dtx, blk+1, nil)}, e.bond())
		require.ErrorIs(t, err, ErrUnknownBlock)
	})
	t.Run("no effect on failure", func(t *testing.T) {
		coin, err := e.p.GetCoin(slot)
		require.NoError(t, err)
		require.Equal(t, state.Deposited, coin.State)
		require.Empty(t, e.p.GetOutstandingExits())
		requireBalance(t, e, alice.Address(), 0, 0)
	})
	t.Run("double start", func(t *testing.T) {
		require.NoError(t, e.p.StartExit(alice.Address(), slot, ExitClaim{Exit: proofFor(dtx, blk, nil)}, e.bond()))
		err := e.p.StartExit(alice.Address(), slot, ExitClaim{Exit: proofFor(dtx, blk, nil)}, e.bond())
		require.ErrorIs(t, err, ErrWrongCoinState)
	})
}

func TestStartExitBadSpendChain(t *testing.T) {
	e := newTestEnv(t)
	alice, bob, mallory := newKey(t), newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)
	dtx := depositTx(slot, alice)

	// Transfer signed by somebody who never owned the coin.
	forged := spend(slot, blk, mallory, mallory.Address())
	batch, tree := e.submitBatch(t, forged)

	err := e.p.StartExit(mallory.Address(), slot, ExitClaim{
		Prev: proofFor(dtx, blk, nil),
		Exit: proofFor(forged, batch, tree),
	}, e.bond())
	require.ErrorIs(t, err, ErrInvalidSignature)

	// A legit transfer claimed at the wrong previous block.
	txAB := spend(slot, blk, alice, bob.Address())
	batch2, tree2 := e.submitBatch(t, txAB)
	err = e.p.StartExit(bob.Address(), slot, ExitClaim{
		Prev: proofFor(dtx, blk+1, nil),
		Exit: proofFor(txAB, batch2, tree2),
	}, e.bond())
	require.ErrorIs(t, err, ErrBlockOrder)

	// A transfer that is not in the block it claims to be in.
	txOther := spend(slot, blk, alice, mallory.Address())
	err = e.p.StartExit(mallory.Address(), slot, ExitClaim{
		Prev: proofFor(dtx, blk, nil),
		Exit: proofFor(txOther, batch2, tree2),
	}, e.bond())
	require.ErrorIs(t, err, ErrTxNotIncluded)
}

func TestChallengeAfter(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	// Alice spends the coin, then tries to exit off her old deposit.
	txAB := spend(slot, blk, alice, bob.Address())
	batch, tree := e.submitBatch(t, txAB)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(alice.Address(), slot, ExitClaim{
		Exit: proofFor(dtx, blk, nil),
	}, e.bond()))

	require.NoError(t, e.p.ChallengeAfter(bob.Address(), slot, proofFor(txAB, batch, tree)))

	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Deposited, coin.State)
	require.Nil(t, coin.Exit)
	require.Empty(t, e.p.GetOutstandingExits())
	requireBalance(t, e, alice.Address(), 0, 0)
	requireBalance(t, e, bob.Address(), 0, testBond)

	// Nothing left to finalize even after maturity.
	e.mature()
	require.NoError(t, e.p.FinalizeExits())
	coin, err = e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Deposited, coin.State)
}

func TestChallengeBetween(t *testing.T) {
	e := newTestEnv(t)
	alice, bob, carol := newKey(t), newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	// Alice double spends: first to Bob, later to Carol.
	txAB := spend(slot, blk, alice, bob.Address())
	batchAB, treeAB := e.submitBatch(t, txAB)
	txAC := spend(slot, blk, alice, carol.Address())
	batchAC, treeAC := e.submitBatch(t, txAC)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(carol.Address(), slot, ExitClaim{
		Prev: proofFor(dtx, blk, nil),
		Exit: proofFor(txAC, batchAC, treeAC),
	}, e.bond()))

	// The earlier spend to Bob proves Carol's history is not canonical.
	require.NoError(t, e.p.ChallengeBetween(bob.Address(), slot, proofFor(txAB, batchAB, treeAB)))

	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Deposited, coin.State)
	requireBalance(t, e, carol.Address(), 0, 0)
	requireBalance(t, e, bob.Address(), 0, testBond)
}

func TestChallengeAfterForged(t *testing.T) {
	e := newTestEnv(t)
	alice, mallory := newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(alice.Address(), slot, ExitClaim{
		Exit: proofFor(dtx, blk, nil),
	}, e.bond()))

	// The operator includes a transfer Alice never signed. Inclusion
	// alone must not cancel her exit.
	forged := spend(slot, blk, mallory, mallory.Address())
	batch, tree := e.submitBatch(t, forged)
	err := e.p.ChallengeAfter(mallory.Address(), slot, proofFor(forged, batch, tree))
	require.ErrorIs(t, err, ErrInvalidSignature)

	// A transfer not spending the exiting transaction doesn't contest
	// this exit either, whoever signed it.
	stale := spend(slot, blk+1, alice, mallory.Address())
	batch2, tree2 := e.submitBatch(t, stale)
	err = e.p.ChallengeAfter(mallory.Address(), slot, proofFor(stale, batch2, tree2))
	require.ErrorIs(t, err, ErrBlockOrder)

	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Exiting, coin.State)
	requireBalance(t, e, alice.Address(), testBond, 0)
	requireBalance(t, e, mallory.Address(), 0, 0)
}

func TestChallengeBetweenForged(t *testing.T) {
	e := newTestEnv(t)
	alice, bob, carol, mallory := newKey(t), newKey(t), newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	txAB := spend(slot, blk, alice, bob.Address())
	batchAB, treeAB := e.submitBatch(t, txAB)
	// A forged transfer slips into a batch between Bob's transfer and
	// the one Carol exits on.
	forged := spend(slot, batchAB, mallory, mallory.Address())
	batchF, treeF := e.submitBatch(t, forged)
	txBC := spend(slot, batchAB, bob, carol.Address())
	batchBC, treeBC := e.submitBatch(t, txBC)

	require.NoError(t, e.p.StartExit(carol.Address(), slot, ExitClaim{
		Prev: proofFor(txAB, batchAB, treeAB),
		Exit: proofFor(txBC, batchBC, treeBC),
	}, e.bond()))

	// Only a spend by Bob supersedes Carol's history.
	err := e.p.ChallengeBetween(mallory.Address(), slot, proofFor(forged, batchF, treeF))
	require.ErrorIs(t, err, ErrInvalidSignature)

	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Exiting, coin.State)
	requireBalance(t, e, carol.Address(), testBond, 0)
	requireBalance(t, e, mallory.Address(), 0, 0)
}

func TestChallengeOrderingBounds(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	txAB := spend(slot, blk, alice, bob.Address())
	batch, tree := e.submitBatch(t, txAB)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(bob.Address(), slot, ExitClaim{
		Prev: proofFor(dtx, blk, nil),
		Exit: proofFor(txAB, batch, tree),
	}, e.bond()))

	// The exiting transaction itself is in none of the challenge windows.
	err := e.p.ChallengeAfter(alice.Address(), slot, proofFor(txAB, batch, tree))
	require.ErrorIs(t, err, ErrBlockOrder)
	err = e.p.ChallengeBetween(alice.Address(), slot, proofFor(txAB, batch, tree))
	require.ErrorIs(t, err, ErrBlockOrder)
	err = e.p.ChallengeBefore(alice.Address(), slot, proofFor(txAB, batch, tree), e.bond())
	require.ErrorIs(t, err, ErrBlockOrder)
}

func TestChallengeBeforeRespondAndFinalize(t *testing.T) {
	e := newTestEnv(t)
	alice, bob, carol, dave := newKey(t), newKey(t), newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	txAB := spend(slot, blk, alice, bob.Address())
	batchAB, treeAB := e.submitBatch(t, txAB)
	txBC := spend(slot, batchAB, bob, carol.Address())
	batchBC, treeBC := e.submitBatch(t, txBC)

	require.NoError(t, e.p.StartExit(carol.Address(), slot, ExitClaim{
		Prev: proofFor(txAB, batchAB, treeAB),
		Exit: proofFor(txBC, batchBC, treeBC),
	}, e.bond()))

	// Dave digs up the deposit and claims the history is deeper than
	// Carol says.
	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.ChallengeBefore(dave.Address(), slot, proofFor(dtx, blk, nil), e.bond()))
	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Challenged, coin.State)
	requireBalance(t, e, dave.Address(), testBond, 0)

	// Carol shows the deposit was spent on the way to her transaction.
	require.NoError(t, e.p.RespondChallengeBefore(carol.Address(), slot, proofFor(txAB, batchAB, treeAB)))
	coin, err = e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Responded, coin.State)

	e.mature()
	require.NoError(t, e.p.FinalizeExits())
	coin, err = e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Exited, coin.State)
	require.Equal(t, carol.Address(), coin.Owner)
	// Carol gets her own bond back plus Dave's.
	requireBalance(t, e, carol.Address(), 0, 2*testBond)
	requireBalance(t, e, dave.Address(), 0, 0)
}

func TestChallengeBeforeUnanswered(t *testing.T) {
	e := newTestEnv(t)
	alice, bob, carol, dave := newKey(t), newKey(t), newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	txAB := spend(slot, blk, alice, bob.Address())
	batchAB, treeAB := e.submitBatch(t, txAB)
	txBC := spend(slot, batchAB, bob, carol.Address())
	batchBC, treeBC := e.submitBatch(t, txBC)

	require.NoError(t, e.p.StartExit(carol.Address(), slot, ExitClaim{
		Prev: proofFor(txAB, batchAB, treeAB),
		Exit: proofFor(txBC, batchBC, treeBC),
	}, e.bond()))
	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.ChallengeBefore(dave.Address(), slot, proofFor(dtx, blk, nil), e.bond()))

	e.mature()
	require.NoError(t, e.p.FinalizeExits())
	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Deposited, coin.State)
	require.Nil(t, coin.Exit)
	// The unanswered challenge takes the exitor's bond.
	requireBalance(t, e, carol.Address(), 0, 0)
	requireBalance(t, e, dave.Address(), 0, 2*testBond)
}

func TestRespondRejections(t *testing.T) {
	e := newTestEnv(t)
	alice, bob, carol, dave := newKey(t), newKey(t), newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	txAB := spend(slot, blk, alice, bob.Address())
	batchAB, treeAB := e.submitBatch(t, txAB)
	txBC := spend(slot, batchAB, bob, carol.Address())
	batchBC, treeBC := e.submitBatch(t, txBC)

	require.NoError(t, e.p.StartExit(carol.Address(), slot, ExitClaim{
		Prev: proofFor(txAB, batchAB, treeAB),
		Exit: proofFor(txBC, batchBC, treeBC),
	}, e.bond()))

	// Can't respond to a challenge that doesn't exist.
	err := e.p.RespondChallengeBefore(carol.Address(), slot, proofFor(txAB, batchAB, treeAB))
	require.ErrorIs(t, err, ErrWrongCoinState)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.ChallengeBefore(dave.Address(), slot, proofFor(dtx, blk, nil), e.bond()))

	// The response has to spend the challenging transaction.
	err = e.p.RespondChallengeBefore(carol.Address(), slot, proofFor(txBC, batchBC, treeBC))
	require.ErrorIs(t, err, ErrBlockOrder)
}

func TestChallengeBetweenSettlesOpenChallenge(t *testing.T) {
	e := newTestEnv(t)
	alice, bob, carol, dave, eve := newKey(t), newKey(t), newKey(t), newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	// Bob double spends: first to Eve, then to Carol in a later batch.
	txAB := spend(slot, blk, alice, bob.Address())
	batchAB, treeAB := e.submitBatch(t, txAB)
	txBE := spend(slot, batchAB, bob, eve.Address())
	batchBE, treeBE := e.submitBatch(t, txBE)
	txBC := spend(slot, batchAB, bob, carol.Address())
	batchBC, treeBC := e.submitBatch(t, txBC)

	require.NoError(t, e.p.StartExit(carol.Address(), slot, ExitClaim{
		Prev: proofFor(txAB, batchAB, treeAB),
		Exit: proofFor(txBC, batchBC, treeBC),
	}, e.bond()))
	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.ChallengeBefore(dave.Address(), slot, proofFor(dtx, blk, nil), e.bond()))

	// Eve's fraud proof moots Dave's pending challenge, Dave's bond is
	// returned without a penalty.
	require.NoError(t, e.p.ChallengeBetween(eve.Address(), slot, proofFor(txBE, batchBE, treeBE)))
	requireBalance(t, e, eve.Address(), 0, testBond)
	requireBalance(t, e, dave.Address(), 0, testBond)
	requireBalance(t, e, carol.Address(), 0, 0)

	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, state.Deposited, coin.State)
}

func TestWithdraw(t *testing.T) {
	e := newTestEnv(t)
	alice, bob := newKey(t), newKey(t)
	slot, blk := e.deposit(t, alice)

	err := e.p.Withdraw(alice.Address(), slot)
	require.ErrorIs(t, err, ErrWrongCoinState)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(alice.Address(), slot, ExitClaim{
		Exit: proofFor(dtx, blk, nil),
	}, e.bond()))
	e.mature()
	require.NoError(t, e.p.FinalizeExits())

	err = e.p.Withdraw(bob.Address(), slot)
	require.ErrorIs(t, err, ErrWrongOwner)
	require.NoError(t, e.p.Withdraw(alice.Address(), slot))

	// The coin pays out exactly once.
	err = e.p.Withdraw(alice.Address(), slot)
	require.ErrorIs(t, err, ErrPrecondition)
	require.Len(t, e.custodian.assets, 1)
}

func TestWithdrawCustodianFailure(t *testing.T) {
	e := newTestEnv(t)
	alice := newKey(t)
	slot, blk := e.deposit(t, alice)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(alice.Address(), slot, ExitClaim{
		Exit: proofFor(dtx, blk, nil),
	}, e.bond()))
	e.mature()
	require.NoError(t, e.p.FinalizeExits())

	e.custodian.failing = true
	require.Error(t, e.p.Withdraw(alice.Address(), slot))
	// A failed transfer doesn't consume the coin.
	coin, err := e.p.GetCoin(slot)
	require.NoError(t, err)
	require.False(t, coin.Withdrawn)

	e.custodian.failing = false
	require.NoError(t, e.p.Withdraw(alice.Address(), slot))
	coin, err = e.p.GetCoin(slot)
	require.NoError(t, err)
	require.True(t, coin.Withdrawn)
}

func TestWithdrawBondsCustodianFailure(t *testing.T) {
	e := newTestEnv(t)
	alice := newKey(t)
	slot, blk := e.deposit(t, alice)

	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(alice.Address(), slot, ExitClaim{
		Exit: proofFor(dtx, blk, nil),
	}, e.bond()))
	e.mature()
	require.NoError(t, e.p.FinalizeExits())

	e.custodian.failing = true
	require.Error(t, e.p.WithdrawBonds(alice.Address()))
	// The failed payout leaves the balance untouched.
	requireBalance(t, e, alice.Address(), 0, testBond)

	e.custodian.failing = false
	require.NoError(t, e.p.WithdrawBonds(alice.Address()))
	requireBalance(t, e, alice.Address(), 0, 0)

	// Nothing to pay out, a second call is a no-op.
	require.NoError(t, e.p.WithdrawBonds(alice.Address()))
	require.Equal(t, uint256.NewInt(testBond), e.custodian.payouts[alice.Address()])
}

func TestRegisterCustodianOnce(t *testing.T) {
	e := newTestEnv(t)
	err := e.p.RegisterCustodian(newTestCustodian())
	require.ErrorIs(t, err, ErrPrecondition)
}

func TestNotifications(t *testing.T) {
	e := newTestEnv(t)
	alice := newKey(t)

	ch := make(chan state.NotificationEvent, 16)
	e.p.SubscribeForNotifications(ch)

	slot, blk := e.deposit(t, alice)
	dtx := depositTx(slot, alice)
	require.NoError(t, e.p.StartExit(alice.Address(), slot, ExitClaim{
		Exit: proofFor(dtx, blk, nil),
	}, e.bond()))
	e.mature()
	require.NoError(t, e.p.FinalizeExits())

	e.p.UnsubscribeFromNotifications(ch)
	close(ch)

	var types []state.EventType
	for ev := range ch {
		types = append(types, ev.Type)
	}
	require.Equal(t, []state.EventType{
		state.EventDeposit,
		state.EventExitStarted,
		state.EventExitFinalized,
	}, types)
}

func TestRestartKeepsState(t *testing.T) {
	st := storage.NewMemoryStore()
	e := newTestEnvWithStore(t, st)
	alice := newKey(t)
	slot, _ := e.deposit(t, alice)

	cfg := e.p.Config()
	p2, err := NewPlasma(st, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	coin, err := p2.GetCoin(slot)
	require.NoError(t, err)
	require.Equal(t, alice.Address(), coin.Owner)
	count, err := p2.CoinCount()
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestStorageVersionMismatch(t *testing.T) {
	st := storage.NewMemoryStore()
	require.NoError(t, st.Put(storage.SYSVersion.Bytes(), []byte("0.0.1")))
	_, err := NewPlasma(st, config.ProtocolConfiguration{Operator: random.Uint160()}, zaptest.NewLogger(t))
	require.Error(t, err)
}

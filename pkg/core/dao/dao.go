// Package dao provides a typed data access layer on top of the raw
// key-value store. All accessors work through a MemCachedStore, so a
// wrapped DAO accumulates changes in memory until they are explicitly
// persisted, which gives the callers an all-or-nothing transactional
// boundary.
package dao

import (
	"encoding/binary"
	"sort"

	"github.com/plasmacash/plasma-go/pkg/core/state"
	"github.com/plasmacash/plasma-go/pkg/core/storage"
	"github.com/plasmacash/plasma-go/pkg/io"
	"github.com/plasmacash/plasma-go/pkg/util"
)

// Simple is memCached wrapper around DB, simple DAO implementation.
type Simple struct {
	Store *storage.MemCachedStore
}

// NewSimple creates new simple dao using provided backend store.
func NewSimple(backend storage.Store) *Simple {
	return &Simple{Store: storage.NewMemCachedStore(backend)}
}

// GetBatch returns currently accumulated DB changeset.
func (dao *Simple) GetBatch() *storage.MemBatch {
	return dao.Store.GetBatch()
}

// GetWrapped returns new DAO instance with another layer of wrapped
// MemCachedStore around the current DAO Store.
func (dao *Simple) GetWrapped() *Simple {
	return NewSimple(dao.Store)
}

// Persist flushes accumulated changes to the underlying store.
func (dao *Simple) Persist() (int, error) {
	return dao.Store.Persist()
}

// GetAndDecode performs get operation and decoding with serializable
// structures.
func (dao *Simple) GetAndDecode(entity io.Serializable, key []byte) error {
	entityBytes, err := dao.Store.Get(key)
	if err != nil {
		return err
	}
	reader := io.NewBinReaderFromBuf(entityBytes)
	entity.DecodeBinary(reader)
	return reader.Err
}

// Put performs put operation with serializable structures.
func (dao *Simple) Put(entity io.Serializable, key []byte) error {
	buf := io.NewBufBinWriter()
	entity.EncodeBinary(buf.BinWriter)
	if buf.Err != nil {
		return buf.Err
	}
	return dao.Store.Put(key, buf.Bytes())
}

// -- start coins.

// GetCoin returns the coin record of the given slot if it's present in
// the store.
func (dao *Simple) GetCoin(slot uint64) (*state.Coin, error) {
	coin := &state.Coin{}
	key := storage.AppendPrefixInt(storage.STCoin, slot)
	if err := dao.GetAndDecode(coin, key); err != nil {
		return nil, err
	}
	return coin, nil
}

// PutCoin saves the given coin record.
func (dao *Simple) PutCoin(c *state.Coin) error {
	key := storage.AppendPrefixInt(storage.STCoin, c.Slot)
	return dao.Put(c, key)
}

// -- end coins.

// -- start child blocks.

// GetChildBlock returns the block commitment with the given number.
func (dao *Simple) GetChildBlock(index uint64) (*state.ChildBlock, error) {
	b := &state.ChildBlock{}
	key := storage.AppendPrefixInt(storage.STChildBlock, index)
	if err := dao.GetAndDecode(b, key); err != nil {
		return nil, err
	}
	return b, nil
}

// PutChildBlock saves the given block commitment under the given number.
func (dao *Simple) PutChildBlock(index uint64, b *state.ChildBlock) error {
	key := storage.AppendPrefixInt(storage.STChildBlock, index)
	return dao.Put(b, key)
}

// -- end child blocks.

// -- start balances.

// GetBalanceOrNew retrieves the bond balance of the given address or
// creates a new zero one if it doesn't exist.
func (dao *Simple) GetBalanceOrNew(addr util.Uint160) (*state.Balance, error) {
	b := &state.Balance{}
	key := storage.AppendPrefix(storage.STBalance, addr.Bytes())
	err := dao.GetAndDecode(b, key)
	if err != nil {
		if err != storage.ErrKeyNotFound {
			return nil, err
		}
		b = state.NewBalance()
	}
	return b, nil
}

// PutBalance saves the bond balance of the given address.
func (dao *Simple) PutBalance(addr util.Uint160, b *state.Balance) error {
	key := storage.AppendPrefix(storage.STBalance, addr.Bytes())
	return dao.Put(b, key)
}

// -- end balances.

// -- start challenges.

// GetChallenge returns the open challenge against the given slot.
func (dao *Simple) GetChallenge(slot uint64) (*state.Challenge, error) {
	c := &state.Challenge{}
	key := storage.AppendPrefixInt(storage.STChallenge, slot)
	if err := dao.GetAndDecode(c, key); err != nil {
		return nil, err
	}
	return c, nil
}

// PutChallenge saves an open challenge against the given slot.
func (dao *Simple) PutChallenge(slot uint64, c *state.Challenge) error {
	key := storage.AppendPrefixInt(storage.STChallenge, slot)
	return dao.Put(c, key)
}

// DeleteChallenge drops the challenge record of the given slot.
func (dao *Simple) DeleteChallenge(slot uint64) error {
	key := storage.AppendPrefixInt(storage.STChallenge, slot)
	return dao.Store.Delete(key)
}

// -- end challenges.

// -- start outstanding exits.

// IsOutstandingExit checks the membership of the given slot in the
// outstanding exit set.
func (dao *Simple) IsOutstandingExit(slot uint64) bool {
	key := storage.AppendPrefixInt(storage.IXOutstandingExit, slot)
	_, err := dao.Store.Get(key)
	return err == nil
}

// PutOutstandingExit adds the given slot to the outstanding exit set.
// Adding a present slot is a no-op.
func (dao *Simple) PutOutstandingExit(slot uint64) error {
	key := storage.AppendPrefixInt(storage.IXOutstandingExit, slot)
	return dao.Store.Put(key, []byte{1})
}

// DeleteOutstandingExit drops the given slot from the outstanding exit
// set. Dropping a missing slot is a no-op.
func (dao *Simple) DeleteOutstandingExit(slot uint64) error {
	key := storage.AppendPrefixInt(storage.IXOutstandingExit, slot)
	return dao.Store.Delete(key)
}

// GetOutstandingExits returns all slots currently mid-exit in ascending
// order.
func (dao *Simple) GetOutstandingExits() []uint64 {
	var slots []uint64
	dao.Store.Seek(storage.IXOutstandingExit.Bytes(), func(k, v []byte) {
		if len(k) == 9 {
			slots = append(slots, binary.BigEndian.Uint64(k[1:]))
		}
	})
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// -- end outstanding exits.

// -- start system entries.

// GetCoinCount returns the number of coins deposited so far, zero for a
// fresh store.
func (dao *Simple) GetCoinCount() (uint64, error) {
	return dao.getCounter(storage.SYSCoinCount)
}

// PutCoinCount stores the number of coins deposited so far.
func (dao *Simple) PutCoinCount(count uint64) error {
	return dao.putCounter(storage.SYSCoinCount, count)
}

// GetCurrentBlockIndex returns the current child block pointer, zero for
// a fresh store.
func (dao *Simple) GetCurrentBlockIndex() (uint64, error) {
	return dao.getCounter(storage.SYSCurrentBlock)
}

// PutCurrentBlockIndex stores the current child block pointer.
func (dao *Simple) PutCurrentBlockIndex(index uint64) error {
	return dao.putCounter(storage.SYSCurrentBlock, index)
}

// GetVersion attempts to get the current version stored in the
// underlying Store.
func (dao *Simple) GetVersion() (string, error) {
	version, err := dao.Store.Get(storage.SYSVersion.Bytes())
	return string(version), err
}

// PutVersion stores the given version in the underlying Store.
func (dao *Simple) PutVersion(v string) error {
	return dao.Store.Put(storage.SYSVersion.Bytes(), []byte(v))
}

func (dao *Simple) getCounter(p storage.KeyPrefix) (uint64, error) {
	b, err := dao.Store.Get(p.Bytes())
	if err != nil {
		if err == storage.ErrKeyNotFound {
			return 0, nil
		}
		return 0, err
	}
	if len(b) != 8 {
		return 0, storage.ErrKeyNotFound
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (dao *Simple) putCounter(p storage.KeyPrefix, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return dao.Store.Put(p.Bytes(), b[:])
}

// -- end system entries.

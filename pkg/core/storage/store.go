package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// KeyPrefix constants.
const (
	// STCoin is used for coin records keyed by slot.
	STCoin KeyPrefix = 0x05
	// STChildBlock is used for child block commitments keyed by block
	// number.
	STChildBlock KeyPrefix = 0x06
	// STBalance is used for bond balances keyed by address.
	STBalance KeyPrefix = 0x07
	// STChallenge is used for open challenges keyed by slot, only valid
	// while the coin is contested.
	STChallenge KeyPrefix = 0x08
	// IXOutstandingExit is used for the set of slots currently mid-exit,
	// one key per slot.
	IXOutstandingExit KeyPrefix = 0x80
	// SYSCurrentBlock holds the current child block pointer.
	SYSCurrentBlock KeyPrefix = 0xc0
	// SYSCoinCount holds the number of coins deposited so far.
	SYSCoinCount KeyPrefix = 0xc1
	// SYSVersion holds the storage schema version.
	SYSVersion KeyPrefix = 0xf0
)

// ErrKeyNotFound is an error returned by Store implementations
// when a certain key is not found.
var ErrKeyNotFound = errors.New("key not found")

type (
	// Store is anything that can persist and retrieve the blockchain
	// data.
	Store interface {
		Batch() Batch
		Delete(k []byte) error
		Get([]byte) ([]byte, error)
		Put(k, v []byte) error
		PutBatch(Batch) error
		// Seek calls f for every key-value pair with the given prefix.
		Seek(k []byte, f func(k, v []byte))
		Close() error
	}

	// Batch represents an abstraction on top of batch operations.
	// Each Store implementation is responsible of casting a Batch
	// to its appropriate type.
	Batch interface {
		Delete(k []byte)
		Put(k, v []byte)
		Len() int
	}

	// KeyPrefix is a constant byte added as a prefix for each key
	// stored.
	KeyPrefix uint8
)

// Bytes returns the bytes representation of KeyPrefix.
func (k KeyPrefix) Bytes() []byte {
	return []byte{byte(k)}
}

// AppendPrefix appends byteslice b to the given KeyPrefix.
func AppendPrefix(k KeyPrefix, b []byte) []byte {
	dest := make([]byte, len(b)+1)
	dest[0] = byte(k)
	copy(dest[1:], b)
	return dest
}

// AppendPrefixInt append int n to the given KeyPrefix.
func AppendPrefixInt(k KeyPrefix, n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return AppendPrefix(k, b[:])
}

// NewStore creates storage with preselected in configuration database
// type.
func NewStore(cfg DBConfiguration) (Store, error) {
	var store Store
	var err error
	switch cfg.Type {
	case "leveldb":
		store, err = NewLevelDBStore(cfg.LevelDBOptions)
	case "inmemory":
		store = NewMemoryStore()
	case "boltdb":
		store, err = NewBoltDBStore(cfg.BoltDBOptions)
	default:
		return nil, fmt.Errorf("unknown storage: %s", cfg.Type)
	}
	return store, err
}

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testStoreBasicOps exercises the part of the Store contract shared by
// all implementations.
func testStoreBasicOps(t *testing.T, s Store) {
	key := []byte{0x01, 0x02}
	value := []byte{0xAB}

	_, err := s.Get(key)
	require.Equal(t, ErrKeyNotFound, err)

	require.NoError(t, s.Put(key, value))
	got, err := s.Get(key)
	require.NoError(t, err)
	require.Equal(t, value, got)

	b := s.Batch()
	b.Put([]byte{0x01, 0x03}, []byte{0xCD})
	b.Delete(key)
	require.NoError(t, s.PutBatch(b))

	_, err = s.Get(key)
	require.Equal(t, ErrKeyNotFound, err)
	got, err = s.Get([]byte{0x01, 0x03})
	require.NoError(t, err)
	require.Equal(t, []byte{0xCD}, got)

	var keys [][]byte
	s.Seek([]byte{0x01}, func(k, v []byte) {
		kc := make([]byte, len(k))
		copy(kc, k)
		keys = append(keys, kc)
	})
	require.Equal(t, [][]byte{{0x01, 0x03}}, keys)

	require.NoError(t, s.Close())
}

func TestMemoryStoreOps(t *testing.T) {
	testStoreBasicOps(t, NewMemoryStore())
}

func TestBoltDBStoreOps(t *testing.T) {
	s, err := NewBoltDBStore(BoltDBOptions{
		FilePath: filepath.Join(t.TempDir(), "test_bolt_db"),
	})
	require.NoError(t, err)
	testStoreBasicOps(t, s)
}

func TestLevelDBStoreOps(t *testing.T) {
	s, err := NewLevelDBStore(LevelDBOptions{
		DataDirectoryPath: t.TempDir(),
	})
	require.NoError(t, err)
	testStoreBasicOps(t, s)
}

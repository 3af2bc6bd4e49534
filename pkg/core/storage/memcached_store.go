package storage

// MemCachedStore layers an in-memory changeset on top of another Store.
// Reads fall through to the lower store, writes and deletes accumulate
// in memory until Persist pushes them down in one go. This is what makes
// an operation transactional, a changeset that is never persisted leaves
// the lower store untouched.
type MemCachedStore struct {
	MemoryStore

	lower Store
}

type (
	// KeyValue is one element of a changeset. Exists tells whether the
	// key is already present in the lower store.
	KeyValue struct {
		Key   []byte
		Value []byte

		Exists bool
	}

	// MemBatch is the accumulated changeset split into additions and
	// removals.
	MemBatch struct {
		Put     []KeyValue
		Deleted []KeyValue
	}
)

// NewMemCachedStore creates a new MemCachedStore object on top of the
// given store.
func NewMemCachedStore(lower Store) *MemCachedStore {
	return &MemCachedStore{
		MemoryStore: *NewMemoryStore(),
		lower:       lower,
	}
}

// Get implements the Store interface.
func (s *MemCachedStore) Get(key []byte) ([]byte, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	k := string(key)
	if val, ok := s.mem[k]; ok {
		return val, nil
	}
	// A pending delete shadows the lower store.
	if _, ok := s.del[k]; ok {
		return nil, ErrKeyNotFound
	}
	return s.lower.Get(key)
}

// GetBatch returns the changeset accumulated since the last Persist.
func (s *MemCachedStore) GetBatch() *MemBatch {
	s.mut.RLock()
	defer s.mut.RUnlock()

	var b MemBatch

	b.Put = make([]KeyValue, 0, len(s.mem))
	for k, v := range s.mem {
		key := []byte(k)
		_, err := s.lower.Get(key)
		b.Put = append(b.Put, KeyValue{Key: key, Value: v, Exists: err == nil})
	}

	b.Deleted = make([]KeyValue, 0, len(s.del))
	for k := range s.del {
		key := []byte(k)
		_, err := s.lower.Get(key)
		b.Deleted = append(b.Deleted, KeyValue{Key: key, Exists: err == nil})
	}

	return &b
}

// Seek implements the Store interface. Pending writes win over lower
// store values and pending deletes hide them.
func (s *MemCachedStore) Seek(key []byte, f func(k, v []byte)) {
	s.mut.RLock()
	defer s.mut.RUnlock()
	s.MemoryStore.seek(key, f)
	s.lower.Seek(key, func(k, v []byte) {
		elem := string(k)
		// Cached keys were already handed to f by the memory seek.
		_, present := s.mem[elem]
		if !present {
			_, present = s.del[elem]
		}
		if !present {
			f(k, v)
		}
	})
}

// Persist pushes the accumulated changeset into the lower store and
// resets the cache. It returns the number of keys written.
func (s *MemCachedStore) Persist() (int, error) {
	var err error
	var keys, dkeys int

	s.mut.Lock()
	defer s.mut.Unlock()

	keys = len(s.mem)
	dkeys = len(s.del)
	if keys == 0 && dkeys == 0 {
		return 0, nil
	}

	// Memory-backed lower stores take the changeset directly, anything
	// else gets it as one write batch.
	memStore, ok := s.lower.(*MemoryStore)
	if !ok {
		memCachedStore, ok := s.lower.(*MemCachedStore)
		if ok {
			memStore = &memCachedStore.MemoryStore
		}
	}
	if memStore != nil {
		memStore.mut.Lock()
		for k := range s.mem {
			memStore.put(k, s.mem[k])
		}
		for k := range s.del {
			memStore.drop(k)
		}
		memStore.mut.Unlock()
	} else {
		batch := s.lower.Batch()
		for k := range s.mem {
			batch.Put([]byte(k), s.mem[k])
		}
		for k := range s.del {
			batch.Delete([]byte(k))
		}
		err = s.lower.PutBatch(batch)
	}
	if err == nil {
		s.mem = make(map[string][]byte)
		s.del = make(map[string]bool)
	}
	return keys, err
}

// Close implements the Store interface, it drops the cache and closes
// the lower store.
func (s *MemCachedStore) Close() error {
	// The memory layer can't fail.
	_ = s.MemoryStore.Close()
	return s.lower.Close()
}

// Package shardmap provides a sharded concurrent map from byte keys to positions.
//
// Keys are partitioned across 64 shards by a seeded maphash; each shard is a
// plain Go map guarded by its own RWMutex, so concurrent inserts of unrelated
// keys rarely contend.
package shardmap

import (
	"hash/maphash"
	"sync"
)

const numShards = 64

// Map maps byte-string keys to int values.
type Map struct {
	shards [numShards]shard
	seed   maphash.Seed
}

type shard struct {
	mu sync.RWMutex
	m  map[string]int
}

// New creates a map sized for roughly hint entries.
func New(hint int) *Map {
	m := &Map{seed: maphash.MakeSeed()}
	per := hint / numShards
	for i := range numShards {
		m.shards[i].m = make(map[string]int, per)
	}
	return m
}

func (m *Map) shard(key []byte) *shard {
	return &m.shards[maphash.Bytes(m.seed, key)%numShards]
}

// Get returns the value stored for key.
func (m *Map) Get(key []byte) (int, bool) {
	s := m.shard(key)
	s.mu.RLock()
	v, ok := s.m[string(key)]
	s.mu.RUnlock()
	return v, ok
}

// GetOrInsert returns the value stored for key. If key is absent, insert is
// called with the shard lock held and its result is stored; insert runs at
// most once per key even when callers race. If insert fails nothing is stored.
func (m *Map) GetOrInsert(key []byte, insert func() (int, error)) (v int, inserted bool, err error) {
	s := m.shard(key)

	s.mu.RLock()
	v, ok := s.m[string(key)]
	s.mu.RUnlock()
	if ok {
		return v, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Recheck under the write lock.
	if v, ok = s.m[string(key)]; ok {
		return v, false, nil
	}
	v, err = insert()
	if err != nil {
		return 0, false, err
	}
	s.m[string(key)] = v
	return v, true, nil
}

// Len returns the number of entries.
func (m *Map) Len() int {
	n := 0
	for i := range numShards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Compact rebuilds every shard to drop slack left by growth.
func (m *Map) Compact() {
	for i := range numShards {
		s := &m.shards[i]
		s.mu.Lock()
		fresh := make(map[string]int, len(s.m))
		for k, v := range s.m {
			fresh[k] = v
		}
		s.m = fresh
		s.mu.Unlock()
	}
}

// Clone returns an independent copy of the map.
func (m *Map) Clone() *Map {
	c := &Map{seed: m.seed}
	for i := range numShards {
		s := &m.shards[i]
		s.mu.RLock()
		c.shards[i].m = make(map[string]int, len(s.m))
		for k, v := range s.m {
			c.shards[i].m[k] = v
		}
		s.mu.RUnlock()
	}
	return c
}

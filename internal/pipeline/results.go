package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

// ErrDuplicateResult is returned when a hash is stored twice.
var ErrDuplicateResult = errors.New("result already stored")

// ResultMap maps content hashes to processed bytes. Each key is written at
// most once; reads and writes to different shards never contend.
type ResultMap struct {
	shards [shardCount]resultShard
}

type resultShard struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewResultMap returns an empty map.
func NewResultMap() *ResultMap {
	m := &ResultMap{}
	for i := range m.shards {
		m.shards[i].data = make(map[string][]byte)
	}
	return m
}

func (m *ResultMap) shard(hash string) *resultShard {
	return &m.shards[xxhash.Sum64String(hash)%shardCount]
}

// Store records data for hash. A second store for the same hash is rejected.
func (m *ResultMap) Store(hash string, data []byte) error {
	s := m.shard(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[hash]; exists {
		return fmt.Errorf("store %s: %w", hash, ErrDuplicateResult)
	}
	s.data[hash] = data
	return nil
}

// Load returns the bytes stored for hash.
func (m *ResultMap) Load(hash string) ([]byte, bool) {
	s := m.shard(hash)
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[hash]
	return data, ok
}

// Len returns the number of stored results.
func (m *ResultMap) Len() int {
	total := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		total += len(s.data)
		s.mu.RUnlock()
	}
	return total
}

// Size returns the total number of stored bytes.
func (m *ResultMap) Size() int64 {
	var total int64
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for _, data := range s.data {
			total += int64(len(data))
		}
		s.mu.RUnlock()
	}
	return total
}

// Hashes returns the stored keys in sorted order.
func (m *ResultMap) Hashes() []string {
	var keys []string
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for hash := range s.data {
			keys = append(keys, hash)
		}
		s.mu.RUnlock()
	}
	sort.Strings(keys)
	return keys
}

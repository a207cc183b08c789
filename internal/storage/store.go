package storage

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"sync"
)

// ErrPersist marks storage write failures. Callers may retry the flush once
// and then carry on with in-memory state only; unflushed fingerprints are
// simply rediscovered and reprocessed on the next run.
var ErrPersist = errors.New("persist state")

// SeenStore keeps the set of fingerprints of already-processed articles.
// Add only mutates the in-memory set; Flush makes it durable. The set never
// shrinks.
type SeenStore interface {
	Load() error
	Contains(fingerprint string) bool
	Add(fingerprint string)
	Flush() error
	Len() int
}

// Fingerprint derives the dedup digest from an article's natural key.
// Equal title+url pairs always map to the same digest; MD5 keeps the state
// file readable by earlier revisions of the tool.
func Fingerprint(title, url string) string {
	sum := md5.Sum([]byte(title + "|" + url))
	return hex.EncodeToString(sum[:])
}

// MemoryStore is a SeenStore without durability. Used in tests and as the
// fallback when no state path is configured.
type MemoryStore struct {
	mu     sync.RWMutex
	hashes map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hashes: make(map[string]struct{})}
}

func (m *MemoryStore) Load() error { return nil }

func (m *MemoryStore) Contains(fingerprint string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.hashes[fingerprint]
	return ok
}

func (m *MemoryStore) Add(fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[fingerprint] = struct{}{}
}

func (m *MemoryStore) Flush() error { return nil }

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hashes)
}

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used in tests. Signed URLs are fake but
// carry a per-issue token so two URLs for the same object differ, and the
// stored bytes can be resolved back from either. Safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte // "bucket/key" -> bytes
}

func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func (m *MemStore) Put(_ context.Context, ownerID string, data []byte, mimeType string, original bool) (string, string, error) {
	key := objectKey(ownerID, mimeType, original)

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects["mem/"+key] = cp
	return "mem", key, nil
}

func (m *MemStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s/%s", bucket, key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *MemStore) SignedURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[bucket+"/"+key]; !ok {
		return "", fmt.Errorf("object not found: %s/%s", bucket, key)
	}
	return fmt.Sprintf("https://mem.local/%s/%s?token=%s&expires=%d",
		bucket, key, uuid.New().String(), int64(ttl.Seconds())), nil
}

func (m *MemStore) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

// Bytes returns the stored content for a bucket/key pair, for test
// round-trip assertions.
func (m *MemStore) Bytes(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket+"/"+key]
	return data, ok
}

// Len reports how many objects are stored.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Package cache is the local persistent key/value store used for progress
// that has no remote identity to live under (guests, demo mode).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrInvalidJSON = errors.New("cache value is not valid JSON")

// Cache stores JSON values under keys namespaced by a fixed prefix.
// Get returns nil, nil for a missing key.
type Cache interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
}

// Memory is a process-local Cache
type Memory struct {
	prefix string
	mu     sync.RWMutex
	data   map[string]json.RawMessage
}

// NewMemory creates an empty in-memory cache
func NewMemory(prefix string) *Memory {
	return &Memory{prefix: prefix, data: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[m.prefix+key]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), v...), nil
}

func (m *Memory) Set(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return ErrInvalidJSON
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.prefix+key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, m.prefix+key)
	return nil
}

// Keys lists stored keys with the prefix applied
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

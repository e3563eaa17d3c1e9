// store/memory.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wfunc/battleship/models"
)

// MemoryTable keeps JSON-encoded records in a map guarded by an RWMutex.
// Every Get and FindAll decodes a fresh copy, so callers never share a
// record with the table or with each other.
type MemoryTable[T Entity] struct {
	records map[string][]byte
	order   []string // insertion order, so scans are deterministic
	mutex   sync.RWMutex
}

func NewMemoryTable[T Entity]() *MemoryTable[T] {
	return &MemoryTable[T]{records: make(map[string][]byte)}
}

func (t *MemoryTable[T]) decode(id string, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", id, err)
	}
	return v, nil
}

func (t *MemoryTable[T]) Get(_ context.Context, id string) (T, error) {
	t.mutex.RLock()
	data, exists := t.records[id]
	t.mutex.RUnlock()

	if !exists {
		var zero T
		return zero, ErrNotFound
	}
	return t.decode(id, data)
}

func (t *MemoryTable[T]) Put(_ context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	key := v.Key()
	if _, exists := t.records[key]; !exists {
		t.order = append(t.order, key)
	}
	t.records[key] = data
	return nil
}

func (t *MemoryTable[T]) Delete(_ context.Context, id string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.records[id]; !exists {
		return nil
	}
	delete(t.records, id)
	for i, key := range t.order {
		if key == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *MemoryTable[T]) FindAll(_ context.Context, match func(T) bool) ([]T, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	var result []T
	for _, key := range t.order {
		v, err := t.decode(key, t.records[key])
		if err != nil {
			return nil, err
		}
		if match(v) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (t *MemoryTable[T]) Count(_ context.Context) (int, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.records), nil
}

// NewMemoryStore returns a store that lives and dies with the process.
func NewMemoryStore() *Store {
	return &Store{
		Players: NewMemoryTable[*models.Player](),
		Rooms:   NewMemoryTable[*models.Room](),
		Games:   NewMemoryTable[*models.Game](),
	}
}

// shared/kv/memory.go
package kv

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store with the exact same commit semantics as
// the Redis implementation. It exists so ledger logic and its concurrency
// properties can be exercised in tests without a running Redis.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memEntry
}

// A deleted key leaves a dead entry behind so its version counter keeps
// counting. Without that, delete-and-recreate would reissue old version
// numbers and a stale Check could pass against the recreated key.
type memEntry struct {
	data []byte
	ver  Version
	live bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memEntry)}
}

// Get returns a copy of the stored value and its version.
func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, Version, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, ok := ms.items[key]
	if !ok {
		return nil, 0, ErrKeyNotFound
	}
	if !entry.live {
		return nil, entry.ver, ErrKeyNotFound
	}
	data := make([]byte, len(entry.data))
	copy(data, entry.data)
	return data, entry.ver, nil
}

// Scan visits matching keys in sorted order. The snapshot is taken up front,
// so fn may safely issue further store calls.
func (ms *MemoryStore) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	ms.mu.Lock()
	type kvPair struct {
		key  string
		data []byte
	}
	snapshot := make([]kvPair, 0)
	for key, entry := range ms.items {
		if entry.live && strings.HasPrefix(key, prefix) {
			data := make([]byte, len(entry.data))
			copy(data, entry.data)
			snapshot = append(snapshot, kvPair{key: key, data: data})
		}
	}
	ms.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].key < snapshot[j].key })
	for _, pair := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(pair.key, pair.data); err != nil {
			return err
		}
	}
	return nil
}

// Atomic starts a new transaction builder.
func (ms *MemoryStore) Atomic() Tx {
	return &memTx{store: ms}
}

type memOp struct {
	op  string
	key string
	arg []byte
}

type memTx struct {
	store  *MemoryStore
	checks []redisCheck
	ops    []memOp
}

func (tx *memTx) Check(key string, expected Version) {
	tx.checks = append(tx.checks, redisCheck{key: key, ver: expected})
}

func (tx *memTx) Set(key string, value []byte) {
	data := make([]byte, len(value))
	copy(data, value)
	tx.ops = append(tx.ops, memOp{op: "set", key: key, arg: data})
}

func (tx *memTx) Delete(key string) {
	tx.ops = append(tx.ops, memOp{op: "del", key: key})
}

func (tx *memTx) IncrBy(key string, delta int64) {
	tx.ops = append(tx.ops, memOp{op: "incr", key: key, arg: []byte(strconv.FormatInt(delta, 10))})
}

// Commit validates every check under the store lock, then applies every
// mutation, mirroring the Redis commit script.
func (tx *memTx) Commit(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	for _, c := range tx.checks {
		var current Version
		if entry, ok := tx.store.items[c.key]; ok {
			current = entry.ver
		}
		if current != c.ver {
			return false, nil
		}
	}

	// Pre-validate increments so a malformed target cannot leave the batch
	// half applied.
	for _, op := range tx.ops {
		if op.op != "incr" {
			continue
		}
		if entry, ok := tx.store.items[op.key]; ok && len(entry.data) > 0 {
			if _, err := strconv.ParseInt(string(entry.data), 10, 64); err != nil {
				return false, fmt.Errorf("kv: value at %s is not an integer: %w", op.key, err)
			}
		}
	}

	for _, op := range tx.ops {
		switch op.op {
		case "set":
			entry := tx.store.items[op.key]
			entry.data = op.arg
			entry.ver++
			entry.live = true
			tx.store.items[op.key] = entry
		case "del":
			entry := tx.store.items[op.key]
			entry.data = nil
			entry.ver++
			entry.live = false
			tx.store.items[op.key] = entry
		case "incr":
			entry := tx.store.items[op.key]
			current := int64(0)
			if entry.live && len(entry.data) > 0 {
				current, _ = strconv.ParseInt(string(entry.data), 10, 64)
			}
			delta, _ := strconv.ParseInt(string(op.arg), 10, 64)
			entry.data = []byte(strconv.FormatInt(current+delta, 10))
			entry.ver++
			entry.live = true
			tx.store.items[op.key] = entry
		}
	}
	return true, nil
}

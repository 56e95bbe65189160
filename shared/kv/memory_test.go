package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreGetAbsent(t *testing.T) {
	ms := NewMemoryStore()
	_, ver, err := ms.Get(context.Background(), "missing")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if ver != 0 {
		t.Fatalf("absent key version = %d, want 0", ver)
	}
}

func TestMemoryStoreSetBumpsVersion(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	tx := ms.Atomic()
	tx.Set("k", []byte("v1"))
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("commit: ok=%v err=%v", ok, err)
	}

	data, ver, err := ms.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "v1" || ver != 1 {
		t.Fatalf("got %q v%d, want \"v1\" v1", data, ver)
	}

	tx = ms.Atomic()
	tx.Set("k", []byte("v2"))
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("second commit: ok=%v err=%v", ok, err)
	}
	_, ver, _ = ms.Get(ctx, "k")
	if ver != 2 {
		t.Fatalf("version after second write = %d, want 2", ver)
	}
}

func TestMemoryStoreCheckOnAbsence(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	// Two writers race to create the same key; exactly one wins.
	tx1 := ms.Atomic()
	tx1.Check("unique", 0)
	tx1.Set("unique", []byte("first"))

	tx2 := ms.Atomic()
	tx2.Check("unique", 0)
	tx2.Set("unique", []byte("second"))

	if ok, err := tx1.Commit(ctx); err != nil || !ok {
		t.Fatalf("first creation should win: ok=%v err=%v", ok, err)
	}
	ok, err := tx2.Commit(ctx)
	if err != nil {
		t.Fatalf("second commit errored: %v", err)
	}
	if ok {
		t.Fatal("second creation should have failed its absence check")
	}

	data, _, _ := ms.Get(ctx, "unique")
	if string(data) != "first" {
		t.Fatalf("stored value = %q, want \"first\"", data)
	}
}

func TestMemoryStoreStaleCheckRejectsWholeBatch(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	seed := ms.Atomic()
	seed.Set("a", []byte("1"))
	seed.Set("b", []byte("1"))
	if ok, err := seed.Commit(ctx); err != nil || !ok {
		t.Fatalf("seed: ok=%v err=%v", ok, err)
	}

	// Stage a two-key batch against version 1 of both keys.
	tx := ms.Atomic()
	tx.Check("a", 1)
	tx.Check("b", 1)
	tx.Set("a", []byte("2"))
	tx.Set("b", []byte("2"))

	// A concurrent writer touches b before the batch commits.
	interloper := ms.Atomic()
	interloper.Set("b", []byte("9"))
	if ok, err := interloper.Commit(ctx); err != nil || !ok {
		t.Fatalf("interloper: ok=%v err=%v", ok, err)
	}

	ok, err := tx.Commit(ctx)
	if err != nil {
		t.Fatalf("commit errored: %v", err)
	}
	if ok {
		t.Fatal("commit should have failed on the stale check")
	}

	// Nothing from the failed batch may have been applied.
	dataA, _, _ := ms.Get(ctx, "a")
	dataB, _, _ := ms.Get(ctx, "b")
	if string(dataA) != "1" || string(dataB) != "9" {
		t.Fatalf("state after failed commit: a=%q b=%q", dataA, dataB)
	}
}

func TestMemoryStoreDeletePreservesVersionCounter(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	tx := ms.Atomic()
	tx.Set("k", []byte("v"))
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("set: ok=%v err=%v", ok, err)
	}

	tx = ms.Atomic()
	tx.Check("k", 1)
	tx.Delete("k")
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}

	// The tombstone reads as absent but keeps counting.
	_, ver, err := ms.Get(ctx, "k")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("deleted key: err=%v, want ErrKeyNotFound", err)
	}
	if ver != 2 {
		t.Fatalf("deleted key version = %d, want 2", ver)
	}

	// Re-creation checks against the surviving counter, not 0.
	tx = ms.Atomic()
	tx.Check("k", ver)
	tx.Set("k", []byte("again"))
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("recreate: ok=%v err=%v", ok, err)
	}
	if _, ver, _ := ms.Get(ctx, "k"); ver != 3 {
		t.Fatalf("recreated key version = %d, want 3", ver)
	}

	// Tombstones must not leak into prefix scans.
	tx = ms.Atomic()
	tx.Check("k", 3)
	tx.Delete("k")
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	var seen []string
	if err := ms.Scan(ctx, "k", func(key string, value []byte) error {
		seen = append(seen, key)
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 0 {
		t.Fatalf("scan visited deleted keys: %v", seen)
	}
}

func TestMemoryStoreStaleCheckFailsAfterDeleteAndRecreate(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	seed := ms.Atomic()
	seed.Set("team:{foo}:", []byte("old-team"))
	if ok, err := seed.Commit(ctx); err != nil || !ok {
		t.Fatalf("seed: ok=%v err=%v", ok, err)
	}

	// A slow writer reads the record at version 1 and stages a mutation
	// computed from it.
	_, staleVer, err := ms.Get(ctx, "team:{foo}:")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	slow := ms.Atomic()
	slow.Check("team:{foo}:", staleVer)
	slow.Set("team:{foo}:", []byte("mutation-computed-from-old-team"))

	// Meanwhile the record is deleted and recreated under the same key.
	del := ms.Atomic()
	del.Delete("team:{foo}:")
	if ok, err := del.Commit(ctx); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	_, tombVer, _ := ms.Get(ctx, "team:{foo}:")
	recreate := ms.Atomic()
	recreate.Check("team:{foo}:", tombVer)
	recreate.Set("team:{foo}:", []byte("new-team"))
	if ok, err := recreate.Commit(ctx); err != nil || !ok {
		t.Fatalf("recreate: ok=%v err=%v", ok, err)
	}

	// The stale commit must fail: its version belongs to the old life of
	// the key and may not clobber the new record.
	ok, err := slow.Commit(ctx)
	if err != nil {
		t.Fatalf("stale commit errored: %v", err)
	}
	if ok {
		t.Fatal("stale commit passed its check against a recreated key")
	}
	data, _, err := ms.Get(ctx, "team:{foo}:")
	if err != nil {
		t.Fatalf("read after stale commit: %v", err)
	}
	if string(data) != "new-team" {
		t.Fatalf("record = %q, want \"new-team\"", data)
	}
}

func TestMemoryStoreIncrBy(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	tx := ms.Atomic()
	tx.IncrBy("counter", 5)
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("incr create: ok=%v err=%v", ok, err)
	}

	tx = ms.Atomic()
	tx.Check("counter", 1)
	tx.IncrBy("counter", -2)
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("incr: ok=%v err=%v", ok, err)
	}

	data, ver, err := ms.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "3" || ver != 2 {
		t.Fatalf("counter = %q v%d, want \"3\" v2", data, ver)
	}
}

func TestMemoryStoreScanPrefix(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	tx := ms.Atomic()
	tx.Set("ledger:{a}:", []byte("1"))
	tx.Set("ledger:{b}:", []byte("2"))
	tx.Set("balance:{a}:", []byte("3"))
	if ok, err := tx.Commit(ctx); err != nil || !ok {
		t.Fatalf("seed: ok=%v err=%v", ok, err)
	}

	var keys []string
	err := ms.Scan(ctx, "ledger:{", func(key string, value []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 || keys[0] != "ledger:{a}:" || keys[1] != "ledger:{b}:" {
		t.Fatalf("scanned keys = %v", keys)
	}
}

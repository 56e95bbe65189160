// shared/kv/redis.go
package kv

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Each logical key is stored as a Redis hash with two fields: "data" holds
// the raw payload and "ver" holds the modification counter. Keeping both in
// one hash lets a single Lua script validate every watched version and apply
// every mutation server-side, which is what gives Commit its all-or-nothing
// guarantee without client-side locking. Delete drops only the data field
// and bumps the counter; the hash stays behind as a tombstone so a version
// observed before the delete can never validate against a recreated key.
const (
	dataField = "data"
	verField  = "ver"
)

// commitScript validates all version checks first; if any key moved since it
// was read, it bails out before touching anything. Only then are the
// mutations applied. Runs atomically on the server, so concurrent commits
// against overlapping keys serialize cleanly.
var commitScript = redis.NewScript(`
local i = 2
for c = 1, tonumber(ARGV[1]) do
    local key = KEYS[tonumber(ARGV[i])]
    local ver = tonumber(redis.call('HGET', key, 'ver') or '0')
    if ver ~= tonumber(ARGV[i+1]) then
        return 0
    end
    i = i + 2
end
for o = 1, tonumber(ARGV[i]) do
    local op = ARGV[i+1]
    local key = KEYS[tonumber(ARGV[i+2])]
    if op == 'set' then
        redis.call('HSET', key, 'data', ARGV[i+3])
        redis.call('HINCRBY', key, 'ver', 1)
    elseif op == 'del' then
        redis.call('HDEL', key, 'data')
        redis.call('HINCRBY', key, 'ver', 1)
    elseif op == 'incr' then
        redis.call('HINCRBY', key, 'data', tonumber(ARGV[i+3]))
        redis.call('HINCRBY', key, 'ver', 1)
    end
    i = i + 3
end
return 1
`)

// RedisStore implements Store on top of a Redis server.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an already connected Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient creates and pings a configured Redis client. Shared by the
// economy service and any component that needs direct Redis access (registry,
// registrar).
func NewRedisClient(addrs []string, password string) (redis.UniversalClient, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no Redis addresses provided")
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  6 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %v: %w", addrs, err)
	}
	log.Println("Successfully connected to Redis.")
	return rdb, nil
}

// Get retrieves the payload and version stored under key.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, Version, error) {
	vals, err := rs.client.HMGet(ctx, key, dataField, verField).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read key %s from Redis: %w", key, err)
	}
	var ver Version
	if vals[1] != nil {
		verStr, _ := vals[1].(string)
		n, err := strconv.ParseInt(verStr, 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("malformed version for key %s: %w", key, err)
		}
		ver = Version(n)
	}
	if vals[0] == nil {
		// Absent or tombstoned: surface the surviving counter so
		// check-on-absence is pinned to it.
		return nil, ver, ErrKeyNotFound
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected payload type for key %s", key)
	}
	return []byte(data), ver, nil
}

// Scan visits every key matching prefix and hands its payload to fn.
func (rs *RedisStore) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	iter := rs.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := rs.client.HGet(ctx, key, dataField).Result()
		if err == redis.Nil {
			continue // tombstone, or deleted between SCAN and HGET
		}
		if err != nil {
			return fmt.Errorf("failed to read key %s during scan: %w", key, err)
		}
		if err := fn(key, []byte(data)); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan prefix %s in Redis: %w", prefix, err)
	}
	return nil
}

// Atomic starts a new transaction builder.
func (rs *RedisStore) Atomic() Tx {
	return &redisTx{store: rs}
}

type redisOp struct {
	op  string // "set", "del" or "incr"
	key string
	arg string
}

type redisCheck struct {
	key string
	ver Version
}

type redisTx struct {
	store  *RedisStore
	checks []redisCheck
	ops    []redisOp
}

func (tx *redisTx) Check(key string, expected Version) {
	tx.checks = append(tx.checks, redisCheck{key: key, ver: expected})
}

func (tx *redisTx) Set(key string, value []byte) {
	tx.ops = append(tx.ops, redisOp{op: "set", key: key, arg: string(value)})
}

func (tx *redisTx) Delete(key string) {
	tx.ops = append(tx.ops, redisOp{op: "del", key: key})
}

func (tx *redisTx) IncrBy(key string, delta int64) {
	tx.ops = append(tx.ops, redisOp{op: "incr", key: key, arg: strconv.FormatInt(delta, 10)})
}

// Commit sends the whole batch to the commit script in one round trip.
func (tx *redisTx) Commit(ctx context.Context) (bool, error) {
	keys := make([]string, 0, len(tx.checks)+len(tx.ops))
	index := make(map[string]int)
	keyIndex := func(key string) int {
		if i, ok := index[key]; ok {
			return i
		}
		keys = append(keys, key)
		index[key] = len(keys) // Lua KEYS is 1-based
		return len(keys)
	}

	args := make([]interface{}, 0, 2+2*len(tx.checks)+3*len(tx.ops))
	args = append(args, len(tx.checks))
	for _, c := range tx.checks {
		args = append(args, keyIndex(c.key), int64(c.ver))
	}
	args = append(args, len(tx.ops))
	for _, op := range tx.ops {
		args = append(args, op.op, keyIndex(op.key), op.arg)
	}

	res, err := commitScript.Run(ctx, tx.store.client, keys, args...).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to commit atomic batch: %w", err)
	}
	return res == 1, nil
}

package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is a byte-oriented cache backend over a Redis client.
// Key enumeration uses SCAN, never KEYS, so it does not block the server.
type Storage struct {
	db            redis.UniversalClient
	scanBatchSize int64
}

func NewStorage(client redis.UniversalClient) *Storage {
	return &Storage{
		db:            client,
		scanBatchSize: 1000,
	}
}

func NewStorageWithConfig(client redis.UniversalClient, cfg Config) *Storage {
	s := NewStorage(client)
	if cfg.ScanBatchSize > 0 {
		s.scanBatchSize = cfg.ScanBatchSize
	}
	return s
}

// Get returns the value stored at key. A missing key is reported with ok == false.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set stores val at key. A zero ttl means no expiration.
func (s *Storage) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.db.Set(ctx, key, val, ttl).Err()
}

// Delete removes keys and returns how many existed.
// Keys are unlinked one command each in a single pipeline so that cluster
// clients can route them to different slots. When some commands fail the error
// is a *DeleteError counting only those keys.
func (s *Storage) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	cmds := make([]*redis.IntCmd, len(keys))
	_, err := s.db.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.Unlink(ctx, k)
		}
		return nil
	})

	var deleted, failed int
	var firstErr error
	for _, cmd := range cmds {
		if cerr := cmd.Err(); cerr != nil {
			failed++
			if firstErr == nil {
				firstErr = cerr
			}
			continue
		}
		deleted += int(cmd.Val())
	}
	if failed > 0 {
		return deleted, &DeleteError{Failed: failed, Err: firstErr}
	}
	return deleted, err
}

// Keys returns every key matching the glob pattern. A cluster client is scanned
// on every master, since SCAN only walks the node it is sent to.
func (s *Storage) Keys(ctx context.Context, pattern string) ([]string, error) {
	cluster, ok := s.db.(*redis.ClusterClient)
	if !ok {
		return scanKeys(ctx, s.db, pattern, s.scanBatchSize)
	}

	var (
		mu   sync.Mutex
		keys []string
	)
	err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
		nodeKeys, err := scanKeys(ctx, node, pattern, s.scanBatchSize)
		mu.Lock()
		keys = append(keys, nodeKeys...)
		mu.Unlock()
		return err
	})
	return keys, err
}

func scanKeys(ctx context.Context, c redis.Cmdable, pattern string, count int64) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := c.Scan(ctx, cursor, pattern, count).Result()
		if err != nil {
			return keys, err
		}
		keys = append(keys, batch...)

		if cursor = next; cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Conn() redis.UniversalClient {
	return s.db
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStorageKey is the key the persisted record is written under.
const DefaultStorageKey = "auth-storage"

// ErrStorageUnavailable wraps backend failures of a [TokenStorage].
var ErrStorageUnavailable = errors.New("token storage unavailable")

// TokenStorage persists the session token. Load returns "" when nothing is
// stored or the stored record cannot be parsed.
type TokenStorage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type persistedState struct {
	Token *string `json:"token"`
}

type persistedRecord struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

func encodeRecord(token string) ([]byte, error) {
	return json.Marshal(persistedRecord{State: persistedState{Token: &token}})
}

// decodeRecord ignores malformed records.
func decodeRecord(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var rec persistedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ""
	}
	if rec.State.Token == nil {
		return ""
	}
	return *rec.State.Token
}

// MemoryStorage keeps the record in process memory.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStorage returns an empty [MemoryStorage].
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decodeRecord(m.data), nil
}

func (m *MemoryStorage) Save(_ context.Context, token string) error {
	data, err := encodeRecord(token)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}

// Raw returns the stored record bytes.
func (m *MemoryStorage) Raw() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// FileStorage keeps the record in <dir>/<key>.json with owner-only permissions.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage creates a [FileStorage] under dir. An empty key uses
// [DefaultStorageKey].
func NewFileStorage(dir, key string) *FileStorage {
	if key == "" {
		key = DefaultStorageKey
	}
	return &FileStorage{path: filepath.Join(dir, key+".json")}
}

// Path returns the record file location.
func (f *FileStorage) Path() string { return f.path }

func (f *FileStorage) Load(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return decodeRecord(data), nil
}

func (f *FileStorage) Save(_ context.Context, token string) error {
	data, err := encodeRecord(token)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (f *FileStorage) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// RedisStorage keeps the record in Redis under prefix:key, for agents that
// share one session across hosts.
type RedisStorage struct {
	redis redis.UniversalClient
	key   string
	ttl   time.Duration
}

// NewRedisStorage creates a [RedisStorage]. An empty key uses
// [DefaultStorageKey]; ttl <= 0 stores the record without expiry.
func NewRedisStorage(client redis.UniversalClient, prefix, key string, ttl time.Duration) *RedisStorage {
	if key == "" {
		key = DefaultStorageKey
	}
	if prefix != "" {
		key = prefix + ":" + key
	}
	return &RedisStorage{redis: client, key: key, ttl: ttl}
}

func (r *RedisStorage) Load(ctx context.Context) (string, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return decodeRecord(data), nil
}

func (r *RedisStorage) Save(ctx context.Context, token string) error {
	data, err := encodeRecord(token)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (r *RedisStorage) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return time.Since(start), nil
}

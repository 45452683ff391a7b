package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisKV persists session keys in Redis under a per-device prefix.
type RedisKV struct {
	Redis  *redis.Client
	Prefix string
}

// NewRedisKV builds a Redis-backed KV; device separates sessions on a shared server.
func NewRedisKV(rdb *redis.Client, device string) *RedisKV {
	return &RedisKV{Redis: rdb, Prefix: "portal:session:" + device + ":"}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Redis.Get(ctx, r.Prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Set writes all values in one MULTI/EXEC.
func (r *RedisKV) Set(ctx context.Context, values map[string]string) error {
	_, err := r.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, r.Prefix+k, v, 0)
		}
		return nil
	})
	return err
}

// Delete removes all keys in a single DEL.
func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.Prefix + k
	}
	return r.Redis.Del(ctx, full...).Err()
}

// MemoryKV is a process-local KV for tests and throwaway sessions.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// FileKV keeps session keys in a JSON file, one per device.
type FileKV struct {
	Path string
	mu   sync.Mutex
}

// NewFileKV stores the session for device under dir.
func NewFileKV(dir, device string) *FileKV {
	return &FileKV{Path: filepath.Join(dir, "session-"+device+".json")}
}

func (f *FileKV) read() (map[string]string, error) {
	data := make(map[string]string)
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// write replaces the file through a rename so readers never see half a session.
func (f *FileKV) write(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileKV) Set(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		data = make(map[string]string)
	}
	for k, v := range values {
		data[k] = v
	}
	return f.write(data)
}

func (f *FileKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.read()
	if err != nil {
		return os.Remove(f.Path)
	}
	for _, k := range keys {
		delete(data, k)
	}
	return f.write(data)
}

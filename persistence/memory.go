// persistence/memory.go
package persistence

import (
	"context"
	"path"
	"sync"
)

// Memory is an in-process Store with the same semantics as the Redis
// implementation. It backs tests and local development without a server.
type Memory struct {
	mutex   sync.RWMutex
	strings map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string
	hashes  map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
		hashes:  make(map[string]map[string]string),
	}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	val, ok := m.strings[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.strings[key] = value
	return nil
}

func (m *Memory) Del(ctx context.Context, keys ...string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, key := range keys {
		m.deleteKey(key)
	}
	return nil
}

func (m *Memory) DelPattern(ctx context.Context, pattern string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, key := range m.matchingKeys(pattern) {
		m.deleteKey(key)
	}
	return nil
}

func (m *Memory) SAdd(ctx context.Context, key, member string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (m *Memory) SRem(ctx context.Context, key, member string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if set, ok := m.sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(m.sets, key)
		}
	}
	return nil
}

func (m *Memory) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *Memory) SIsMember(ctx context.Context, key, member string) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, ok := m.sets[key][member]
	return ok, nil
}

func (m *Memory) LPush(ctx context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.lists[key] = append([]string{value}, m.lists[key]...)
	return nil
}

func (m *Memory) RPush(ctx context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.lists[key] = append(m.lists[key], value)
	return nil
}

func (m *Memory) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	list := m.lists[key]
	n := int64(len(list))

	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return []string{}, nil
	}

	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return out, nil
}

func (m *Memory) LLen(ctx context.Context, key string) (int64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return int64(len(m.lists[key])), nil
}

func (m *Memory) HSet(ctx context.Context, key, field, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hash, ok := m.hashes[key]
	if !ok {
		hash = make(map[string]string)
		m.hashes[key] = hash
	}
	hash[field] = value
	return nil
}

func (m *Memory) HGet(ctx context.Context, key, field string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	val, ok := m.hashes[key][field]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *Memory) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(map[string]string, len(m.hashes[key]))
	for field, val := range m.hashes[key] {
		out[field] = val
	}
	return out, nil
}

func (m *Memory) HDel(ctx context.Context, key, field string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	hash, ok := m.hashes[key]
	if !ok {
		return false, nil
	}
	if _, ok := hash[field]; !ok {
		return false, nil
	}
	delete(hash, field)
	if len(hash) == 0 {
		delete(m.hashes, key)
	}
	return true, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// deleteKey removes a key from every keyspace. Caller holds the lock.
func (m *Memory) deleteKey(key string) {
	delete(m.strings, key)
	delete(m.sets, key)
	delete(m.lists, key)
	delete(m.hashes, key)
}

// matchingKeys returns all keys matching the glob pattern. Caller holds
// the lock.
func (m *Memory) matchingKeys(pattern string) []string {
	var keys []string
	match := func(key string) {
		if ok, _ := path.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	for key := range m.strings {
		match(key)
	}
	for key := range m.sets {
		match(key)
	}
	for key := range m.lists {
		match(key)
	}
	for key := range m.hashes {
		match(key)
	}
	return keys
}

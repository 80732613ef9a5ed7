package storage

import "sync"

// Memory is a thread-safe in-memory Adapter. Data is lost on restart.
//
// An optional byte capacity can be set to exercise the capacity-retry path
// in tests: Put fails with ErrCapacityExceeded once the sum of key and
// value bytes would exceed MaxBytes.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	used     int
	maxBytes int
}

// MemoryConfig configures a Memory adapter.
type MemoryConfig struct {
	MaxBytes int // 0 = unbounded
}

// NewMemory creates an in-memory adapter.
func NewMemory(config ...MemoryConfig) *Memory {
	cfg := MemoryConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	return &Memory{
		data:     make(map[string]string),
		maxBytes: cfg.MaxBytes,
	}
}

func (m *Memory) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used + len(key) + len(value)
	if prev, ok := m.data[key]; ok {
		next -= len(key) + len(prev)
	}
	if m.maxBytes > 0 && next > m.maxBytes {
		return ErrCapacityExceeded
	}

	m.data[key] = value
	m.used = next
	return nil
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.data[key]; ok {
		m.used -= len(key) + len(prev)
		delete(m.data, key)
	}
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *Memory) Close() error {
	return nil
}

// UsedBytes returns the current accounted size. Used by capacity tests.
func (m *Memory) UsedBytes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

var _ Adapter = (*Memory)(nil)

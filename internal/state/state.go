// Package state holds small pieces of client-session state (current
// pincode, OTP usage counter) behind an injectable key-value store with a
// single change-notification path.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Store is a key to string-value store with change notification. Set
// persists the value and notifies subscribers exactly once per change.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Subscribe(fn func(key, value string)) (unsubscribe func())
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	subs   map[int]func(key, value string)
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		subs:   make(map[int]func(key, value string)),
	}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	subs := make([]func(string, string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(key, value)
	}
	return nil
}

func (s *MemoryStore) Subscribe(fn func(key, value string)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// FileStore persists values as a JSON object on disk. A missing or
// unreadable file is treated as empty rather than an error, so corrupted
// state never locks the caller out.
type FileStore struct {
	path string
	mem  *MemoryStore
	mu   sync.Mutex
}

func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, mem: NewMemoryStore()}

	data, err := os.ReadFile(path)
	if err == nil {
		var values map[string]string
		if json.Unmarshal(data, &values) == nil && values != nil {
			fs.mem.mu.Lock()
			fs.mem.values = values
			fs.mem.mu.Unlock()
		}
	}
	return fs, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	return s.mem.Get(key)
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mem.Set(key, value); err != nil {
		return err
	}
	return s.flush()
}

func (s *FileStore) Subscribe(fn func(key, value string)) func() {
	return s.mem.Subscribe(fn)
}

func (s *FileStore) flush() error {
	s.mem.mu.RLock()
	data, err := json.Marshal(s.mem.values)
	s.mem.mu.RUnlock()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

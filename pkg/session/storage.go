package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Storage persists session keys. It plays the role browser local storage
// plays for a web front-end: a flat string map that outlives the process.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(values map[string]string) error
	Delete(keys ...string) error
}

// MemoryStorage keeps keys in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates a storage seeded with a copy of initial.
func NewMemoryStorage(initial map[string]string) *MemoryStorage {
	values := make(map[string]string, len(initial))
	for key, value := range initial {
		values[key] = value
	}
	return &MemoryStorage{values: values}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryStorage) Set(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		m.values[key] = value
	}
	return nil
}

func (m *MemoryStorage) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

// Snapshot returns a copy of the stored keys.
func (m *MemoryStorage) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	for key, value := range m.values {
		out[key] = value
	}
	return out
}

var errCorruptFile = errors.New("session: unreadable storage file")

// FileStorage keeps keys in a YAML file readable only by the owner. Writes
// go through a temporary file and a rename so a crash never leaves a torn
// file behind.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage creates a storage backed by path. The file is created on the
// first write.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("session: storage path is required")
	}
	return &FileStorage{path: path}, nil
}

// Path returns the backing file.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (f *FileStorage) Set(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.load()
	if err != nil {
		return err
	}
	for key, value := range values {
		current[key] = value
	}
	return f.store(current)
}

// Delete removes keys. A file that cannot be parsed is reset, since none of
// its keys are readable anyway.
func (f *FileStorage) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, err := f.load()
	if errors.Is(err, errCorruptFile) {
		return f.store(make(map[string]string))
	}
	if err != nil {
		return err
	}
	changed := false
	for _, key := range keys {
		if _, ok := current[key]; ok {
			delete(current, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.store(current)
}

func (f *FileStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: read %s: %w", f.path, err)
	}
	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w %s: %w", errCorruptFile, f.path, err)
	}
	return values, nil
}

func (f *FileStorage) store(values map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("session: temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("session: chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("session: replace %s: %w", f.path, err)
	}
	return nil
}

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "capitalhub-cli"
	configDirName  = "capitalhub"
	sessionFile    = "session.json"
)

// ErrNotFound is returned by a Backend when a key holds no value
var ErrNotFound = errors.New("not found")

// ErrCorrupt is returned by a Backend whose storage can no longer be decoded.
// Deleting the key recovers it.
var ErrCorrupt = errors.New("session storage is corrupt")

// Backend is durable key/value storage for session records.
// This allows us to swap the OS keyring for a file or memory in tests.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// KeyringBackend stores values in the OS keychain/credential manager
type KeyringBackend struct {
	Service string
}

// NewKeyringBackend returns a keyring backend for the CLI service name
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{Service: keyringService}
}

func (k *KeyringBackend) Get(key string) (string, error) {
	value, err := keyring.Get(k.Service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return value, nil
}

func (k *KeyringBackend) Set(key, value string) error {
	if err := keyring.Set(k.Service, key, value); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func (k *KeyringBackend) Delete(key string) error {
	if err := keyring.Delete(k.Service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// FileBackend stores values in a JSON object on disk, for machines without a
// usable keychain (CI runners, containers).
type FileBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileBackend stores values in path
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// DefaultFilePath returns ~/.config/capitalhub/session.json, or the same file
// under dir when dir is set.
func DefaultFilePath(dir string) (string, error) {
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".config", configDirName)
	}
	return filepath.Join(dir, sessionFile), nil
}

func (f *FileBackend) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileBackend) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking every login.
		values = map[string]string{}
	}
	values[key] = value
	return f.write(values)
}

func (f *FileBackend) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if errors.Is(err, ErrCorrupt) {
		// Nothing in the file is recoverable, so the key is gone either way.
		return f.write(map[string]string{})
	}
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return ErrNotFound
	}
	delete(values, key)
	return f.write(values)
}

func (f *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w: %w", ErrCorrupt, err)
	}
	return values, nil
}

// write replaces the file in one rename so readers never see a partial file
func (f *FileBackend) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// MemoryBackend keeps values for the lifetime of the process
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return ErrNotFound
	}
	delete(m.values, key)
	return nil
}

// Package credential holds the bearer credential across process restarts.
package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"passport-portal/internal/core/domain"

	"gopkg.in/yaml.v3"
)

// Store is the single owner of the bearer credential.
type Store interface {
	Set(cred domain.Credential) error
	Get() (domain.Credential, bool)
	Clear() error
	Has() bool
}

// MemoryStore keeps the credential for the lifetime of the process only.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *domain.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cred
	s.cred = &c
	return nil
}

func (s *MemoryStore) Get() (domain.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return domain.Credential{}, false
	}
	return *s.cred, true
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}

func (s *MemoryStore) Has() bool {
	_, ok := s.Get()
	return ok
}

// FileStore persists the credential as YAML with owner-only permissions.
// The in-process copy is authoritative for readers, so a write is visible
// immediately even if persisting it failed.
type FileStore struct {
	path   string
	logger *slog.Logger
	mem    MemoryStore
}

type credentialFile struct {
	Credential domain.Credential `yaml:"credential"`
}

// NewFileStore loads whatever credential is already on disk.
// An empty path means no persistent medium: the store behaves as memory-only.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileStore{path: path, logger: logger}
	if path == "" {
		return s
	}

	cred, err := s.load()
	switch {
	case err == nil:
		_ = s.mem.Set(cred)
	case errors.Is(err, fs.ErrNotExist):
	default:
		logger.Warn("ignoring unreadable credential file", "path", path, "error", err)
	}
	return s
}

// DefaultPath returns ~/.config/passport-portal/credential.yaml, or "" when
// the home directory cannot be resolved.
func DefaultPath() string {
	if env := os.Getenv("PORTAL_CREDENTIAL_PATH"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "passport-portal", "credential.yaml")
}

func (s *FileStore) Set(cred domain.Credential) error {
	_ = s.mem.Set(cred)
	if s.path == "" {
		return nil
	}
	if err := s.save(cred); err != nil {
		s.logger.Warn("credential kept in memory only", "path", s.path, "error", err)
		return err
	}
	return nil
}

func (s *FileStore) Get() (domain.Credential, bool) {
	return s.mem.Get()
}

func (s *FileStore) Clear() error {
	_ = s.mem.Clear()
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Has() bool {
	return s.mem.Has()
}

func (s *FileStore) load() (domain.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Credential{}, err
	}
	var f credentialFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Credential{}, fmt.Errorf("parse credential file: %w", err)
	}
	if f.Credential.IsZero() {
		return domain.Credential{}, fs.ErrNotExist
	}
	return f.Credential, nil
}

func (s *FileStore) save(cred domain.Credential) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}
	data, err := yaml.Marshal(credentialFile{Credential: cred})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)

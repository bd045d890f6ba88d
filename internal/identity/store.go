package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mcoot/rpsroom/internal/model"
)

// ErrNotFound is returned by a Store that has no persisted identity yet
var ErrNotFound = errors.New("identity not found")

// Store persists the identity token for one persistence scope
type Store interface {
	Load(ctx context.Context) (model.Identity, error)
	Save(ctx context.Context, id model.Identity) error
}

// FileStore keeps the identity in a single file
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns ~/.rpsroom/identity, falling back to a relative path
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".rpsroom", "identity")
	}
	return filepath.Join(home, ".rpsroom", "identity")
}

// Path returns the file backing this store
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted identity
func (s *FileStore) Load(ctx context.Context) (model.Identity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrNotFound
	}
	return model.Identity(id), nil
}

// Save writes the identity, creating the parent directory if needed
func (s *FileStore) Save(ctx context.Context, id model.Identity) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(id), 0600)
}

// MemoryStore keeps the identity for the lifetime of the process
type MemoryStore struct {
	mu sync.Mutex
	id model.Identity
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (model.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		return "", ErrNotFound
	}
	return s.id, nil
}

func (s *MemoryStore) Save(ctx context.Context, id model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

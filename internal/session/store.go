package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

// Session is the persisted credential pair.
type Session struct {
	User  *model.UserRecord `json:"user,omitempty"`
	Token string            `json:"token"`
}

// Complete reports whether both the user and the token are present.
func (s Session) Complete() bool { return s.User != nil && s.Token != "" }

// Store is durable storage for at most one Session.  Writes replace the
// whole record.
type Store interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// MemoryStore keeps the session in memory.
type MemoryStore struct {
	mu   sync.Mutex
	sess Session
}

func (m *MemoryStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess, nil
}

func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = s
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = Session{}
	return nil
}

// FileStore persists the session as a JSON document readable only by the
// current user.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

// Load returns the stored session.  A missing file is an empty session.
func (f *FileStore) Load() (Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: read %s: %w", f.Path, err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("session: decode %s: %w", f.Path, err)
	}
	return s, nil
}

// Save writes s through a temp file and rename so readers never observe
// a partial record.
func (f *FileStore) Save(s Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("session: rename: %w", err)
	}
	return nil
}

// Clear removes the file.  Clearing an absent file is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", f.Path, err)
	}
	return nil
}

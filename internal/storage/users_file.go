package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mzalewski/devclock/internal/domain"
)

type userConfig struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// UserFile is the on-disk user roster. The file is the source of truth
// for who may log in and with which role; it is re-read whenever its
// modification time advances, so edits are picked up without a restart.
type UserFile struct {
	path string

	mu      sync.Mutex
	cache   []domain.User
	modTime time.Time
}

func NewUserFile(path string) *UserFile {
	return &UserFile{path: path}
}

// Users returns the roster, creating a default admin-only file if none
// exists yet.
func (f *UserFile) Users() ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if os.IsNotExist(err) {
		if err := f.writeDefaultLocked(); err != nil {
			return nil, err
		}
		info, err = os.Stat(f.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat users file: %w", err)
	}

	if f.cache != nil && !info.ModTime().After(f.modTime) {
		return f.cache, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	var configs []userConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	users := make([]domain.User, len(configs))
	for i, c := range configs {
		users[i] = domain.User{
			Username:    c.Username,
			Role:        domain.Role(c.Role),
			DisplayName: c.DisplayName,
			Description: c.Description,
		}
	}

	f.cache = users
	f.modTime = info.ModTime()
	return users, nil
}

// Find returns the roster entry for username, or ErrNotFound.
func (f *UserFile) Find(username string) (*domain.User, error) {
	users, err := f.Users()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			u := users[i]
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (f *UserFile) writeDefaultLocked() error {
	defaults := []userConfig{
		{
			Username:    "admin",
			Role:        string(domain.RoleAdmin),
			DisplayName: "System Administrator",
			Description: "Default admin user - edit users.json to add accounts",
		},
	}

	data, err := json.MarshalIndent(defaults, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default users: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create users directory: %w", err)
		}
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename users file: %w", err)
	}
	return nil
}

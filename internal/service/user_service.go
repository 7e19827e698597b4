package service

import (
	"errors"
	"log/slog"

	"github.com/mzalewski/devclock/internal/domain"
	"github.com/mzalewski/devclock/internal/storage"
)

// UserService resolves asserted usernames against the roster file. There
// is no credential check; identity is asserted by the client and the
// roster only gates which names and roles exist.
type UserService struct {
	roster *storage.UserFile
	logger *slog.Logger
}

func NewUserService(roster *storage.UserFile, logger *slog.Logger) *UserService {
	return &UserService{roster: roster, logger: logger}
}

// Authenticate looks up username in the roster. The roster is the source
// of truth for roles, so a role edit in users.json takes effect on the
// next request.
func (s *UserService) Authenticate(username string) (*domain.User, error) {
	if username == "" {
		return nil, ErrUserNotFound
	}
	u, err := s.roster.Find(username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Available returns every roster entry, for the login picker.
func (s *UserService) Available() ([]domain.User, error) {
	return s.roster.Users()
}

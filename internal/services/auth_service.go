package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"oakline/internal/domain"
	"oakline/internal/repos"
)

// ErrBadCreds deliberately covers both an unknown email and a wrong
// password, so a login response never confirms which accounts exist.
var ErrBadCreds = errors.New("invalid email or password")

// decoyHash is a real bcrypt digest compared against when the email lookup
// misses, so a failed lookup costs about as much as a failed password.
var decoyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthService backs the back-office session flow: counter clerks and
// admins log in once and carry an opaque sid cookie bound server-side.
type AuthService struct {
	Users *repos.UserRepo
}

// Login checks the credentials and binds the session id to the account.
// Email matching is case-insensitive; the stored address is canonical.
func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(decoyHash, []byte(password))
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, fmt.Errorf("bind session: %w", err)
	}
	return u, nil
}

// Logout unbinds the session; a stale or unknown sid is not an error.
func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

// CurrentUser resolves the account a sid is bound to, nil when unbound.
func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	if sid == "" {
		return nil, nil
	}
	return s.Users.SessionUser(sid)
}

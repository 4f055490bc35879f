package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"nutrijus/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid phone number or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// AuthService issues and validates server-side session tokens. The admin API
// trusts nothing the client stores locally: every admin request is checked
// against the session store.
type AuthService struct {
	users    UserRepository
	sessions SessionStorage
}

func NewAuthService(users UserRepository, sessions SessionStorage) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login verifies tel+password against the users collection and mints a
// session token. The returned user never carries the password hash.
func (s *AuthService) Login(ctx context.Context, tel, password string) (domain.User, string, error) {
	if tel == "" || password == "" {
		return domain.User{}, "", ErrInvalidCredentials
	}
	users, err := s.users.ListUsers()
	if err != nil {
		return domain.User{}, "", err
	}
	for _, u := range users {
		if u.Tel != tel {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
			return domain.User{}, "", ErrInvalidCredentials
		}
		token, err := s.sessions.Create(ctx, u.ID)
		if err != nil {
			return domain.User{}, "", err
		}
		return u.WithoutPassword(), token, nil
	}
	return domain.User{}, "", ErrInvalidCredentials
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}
	userID, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return "", ErrInvalidSession
	}
	return userID, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

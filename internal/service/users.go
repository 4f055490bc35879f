package service

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"nutrijus/internal/domain"
	"nutrijus/internal/storage"
)

var (
	ErrMissingFields = errors.New("name, tel, password and status are required")
	ErrDuplicateUser = errors.New("a user with this phone number already exists")
	ErrProtectedUser = errors.New("protected user cannot be modified")
	ErrUserNotFound  = errors.New("user not found")
)

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns all users with password hashes stripped.
func (s *UserService) List() ([]domain.User, error) {
	users, err := s.repo.ListUsers()
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.WithoutPassword())
	}
	return out, nil
}

func (s *UserService) Create(name, tel, password, status string) (domain.User, error) {
	if name == "" || tel == "" || password == "" || status == "" {
		return domain.User{}, ErrMissingFields
	}
	users, err := s.repo.ListUsers()
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Tel == tel {
			return domain.User{}, ErrDuplicateUser
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{Name: name, Tel: tel, Status: status, Password: string(hash)}
	if err := s.repo.CreateUser(&user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, err
	}
	return user.WithoutPassword(), nil
}

// Update replaces name, tel and status; a non-empty password is re-hashed.
// Protected accounts are rejected.
func (s *UserService) Update(id, name, tel, status, password string) (domain.User, error) {
	existing, err := s.findByID(id)
	if err != nil {
		return domain.User{}, err
	}
	if existing.Protected {
		return domain.User{}, ErrProtectedUser
	}
	existing.Name = name
	existing.Tel = tel
	existing.Status = status
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, err
		}
		existing.Password = string(hash)
	}
	updated, err := s.repo.UpdateUserByID(id, existing)
	if err != nil {
		return domain.User{}, err
	}
	return updated.WithoutPassword(), nil
}

// UpdateAt resolves a listing index to the user's id and applies Update.
func (s *UserService) UpdateAt(index int, name, tel, status, password string) (domain.User, error) {
	user, err := s.findByIndex(index)
	if err != nil {
		return domain.User{}, err
	}
	return s.Update(user.ID, name, tel, status, password)
}

func (s *UserService) DeleteAt(index int) error {
	user, err := s.findByIndex(index)
	if err != nil {
		return err
	}
	return s.Delete(user.ID)
}

func (s *UserService) Delete(id string) error {
	existing, err := s.findByID(id)
	if err != nil {
		return err
	}
	if existing.Protected {
		return ErrProtectedUser
	}
	_, err = s.repo.DeleteUserByID(id)
	return err
}

func (s *UserService) findByID(id string) (domain.User, error) {
	users, err := s.repo.ListUsers()
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, ErrUserNotFound
}

func (s *UserService) findByIndex(index int) (domain.User, error) {
	users, err := s.repo.ListUsers()
	if err != nil {
		return domain.User{}, err
	}
	if index < 0 || index >= len(users) {
		return domain.User{}, ErrUserNotFound
	}
	return users[index], nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, storage.ErrNotFound)
}

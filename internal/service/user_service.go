package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"dmchat/backend/internal/apperr"
	"dmchat/backend/internal/models"
	"dmchat/backend/internal/storage"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
)

// UserService owns registration, credential verification and the directory.
type UserService struct {
	storage    storage.Storage
	bcryptCost int
}

func NewUserService(s storage.Storage, bcryptCost int) *UserService {
	return &UserService{storage: s, bcryptCost: bcryptCost}
}

// Register validates the pair, hashes the password and inserts the user.
// Uniqueness of the username is not pre-checked: the insert races to the
// unique index and a loser comes back as ErrUsernameTaken.
func (s *UserService) Register(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < minUsernameLen {
		return nil, apperr.ErrUsernameTooShort
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, apperr.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to hash password", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash)}
	if err := s.storage.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a username/password pair. A missing user and a wrong
// password produce the identical error so handle existence never leaks.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	user, err := s.storage.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}

// ListOthers returns every user except the caller, ordered by username.
func (s *UserService) ListOthers(myID uint) ([]models.PublicUser, error) {
	return s.storage.ListUsersExcept(myID)
}

// internal/services/user_store.go
package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/kmrl/metrodocs/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrCreateFailed      = errors.New("failed to create user")
)

// UserStore is the credential store behind the account app.
type UserStore struct {
	db *gorm.DB
}

// ImportOutcome records what happened to one entry of the legacy users file.
type ImportOutcome struct {
	Username string
	Imported bool
	Err      error
}

type legacyUser struct {
	Password string  `json:"password"`
	FullName string  `json:"full_name"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Lookup resolves a login identifier: an exact username match wins over a
// case-insensitive email match.
func (s *UserStore) Lookup(identifier string) (*models.User, error) {
	if identifier == "" {
		return nil, ErrUserNotFound
	}

	user, err := s.GetByUsername(identifier)
	if !errors.Is(err, ErrUserNotFound) {
		return user, err
	}
	return s.GetByEmail(identifier)
}

func (s *UserStore) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(email string) (*models.User, error) {
	if email == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// Create inserts a new account after checking both uniqueness invariants. A
// constraint violation that slips past the checks surfaces as ErrCreateFailed.
func (s *UserStore) Create(user *models.User) error {
	if _, err := s.GetByUsername(user.Username); err == nil {
		return ErrDuplicateUsername
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	if user.Email != nil {
		if _, err := s.GetByEmail(*user.Email); err == nil {
			return ErrDuplicateEmail
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
	}

	if user.Role == "" {
		user.Role = models.DefaultRole
	}

	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	return nil
}

func (s *UserStore) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

// ImportLegacy copies accounts from the legacy JSON users file into an empty
// store. It does nothing when the file is missing or unreadable as JSON, or when
// the store already holds any account. Entries are inserted one by one and a
// failing entry never stops the rest.
func (s *UserStore) ImportLegacy(path string) ([]ImportOutcome, error) {
	entries, err := readLegacyUsers(path)
	if err != nil || len(entries) == 0 {
		return nil, err
	}

	count, err := s.Count()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		logrus.WithField("existing", count).Debug("Users table not empty, skipping legacy import")
		return nil, nil
	}

	usernames := make([]string, 0, len(entries))
	for username := range entries {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	outcomes := make([]ImportOutcome, 0, len(usernames))
	for _, username := range usernames {
		outcome := ImportOutcome{Username: username}
		if err := s.importOne(username, entries[username]); err != nil {
			outcome.Err = err
			logrus.WithError(err).WithField("username", username).Warn("Skipping legacy user")
		} else {
			outcome.Imported = true
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (s *UserStore) importOne(username string, raw json.RawMessage) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("blank username")
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.New("malformed entry: not an object")
	}

	var details legacyUser
	if err := json.Unmarshal(trimmed, &details); err != nil {
		return fmt.Errorf("malformed entry: %w", err)
	}

	user := &models.User{
		Username: username,
		Password: details.Password,
		FullName: details.FullName,
		Role:     details.Role,
	}
	if user.FullName == "" {
		user.FullName = username
	}
	if user.Role == "" {
		user.Role = models.DefaultRole
	}
	if details.Email != nil {
		user.Email = models.StringPtr(strings.TrimSpace(*details.Email))
	}

	// the unique index is case-sensitive, emails are not
	if user.Email != nil {
		if _, err := s.GetByEmail(*user.Email); err == nil {
			return ErrDuplicateEmail
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
	}

	return s.db.Create(user).Error
}

func readLegacyUsers(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read legacy users file: %w", err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Ignoring unreadable legacy users file")
		return nil, nil
	}
	return entries, nil
}

// internal/services/auth_service.go
package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/models"
	"github.com/kmrl/metrodocs/internal/utils"
)

const (
	msgSignupRequired     = "Username, full name and password are required."
	msgUsernameTaken      = "Username already exists."
	msgEmailTaken         = "Email already in use."
	msgSignupFailed       = "Unable to create account. Please try again."
	msgSignupSuccess      = "Account created successfully. Please sign in."
	msgLoginRequired      = "Both username and password are required."
	msgInvalidCredentials = "Invalid username or password."
)

// Session is the server's handle on the caller's session. It holds the
// username and nothing else.
type Session interface {
	Username() (string, bool)
	Establish(username string) error
	Clear()
}

type AuthService struct {
	users *UserStore
}

type SignupRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
	FullName string `json:"full_name" validate:"notblank"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type SignupResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// SessionPayload describes the caller's authentication state. It is rebuilt
// from the store on every request.
type SessionPayload struct {
	Authenticated bool
	Username      string
	DisplayName   string
	Role          string
	Email         *string
}

func (p SessionPayload) MarshalJSON() ([]byte, error) {
	if !p.Authenticated {
		return json.Marshal(struct {
			Authenticated bool `json:"authenticated"`
		}{false})
	}

	return json.Marshal(struct {
		Authenticated bool    `json:"authenticated"`
		Username      string  `json:"username"`
		DisplayName   string  `json:"display_name"`
		Role          string  `json:"role"`
		Email         *string `json:"email"`
	}{true, p.Username, p.DisplayName, p.Role, p.Email})
}

func NewAuthService(users *UserStore) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Signup(req *SignupRequest) (*SignupResponse, error) {
	normalized := SignupRequest{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Role:     strings.TrimSpace(req.Role),
	}
	if err := utils.ValidateStruct(&normalized); err != nil {
		return nil, ValidationError(msgSignupRequired)
	}
	if normalized.Role == "" {
		normalized.Role = models.DefaultRole
	}

	user := &models.User{
		Username: normalized.Username,
		FullName: normalized.FullName,
		Email:    models.StringPtr(normalized.Email),
		Role:     normalized.Role,
	}
	if err := user.SetPassword(normalized.Password); err != nil {
		return nil, InternalError(msgSignupFailed, err)
	}

	if err := s.users.Create(user); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			return nil, ConflictError(msgUsernameTaken)
		case errors.Is(err, ErrDuplicateEmail):
			return nil, ConflictError(msgEmailTaken)
		default:
			logrus.WithError(err).WithField("username", user.Username).Error("Failed to create account")
			return nil, InternalError(msgSignupFailed, err)
		}
	}

	logrus.WithField("username", user.Username).Info("Account created")
	return &SignupResponse{
		Success:  true,
		Message:  msgSignupSuccess,
		Username: user.Username,
		FullName: user.FullName,
	}, nil
}

// Login checks the credentials and binds the session to the canonical username.
// Unknown identifiers and wrong passwords fail the same way.
func (s *AuthService) Login(sess Session, req *LoginRequest) (*SessionPayload, error) {
	normalized := LoginRequest{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	}
	if err := utils.ValidateStruct(&normalized); err != nil {
		return nil, ValidationError(msgLoginRequired)
	}

	user, err := s.users.Lookup(normalized.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, UnauthorizedError(msgInvalidCredentials)
		}
		return nil, InternalError("Unable to sign in right now.", err)
	}

	if !user.CheckPassword(normalized.Password) {
		return nil, UnauthorizedError(msgInvalidCredentials)
	}

	if err := sess.Establish(user.Username); err != nil {
		return nil, InternalError("Unable to start a session.", err)
	}

	return s.CurrentSession(sess)
}

func (s *AuthService) Logout(sess Session) {
	sess.Clear()
}

// CurrentSession reports who the session belongs to. A session whose user no
// longer exists is cleared and reported as signed out.
func (s *AuthService) CurrentSession(sess Session) (*SessionPayload, error) {
	username, ok := sess.Username()
	if !ok {
		return &SessionPayload{}, nil
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logrus.WithField("username", username).Info("Clearing session of missing user")
			sess.Clear()
			return &SessionPayload{}, nil
		}
		return nil, InternalError("Unable to load the session.", err)
	}

	return &SessionPayload{
		Authenticated: true,
		Username:      user.Username,
		DisplayName:   user.DisplayName(),
		Role:          user.RoleOrDefault(),
		Email:         user.Email,
	}, nil
}

package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
	"github.com/kirillkom/scalp-assistant/internal/core/ports"
)

const (
	maxNameLength     = 50
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
	sessionIDBytes   = 32
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]{1,20}$`)

var errBadCredentials = errors.New("invalid username or password")

type AuthUseCase struct {
	users    ports.UserRepository
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	now      func() time.Time
}

func NewAuthUseCase(users ports.UserRepository, sessions ports.SessionStore, hasher ports.PasswordHasher) *AuthUseCase {
	return &AuthUseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		now:      time.Now,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, name, username, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	if err := validateRegistration(name, username, password); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "register", err)
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "login", errBadCredentials)
	}

	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrUnauthorized, "login", errBadCredentials)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := uc.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, domain.WrapError(domain.ErrUnauthorized, "login", errBadCredentials)
	}

	sessionID, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := uc.now().UTC()
	session := &domain.Session{
		ID:           sessionID,
		UserID:       user.ID,
		Username:     user.Username,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (uc *AuthUseCase) Authenticate(ctx context.Context, sessionID string) (*domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("no session"))
	}
	session, err := uc.sessions.Touch(ctx, sessionID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("session expired, please log in again"))
		}
		return nil, fmt.Errorf("touch session: %w", err)
	}
	return session, nil
}

func validateRegistration(name, username, password string) error {
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("name must be 1..%d characters", maxNameLength)
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 1..20 characters of letters, digits and @.+-_")
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordBytes {
		return fmt.Errorf("password must be %d..%d bytes", minPasswordLength, maxPasswordBytes)
	}
	if strings.EqualFold(password, username) {
		return errors.New("password is too similar to the username")
	}
	return nil
}

func newSessionID() (string, error) {
	raw := make([]byte, sessionIDBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

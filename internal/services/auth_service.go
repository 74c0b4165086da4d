package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/item-admin/internal/access"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/config"
	"github.com/ahmetcoskunkizilkaya/item-admin/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid or expired session token")
)

type AuthService struct {
	identity *IdentityService
	cfg      *config.Config
}

func NewAuthService(identity *IdentityService, cfg *config.Config) *AuthService {
	return &AuthService{identity: identity, cfg: cfg}
}

// Login checks credentials. Unknown emails and wrong passwords produce the
// same error.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	user, err := s.identity.FindUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.identity.Hasher().Verify(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email:            user.Email,
		RegisteredClaims: claims,
	})
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken validates raw and returns the user ID it was issued for.
func (s *AuthService) ParseToken(raw string) (uint, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// Visitor resolves a session token into the visitor making the request.
// Anything short of a valid token for an active user yields nil.
func (s *AuthService) Visitor(raw string) *access.Visitor {
	if raw == "" {
		return nil
	}
	id, err := s.ParseToken(raw)
	if err != nil {
		return nil
	}
	user, err := s.identity.FindUserByID(id)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			slog.Error("failed to load session user", "user_id", id, "error", err)
		}
		return nil
	}
	if !user.Active {
		return nil
	}
	return &access.Visitor{UserID: user.ID, Email: user.Email}
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

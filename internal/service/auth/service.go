package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sameearif/JourneyLens/internal/config"
	"github.com/sameearif/JourneyLens/internal/model/user"
	"github.com/sameearif/JourneyLens/internal/repository"
)

// Errors surfaced to the auth handlers.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = repository.ErrUsernameTaken
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const bcryptCost = 10

// UserStore is the slice of persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// Service handles account creation, login and token verification.
type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
}

// NewService builds the auth service.
func NewService(users UserStore, cfg config.AuthConfig) *Service {
	return &Service{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTLHours) * time.Hour,
	}
}

// Signup registers a new account and returns the user with a session token.
func (s *Service) Signup(ctx context.Context, username, fullName, password string) (*user.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &user.User{
		Username:     username,
		FullName:     fullName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(created.ID)
	if err != nil {
		return nil, "", err
	}
	return created, token, nil
}

// Login verifies credentials and returns the user with a session token.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// VerifyToken validates a bearer token and returns the user ID it carries.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

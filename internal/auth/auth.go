// Package auth implements email/password accounts and JWT bearer sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bridgesync/bridgesync/internal/model"
	"github.com/bridgesync/bridgesync/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses do not leak which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrDuplicateSignup is returned when the email already has an account.
	ErrDuplicateSignup = errors.New("account already exists")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is the issued bearer token plus its expiry.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Principal model.Principal `json:"principal"`
}

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, u *repository.User) error
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
}

// Service issues and validates sessions against stored accounts.
type Service struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
}

// NewService constructs the auth service.
func NewService(users UserStore, secret []byte, ttl time.Duration) *Service {
	return &Service{users: users, secret: secret, ttl: ttl}
}

// SignUp registers a new account and returns a fresh session.
func (s *Service) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &repository.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateSignup
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return s.issue(model.Principal{ID: user.ID, Email: user.Email})
}

// SignIn validates credentials and returns a fresh session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(model.Principal{ID: user.ID, Email: user.Email})
}

// PrincipalFromToken resolves the principal carried by a bearer token.
func (s *Service) PrincipalFromToken(ctx context.Context, token string) (model.Principal, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return model.Principal{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" {
		return model.Principal{}, ErrInvalidToken
	}
	return model.Principal{ID: sub, Email: email}, nil
}

func (s *Service) issue(p model.Principal) (*Session, error) {
	expires := time.Now().UTC().Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":   p.ID,
		"email": p.Email,
		"iat":   time.Now().UTC().Unix(),
		"exp":   expires.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expires, Principal: p}, nil
}

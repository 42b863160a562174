package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/auth"
)

const (
	minPasswordLen = 8
	// bcrypt rejects longer input.
	maxPasswordBytes = 72
)

type TokenIssuer interface {
	GenerateToken(userID, role string) (string, error)
}

type Service struct {
	repo    Repository
	tokens  TokenIssuer
	isAdmin func(email string) bool
}

// NewService wires the auth service. isAdmin decides which registering
// emails get the admin role; nil means nobody does.
func NewService(repo Repository, tokens TokenIssuer, isAdmin func(email string) bool) *Service {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	return &Service{repo: repo, tokens: tokens, isAdmin: isAdmin}
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Register creates the user and returns a token bound to its id.
func (s *Service) Register(ctx context.Context, name, email, password string) (string, *User, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", nil, apperr.New(apperr.Validation, "please enter a valid email")
	}
	if len(password) < minPasswordLen {
		return "", nil, apperr.New(apperr.Validation, "please enter a strong password")
	}
	if len(password) > maxPasswordBytes {
		return "", nil, apperr.New(apperr.Validation, "password must be at most 72 bytes")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}
	role := auth.RoleUser
	if s.isAdmin(email) {
		role = auth.RoleAdmin
	}
	u := &User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Cart:         map[string]int{},
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Login checks the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

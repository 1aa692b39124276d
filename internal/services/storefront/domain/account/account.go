// Package account registers users, checks passwords and manages roles.
package account

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/services/storefront/domain"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"golang.org/x/crypto/bcrypt"
)

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Password length bounds in bytes. bcrypt rejects input past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var (
	// ErrInvalidEmail indicates a malformed address.
	ErrInvalidEmail = apperrors.New(apperrors.CodeUserInvalidEmail, "email is invalid")
	// ErrPasswordTooShort indicates a password under MinPasswordLength.
	ErrPasswordTooShort = apperrors.WithMetadata(apperrors.CodeUserPasswordTooShort, "password is too short",
		map[string]string{"Min": strconv.Itoa(MinPasswordLength)})
	// ErrPasswordTooLong indicates a password over MaxPasswordLength bytes.
	ErrPasswordTooLong = apperrors.WithMetadata(apperrors.CodeUserPasswordTooLong, "password is too long",
		map[string]string{"Max": strconv.Itoa(MaxPasswordLength)})
	// ErrEmailTaken indicates an existing account with the same email.
	ErrEmailTaken = apperrors.New(apperrors.CodeUserEmailTaken, "email already registered")
	// ErrInvalidCredentials indicates an unknown email or wrong password.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeUserInvalidCredentials, "invalid credentials")
	// ErrInvalidRole indicates a role other than admin or user.
	ErrInvalidRole = apperrors.New(apperrors.CodeUserInvalidRole, "role must be admin or user")
)

// SignupInput describes a new account.
type SignupInput struct {
	Email    string
	Name     string
	Password string
}

// NewUser validates input and builds the user record, hashing the password
// at cost.
func NewUser(input SignupInput, cost int, now func() time.Time, idGenerator func() (string, error)) (storage.User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	email := domain.NormalizeEmail(input.Email)
	if !domain.ValidEmail(email) {
		return storage.User{}, ErrInvalidEmail
	}
	if len(input.Password) < MinPasswordLength {
		return storage.User{}, ErrPasswordTooShort
	}
	if len(input.Password) > MaxPasswordLength {
		return storage.User{}, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), cost)
	if err != nil {
		return storage.User{}, fmt.Errorf("hash password: %w", err)
	}
	userID, err := idGenerator()
	if err != nil {
		return storage.User{}, fmt.Errorf("generate user id: %w", err)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	return storage.User{
		ID:           userID,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         RoleUser,
		CreatedAt:    now().UTC(),
	}, nil
}

// Service manages accounts.
type Service struct {
	store storage.UserStore
	cost  int
	now   func() time.Time
	newID func() (string, error)

	// Compared against on unknown emails so both failure paths hash.
	dummyHash []byte
}

// NewService builds an account service. A cost outside bcrypt's accepted
// range, zero included, uses bcrypt.DefaultCost.
func NewService(store storage.UserStore, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), cost)
	if err != nil {
		// Unreachable with an in-range cost and a short fixed password.
		panic(fmt.Sprintf("account: hash dummy password: %v", err))
	}
	return &Service{store: store, cost: cost, now: time.Now, newID: id.NewID, dummyHash: dummy}
}

// Signup registers a user with the default role.
func (s *Service) Signup(ctx context.Context, input SignupInput) (storage.User, error) {
	user, err := NewUser(input, s.cost, s.now, s.newID)
	if err != nil {
		return storage.User{}, err
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return storage.User{}, ErrEmailTaken
		}
		return storage.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login returns the user whose email and password match.
func (s *Service) Login(ctx context.Context, email, password string) (storage.User, error) {
	user, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return storage.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return storage.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns one user with their current role.
func (s *Service) Get(ctx context.Context, userID string) (storage.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return storage.User{}, domain.StorageError(err, "user")
	}
	return user, nil
}

// GetByEmail returns one user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (storage.User, error) {
	user, err := s.store.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return storage.User{}, domain.StorageError(err, "user")
	}
	return user, nil
}

// IsAdmin reports whether userID currently holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == RoleAdmin, nil
}

// List returns every user with their role.
func (s *Service) List(ctx context.Context) ([]storage.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetRole changes a user's role to admin or user.
func (s *Service) SetRole(ctx context.Context, userID, role string) (storage.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != RoleAdmin && role != RoleUser {
		return storage.User{}, ErrInvalidRole
	}
	if err := s.store.SetUserRole(ctx, userID, role); err != nil {
		return storage.User{}, domain.StorageError(err, "user")
	}
	return s.Get(ctx, userID)
}

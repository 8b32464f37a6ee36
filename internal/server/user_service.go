package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/algomentor/internal/config"
	"github.com/jonathan/algomentor/internal/db"
	"github.com/jonathan/algomentor/internal/types"
)

// ProfileStore is the part of the profile database the user service needs.
type ProfileStore interface {
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateProfile(ctx context.Context, in db.NewProfile) (uuid.UUID, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*db.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*db.Profile, error)
	UpdateHandles(ctx context.Context, id uuid.UUID, h types.Handles) error
}

// UserService handles signup, login and handle changes.
type UserService struct {
	db             ProfileStore
	passwordConfig *config.PasswordConfig
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store ProfileStore, passwordConfig *config.PasswordConfig) *UserService {
	return &UserService{
		db:             store,
		passwordConfig: passwordConfig,
	}
}

// toUser converts a stored profile to its API view, dropping the hash.
func toUser(p *db.Profile) *types.User {
	if p == nil {
		return nil
	}
	return &types.User{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		Handles:   p.Handles,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Register creates a profile with a hashed password.
func (s *UserService) Register(ctx context.Context, req *types.SignupRequest) (*types.User, error) {
	handles := req.Handles().Trimmed()
	if !handles.Any() {
		return nil, invalid("handles", "connect at least one platform")
	}

	exists, err := s.db.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrEmailRegistered, req.Email)
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.db.CreateProfile(ctx, db.NewProfile{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Handles:      handles,
	})
	if errors.Is(err, db.ErrEmailTaken) {
		return nil, fmt.Errorf("%w: %s", ErrEmailRegistered, req.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return s.Get(ctx, id)
}

// Login checks credentials. Unknown email and wrong password fail the same way.
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	p, err := s.db.GetProfileByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	if p == nil || p.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !s.passwordConfig.VerifyPassword(req.Password, p.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return toUser(p), nil
}

// Get returns the user with the given ID.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*types.User, error) {
	p, err := s.db.GetProfile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return toUser(p), nil
}

// UpdateHandles replaces the platform handles of a user.
func (s *UserService) UpdateHandles(ctx context.Context, id uuid.UUID, req *types.UpdateHandlesRequest) (*types.User, error) {
	handles := req.Handles().Trimmed()
	if !handles.Any() {
		return nil, invalid("handles", "connect at least one platform")
	}

	err := s.db.UpdateHandles(ctx, id, handles)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update handles: %w", err)
	}
	return s.Get(ctx, id)
}

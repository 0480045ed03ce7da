// Package service contains the business rules, between the HTTP handlers
// and the repositories. Services accept primitives and return domain
// errors from internal/apperror; they know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/converse/internal/apperror"
	"github.com/sakif/converse/internal/auth"
	"github.com/sakif/converse/internal/model"
	"github.com/sakif/converse/internal/repository"
	"github.com/sakif/converse/internal/storage"
)

// AuthService owns the account lifecycle: signup, login, profile and
// profile-image updates. It is the only code path that ever sees a
// plaintext password, and it discards it as soon as the hash is computed.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	blobs     storage.BlobStore
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	blobs storage.BlobStore,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		blobs:     blobs,
		logger:    logger,
	}
}

// AuthResult bundles the user with the freshly issued session token so
// the handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// persist is the single write path for user records: the hash is
// recomputed exactly when the password changed, signalled by an explicit
// dirty flag, never inferred from record state.
func (s *AuthService) persist(ctx context.Context, u *model.User, plaintext string, passwordDirty, create bool) error {
	if passwordDirty {
		hash, err := s.passwords.Hash(plaintext)
		if err != nil {
			return fmt.Errorf("service/auth: hashing password: %w", err)
		}
		u.PasswordHash = hash
	}
	if create {
		return s.users.Create(ctx, u)
	}
	return s.users.Update(ctx, u)
}

// Signup registers a new account and issues a session token.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and Password is required")
	}

	user := &model.User{Email: email}
	if err := s.persist(ctx, user, password, true, true); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	token, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a session token.
//
// "Email not found" and "password wrong" are distinct messages the
// client renders differently, so they stay despite the
// account-enumeration trade-off.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and Password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.NotFound("Password is incorrect")
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %s: %w", user.ID, err)
	}

	token, err := s.tokens.Issue(user.Email, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// GetUser returns the account behind an authenticated session.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile sets the caller's name and color. Any successful update
// marks the profile as set up: supplying the required fields IS what
// completes setup, regardless of prior state.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, firstName, lastName string, color int) (*model.User, error) {
	if firstName == "" || lastName == "" {
		return nil, apperror.ValidationFailed("firstName", "First Name, Last Name are required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Color = color
	user.ProfileSetup = true

	if err := s.persist(ctx, user, "", false, false); err != nil {
		return nil, fmt.Errorf("service/auth: updating profile of %s: %w", userID, err)
	}
	return user, nil
}

// AddProfileImage stores the uploaded image and points the account at it.
// A previous image reference is overwritten; its blob stays on disk
// until removal is requested.
func (s *AuthService) AddProfileImage(ctx context.Context, userID, filename string, r io.Reader) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	ref, err := s.blobs.Save(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("service/auth: storing profile image for %s: %w", userID, err)
	}

	user.Image = ref
	if err := s.persist(ctx, user, "", false, false); err != nil {
		// The blob is orphaned if this fails; best-effort cleanup.
		if rmErr := s.blobs.Remove(ctx, ref); rmErr != nil {
			s.logger.Warn("orphaned profile image blob",
				slog.String("ref", ref),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, fmt.Errorf("service/auth: saving image reference for %s: %w", userID, err)
	}
	return user, nil
}

// RemoveProfileImage deletes the image blob and clears the reference.
// Removal is idempotent: a blob that is already gone still clears the
// reference and succeeds.
func (s *AuthService) RemoveProfileImage(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	if user.Image != "" {
		if err := s.blobs.Remove(ctx, user.Image); err != nil {
			return fmt.Errorf("service/auth: removing profile image of %s: %w", userID, err)
		}
	}

	user.Image = ""
	if err := s.persist(ctx, user, "", false, false); err != nil {
		return fmt.Errorf("service/auth: clearing image reference of %s: %w", userID, err)
	}
	return nil
}

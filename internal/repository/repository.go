// Package repository declares the storage interfaces the service layer
// programs against. The sqlite subpackage implements them; tests use
// in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/converse/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user and fills in ID and timestamps.
	// Returns apperror.ErrConflict if the email is already taken.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns apperror.ErrNotFound if no user has that id.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByEmail looks up by exact (case-sensitive) email.
	// Returns apperror.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// Update writes the user's mutable fields (profile, image, password
	// hash) and bumps UpdatedAt.
	Update(ctx context.Context, user *model.User) error

	// Missing reports which of the given ids do not resolve to a user.
	// An empty result means every id exists.
	Missing(ctx context.Context, ids []string) ([]string, error)

	// List returns all users except excludeID, ordered by first name.
	List(ctx context.Context, excludeID string) ([]model.User, error)

	// Search returns users (excluding excludeID) whose first name, last
	// name, or email contains term.
	Search(ctx context.Context, term, excludeID string) ([]model.User, error)
}

// ChannelRepository persists channels and their message sequences.
type ChannelRepository interface {
	// Create inserts the channel and its member set atomically,
	// filling in ID and timestamps.
	Create(ctx context.Context, channel *model.Channel) error

	// GetByID returns the channel with its member set.
	// Returns apperror.ErrNotFound if no channel has that id.
	GetByID(ctx context.Context, id string) (*model.Channel, error)

	// ListForUser returns every channel where the user is admin or member,
	// most recently updated first.
	ListForUser(ctx context.Context, userID string) ([]model.Channel, error)

	// Messages returns the channel's messages in append order, each with
	// its sender resolved into the restricted projection.
	Messages(ctx context.Context, channelID string) ([]model.EnrichedMessage, error)

	// AppendMessage links a message into the channel's sequence and
	// bumps the channel's UpdatedAt.
	AppendMessage(ctx context.Context, msg *model.Message) error
}

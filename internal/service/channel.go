package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/converse/internal/apperror"
	"github.com/sakif/converse/internal/model"
	"github.com/sakif/converse/internal/repository"
)

// ChannelService owns channel creation, the per-user channel listing,
// and the enriched message history.
type ChannelService struct {
	channels repository.ChannelRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewChannelService(
	channels repository.ChannelRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ChannelService {
	return &ChannelService{
		channels: channels,
		users:    users,
		logger:   logger,
	}
}

// Create validates the admin and every member id, then persists the
// channel with the caller as admin. Membership is fixed from here on.
//
// Validation resolves each id individually and fails if any id resolves
// to nothing — duplicate ids in the request cannot mask a missing one.
func (s *ChannelService) Create(ctx context.Context, adminID, name string, memberIDs []string) (*model.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Channel name is required")
	}
	if len(memberIDs) == 0 {
		return nil, apperror.ValidationFailed("members", "Channel members are required")
	}

	if _, err := s.users.GetByID(ctx, adminID); err != nil {
		return nil, apperror.ValidationFailed("admin", "Admin not found")
	}

	missing, err := s.users.Missing(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("service/channel: resolving members: %w", err)
	}
	if len(missing) > 0 {
		return nil, apperror.ValidationFailed("members", "Some members are not valid users.")
	}

	channel := &model.Channel{
		Name:    name,
		AdminID: adminID,
		Members: memberIDs,
	}
	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("service/channel: creating channel: %w", err)
	}

	s.logger.Info("channel created",
		slog.String("channelID", channel.ID),
		slog.String("adminID", adminID),
		slog.Int("members", len(channel.Members)),
	)
	return channel, nil
}

// ListFor returns the channels visible to the user — admin of, or member
// of — most recently updated first.
func (s *ChannelService) ListFor(ctx context.Context, userID string) ([]model.Channel, error) {
	channels, err := s.channels.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/channel: listing channels for %s: %w", userID, err)
	}
	return channels, nil
}

// Messages returns the channel's history in append order, each message's
// sender projected into the restricted public shape.
func (s *ChannelService) Messages(ctx context.Context, channelID string) ([]model.EnrichedMessage, error) {
	// Resolve the channel first so a missing channel is a clean 404
	// rather than an empty history.
	if _, err := s.channels.GetByID(ctx, channelID); err != nil {
		return nil, fmt.Errorf("service/channel: fetching channel %s: %w", channelID, err)
	}

	messages, err := s.channels.Messages(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("service/channel: fetching messages of %s: %w", channelID, err)
	}
	return messages, nil
}

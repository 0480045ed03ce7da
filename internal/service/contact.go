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

// ContactService lists and searches the user directory. Results are
// public projections only and never include the caller.
type ContactService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewContactService(users repository.UserRepository, logger *slog.Logger) *ContactService {
	return &ContactService{users: users, logger: logger}
}

// Search returns users whose first name, last name, or email contains the
// term, excluding the caller.
func (s *ContactService) Search(ctx context.Context, callerID, term string) ([]model.PublicUser, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.ValidationFailed("searchTerm", "searchTerm is required.")
	}

	users, err := s.users.Search(ctx, term, callerID)
	if err != nil {
		return nil, fmt.Errorf("service/contact: searching contacts: %w", err)
	}
	return project(users), nil
}

// All returns every user except the caller, ordered by first name.
func (s *ContactService) All(ctx context.Context, callerID string) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("service/contact: listing contacts: %w", err)
	}
	return project(users), nil
}

func project(users []model.User) []model.PublicUser {
	out := make([]model.PublicUser, len(users))
	for i := range users {
		out[i] = users[i].Public()
	}
	return out
}

package users

import (
	"context"
	"errors"
	"strings"

	"portfolio-backend/internal/identity"
)

var errNotConfigured = errors.New("users service not configured")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the identity returned by the OAuth provider.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errNotConfigured
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// LookupByHandle resolves a route handle to an account id by scanning every
// account; the oldest match wins. Handles are not indexed.
func (s *Service) LookupByHandle(ctx context.Context, handle string) (string, error) {
	if s == nil || s.Repo == nil {
		return "", errNotConfigured
	}
	handle = identity.NormalizeHandle(handle)
	if handle == "" {
		return "", ErrNotFound
	}
	all, err := s.Repo.List(ctx)
	if err != nil {
		return "", err
	}
	for _, user := range all {
		if user.Handle() == handle {
			return user.ID, nil
		}
	}
	return "", ErrNotFound
}

var _ identity.HandleLookup = (*Service)(nil)

package users

import (
	"context"
	"errors"
	"fmt"

	"dialoghub/internal/metrics"
	"dialoghub/internal/models"
	"dialoghub/internal/storage"
)

var (
	ErrNameRequired = errors.New("name is required")
	ErrUserNotFound = errors.New("user not found")
)

// TokenIssuer mints a bearer token for a freshly registered user.
type TokenIssuer interface {
	IssueToken(ctx context.Context, userID int64) (string, error)
}

// Service handles registration and lookup of users.
type Service struct {
	store  storage.UserStore
	tokens TokenIssuer
}

func NewService(store storage.UserStore, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// Register stores a user under the next id and returns it with a new token.
// A failed token issue leaves the user stored without a token; ids are never
// reused, so the orphan is harmless and unreachable.
func (s *Service) Register(ctx context.Context, name string) (*models.User, string, error) {
	if name == "" {
		return nil, "", ErrNameRequired
	}
	user, err := s.store.CreateUser(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("register user: %w", err)
	}
	token, err := s.tokens.IssueToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	metrics.UsersRegistered.Inc()
	return user, token, nil
}

// Get returns the user with id or ErrUserNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

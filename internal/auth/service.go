package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"dialoghub/internal/logging"
	"dialoghub/internal/redis"
	"dialoghub/internal/storage"
)

const (
	tokenPrefix      = "demo-"
	redisTokenPrefix = "auth:token:"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Service issues and resolves bearer tokens. Tokens never expire.
type Service struct {
	tokens     storage.TokenStore
	cache      *redis.Client
	keyPrefix  string
	headerName string
}

// epochStore is implemented by token stores whose contents live only as long
// as the process.
type epochStore interface {
	Epoch() string
}

// NewService constructs an auth service over tokens. cache may be nil.
// Cache keys are scoped to the store's epoch when it has one, so a token
// cached for a previous process never resolves against a fresh store.
func NewService(tokens storage.TokenStore, cache *redis.Client) *Service {
	namespace := "shared"
	if scoped, ok := tokens.(epochStore); ok {
		namespace = scoped.Epoch()
	}
	return &Service{
		tokens:     tokens,
		cache:      cache,
		keyPrefix:  redisTokenPrefix + namespace + ":",
		headerName: "Authorization",
	}
}

// IssueToken mints a new opaque token bound to userID.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("invalid user id")
	}
	token := tokenPrefix + uuid.NewString()
	if err := s.tokens.SaveToken(ctx, token, userID); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.cacheToken(ctx, token, userID)
	return token, nil
}

// ValidateToken resolves the user bound to authToken.
func (s *Service) ValidateToken(ctx context.Context, authToken string) (int64, error) {
	if authToken == "" {
		return 0, ErrMissingToken
	}
	if userID, ok := s.cachedToken(ctx, authToken); ok {
		return userID, nil
	}
	userID, err := s.tokens.LookupToken(ctx, authToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	if userID <= 0 {
		return 0, ErrInvalidToken
	}
	s.cacheToken(ctx, authToken, userID)
	return userID, nil
}

func (s *Service) cachedToken(ctx context.Context, token string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, s.cacheKey(token))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			logging.FromContext(ctx).Warn().Err(err).Msg("token cache read failed")
		}
		return 0, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func (s *Service) cacheKey(token string) string {
	return s.keyPrefix + token
}

func (s *Service) cacheToken(ctx context.Context, token string, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(token), strconv.FormatInt(userID, 10), 0); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("token cache write failed")
	}
}

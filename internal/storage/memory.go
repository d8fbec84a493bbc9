package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"dialoghub/internal/models"
)

// MemoryStore keeps all state in process memory. It is safe for concurrent
// use; everything is lost when the process exits.
type MemoryStore struct {
	epoch    string
	mu       sync.RWMutex
	users    []*models.User
	tokens   map[string]int64
	messages []*models.Message
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		epoch:  uuid.NewString(),
		tokens: make(map[string]int64),
	}
}

// Epoch identifies this store instance. Two stores never share an epoch, so
// anything cached under it dies with the store.
func (s *MemoryStore) Epoch() string {
	return s.epoch
}

func (s *MemoryStore) CreateUser(_ context.Context, name string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &models.User{ID: int64(len(s.users)) + 1, Name: name}
	s.users = append(s.users, user)
	out := *user
	return &out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id <= 0 || id > int64(len(s.users)) {
		return nil, ErrNotFound
	}
	out := *s.users[id-1]
	return &out, nil
}

func (s *MemoryStore) SaveToken(_ context.Context, token string, userID int64) error {
	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LookupToken(_ context.Context, token string) (int64, error) {
	s.mu.RLock()
	userID, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}
	return userID, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *msg
	stored.ID = int64(len(s.messages)) + 1
	s.messages = append(s.messages, &stored)
	out := stored
	return &out, nil
}

func (s *MemoryStore) DialogMessages(_ context.Context, me *int64, other int64) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*models.Message, 0)
	for _, m := range s.messages {
		if m.Involves(me, other) {
			out := *m
			list = append(list, &out)
		}
	}
	return list, nil
}

// Ping always reports success for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"dialoghub/internal/config"
	"dialoghub/internal/models"
)

// ErrNotFound is returned when a user or token does not exist.
var ErrNotFound = errors.New("not found")

// UserStore keeps registered users. Ids start at 1 and only grow.
type UserStore interface {
	CreateUser(ctx context.Context, name string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// TokenStore maps opaque bearer tokens to user ids.
type TokenStore interface {
	SaveToken(ctx context.Context, token string, userID int64) error
	LookupToken(ctx context.Context, token string) (int64, error)
}

// MessageStore is an append-only message log.
type MessageStore interface {
	// AppendMessage assigns the next id to msg and stores it.
	AppendMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	// DialogMessages returns, in insertion order, every message exchanged
	// between me and other. A nil me matches unauthenticated senders.
	DialogMessages(ctx context.Context, me *int64, other int64) ([]*models.Message, error)
}

// Store bundles every collection behind one backend.
type Store interface {
	UserStore
	TokenStore
	MessageStore
	Ping(ctx context.Context) error
	Close() error
}

// New opens the backend selected in cfg.BasicConfig.Storage.
func New(cfg *config.Config) (Store, error) {
	switch cfg.BasicConfig.Storage {
	case config.StorageMemory, "":
		return NewMemoryStore(), nil
	case config.StorageSQLite, config.StorageMySQL:
		driver := cfg.BasicConfig.Storage
		db, err := Open(driver, cfg)
		if err != nil {
			return nil, err
		}
		if err := Migrate(db, driver); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported storage: %s", cfg.BasicConfig.Storage)
	}
}

package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// Kind names a persisted state container. The values double as key prefixes.
type Kind string

const (
	KindCart           Kind = "cart"
	KindWishlist       Kind = "wishlist"
	KindRecentSearches Kind = "recentSearches"
)

// ErrCorrupt marks a stored snapshot that could not be decoded.
var ErrCorrupt = errors.New("snapshot payload is corrupt")

// Store persists the full item list of one state container per user.
type Store[T any] interface {
	Load(ctx context.Context, userID string) ([]T, error)
	Save(ctx context.Context, userID string, items []T) error
}

// Backends carries the connections an adapter may need.
type Backends struct {
	Backend enums.StorageBackend
	Redis   pkgredis.KV
	DB      *gorm.DB
}

// New builds the adapter for the configured backend.
func New[T any](b Backends, kind Kind) (Store[T], error) {
	switch b.Backend {
	case enums.StorageBackendMemory, "":
		return NewMemory[T](), nil
	case enums.StorageBackendRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("redis client required for %s snapshots", kind)
		}
		return NewRedis[T](b.Redis, kind), nil
	case enums.StorageBackendPostgres, enums.StorageBackendSQLite:
		if b.DB == nil {
			return nil, fmt.Errorf("database required for %s snapshots", kind)
		}
		return NewSQL[T](b.DB, kind), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", b.Backend)
	}
}

func validUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is required")
	}
	return userID, nil
}

func encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func decode[T any](payload []byte) ([]T, error) {
	if len(payload) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

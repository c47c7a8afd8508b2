package snapshots

import (
	"context"
	"fmt"

	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// Redis stores each snapshot as a JSON array under <kind>_<userId>, without expiry.
type Redis[T any] struct {
	kv   pkgredis.KV
	kind Kind
}

func NewRedis[T any](kv pkgredis.KV, kind Kind) *Redis[T] {
	return &Redis[T]{kv: kv, kind: kind}
}

func (r *Redis[T]) Load(ctx context.Context, userID string) ([]T, error) {
	userID, err := validUser(userID)
	if err != nil {
		return nil, err
	}
	payload, ok, err := r.kv.GetBytes(ctx, pkgredis.SnapshotKey(string(r.kind), userID))
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", r.kind, err)
	}
	if !ok {
		return []T{}, nil
	}
	return decode[T](payload)
}

func (r *Redis[T]) Save(ctx context.Context, userID string, items []T) error {
	userID, err := validUser(userID)
	if err != nil {
		return err
	}
	payload, err := encode(items)
	if err != nil {
		return err
	}
	if err := r.kv.SetBytes(ctx, pkgredis.SnapshotKey(string(r.kind), userID), payload, 0); err != nil {
		return fmt.Errorf("save %s snapshot: %w", r.kind, err)
	}
	return nil
}

package snapshots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront/pkg/db/models"
)

// SQL stores snapshots in the storefront_snapshots table keyed by (user_id, kind).
type SQL[T any] struct {
	db   *gorm.DB
	kind Kind
	now  func() time.Time
}

func NewSQL[T any](db *gorm.DB, kind Kind) *SQL[T] {
	return &SQL[T]{db: db, kind: kind, now: time.Now}
}

func (s *SQL[T]) Load(ctx context.Context, userID string) ([]T, error) {
	userID, err := validUser(userID)
	if err != nil {
		return nil, err
	}
	var row models.Snapshot
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, string(s.kind)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", s.kind, err)
	}
	return decode[T]([]byte(row.Payload))
}

func (s *SQL[T]) Save(ctx context.Context, userID string, items []T) error {
	userID, err := validUser(userID)
	if err != nil {
		return err
	}
	payload, err := encode(items)
	if err != nil {
		return err
	}
	row := models.Snapshot{
		UserID:    userID,
		Kind:      string(s.kind),
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", s.kind, err)
	}
	return nil
}

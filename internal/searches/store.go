package searches

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/internal/snapshots"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// MaxRecent bounds how many searches are remembered per user.
const MaxRecent = 5

// Push puts query at the front of recent, dropping case-insensitive duplicates and
// anything past MaxRecent. Blank queries leave recent unchanged.
func Push(recent []string, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return recent
	}
	next := make([]string, 0, MaxRecent)
	next = append(next, query)
	for _, existing := range recent {
		if len(next) == MaxRecent {
			break
		}
		if strings.EqualFold(existing, query) {
			continue
		}
		next = append(next, existing)
	}
	return next
}

// Service keeps each user's recent searches.
type Service struct {
	snapshots snapshots.Store[string]
	logg      *logger.Logger
	locks     snapshots.UserLocks
}

func NewService(snaps snapshots.Store[string], logg *logger.Logger) (*Service, error) {
	if snaps == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{snapshots: snaps, logg: logg}, nil
}

// Recent returns the user's searches, most recent first.
func (s *Service) Recent(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	return s.load(ctx, userID)
}

// Record remembers query for userID and returns the updated list.
func (s *Service) Record(ctx context.Context, userID, query string) ([]string, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	recent, err := s.load(ctx, userID)
	if err != nil || strings.TrimSpace(query) == "" {
		return recent, err
	}
	next := Push(recent, query)
	if err := s.snapshots.Save(ctx, userID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save recent searches")
	}
	return next, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.snapshots.Save(ctx, userID, []string{}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear recent searches")
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID string) ([]string, error) {
	recent, err := s.snapshots.Load(ctx, userID)
	if errors.Is(err, snapshots.ErrCorrupt) {
		s.logg.WarnErr(s.logg.WithUserID(ctx, userID), "discarding corrupt recent searches", err)
		return []string{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent searches")
	}
	return recent, nil
}

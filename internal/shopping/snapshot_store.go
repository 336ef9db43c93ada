package shopping

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"mealshare_echo/internal/models"
	"mealshare_echo/internal/services"
)

const defaultSnapshotTTL = 10 * time.Minute

// Snapshot is a plan's persisted shopping list and when it was last written.
type Snapshot struct {
	List      models.ShoppingList `json:"shoppingList"`
	UpdatedAt *time.Time          `json:"updatedAt"`
}

// SnapshotStore reads and replaces the shopping list stored on the plan row.
// With a cache configured, reads are served from Redis and every replace
// drops the cached copy.
type SnapshotStore struct {
	db    *gorm.DB
	cache *services.RedisCache
	locks *PlanLocks
	ttl   time.Duration
}

// NewSnapshotStore creates a SnapshotStore. cache may be nil.
func NewSnapshotStore(db *gorm.DB, cache *services.RedisCache, locks *PlanLocks) *SnapshotStore {
	return &SnapshotStore{db: db, cache: cache, locks: locks, ttl: defaultSnapshotTTL}
}

func snapshotCacheKey(planID uint) string {
	return fmt.Sprintf("plan:%d:shopping_list", planID)
}

// Get returns the last persisted snapshot, which may be empty.
func (s *SnapshotStore) Get(ctx context.Context, planID uint) (Snapshot, error) {
	if s.cache == nil {
		return s.load(ctx, planID)
	}

	key := snapshotCacheKey(planID)
	var snap Snapshot
	err := s.cache.Get(ctx, key, &snap)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, services.ErrCacheMiss) {
		log.Printf("[shopping] plan %d: snapshot cache read failed: %v", planID, err)
	}

	// Filling under the plan lock keeps a concurrent replace from being
	// overwritten by the value read here.
	unlock := s.locks.Lock(planID)
	defer unlock()

	snap, err = s.load(ctx, planID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.cache.Set(ctx, key, snap, s.ttl); err != nil {
		log.Printf("[shopping] plan %d: snapshot cache write failed: %v", planID, err)
	}
	return snap, nil
}

func (s *SnapshotStore) load(ctx context.Context, planID uint) (Snapshot, error) {
	var plans []models.Plan
	err := s.db.WithContext(ctx).
		Select("id", "shopping_list", "shopping_list_at").
		Where("id = ?", planID).
		Limit(1).
		Find(&plans).Error
	if err != nil {
		return Snapshot{}, persistenceError("load snapshot", err)
	}
	if len(plans) == 0 {
		return Snapshot{}, ErrPlanNotFound
	}
	return Snapshot{List: plans[0].ShoppingList, UpdatedAt: plans[0].ShoppingListAt}, nil
}

// Replace overwrites the plan's snapshot in a single statement and bumps the
// plan's timestamps. On failure the previous snapshot is left untouched.
func (s *SnapshotStore) Replace(ctx context.Context, planID uint, list models.ShoppingList) (Snapshot, error) {
	return s.ReplaceWith(ctx, planID, func(context.Context) (models.ShoppingList, error) {
		return list, nil
	}, nil)
}

// ReplaceWith runs build and writes its result while holding the plan lock,
// so the list written always reflects the data build read. replaced, when
// not nil, runs with the new snapshot before the lock is released.
func (s *SnapshotStore) ReplaceWith(ctx context.Context, planID uint, build func(context.Context) (models.ShoppingList, error), replaced func(Snapshot)) (Snapshot, error) {
	unlock := s.locks.Lock(planID)
	defer unlock()

	list, err := build(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&models.Plan{}).
		Where("id = ?", planID).
		Updates(map[string]interface{}{
			"shopping_list":    list,
			"shopping_list_at": now,
			"updated_at":       now,
		})
	if res.Error != nil {
		return Snapshot{}, persistenceError("replace snapshot", res.Error)
	}
	if res.RowsAffected == 0 {
		return Snapshot{}, ErrPlanNotFound
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, snapshotCacheKey(planID)); err != nil {
			log.Printf("[shopping] plan %d: snapshot cache invalidation failed: %v", planID, err)
		}
	}

	snap := Snapshot{List: list, UpdatedAt: &now}
	if replaced != nil {
		replaced(snap)
	}
	return snap, nil
}

// Forget drops the cached snapshot of a plan.
func (s *SnapshotStore) Forget(ctx context.Context, planID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, snapshotCacheKey(planID)); err != nil {
		log.Printf("[shopping] plan %d: snapshot cache delete failed: %v", planID, err)
	}
}

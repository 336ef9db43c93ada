package shopping

import (
	"context"
	"time"

	"gorm.io/gorm"

	"mealshare_echo/internal/models"
)

// CheckedStore keeps the per-plan checked flag of each mention key.
// Entries survive recalculations and are only removed with their plan.
type CheckedStore struct {
	db    *gorm.DB
	locks *PlanLocks
}

func NewCheckedStore(db *gorm.DB, locks *PlanLocks) *CheckedStore {
	return &CheckedStore{db: db, locks: locks}
}

// Toggle flips the flag for mentionKey, creating it checked when absent, and
// records who changed it. The returned item holds the new state. committed,
// when not nil, runs after the commit and before the plan lock is released,
// so its calls follow the order of the writes.
func (s *CheckedStore) Toggle(ctx context.Context, planID uint, mentionKey, actor string, committed func(models.CheckedItem)) (models.CheckedItem, error) {
	unlock := s.locks.Lock(planID)
	defer unlock()

	var item models.CheckedItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []models.CheckedItem
		if err := tx.Where("plan_id = ? AND mention_key = ?", planID, mentionKey).Limit(1).Find(&found).Error; err != nil {
			return err
		}

		now := time.Now()
		if len(found) == 0 {
			item = models.CheckedItem{
				PlanID:        planID,
				MentionKey:    mentionKey,
				IsChecked:     true,
				LastUpdatedBy: actor,
				LastUpdatedAt: now,
			}
			return tx.Create(&item).Error
		}

		item = found[0]
		item.IsChecked = !item.IsChecked
		item.LastUpdatedBy = actor
		item.LastUpdatedAt = now
		return tx.Save(&item).Error
	})
	if err != nil {
		return models.CheckedItem{}, persistenceError("toggle checked item", err)
	}
	if committed != nil {
		committed(item)
	}
	return item, nil
}

// List returns mention key -> checked for every entry of the plan.
func (s *CheckedStore) List(ctx context.Context, planID uint) (map[string]bool, error) {
	var items []models.CheckedItem
	if err := s.db.WithContext(ctx).Where("plan_id = ?", planID).Order("id asc").Find(&items).Error; err != nil {
		return nil, persistenceError("list checked items", err)
	}

	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it.MentionKey] = it.IsChecked
	}
	return out, nil
}

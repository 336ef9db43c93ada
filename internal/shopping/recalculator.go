package shopping

import (
	"context"
	"log"

	"gorm.io/gorm"

	"mealshare_echo/internal/models"
)

// Recalculator rebuilds a plan's shopping list from its current meals.
type Recalculator struct {
	db        *gorm.DB
	snapshots *SnapshotStore
	hub       *Hub
}

// NewRecalculator creates a Recalculator. hub may be nil, in which case no
// ListRecalculated event is published.
func NewRecalculator(db *gorm.DB, snapshots *SnapshotStore, hub *Hub) *Recalculator {
	return &Recalculator{db: db, snapshots: snapshots, hub: hub}
}

// OnMealsChanged aggregates the plan's meals, replaces the stored snapshot
// and notifies open subscribers.
func (r *Recalculator) OnMealsChanged(ctx context.Context, planID uint) (Snapshot, error) {
	snap, err := r.snapshots.ReplaceWith(ctx, planID, func(ctx context.Context) (models.ShoppingList, error) {
		meals, err := r.loadMeals(ctx, planID)
		if err != nil {
			return nil, err
		}
		return Aggregate(meals), nil
	}, r.publish(planID))
	if err != nil {
		return Snapshot{}, err
	}

	log.Printf("[shopping] plan %d: shopping list recalculated (%d lines, categories %v)", planID, snap.List.Count(), snap.List.Labels())
	return snap, nil
}

// publish runs under the plan lock so subscribers see snapshots in write order.
func (r *Recalculator) publish(planID uint) func(Snapshot) {
	if r.hub == nil {
		return nil
	}
	return func(snap Snapshot) {
		r.hub.Publish(planID, Event{
			Type: EventListRecalculated,
			Data: ListRecalculated{ShoppingList: snap.List, UpdatedAt: snap.UpdatedAt},
		})
	}
}

func (r *Recalculator) loadMeals(ctx context.Context, planID uint) ([]models.Meal, error) {
	var meals []models.Meal
	if err := r.db.WithContext(ctx).Where("plan_id = ?", planID).Order("position asc, id asc").Find(&meals).Error; err != nil {
		return nil, persistenceError("load meals", err)
	}
	return meals, nil
}

// SweepStale recalculates every plan whose meals changed after its shopping
// list was last written, and returns how many were repaired.
func (r *Recalculator) SweepStale(ctx context.Context) (int, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Plan{}).
		Where("meals_changed_at IS NOT NULL AND (shopping_list_at IS NULL OR meals_changed_at > shopping_list_at)").
		Order("id asc").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, persistenceError("find stale plans", err)
	}

	repaired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		if _, err := r.OnMealsChanged(ctx, id); err != nil {
			log.Printf("[shopping] plan %d: stale snapshot sweep failed: %v", id, err)
			continue
		}
		repaired++
	}
	return repaired, nil
}

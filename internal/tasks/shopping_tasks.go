package tasks

import (
	"context"

	"mealshare_echo/internal/shopping"
)

const SweepStaleShoppingListsTask = "sweep_stale_shopping_lists"

// StaleSweeper is implemented by shopping.Recalculator.
type StaleSweeper interface {
	SweepStale(ctx context.Context) (int, error)
}

var _ StaleSweeper = (*shopping.Recalculator)(nil)

// SweepStaleShoppingLists recalculates shopping lists left behind by a failed
// recalculation after a meal change.
func SweepStaleShoppingLists(s StaleSweeper) TaskHandler {
	return func(ctx context.Context) (map[string]interface{}, error) {
		n, err := s.SweepStale(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"recalculated": n}, nil
	}
}

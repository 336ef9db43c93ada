package handlers

import (
	"encoding/json"
	"time"

	"mealshare_echo/internal/models"
)

type createPlanRequest struct {
	Name      string `json:"name"`
	WeekStart string `json:"weekStart"`
}

type contributorRequest struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
}

// mealRequest is the body of meal create and update calls. Ingredients are
// kept as raw JSON and stored verbatim.
type mealRequest struct {
	Day         string          `json:"day"`
	Slot        string          `json:"slot"`
	MealType    string          `json:"mealType"`
	Name        string          `json:"name"`
	Servings    int             `json:"servings"`
	Ingredients json.RawMessage `json:"ingredients"`
}

type toggleRequest struct {
	MentionKey string `json:"mentionKey"`
}

type toggleResponse struct {
	MentionKey string `json:"mentionKey"`
	IsChecked  bool   `json:"isChecked"`
}

type recalculateResponse struct {
	Success      bool                `json:"success"`
	ShoppingList models.ShoppingList `json:"shoppingList"`
	UpdatedAt    *time.Time          `json:"updatedAt"`
}

type checkedItemsResponse struct {
	Items map[string]bool `json:"items"`
}

type mealResponse struct {
	Meal         models.Meal         `json:"meal"`
	ShoppingList models.ShoppingList `json:"shoppingList"`
}

type planResponse struct {
	Plan models.Plan `json:"plan"`
	Role models.Role `json:"role"`
}

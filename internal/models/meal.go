package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Meal is one planned dish in a Plan.
type Meal struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PlanID   uint   `gorm:"index" json:"plan_id"`
	Day      string `gorm:"type:varchar(20)" json:"day"`
	Slot     string `gorm:"type:varchar(50)" json:"slot"`
	MealType string `gorm:"type:varchar(50)" json:"meal_type"`
	Name     string `gorm:"type:varchar(255)" json:"name"`
	Servings int    `gorm:"default:1" json:"servings"`
	Position int    `gorm:"index" json:"position"`

	// Ingredients is kept exactly as submitted; see ParseMentions.
	Ingredients datatypes.JSON `json:"ingredients"`
}

// Mentions resolves the stored ingredient JSON into typed mentions.
func (m Meal) Mentions() ([]IngredientMention, []error) {
	return ParseMentions(m.Ingredients)
}

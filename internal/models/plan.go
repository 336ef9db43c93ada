package models

import (
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// Plan is a shared weekly meal plan. It owns its meals, its membership and
// the cached shopping list derived from the meals.
type Plan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name      string    `gorm:"type:varchar(255)" json:"name"`
	OwnerID   string    `gorm:"type:varchar(128);index" json:"owner_id"`
	WeekStart time.Time `json:"week_start"`

	// ShoppingList is only ever written by a recalculation.
	ShoppingList   ShoppingList `json:"shopping_list"`
	ShoppingListAt *time.Time   `json:"shopping_list_at"`
	MealsChangedAt *time.Time   `json:"meals_changed_at"`

	// Relationships
	Contributors []PlanContributor `gorm:"foreignKey:PlanID" json:"contributors,omitempty"`
	Meals        []Meal            `gorm:"foreignKey:PlanID" json:"meals,omitempty"`
}

// WeekDays maps lower-case weekday names to the dates of the plan's week,
// starting at WeekStart.
func (p Plan) WeekDays() map[string]time.Time {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   7,
		Dtstart: p.WeekStart,
	})
	if err != nil {
		return nil
	}

	days := make(map[string]time.Time, 7)
	for _, d := range rule.All() {
		days[strings.ToLower(d.Weekday().String())] = d
	}
	return days
}

// DayDate resolves a meal day label such as "Monday" to its date in the plan's week.
func (p Plan) DayDate(label string) (time.Time, bool) {
	d, ok := p.WeekDays()[strings.ToLower(strings.TrimSpace(label))]
	return d, ok
}

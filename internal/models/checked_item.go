package models

import (
	"strings"
	"time"
)

// CheckedItem is the checked state of one shopping list line in a plan,
// keyed by the normalized mention text.
type CheckedItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PlanID        uint      `gorm:"uniqueIndex:idx_checked_plan_mention" json:"plan_id"`
	MentionKey    string    `gorm:"type:varchar(512);uniqueIndex:idx_checked_plan_mention" json:"mention_key"`
	IsChecked     bool      `gorm:"default:false" json:"is_checked"`
	LastUpdatedBy string    `gorm:"type:varchar(128)" json:"last_updated_by"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// MentionKey normalizes a raw mention: surrounding space trimmed and inner
// whitespace runs collapsed. Case is kept.
func MentionKey(mention string) string {
	return strings.Join(strings.Fields(mention), " ")
}

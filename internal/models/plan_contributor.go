package models

import (
	"time"
)

// Role is a member's role on a plan
type Role string

const (
	RoleOwner       Role = "OWNER"
	RoleContributor Role = "CONTRIBUTOR"
	RoleViewer      Role = "VIEWER"
)

// CanWrite reports whether the role may change meals or checked items.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleContributor
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleContributor, RoleViewer:
		return true
	}
	return false
}

// PlanContributor links a user to a Plan with a role.
// The plan owner also has a row, with RoleOwner.
type PlanContributor struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PlanID uint   `gorm:"uniqueIndex:idx_plan_contributor" json:"plan_id"`
	UserID string `gorm:"type:varchar(128);uniqueIndex:idx_plan_contributor" json:"user_id"`
	Role   Role   `gorm:"type:varchar(20);default:'VIEWER'" json:"role"`
}

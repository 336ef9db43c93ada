package shopping

import (
	"context"

	"gorm.io/gorm"

	"mealshare_echo/internal/models"
)

// MembershipLookup resolves a caller's role on a plan. It returns
// ErrAuthenticationRequired for an empty caller and ErrPlanNotFound when
// the plan does not exist or the caller is not a member.
type MembershipLookup interface {
	RoleOf(ctx context.Context, planID uint, userID string) (models.Role, error)
}

// Directory is the MembershipLookup backed by the plan tables.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) RoleOf(ctx context.Context, planID uint, userID string) (models.Role, error) {
	if userID == "" {
		return "", ErrAuthenticationRequired
	}

	var plans []models.Plan
	if err := d.db.WithContext(ctx).Select("id", "owner_id").Where("id = ?", planID).Limit(1).Find(&plans).Error; err != nil {
		return "", persistenceError("load plan", err)
	}
	if len(plans) == 0 {
		return "", ErrPlanNotFound
	}
	if plans[0].OwnerID == userID {
		return models.RoleOwner, nil
	}

	var rows []models.PlanContributor
	if err := d.db.WithContext(ctx).Where("plan_id = ? AND user_id = ?", planID, userID).Limit(1).Find(&rows).Error; err != nil {
		return "", persistenceError("load membership", err)
	}
	if len(rows) == 0 {
		return "", ErrPlanNotFound
	}

	// Only plan.OwnerID is the owner.
	if rows[0].Role == models.RoleOwner || !rows[0].Role.Valid() {
		return models.RoleViewer, nil
	}
	return rows[0].Role, nil
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mealshare_echo/internal/models"
	"mealshare_echo/internal/shopping"
)

type PlanHandler struct {
	db  *gorm.DB
	svc *shopping.Service
}

func NewPlanHandler(db *gorm.DB, svc *shopping.Service) *PlanHandler {
	return &PlanHandler{db: db, svc: svc}
}

func storageError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shopping.ErrPlanNotFound
	}
	return fmt.Errorf("%w: %s: %w", shopping.ErrPersistence, op, err)
}

// weekStartOf returns the Monday of t's week, at midnight UTC.
func weekStartOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// CreatePlan creates a plan owned by the caller with an empty shopping list.
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	userID := currentUser(c)
	if userID == "" {
		return shopping.ErrAuthenticationRequired
	}

	var req createPlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	weekStart := weekStartOf(time.Now())
	if req.WeekStart != "" {
		// Basic parsing - assuming standard date format YYYY-MM-DD
		parsed, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "weekStart must be YYYY-MM-DD")
		}
		weekStart = parsed
	}

	now := time.Now()
	plan := models.Plan{
		Name:           req.Name,
		OwnerID:        userID,
		WeekStart:      weekStart,
		ShoppingList:   models.ShoppingList{},
		ShoppingListAt: &now,
	}

	err := h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
		owner := models.PlanContributor{PlanID: plan.ID, UserID: userID, Role: models.RoleOwner}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		plan.Contributors = []models.PlanContributor{owner}
		return nil
	})
	if err != nil {
		return storageError("create plan", err)
	}

	c.Logger().Infof("plan %d created by %s", plan.ID, userID)
	return c.JSON(http.StatusCreated, planResponse{Plan: plan, Role: models.RoleOwner})
}

// GetPlan returns the plan with its contributors and meals in stored order.
func (h *PlanHandler) GetPlan(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	role, err := h.svc.Authorize(ctx, planID, currentUser(c), false)
	if err != nil {
		return err
	}

	var plan models.Plan
	err = h.db.WithContext(ctx).
		Preload("Contributors", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Meals", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
		First(&plan, planID).Error
	if err != nil {
		return storageError("load plan", err)
	}

	return c.JSON(http.StatusOK, planResponse{Plan: plan, Role: role})
}

// DeletePlan removes the plan and everything hanging off it, then drops its
// live connections. Owner only.
func (h *PlanHandler) DeletePlan(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	role, err := h.svc.Authorize(ctx, planID, currentUser(c), true)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return shopping.ErrPermissionDenied
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("plan_id = ?", planID).Delete(&models.Meal{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanContributor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", planID).Delete(&models.CheckedItem{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Plan{}, planID).Error
	})
	if err != nil {
		return storageError("delete plan", err)
	}

	h.svc.PlanDeleted(ctx, planID)
	c.Logger().Infof("plan %d deleted", planID)
	return c.NoContent(http.StatusNoContent)
}

// AddContributor adds a member or changes their role. Owner only, and the
// owner role itself cannot be granted.
func (h *PlanHandler) AddContributor(c echo.Context) error {
	planID, err := planIDParam(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	role, err := h.svc.Authorize(ctx, planID, currentUser(c), true)
	if err != nil {
		return err
	}
	if role != models.RoleOwner {
		return shopping.ErrPermissionDenied
	}

	var req contributorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	if req.UserID == currentUser(c) {
		return echo.NewHTTPError(http.StatusBadRequest, "the owner's role cannot change")
	}
	if req.Role != models.RoleContributor && req.Role != models.RoleViewer {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be CONTRIBUTOR or VIEWER")
	}

	row := models.PlanContributor{PlanID: planID, UserID: req.UserID, Role: req.Role}
	err = h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return storageError("save contributor", err)
	}

	var saved models.PlanContributor
	if err := h.db.WithContext(ctx).Where("plan_id = ? AND user_id = ?", planID, req.UserID).First(&saved).Error; err != nil {
		return storageError("load contributor", err)
	}
	return c.JSON(http.StatusOK, saved)
}

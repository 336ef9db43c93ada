package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mealshare_echo/internal/models"
	"mealshare_echo/internal/shopping"
)

// MealHandler edits the meals of a plan. Every change is followed by a
// shopping list recalculation.
type MealHandler struct {
	db  *gorm.DB
	svc *shopping.Service
}

func NewMealHandler(db *gorm.DB, svc *shopping.Service) *MealHandler {
	return &MealHandler{db: db, svc: svc}
}

// ingredientsJSON returns raw as stored JSON, or an error when it is not an array.
func ingredientsJSON(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return datatypes.JSON("[]"), nil
	}
	if trimmed[0] != '[' || !json.Valid(trimmed) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "ingredients must be a JSON array")
	}
	return datatypes.JSON(trimmed), nil
}

func (h *MealHandler) loadPlan(ctx context.Context, planID uint) (models.Plan, error) {
	var plan models.Plan
	if err := h.db.WithContext(ctx).Select("id", "week_start").First(&plan, planID).Error; err != nil {
		return models.Plan{}, storageError("load plan", err)
	}
	return plan, nil
}

func (h *MealHandler) authorizeWrite(c echo.Context) (uint, error) {
	planID, err := planIDParam(c)
	if err != nil {
		return 0, err
	}
	if _, err := h.svc.Authorize(c.Request().Context(), planID, currentUser(c), true); err != nil {
		return 0, err
	}
	return planID, nil
}

// applyMeal copies req onto meal after validating it against plan's week.
func applyMeal(plan models.Plan, meal *models.Meal, req mealRequest) error {
	day := strings.ToLower(strings.TrimSpace(req.Day))
	if _, ok := plan.DayDate(day); !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "day must be a weekday name of the plan week")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	ingredients, err := ingredientsJSON(req.Ingredients)
	if err != nil {
		return err
	}

	servings := req.Servings
	if servings <= 0 {
		servings = 1
	}

	meal.Day = day
	meal.Slot = strings.TrimSpace(req.Slot)
	meal.MealType = strings.TrimSpace(req.MealType)
	meal.Name = name
	meal.Servings = servings
	meal.Ingredients = ingredients
	return nil
}

func stampMealsChanged(tx *gorm.DB, planID uint) error {
	return tx.Model(&models.Plan{}).Where("id = ?", planID).Update("meals_changed_at", time.Now()).Error
}

// afterChange runs the recalculation. A failure leaves the meal change in
// place for the worker to catch up on.
func (h *MealHandler) afterChange(c echo.Context, planID uint) (models.ShoppingList, error) {
	snap, err := h.svc.OnMealsChanged(c.Request().Context(), planID)
	if err != nil {
		c.Logger().Errorf("plan %d: recalculation after meal change failed: %v", planID, err)
		return nil, err
	}
	return snap.List, nil
}

// CreateMeal appends a meal to the end of the plan.
func (h *MealHandler) CreateMeal(c echo.Context) error {
	planID, err := h.authorizeWrite(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var req mealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	plan, err := h.loadPlan(ctx, planID)
	if err != nil {
		return err
	}

	meal := models.Meal{PlanID: planID}
	if err := applyMeal(plan, &meal, req); err != nil {
		return err
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.Meal{}).Where("plan_id = ?", planID).Select("COALESCE(MAX(position), -1)").Scan(&last).Error; err != nil {
			return err
		}
		meal.Position = last + 1
		if err := tx.Create(&meal).Error; err != nil {
			return err
		}
		return stampMealsChanged(tx, planID)
	})
	if err != nil {
		return storageError("create meal", err)
	}

	list, err := h.afterChange(c, planID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mealResponse{Meal: meal, ShoppingList: list})
}

// UpdateMeal replaces a meal's fields, keeping its position.
func (h *MealHandler) UpdateMeal(c echo.Context) error {
	planID, err := h.authorizeWrite(c)
	if err != nil {
		return err
	}
	mealID, err := uintParam(c, "mealId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var req mealRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	plan, err := h.loadPlan(ctx, planID)
	if err != nil {
		return err
	}

	var meal models.Meal
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND plan_id = ?", mealID, planID).First(&meal).Error; err != nil {
			return err
		}
		if err := applyMeal(plan, &meal, req); err != nil {
			return err
		}
		if err := tx.Save(&meal).Error; err != nil {
			return err
		}
		return stampMealsChanged(tx, planID)
	})
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "meal not found")
		}
		return storageError("update meal", err)
	}

	list, err := h.afterChange(c, planID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mealResponse{Meal: meal, ShoppingList: list})
}

// DeleteMeal removes a meal from the plan.
func (h *MealHandler) DeleteMeal(c echo.Context) error {
	planID, err := h.authorizeWrite(c)
	if err != nil {
		return err
	}
	mealID, err := uintParam(c, "mealId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND plan_id = ?", mealID, planID).Delete(&models.Meal{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return stampMealsChanged(tx, planID)
	})
	if err != nil {
		if isNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "meal not found")
		}
		return storageError("delete meal", err)
	}

	list, err := h.afterChange(c, planID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"shoppingList": list,
	})
}

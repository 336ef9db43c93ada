package shopping

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mealshare_echo/internal/models"
	"mealshare_echo/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := services.InitDB("sqlite://"+filepath.Join(t.TempDir(), "shopping.db"), logger.Silent)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createPlan(t *testing.T, db *gorm.DB, ownerID string) models.Plan {
	t.Helper()

	plan := models.Plan{
		Name:      "Semaine 42",
		OwnerID:   ownerID,
		WeekStart: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("Create plan failed: %v", err)
	}
	return plan
}

func addContributor(t *testing.T, db *gorm.DB, planID uint, userID string, role models.Role) {
	t.Helper()

	row := models.PlanContributor{PlanID: planID, UserID: userID, Role: role}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("Create contributor failed: %v", err)
	}
}

func addMeal(t *testing.T, db *gorm.DB, planID uint, position int, ingredients ...interface{}) models.Meal {
	t.Helper()

	raw, err := json.Marshal(ingredients)
	if err != nil {
		t.Fatalf("marshal ingredients: %v", err)
	}
	meal := models.Meal{
		PlanID:      planID,
		Day:         "monday",
		Slot:        "dinner",
		Name:        "Dîner",
		Servings:    2,
		Position:    position,
		Ingredients: datatypes.JSON(raw),
	}
	if err := db.Create(&meal).Error; err != nil {
		t.Fatalf("Create meal failed: %v", err)
	}
	return meal
}

// waitEvent reads the next event from c or fails after a short timeout.
func waitEvent(t *testing.T, c *Conn) Event {
	t.Helper()

	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatalf("connection %s closed while waiting for an event", c.ID)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for an event on %s", c.ID)
	}
	return Event{}
}

func assertNoEvent(t *testing.T, c *Conn) {
	t.Helper()

	select {
	case ev, ok := <-c.Events():
		if ok {
			t.Errorf("connection %s got unexpected %s event", c.ID, ev.Type)
		}
	default:
	}
}

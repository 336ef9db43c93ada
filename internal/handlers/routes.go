package handlers

import (
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authMiddleware "mealshare_echo/internal/middleware"
	"mealshare_echo/internal/shopping"
)

// Deps are what the HTTP surface needs. Verifier and Issuer may be nil when
// Firebase is not configured; protected routes then answer 503.
type Deps struct {
	DB           *gorm.DB
	Service      *shopping.Service
	Verifier     authMiddleware.TokenVerifier
	Issuer       SessionIssuer
	SecureCookie bool
	Heartbeat    time.Duration
}

// RegisterRoutes mounts every endpoint on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	authHandler := NewAuthHandler(d.Issuer, d.SecureCookie)
	planHandler := NewPlanHandler(d.DB, d.Service)
	mealHandler := NewMealHandler(d.DB, d.Service)
	shoppingHandler := NewShoppingHandler(d.Service, d.Heartbeat)

	// Public routes
	e.GET("/healthz", Healthz(d.DB))
	e.POST("/auth/login", authHandler.HandleLogin)
	e.POST("/auth/logout", authHandler.HandleLogout)

	// Protected routes
	api := e.Group("/api")
	api.Use(authMiddleware.RequireAuth(d.Verifier))

	// Plan routes
	api.POST("/plans", planHandler.CreatePlan)
	api.GET("/plans/:id", planHandler.GetPlan)
	api.DELETE("/plans/:id", planHandler.DeletePlan)
	api.POST("/plans/:id/contributors", planHandler.AddContributor)

	// Meal routes
	api.POST("/plans/:id/meals", mealHandler.CreateMeal)
	api.PUT("/plans/:id/meals/:mealId", mealHandler.UpdateMeal)
	api.DELETE("/plans/:id/meals/:mealId", mealHandler.DeleteMeal)

	// Shopping list routes
	api.GET("/plans/:id/shopping-list", shoppingHandler.GetShoppingList)
	api.POST("/plans/:id/shopping-list/recalculate", shoppingHandler.Recalculate)
	api.GET("/plans/:id/shopping-list/items", shoppingHandler.CheckedItems)
	api.POST("/plans/:id/shopping-list/items/toggle", shoppingHandler.ToggleItem)
	api.GET("/plans/:id/shopping-list/stream", shoppingHandler.Stream)
}

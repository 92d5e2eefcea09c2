package server

import (
	"github.com/labstack/echo/v4"

	"example.com/flow-budget/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	itemHandler *handlers.BudgetItemHandler,
	notificationHandler *handlers.NotificationHandler,
	mutationRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/events", notificationHandler.Stream)

	items := e.Group("/budgetItem")
	items.GET("", itemHandler.List)
	items.GET("/export", itemHandler.Export)
	items.GET("/:id", itemHandler.Get)
	items.POST("", itemHandler.Create, mutationRateLimiter)
	items.PUT("/:id", itemHandler.Update, mutationRateLimiter)
	items.DELETE("/:id", itemHandler.Delete, mutationRateLimiter)

	// Без идентификатора PUT и DELETE отвечают 400, а не 405.
	items.PUT("", itemHandler.Update)
	items.DELETE("", itemHandler.Delete)
}

package controllers

import (
	"context"
	"time"

	"ieltsprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// Health reports whether the database is reachable.
func (hc *HealthController) Health(c *fiber.Ctx) error {
	sqlDB, err := hc.DB.DB()
	if err != nil {
		return utils.NewInfrastructureError("Database unavailable", err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return utils.NewInfrastructureError("Database unavailable", err)
	}

	return utils.OK(c, "Service is healthy", fiber.Map{
		"status":   "ok",
		"database": "up",
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	appMode string
	pingDB  func() error
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(appMode string, pingDB func() error) *HealthHandler {
	return &HealthHandler{appMode: appMode, pingDB: pingDB}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "🚀 Passport Renewal API v1 is running",
		"mode":    h.appMode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	if h.pingDB != nil {
		if err := h.pingDB(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"checks": fiber.Map{
					"api":      "healthy",
					"database": "unhealthy",
				},
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":      "healthy",
			"database": "healthy",
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Description Includes the caller's identity when a valid token is sent
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	info := fiber.Map{
		"message": "Passport Renewal API v1",
		"version": "1.0.0",
	}
	if userID, ok := c.Locals("userID").(string); ok {
		role, _ := c.Locals("role").(string)
		info["viewer"] = fiber.Map{"user_id": userID, "role": role}
	}
	return c.JSON(info)
}

package handlers

import (
	"framecraft/internal/core/services"
	"framecraft/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler serves the role landing page summaries
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary returns measurement counts for the caller's dashboard
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	data, err := h.service.GetSummary(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}

	return response.Success(c, "", data)
}

package handlers

import (
	"errors"
	"strconv"

	"framecraft/internal/core/services"
	"framecraft/internal/pkg/pagination"
	"framecraft/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MeasurementHandler handles measurement lifecycle endpoints
type MeasurementHandler struct {
	service *services.MeasurementService
}

// NewMeasurementHandler creates a new measurement handler
func NewMeasurementHandler(service *services.MeasurementService) *MeasurementHandler {
	return &MeasurementHandler{service: service}
}

// ReasonRequest carries the mandatory reason for reject/delete
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// List lists active measurements
func (h *MeasurementHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	measurements, total, err := h.service.ListActive(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list measurements")
	}

	return response.Success(c, "", fiber.Map{
		"measurements": measurements,
		"pagination":   pagination.BuildMeta(params, total),
	})
}

// ListDeleted lists soft-deleted measurements
func (h *MeasurementHandler) ListDeleted(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	measurements, total, err := h.service.ListDeleted(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list deleted measurements")
	}

	return response.Success(c, "", fiber.Map{
		"measurements": measurements,
		"pagination":   pagination.BuildMeta(params, total),
	})
}

// Get returns one measurement by ID
func (h *MeasurementHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid measurement ID")
	}

	m, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrMeasurementNotFound) {
			return response.NotFound(c, "Measurement not found")
		}
		return response.InternalServerError(c, "Failed to get measurement")
	}

	return response.Success(c, "", m)
}

// Create captures a new measurement
func (h *MeasurementHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateMeasurementInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	m, err := h.service.Create(c.Context(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidType):
			return response.BadRequest(c, "Invalid measurement type")
		default:
			return response.BadRequest(c, "Invalid measurement data")
		}
	}

	return response.Created(c, "Measurement captured", m)
}

// Update edits a pending measurement
func (h *MeasurementHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid measurement ID")
	}

	var input services.UpdateMeasurementInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	m, err := h.service.Update(c.Context(), id, &input)
	if err != nil {
		return h.lifecycleError(c, err, "Failed to update measurement")
	}

	return response.Success(c, "Measurement updated", m)
}

// Approve transitions a pending measurement to approved
func (h *MeasurementHandler) Approve(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid measurement ID")
	}

	m, err := h.service.Approve(c.Context(), id, userID)
	if err != nil {
		return h.lifecycleError(c, err, "Failed to approve measurement")
	}

	return response.Success(c, "Measurement approved", m)
}

// Reject transitions a pending measurement to rejected
func (h *MeasurementHandler) Reject(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid measurement ID")
	}

	var req ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	m, err := h.service.Reject(c.Context(), id, userID, req.Reason)
	if err != nil {
		return h.lifecycleError(c, err, "Failed to reject measurement")
	}

	return response.Success(c, "Measurement rejected", m)
}

// Delete soft-deletes a measurement
func (h *MeasurementHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid measurement ID")
	}

	var req ReasonRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	m, err := h.service.Delete(c.Context(), id, req.Reason)
	if err != nil {
		return h.lifecycleError(c, err, "Failed to delete measurement")
	}

	return response.Success(c, "Measurement deleted", m)
}

// Recover restores a soft-deleted measurement
func (h *MeasurementHandler) Recover(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid measurement ID")
	}

	m, err := h.service.Recover(c.Context(), id)
	if err != nil {
		return h.lifecycleError(c, err, "Failed to recover measurement")
	}

	return response.Success(c, "Measurement recovered", m)
}

// lifecycleError maps service errors onto the response envelope
func (h *MeasurementHandler) lifecycleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrMeasurementNotFound):
		return response.NotFound(c, "Measurement not found")
	case errors.Is(err, services.ErrReasonRequired):
		return response.BadRequest(c, "A non-empty reason is required")
	case errors.Is(err, services.ErrNotPendingApproval):
		return response.Conflict(c, "Measurement is not pending approval")
	case errors.Is(err, services.ErrAlreadyDeleted):
		return response.Conflict(c, "Measurement is deleted")
	case errors.Is(err, services.ErrNotDeleted):
		return response.Conflict(c, "Measurement is not deleted")
	case errors.Is(err, services.ErrEditApprovedRecord):
		return response.Conflict(c, "Only pending measurements can be edited")
	default:
		return response.InternalServerError(c, fallback)
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

package handlers

import (
	"errors"
	"strings"

	"passport-portal/internal/core/domain"
	"passport-portal/internal/core/services"
	"passport-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	notificationService *services.NotificationService
	renewalService      *services.RenewalService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService, renewalService *services.RenewalService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		renewalService:      renewalService,
	}
}

// StatusEmailRequest is the body of a status email request.
// Only the renewal id is trusted; content comes from the stored record.
type StatusEmailRequest struct {
	Renewal        *domain.RenewalRequest `json:"renewal"`
	RecipientEmail string                 `json:"recipient_email"`
}

// SendRenewalStatus emails the applicant about a renewal's current status
// @Summary Send status email
// @Description Email the applicant about the renewal's current review status (Admin only)
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StatusEmailRequest true "Renewal and recipient"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /notifications/renewal-status [post]
func (h *NotificationHandler) SendRenewalStatus(c *fiber.Ctx) error {
	viewer, ok := viewerFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req StatusEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Renewal == nil || req.Renewal.ID == "" {
		return response.BadRequest(c, "Renewal id is required")
	}

	renewal, err := h.renewalService.Get(c.Context(), viewer, req.Renewal.ID)
	if err != nil {
		return renewalError(c, err)
	}

	recipient := strings.TrimSpace(req.RecipientEmail)
	if recipient == "" {
		recipient = renewal.ApplicantEmail
	}

	if err := h.notificationService.SendRenewalStatus(c.Context(), renewal, recipient); err != nil {
		if errors.Is(err, services.ErrInvalidRecipient) {
			return response.BadRequest(c, "Recipient email is not valid")
		}
		return response.ServiceUnavailable(c, "Email could not be sent")
	}

	return response.Success(c, "Status email sent", nil)
}

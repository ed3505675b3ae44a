package handlers

import (
	"errors"
	"strings"

	"passport-portal/internal/adapters/persistence/repositories"
	"passport-portal/internal/core/domain"
	"passport-portal/internal/core/services"
	"passport-portal/internal/pkg/pagination"
	"passport-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RenewalHandler handles renewal endpoints
type RenewalHandler struct {
	renewalService  *services.RenewalService
	documentService *services.DocumentService
}

// NewRenewalHandler creates a new renewal handler
func NewRenewalHandler(renewalService *services.RenewalService, documentService *services.DocumentService) *RenewalHandler {
	return &RenewalHandler{
		renewalService:  renewalService,
		documentService: documentService,
	}
}

// getClientIP gets client IP address
func getClientIP(c *fiber.Ctx) string {
	ip := c.Get("X-Real-IP")
	if ip == "" {
		ip = strings.TrimSpace(strings.Split(c.Get("X-Forwarded-For"), ",")[0])
	}
	if ip == "" {
		ip = c.IP()
	}
	return ip
}

// viewerFrom builds the service caller from auth middleware locals
func viewerFrom(c *fiber.Ctx) (services.Viewer, bool) {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return services.Viewer{}, false
	}
	email, _ := c.Locals("email").(string)
	role, _ := c.Locals("role").(string)
	return services.Viewer{
		UserID: userID,
		Email:  email,
		Role:   role,
		IP:     getClientIP(c),
	}, true
}

// List lists renewals for review
// @Summary List renewals
// @Description List renewal requests with filters (Admin only)
// @Tags Renewals
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, VERIFIED or REJECTED"
// @Param search query string false "Name, NIC, passport number or email"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /renewals [get]
func (h *RenewalHandler) List(c *fiber.Ctx) error {
	q := repositories.RenewalQuery{
		Status: strings.TrimSpace(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
	}

	page, err := h.renewalService.List(c.Context(), q, pagination.GetParams(c))
	if err != nil {
		return renewalError(c, err)
	}
	return response.Success(c, "Renewals retrieved successfully", page)
}

// Mine lists the caller's own renewals
// @Summary My renewals
// @Tags Renewals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /renewals/my [get]
func (h *RenewalHandler) Mine(c *fiber.Ctx) error {
	viewer, ok := viewerFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	page, err := h.renewalService.ListMine(c.Context(), viewer, pagination.GetParams(c))
	if err != nil {
		return renewalError(c, err)
	}
	return response.Success(c, "Renewals retrieved successfully", page)
}

// Create submits a new renewal request
// @Summary Submit renewal
// @Description Submit a passport renewal request; it starts as PENDING
// @Tags Renewals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.RenewalSubmission true "Renewal data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /renewals [post]
func (h *RenewalHandler) Create(c *fiber.Ctx) error {
	viewer, ok := viewerFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req domain.RenewalSubmission
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	renewal, err := h.renewalService.Submit(c.Context(), viewer, req)
	if err != nil {
		return renewalError(c, err)
	}
	return response.Created(c, "Renewal submitted successfully", fiber.Map{
		"renewal": renewal,
	})
}

// Get returns one renewal
// @Summary Get renewal
// @Tags Renewals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Renewal ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /renewals/{id} [get]
func (h *RenewalHandler) Get(c *fiber.Ctx) error {
	viewer, ok := viewerFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	renewal, err := h.renewalService.Get(c.Context(), viewer, c.Params("id"))
	if err != nil {
		return renewalError(c, err)
	}
	return response.Success(c, "Renewal retrieved successfully", fiber.Map{
		"renewal": renewal,
	})
}

// Update applies a review decision
// @Summary Review renewal
// @Description Set the review status (Admin only). REJECTED requires rejection_reason.
// @Tags Renewals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Renewal ID"
// @Param body body domain.RenewalUpdate true "Review decision"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /renewals/{id} [patch]
func (h *RenewalHandler) Update(c *fiber.Ctx) error {
	viewer, ok := viewerFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req domain.RenewalUpdate
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.Status = domain.RenewalStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))

	renewal, err := h.renewalService.UpdateStatus(c.Context(), viewer, c.Params("id"), req)
	if err != nil {
		return renewalError(c, err)
	}
	return response.Success(c, "Renewal updated successfully", fiber.Map{
		"renewal": renewal,
	})
}

// History returns the audit trail of a renewal
// @Summary Renewal history
// @Tags Renewals
// @Produce json
// @Security BearerAuth
// @Param id path string true "Renewal ID"
// @Success 200 {object} response.Response
// @Router /renewals/{id}/history [get]
func (h *RenewalHandler) History(c *fiber.Ctx) error {
	viewer, ok := viewerFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	entries, err := h.renewalService.History(c.Context(), viewer, c.Params("id"))
	if err != nil {
		return renewalError(c, err)
	}
	return response.Success(c, "History retrieved successfully", fiber.Map{
		"history": entries,
	})
}

// UploadDocument stores one document for a renewal
// @Summary Upload document
// @Tags Renewals
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Renewal ID"
// @Param document_type formData string true "current-passport, nic-front, nic-back, birth-certificate, passport-photo or additional-documents"
// @Param file formData file true "JPEG, PNG or PDF"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 413 {object} response.Response
// @Router /renewals/{id}/documents [post]
func (h *RenewalHandler) UploadDocument(c *fiber.Ctx) error {
	viewer, ok := viewerFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "File is required")
	}
	file, err := fh.Open()
	if err != nil {
		return response.BadRequest(c, "Could not read file")
	}
	defer file.Close()

	doc, err := h.documentService.Store(c.Context(), viewer, services.DocumentInput{
		RenewalID:    c.Params("id"),
		DocumentType: c.FormValue("document_type"),
		FileName:     fh.Filename,
		Content:      file,
	})
	if err != nil {
		return renewalError(c, err)
	}
	return response.Created(c, "Document uploaded successfully", fiber.Map{
		"document_type": doc.DocumentType,
		"url":           doc.URL,
	})
}

// renewalError maps service errors to responses
func renewalError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return response.Conflict(c, "Status change not allowed from the current status")
	case errors.As(err, &verr):
		return response.Invalid(c, verr.Field, verr.Reason.Error())
	case errors.Is(err, domain.ErrRenewalNotFound):
		return response.NotFound(c, "Renewal not found")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "You don't have permission to access this renewal")
	case errors.Is(err, domain.ErrConflict):
		return response.Conflict(c, "Renewal was changed by someone else, reload and try again")
	case errors.Is(err, services.ErrEmptyFile), errors.Is(err, services.ErrUnsupportedFileType):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		return response.PayloadTooLarge(c, err.Error())
	default:
		return response.InternalServerError(c, "Failed to process renewal")
	}
}

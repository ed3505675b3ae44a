package handlers

import (
	"errors"
	"strings"
	"time"

	"passport-portal/internal/config"
	"passport-portal/internal/core/services"
	"passport-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest lets non-browser clients send the refresh token in the body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles user registration
// @Summary Register applicant
// @Description Create an applicant account and sign it in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	switch {
	case strings.TrimSpace(req.Email) == "":
		return response.Invalid(c, "email", "is required")
	case strings.TrimSpace(req.FullName) == "":
		return response.Invalid(c, "full_name", "is required")
	case req.Password == "":
		return response.Invalid(c, "password", "is required")
	}

	result, err := h.authService.Register(c.Context(), &services.RegisterInput{
		Email:    strings.TrimSpace(req.Email),
		FullName: strings.TrimSpace(req.FullName),
		Password: req.Password,
	})
	if err != nil {
		return h.authError(c, err, "Failed to register user")
	}

	h.setAuthCookies(c, result)
	return response.Created(c, "User registered successfully", authPayload(result))
}

// Login handles user login
// @Summary Login
// @Description Exchange email and password for an access token. The token's role claim selects the portal landing page.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		return h.authError(c, err, "Failed to login")
	}

	h.setAuthCookies(c, result)
	return response.Success(c, "Login successful", authPayload(result))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotate the refresh token (cookie or body) and issue a new access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.Context(), refreshToken)
	if err != nil {
		if !errors.Is(err, services.ErrUserNotFound) {
			h.clearAuthCookies(c)
		}
		return h.authError(c, err, "Failed to refresh token")
	}

	h.setAuthCookies(c, result)
	return response.Success(c, "Token refreshed successfully", authPayload(result))
}

// Logout handles user logout
// @Summary Logout
// @Description Revoke the refresh token and clear auth cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := h.refreshTokenFrom(c); refreshToken != "" {
		// unknown or already revoked tokens still log out
		_ = h.authService.Logout(c.Context(), refreshToken)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout from all devices
// @Description Revoke every refresh token of the caller
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.LogoutAll(c.Context(), userID); err != nil {
		return response.InternalServerError(c, "Failed to logout from all devices")
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the current user info
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return h.authError(c, err, "Failed to load user")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// authError maps auth service errors to responses
func (h *AuthHandler) authError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		return response.Invalid(c, "email", "is not a valid address")
	case errors.Is(err, services.ErrWeakPassword):
		return response.Invalid(c, "password", err.Error())
	case errors.Is(err, services.ErrUserAlreadyExists):
		return response.Conflict(c, "Email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, services.ErrTokenExpired):
		return response.Unauthorized(c, "Refresh token expired, please login again")
	case errors.Is(err, services.ErrTokenRevoked):
		return response.Unauthorized(c, "Refresh token revoked, please login again")
	case errors.Is(err, services.ErrInvalidToken):
		return response.Unauthorized(c, "Invalid refresh token")
	case errors.Is(err, services.ErrUserInactive):
		return response.Forbidden(c, "User account is inactive")
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	default:
		return response.InternalServerError(c, fallback)
	}
}

const refreshCookiePath = "/api/v1/auth"

func (h *AuthHandler) cookie(name, value, path string, maxAge int) *fiber.Cookie {
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	}
	if maxAge < 0 {
		ck.Expires = time.Now().Add(-time.Hour)
	}
	return ck
}

// setAuthCookies sets access and refresh token cookies.
// The refresh cookie is only sent to the auth routes.
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, result *services.AuthResponse) {
	c.Cookie(h.cookie("access_token", result.AccessToken, "/", h.cfg.JWT.AccessTokenMins*60))
	c.Cookie(h.cookie("refresh_token", result.RefreshToken, refreshCookiePath, h.cfg.JWT.RefreshTokenDays*24*60*60))
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(h.cookie("access_token", "", "/", -1))
	c.Cookie(h.cookie("refresh_token", "", refreshCookiePath, -1))
}

// refreshTokenFrom reads the refresh token from the cookie, then the JSON body
func (h *AuthHandler) refreshTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("refresh_token"); token != "" {
		return token
	}
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}

// authPayload is the data field of every token-issuing response.
// The refresh token is included for clients without cookies.
func authPayload(result *services.AuthResponse) fiber.Map {
	return fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_at":    result.ExpiresAt,
		"user":          result.User,
	}
}

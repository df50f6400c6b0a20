package handlers

import (
	"log"
	"time"

	"github.com/amirphl/dti-portal/app/dto"
	businessflow "github.com/amirphl/dti-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	InitCaptcha(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	Health(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authFlow  businessflow.AuthFlow
	validator *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authFlow businessflow.AuthFlow) *AuthHandler {
	return &AuthHandler{
		authFlow:  authFlow,
		validator: newValidator(),
	}
}

// Register handles business owner registration
// @Summary Register
// @Description Create a business owner account and send the first verification code
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterResponse} "Account created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Username or email already exists"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.authFlow.Register(createRequestContext(c, "/api/v1/auth/register"), &req, metadata)
	if err != nil {
		if businessflow.IsUsernameAlreadyExists(err) {
			return errorResponse(c, fiber.StatusConflict, "Username already exists", "USERNAME_EXISTS", nil)
		}
		if businessflow.IsEmailAlreadyExists(err) {
			return errorResponse(c, fiber.StatusConflict, "Email already exists", "EMAIL_EXISTS", nil)
		}

		log.Println("Register failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Registration failed", "REGISTER_FAILED", nil)
	}

	return successResponse(c, fiber.StatusCreated, result.Message, result)
}

// InitCaptcha issues a rotate captcha challenge for the login form
// @Summary Login captcha
// @Description Generate a rotate captcha challenge to be solved before login
// @Tags Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CaptchaInitResponse} "Challenge created"
// @Failure 503 {object} dto.APIResponse "Captcha disabled"
// @Router /api/v1/auth/captcha [get]
func (h *AuthHandler) InitCaptcha(c fiber.Ctx) error {
	result, err := h.authFlow.InitCaptcha(createRequestContext(c, "/api/v1/auth/captcha"))
	if err != nil {
		if businessflow.IsCaptchaNotAvailable(err) {
			return errorResponse(c, fiber.StatusServiceUnavailable, "Captcha is not enabled", "CAPTCHA_NOT_AVAILABLE", nil)
		}
		log.Println("Captcha init failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to create captcha", "CAPTCHA_INIT_FAILED", nil)
	}
	return successResponse(c, fiber.StatusOK, "Captcha generated", result)
}

// Login handles username/password login
// @Summary Login
// @Description Authenticate with username and password (and captcha when enabled)
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid captcha"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 403 {object} dto.APIResponse "Account inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.authFlow.Login(createRequestContext(c, "/api/v1/auth/login"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidCaptcha(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid captcha", "INVALID_CAPTCHA", nil)
		}
		// unknown usernames and wrong passwords look the same to the client
		if businessflow.IsAccountNotFound(err) || businessflow.IsIncorrectPassword(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", "INVALID_CREDENTIALS", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return errorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Login failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary Refresh session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.SessionDTO} "Session refreshed"
// @Failure 401 {object} dto.APIResponse "Invalid refresh token"
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := validateRequest(c, h.validator, &req); !ok {
		return err
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	session, err := h.authFlow.Refresh(createRequestContext(c, "/api/v1/auth/refresh"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidRefreshToken(err) || businessflow.IsAccountNotFound(err) || businessflow.IsAccountInactive(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", "INVALID_REFRESH_TOKEN", nil)
		}
		log.Println("Refresh failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to refresh session", "REFRESH_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Session refreshed", session)
}

// Logout revokes the current access token and the optional refresh token
// @Summary Logout
// @Tags Authentication
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	accessToken, ok := c.Locals("access_token").(string)
	if !ok || accessToken == "" {
		return errorResponse(c, fiber.StatusUnauthorized, "Access token not found in context", "MISSING_ACCESS_TOKEN", nil)
	}

	var req dto.LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}

	if err := h.authFlow.Logout(createRequestContext(c, "/api/v1/auth/logout"), accessToken, &req); err != nil {
		if businessflow.IsInvalidRefreshToken(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid refresh token", "INVALID_REFRESH_TOKEN", nil)
		}
		log.Println("Logout failed", err)
		return errorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}

	return successResponse(c, fiber.StatusOK, "Logged out", nil)
}

// Health handles health check requests
// @Summary Health Check
// @Description Check the health status of the API
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse "Service is healthy"
// @Router /api/v1/health [get]
func (h *AuthHandler) Health(c fiber.Ctx) error {
	return successResponse(c, fiber.StatusOK, "Service is healthy", fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "dti-portal",
	})
}

package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService ports.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService ports.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Verify credentials and return the user with a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.LoginResponse
// @Failure 401 {object} ports.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format", nil)
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("Username and password are required", err)
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.Warnw("Login failed", "username", req.Username, "ip", c.RealIP())
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, response)
}

// Check godoc
// @Summary Ensure an administrator exists
// @Description Creates the default administrator when the user list is empty
// @Tags auth
// @Produce json
// @Success 200 {object} ports.AuthCheckResponse
// @Router /auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	response, err := h.authService.Check(c.Request().Context())
	if err != nil {
		h.logger.Errorw("Auth check failed", "error", err)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, response)
}

// UserHandler handles user-related requests
type UserHandler struct {
	userService ports.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService ports.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} entities.User
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		h.logger.Errorw("List users failed", "error", err)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, users)
}

// CreateUser godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body ports.CreateUserRequest true "User data"
// @Success 201 {object} entities.User
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req ports.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format", nil)
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("All required fields must be provided", err)
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req)
	if err != nil {
		h.logger.Errorw("Create user failed", "error", err, "username", req.Username)
		return errorResponse(err)
	}

	return c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary Update a user
// @Description Fields left out keep their value; an empty password keeps the current one
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body ports.UpdateUserRequest true "Fields to change"
// @Success 200 {object} entities.User
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return badRequest("Invalid user ID", nil)
	}

	var req ports.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format", nil)
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("Validation failed", err)
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Errorw("Update user failed", "error", err, "user_id", userID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Description The last remaining user cannot be deleted
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return badRequest("Invalid user ID", nil)
	}

	if err := h.userService.DeleteUser(c.Request().Context(), userID); err != nil {
		h.logger.Errorw("Delete user failed", "error", err, "user_id", userID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "User deleted successfully"})
}

// Utility functions

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

package server

import (
	"encoding/json"
	"strings"

	"blog/internal/dto"
	"blog/internal/service"
	"blog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	LastName  string `json:"lastName"`
	FirstName string `json:"firstName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userEditRequest struct {
	LastName       string   `json:"lastName"`
	FirstName      string   `json:"firstName"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	ProfilePicture string   `json:"profilePicture"`
	Categories     []string `json:"categories"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} dto.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} dto.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, ok := parseUUID(c, "id", "user ID")
	if !ok {
		return nil
	}
	user, err := s.userService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body registerRequest true "Registration"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if !parseBody(c, &req) {
		return nil
	}
	token, err := s.userService.Register(c.UserContext(), service.RegisterInput{
		LastName:  req.LastName,
		FirstName: req.FirstName,
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TokenResponse{Token: token})
}

// Login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if !parseBody(c, &req) {
		return nil
	}
	token, err := s.userService.Login(c.UserContext(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TokenResponse{Token: token})
}

// Logout godoc
// @Summary Revoke the current token
// @Tags auth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	if err := s.userService.Logout(c.UserContext(), p); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateUser godoc
// @Summary Edit a user's profile
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body userEditRequest true "Profile"
// @Success 200 {object} dto.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	id, ok := parseUUID(c, "id", "user ID")
	if !ok {
		return nil
	}
	var req userEditRequest
	if !parseBody(c, &req) {
		return nil
	}
	user, err := s.userService.Update(c.UserContext(), id, service.UserEditInput{
		LastName:       req.LastName,
		FirstName:      req.FirstName,
		Username:       req.Username,
		Email:          req.Email,
		Role:           req.Role,
		ProfilePicture: req.ProfilePicture,
		Categories:     req.Categories,
	}, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// decodeRole accepts {"role":"ADMIN"} or a bare "ADMIN" JSON string.
func decodeRole(body []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, `"`) {
		var role string
		if err := json.Unmarshal([]byte(trimmed), &role); err != nil {
			return "", false
		}
		return role, true
	}
	var req roleRequest
	if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
		return "", false
	}
	return req.Role, true
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body roleRequest true "Role"
// @Success 200 {object} dto.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/role [put]
func (s *Server) UpdateUserRole(c *fiber.Ctx) error {
	id, ok := parseUUID(c, "id", "user ID")
	if !ok {
		return nil
	}
	raw, ok := decodeRole(c.Body())
	if !ok {
		return badRequest(c, "Invalid request body")
	}
	role, err := validation.RoleRequest(raw)
	if err != nil {
		return respondError(c, err)
	}
	user, err := s.userService.UpdateRole(c.UserContext(), id, role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser godoc
// @Summary Delete a user with their articles and comments
// @Tags users
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, ok := parseUUID(c, "id", "user ID")
	if !ok {
		return nil
	}
	if err := s.userService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadProfilePicture godoc
// @Summary Upload a profile picture
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "User ID"
// @Param file formData file true "Picture"
// @Success 200 {object} dto.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/upload-profile-picture [post]
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	p, ok := requirePrincipal(c)
	if !ok {
		return nil
	}
	id, ok := parseUUID(c, "id", "user ID")
	if !ok {
		return nil
	}
	up, done, ok := readUpload(c)
	if !ok {
		return nil
	}
	defer done()

	user, err := s.userService.UploadProfilePicture(c.UserContext(), id, up, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

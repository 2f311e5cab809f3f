package handlers

import (
	"errors"
	"strings"

	"github.com/daryl22/lsr-tracker/middleware"
	"github.com/daryl22/lsr-tracker/models"
	"github.com/daryl22/lsr-tracker/repositories"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandlers struct {
	userRepo *repositories.UserRepository
}

func NewAuthHandlers(userRepo *repositories.UserRepository) *AuthHandlers {
	return &AuthHandlers{userRepo: userRepo}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Gender   string `json:"gender"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates a new user account and logs it in
func (h *AuthHandlers) RegisterHandler(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return badRequest(c, "a valid email is required")
	}
	if len(req.Password) < 6 {
		return badRequest(c, "password must be at least 6 characters")
	}
	if req.Gender != models.GenderMale && req.Gender != models.GenderFemale {
		return badRequest(c, "gender must be male or female")
	}

	exists, err := h.userRepo.Exists(req.Email)
	if err != nil {
		return fail(c, err)
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"ok": false, "error": "an account with this email already exists",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Gender:       req.Gender,
	}
	if err := h.userRepo.Create(user); err != nil {
		return fail(c, err)
	}

	h.setSessionCookie(c, user)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "user": user})
}

// LoginHandler authenticates a user and starts a session
func (h *AuthHandlers) LoginHandler(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"ok": false, "error": "invalid email or password",
			})
		}
		return fail(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"ok": false, "error": "invalid email or password",
		})
	}

	h.setSessionCookie(c, user)
	return c.JSON(fiber.Map{"ok": true, "user": user})
}

// LogoutHandler ends the session
func (h *AuthHandlers) LogoutHandler(c *fiber.Ctx) error {
	token := c.Cookies("session_token")
	if token != "" {
		middleware.DeleteSession(token)
	}

	c.ClearCookie("session_token")
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AuthHandlers) setSessionCookie(c *fiber.Ctx, user *models.User) {
	token := middleware.CreateSession(user.ID, user.Email, user.IsAdmin)
	c.Cookie(&fiber.Cookie{
		Name:     "session_token",
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		MaxAge:   86400, // 24 hours
	})
}

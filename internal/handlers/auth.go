package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/shesafe/internal/apperrors"
	"github.com/yourorg/shesafe/internal/auth"
	"github.com/yourorg/shesafe/internal/models"
	"github.com/yourorg/shesafe/internal/store"
)

type AuthHandler struct {
	users  *store.Users
	tokens *auth.TokenManager
}

func NewAuthHandler(users *store.Users, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "invalid json",
		})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Username == "" || req.Email == "" {
		return fail(c, apperrors.Validation("username and email required"))
	}
	if !strings.Contains(req.Email, "@") {
		return fail(c, apperrors.Validation("invalid email"))
	}
	if req.Password == "" {
		return fail(c, apperrors.Validation("password required"))
	}
	if req.Name == "" {
		req.Name = req.Username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fail(c, apperrors.Transient(err))
	}

	userID, err := h.users.Create(&models.User{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	})
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   "already_resolved",
				"message": "username or email already exists",
			})
		}
		return fail(c, apperrors.Transient(err))
	}

	token, expiresAt, err := h.tokens.Issue(userID, req.Username)
	if err != nil {
		return fail(c, apperrors.Transient(err))
	}

	log.Printf("✅ Usuario registrado: id=%d, username=%s", userID, req.Username)

	c.Set("Cache-Control", "no-store")
	return c.Status(fiber.StatusCreated).JSON(models.LoginResponse{
		Success: true,
		Token:   token,
		User: models.UserDTO{
			ID:       userID,
			Username: req.Username,
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
		},
		ExpiresAt: expiresAt,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "validation_error",
			"message": "invalid json",
		})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || strings.TrimSpace(req.Password) == "" {
		return fail(c, apperrors.Validation("username and password required"))
	}

	user, err := h.users.GetByUsername(req.Username)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return fail(c, apperrors.Unauthenticated("invalid credentials"))
		}
		return fail(c, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return fail(c, apperrors.Unauthenticated("invalid credentials"))
	}

	token, expiresAt, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return fail(c, apperrors.Transient(err))
	}

	c.Set("Cache-Control", "no-store")
	return c.JSON(models.LoginResponse{
		Success: true,
		Token:   token,
		User: models.UserDTO{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Email:    user.Email,
			Phone:    user.Phone,
		},
		ExpiresAt: expiresAt,
	})
}

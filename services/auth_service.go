package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"asl-holdem/models"
	"asl-holdem/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 14 * 24 * time.Hour
)

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

// Register creates an account keyed by phone number. A member QR code is
// generated and uploaded; a failed upload does not block signup.
// POST /auth/register
func (s *AuthService) Register(c *fiber.Ctx) error {
	var req struct {
		Phone    string `json:"phone" validate:"required,min=9,max=20"`
		Password string `json:"password" validate:"required,min=8"`
		Nickname string `json:"nickname" validate:"required"`
		Username string `json:"username"`
		Email    string `json:"email" validate:"omitempty,email"`
		Role     string `json:"role" validate:"omitempty,oneof=USER STORE_OWNER"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	var count int64
	s.DB.Model(&models.User{}).Where("phone = ?", req.Phone).Count(&count)
	if count > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "phone number already registered"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to hash password"})
	}

	role := models.UserRole(req.Role)
	if role == "" {
		role = models.RoleUser
	}

	user := models.User{
		ID:           uuid.NewString(),
		Phone:        req.Phone,
		Username:     req.Username,
		Nickname:     req.Nickname,
		PasswordHash: string(hash),
		Role:         role,
		Email:        req.Email,
		IsActive:     true,
		QRCodeUUID:   uuid.NewString(),
	}

	if png, err := utils.GenerateQRCode(user.QRCodeUUID, 256); err == nil {
		key := fmt.Sprintf("qrcodes/%s.png", user.QRCodeUUID)
		if url, err := utils.UploadBytesToR2(png, key, "image/png"); err == nil {
			user.QRCodeURL = url
		} else {
			log.Printf("[Auth] QR upload failed for %s: %v", user.Phone, err)
		}
	}

	if err := s.DB.Create(&user).Error; err != nil {
		log.Printf("[Auth] register failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create account"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "account created",
		"user":    user,
	})
}

// Login authenticates by phone + password and returns a token pair.
// POST /auth/login
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req struct {
		Phone    string `json:"phone" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	var user models.User
	if err := s.DB.First(&user, "phone = ?", req.Phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(401).JSON(fiber.Map{"error": "invalid phone or password"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if !user.IsActive {
		return c.Status(403).JSON(fiber.Map{"error": "account is deactivated"})
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid phone or password"})
	}

	access, err := utils.NewAccessToken(user.ID, string(user.Role), accessTokenTTL)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}
	refresh, err := utils.NewRefreshToken(user.ID, refreshTokenTTL)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}

	return c.JSON(fiber.Map{
		"tokens": utils.TokenPair{AccessToken: access, RefreshToken: refresh},
		"user":   user,
	})
}

// Refresh exchanges a valid refresh token for a new token pair.
// POST /auth/refresh
func (s *AuthService) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "invalid refresh token"})
	}
	if isRefresh, _ := claims["refresh"].(bool); !isRefresh {
		return c.Status(401).JSON(fiber.Map{"error": "not a refresh token"})
	}
	userID, _ := claims["sub"].(string)

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "account no longer exists"})
	}
	if !user.IsActive {
		return c.Status(403).JSON(fiber.Map{"error": "account is deactivated"})
	}

	access, err := utils.NewAccessToken(user.ID, string(user.Role), accessTokenTTL)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}
	refresh, err := utils.NewRefreshToken(user.ID, refreshTokenTTL)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}

	return c.JSON(utils.TokenPair{AccessToken: access, RefreshToken: refresh})
}

// Me returns the authenticated account.
// GET /auth/me
func (s *AuthService) Me(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}
	return c.JSON(user)
}

// UpdateMe patches profile fields on the authenticated account.
// PUT /auth/me
func (s *AuthService) UpdateMe(c *fiber.Ctx) error {
	user, err := currentUser(c, s.DB)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "authentication required"})
	}

	var req struct {
		Nickname    *string    `json:"nickname"`
		Username    *string    `json:"username"`
		Email       *string    `json:"email" validate:"omitempty,email"`
		BankAccount *string    `json:"bank_account"`
		BirthDate   *time.Time `json:"birth_date"`
		Gender      *string    `json:"gender" validate:"omitempty,oneof=M F"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "validation failed", "details": err.Error()})
	}

	if req.Nickname != nil {
		user.Nickname = *req.Nickname
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.BankAccount != nil {
		user.BankAccount = *req.BankAccount
	}
	if req.BirthDate != nil {
		user.BirthDate = req.BirthDate
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}

	if err := s.DB.Save(user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update profile"})
	}
	return c.JSON(user)
}

// LookupByQRCode resolves a member QR scan to the account it identifies.
// Store staff use this at the door to find who to grant or use tickets for.
// GET /auth/qr/:uuid
func (s *AuthService) LookupByQRCode(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.First(&user, "qr_code_uuid = ?", c.Params("uuid")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "no account for this QR code"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(fiber.Map{
		"id":       user.ID,
		"phone":    user.Phone,
		"nickname": user.Nickname,
		"role":     user.Role,
	})
}

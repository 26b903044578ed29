package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/config"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/services"
	"github.com/priyanshu85-coder/StudentFlatFinder/pkg/utils"
)

type userAccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type phoneVerifier interface {
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, phone, code string) (int, error)
	IsPhoneVerified(ctx context.Context, phone string) (bool, error)
	ConsumeVerification(ctx context.Context, phone string) error
}

type AuthHandler struct {
	userRepo userAccountStore
	otps     phoneVerifier
	cfg      *config.Config
}

func NewAuthHandler(userRepo userAccountStore, otps phoneVerifier, cfg *config.Config) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, otps: otps, cfg: cfg}
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	UserType    string `json:"user_type"`
	University  string `json:"university"`
	CompanyName string `json:"company_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name, email and a password of at least 6 characters are required"})
	}
	if req.UserType != models.UserTypeStudent && req.UserType != models.UserTypeBroker {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_type must be student or broker"})
	}

	phone, err := services.NormalizePhone(req.Phone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A valid 10-digit phone number is required"})
	}

	verified, err := h.otps.IsPhoneVerified(c.Context(), phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register"})
	}
	if !verified {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Phone number must be verified before registration"})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register"})
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        phone,
		UserType:     req.UserType,
	}
	if req.UserType == models.UserTypeStudent && strings.TrimSpace(req.University) != "" {
		university := strings.TrimSpace(req.University)
		user.University = &university
	}
	if req.UserType == models.UserTypeBroker && strings.TrimSpace(req.CompanyName) != "" {
		company := strings.TrimSpace(req.CompanyName)
		user.CompanyName = &company
	}

	if err := h.userRepo.CreateUser(c.Context(), user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email already registered"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register"})
	}

	// Registration already succeeded; stale OTP rows are harmless.
	_ = h.otps.ConsumeVerification(c.Context(), phone)

	token, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), user.UserType, h.cfg.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	user, err := h.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to login"})
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is deactivated. Contact support."})
	}

	token, err := utils.GenerateToken(strconv.FormatInt(user.ID, 10), user.UserType, h.cfg.JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to login"})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch user"})
	}

	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	code, err := h.otps.SendOTP(c.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A valid 10-digit phone number is required"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send OTP"})
	}

	resp := fiber.Map{"message": "OTP sent successfully"}
	if h.cfg.IsDevelopment() {
		resp["otp"] = code
	}
	return c.JSON(resp)
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	attemptsLeft, err := h.otps.VerifyOTP(c.Context(), req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Phone and OTP code are required"})
		case errors.Is(err, services.ErrOTPNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No OTP found for this number. Request a new one."})
		case errors.Is(err, services.ErrOTPExpired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "OTP expired. Request a new one."})
		case errors.Is(err, services.ErrTooManyAttempts):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Too many failed attempts. Request a new OTP."})
		case errors.Is(err, services.ErrOTPMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":         "Invalid OTP",
				"attempts_left": attemptsLeft,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify OTP"})
		}
	}

	return c.JSON(fiber.Map{"message": "Phone verified successfully"})
}

package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
)

type adminUserStore interface {
	List(ctx context.Context) ([]models.User, error)
	ToggleActive(ctx context.Context, id int64) (*models.User, error)
	Count(ctx context.Context) (int, error)
	CountByType(ctx context.Context, userType string) (int, error)
}

type adminPropertyStore interface {
	ListAll(ctx context.Context) ([]models.Property, error)
	ToggleActive(ctx context.Context, id int64) (*models.Property, error)
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
}

type contactCounter interface {
	Count(ctx context.Context) (int, error)
}

type AdminHandler struct {
	userRepo     adminUserStore
	propertyRepo adminPropertyStore
	contactRepo  contactCounter
}

func NewAdminHandler(userRepo adminUserStore, propertyRepo adminPropertyStore, contactRepo contactCounter) *AdminHandler {
	return &AdminHandler{
		userRepo:     userRepo,
		propertyRepo: propertyRepo,
		contactRepo:  contactRepo,
	}
}

func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	ctx := c.Context()
	var stats models.AdminStats
	var err error

	if stats.TotalUsers, err = h.userRepo.Count(ctx); err != nil {
		return statsError(c)
	}
	if stats.TotalStudents, err = h.userRepo.CountByType(ctx, models.UserTypeStudent); err != nil {
		return statsError(c)
	}
	if stats.TotalBrokers, err = h.userRepo.CountByType(ctx, models.UserTypeBroker); err != nil {
		return statsError(c)
	}
	if stats.TotalProperties, err = h.propertyRepo.Count(ctx); err != nil {
		return statsError(c)
	}
	if stats.ActiveProperties, err = h.propertyRepo.CountActive(ctx); err != nil {
		return statsError(c)
	}
	if stats.TotalContacts, err = h.contactRepo.Count(ctx); err != nil {
		return statsError(c)
	}

	return c.JSON(stats)
}

func statsError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch stats"})
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userRepo.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *AdminHandler) ToggleUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	user, err := h.userRepo.ToggleActive(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	message := "User deactivated successfully"
	if user.IsActive {
		message = "User activated successfully"
	}
	return c.JSON(fiber.Map{"message": message, "user": user})
}

func (h *AdminHandler) ListAllProperties(c *fiber.Ctx) error {
	properties, err := h.propertyRepo.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch properties"})
	}
	return c.JSON(fiber.Map{"properties": properties})
}

func (h *AdminHandler) ToggleProperty(c *fiber.Ctx) error {
	propertyID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || propertyID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property id"})
	}

	property, err := h.propertyRepo.ToggleActive(c.Context(), propertyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update property"})
	}

	message := "Property deactivated successfully"
	if property.IsActive {
		message = "Property activated successfully"
	}
	return c.JSON(fiber.Map{"message": message, "property": property})
}

package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/services"
)

type ratingApplicationService interface {
	UpsertRating(ctx context.Context, studentID, propertyID int64, input services.UpsertRatingInput) (*models.Rating, bool, error)
	ComputeAggregate(ctx context.Context, propertyID int64) (*models.RatingAggregate, error)
	GetStudentRating(ctx context.Context, studentID, propertyID int64) (*models.Rating, error)
	DeleteRating(ctx context.Context, ratingID, callerID int64, callerIsAdmin bool) error
}

type RatingHandler struct {
	service ratingApplicationService
}

func NewRatingHandler(service ratingApplicationService) *RatingHandler {
	return &RatingHandler{service: service}
}

type upsertRatingRequest struct {
	PropertyID int64                   `json:"property_id"`
	Rating     int                     `json:"rating"`
	Review     string                  `json:"review"`
	Categories models.RatingCategories `json:"categories"`
}

func (h *RatingHandler) UpsertRating(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can rate properties"})
	}

	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req upsertRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.PropertyID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Valid property ID and rating (1-5) are required"})
	}

	rating, created, err := h.service.UpsertRating(c.Context(), studentID, req.PropertyID, services.UpsertRatingInput{
		Rating:     req.Rating,
		Review:     req.Review,
		Categories: req.Categories,
	})
	if err != nil {
		return mapRatingError(c, err)
	}

	if created {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Rating added successfully",
			"rating":  rating,
		})
	}
	return c.JSON(fiber.Map{
		"message": "Rating updated successfully",
		"rating":  rating,
	})
}

func (h *RatingHandler) GetPropertyRatings(c *fiber.Ctx) error {
	propertyID, err := strconv.ParseInt(c.Params("propertyId"), 10, 64)
	if err != nil || propertyID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property id"})
	}

	aggregate, err := h.service.ComputeAggregate(c.Context(), propertyID)
	if err != nil {
		return mapRatingError(c, err)
	}

	return c.JSON(aggregate)
}

func (h *RatingHandler) GetStudentRating(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can access this endpoint"})
	}

	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	propertyID, err := strconv.ParseInt(c.Params("propertyId"), 10, 64)
	if err != nil || propertyID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid property id"})
	}

	rating, err := h.service.GetStudentRating(c.Context(), studentID, propertyID)
	if err != nil {
		return mapRatingError(c, err)
	}

	return c.JSON(fiber.Map{"rating": rating})
}

func (h *RatingHandler) DeleteRating(c *fiber.Ctx) error {
	callerID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	ratingID, err := strconv.ParseInt(c.Params("ratingId"), 10, 64)
	if err != nil || ratingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid rating id"})
	}

	if err := h.service.DeleteRating(c.Context(), ratingID, callerID, actorRole(c) == models.UserTypeAdmin); err != nil {
		return mapRatingError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Rating deleted successfully"})
}

func mapRatingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Valid property ID and rating (1-5) are required"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only delete your own ratings"})
	case errors.Is(err, services.ErrPropertyNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	case errors.Is(err, services.ErrRatingNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Rating not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process rating request"})
	}
}

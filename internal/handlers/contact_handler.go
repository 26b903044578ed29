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

type contactApplicationService interface {
	CreateContact(ctx context.Context, studentID, brokerID, propertyID int64, message string) (int64, error)
	AppendBrokerReply(ctx context.Context, contactID, brokerID int64, message string) (*models.BrokerReplySnapshot, error)
	AppendStudentReply(ctx context.Context, contactID, studentID int64, message string) (*models.StudentReplySnapshot, error)
	ListForStudent(ctx context.Context, studentID int64) ([]models.ContactDetail, error)
	ListForBroker(ctx context.Context, brokerID int64) ([]models.ContactDetail, error)
}

type ContactHandler struct {
	service contactApplicationService
}

func NewContactHandler(service contactApplicationService) *ContactHandler {
	return &ContactHandler{service: service}
}

type createContactRequest struct {
	BrokerID   int64  `json:"broker_id"`
	PropertyID int64  `json:"property_id"`
	Message    string `json:"message"`
}

type replyRequest struct {
	Message string `json:"message"`
}

func (h *ContactHandler) CreateContact(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can send contact requests"})
	}

	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	contactID, err := h.service.CreateContact(c.Context(), studentID, req.BrokerID, req.PropertyID, req.Message)
	if err != nil {
		return mapContactError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Contact request sent successfully",
		"contact_id": contactID,
	})
}

func (h *ContactHandler) ListStudentContacts(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can access this endpoint"})
	}

	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	contacts, err := h.service.ListForStudent(c.Context(), studentID)
	if err != nil {
		return mapContactError(c, err)
	}

	return c.JSON(fiber.Map{"contacts": contacts})
}

func (h *ContactHandler) ListBrokerContacts(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeBroker {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only brokers can access this endpoint"})
	}

	brokerID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	contacts, err := h.service.ListForBroker(c.Context(), brokerID)
	if err != nil {
		return mapContactError(c, err)
	}

	return c.JSON(fiber.Map{"contacts": contacts})
}

func (h *ContactHandler) BrokerReply(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeBroker {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only brokers can reply to contacts"})
	}

	brokerID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	contactID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || contactID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact id"})
	}

	var req replyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	snapshot, err := h.service.AppendBrokerReply(c.Context(), contactID, brokerID, req.Message)
	if err != nil {
		return mapContactError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Reply sent successfully",
		"contact": snapshot,
	})
}

func (h *ContactHandler) StudentReply(c *fiber.Ctx) error {
	if actorRole(c) != models.UserTypeStudent {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only students can send student replies"})
	}

	studentID, err := actorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	contactID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || contactID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact id"})
	}

	var req replyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	snapshot, err := h.service.AppendStudentReply(c.Context(), contactID, studentID, req.Message)
	if err != nil {
		return mapContactError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Reply sent successfully",
		"contact": snapshot,
	})
}

func mapContactError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only reply to your own contacts"})
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrPropertyNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invalid request data"})
	case errors.Is(err, services.ErrContactNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contact not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process contact request"})
	}
}

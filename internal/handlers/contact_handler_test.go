package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/services"
)

type stubContactService struct {
	createID       int64
	createErr      error
	brokerSnapshot *models.BrokerReplySnapshot
	brokerErr      error
	studentReply   *models.StudentReplySnapshot
	studentErr     error
	listResult     []models.ContactDetail
	listErr        error
	lastStudentID  int64
	lastBrokerID   int64
	lastPropertyID int64
	lastContactID  int64
	lastMessage    string
}

func (s *stubContactService) CreateContact(_ context.Context, studentID, brokerID, propertyID int64, message string) (int64, error) {
	s.lastStudentID = studentID
	s.lastBrokerID = brokerID
	s.lastPropertyID = propertyID
	s.lastMessage = message
	return s.createID, s.createErr
}

func (s *stubContactService) AppendBrokerReply(_ context.Context, contactID, brokerID int64, message string) (*models.BrokerReplySnapshot, error) {
	s.lastContactID = contactID
	s.lastBrokerID = brokerID
	s.lastMessage = message
	return s.brokerSnapshot, s.brokerErr
}

func (s *stubContactService) AppendStudentReply(_ context.Context, contactID, studentID int64, message string) (*models.StudentReplySnapshot, error) {
	s.lastContactID = contactID
	s.lastStudentID = studentID
	s.lastMessage = message
	return s.studentReply, s.studentErr
}

func (s *stubContactService) ListForStudent(_ context.Context, studentID int64) ([]models.ContactDetail, error) {
	s.lastStudentID = studentID
	return s.listResult, s.listErr
}

func (s *stubContactService) ListForBroker(_ context.Context, brokerID int64) ([]models.ContactDetail, error) {
	s.lastBrokerID = brokerID
	return s.listResult, s.listErr
}

func newContactTestApp(service *stubContactService, role, userID string) *fiber.App {
	handler := NewContactHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/contacts", handler.CreateContact)
	app.Get("/api/contacts/student", handler.ListStudentContacts)
	app.Get("/api/contacts/broker", handler.ListBrokerContacts)
	app.Post("/api/contacts/:id/reply", handler.BrokerReply)
	app.Post("/api/contacts/:id/student-reply", handler.StudentReply)
	return app
}

func TestCreateContactReturnsCreated(t *testing.T) {
	service := &stubContactService{createID: 55}
	app := newContactTestApp(service, models.UserTypeStudent, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{"broker_id":7,"property_id":9,"message":"Is it available?"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastStudentID != 42 || service.lastBrokerID != 7 || service.lastPropertyID != 9 {
		t.Fatalf("unexpected args: %d %d %d", service.lastStudentID, service.lastBrokerID, service.lastPropertyID)
	}

	var body struct {
		ContactID int64 `json:"contact_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.ContactID != 55 {
		t.Fatalf("expected contact_id 55, got %d", body.ContactID)
	}
}

func TestCreateContactRejectsBrokers(t *testing.T) {
	app := newContactTestApp(&stubContactService{}, models.UserTypeBroker, "7")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{"broker_id":7,"property_id":9,"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCreateContactMapsMissingProperty(t *testing.T) {
	service := &stubContactService{createErr: services.ErrPropertyNotFound}
	app := newContactTestApp(service, models.UserTypeStudent, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{"broker_id":7,"property_id":999,"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestBrokerReplyReturnsSnapshot(t *testing.T) {
	repliedAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	service := &stubContactService{
		brokerSnapshot: &models.BrokerReplySnapshot{
			ContactID:   12,
			BrokerReply: "Yes, come visit",
			RepliedAt:   repliedAt,
			Status:      models.ContactStatusResponded,
			Conversation: []models.ThreadMessage{
				{ID: 1, ContactID: 12, Sender: models.SenderStudent, Message: "Available?"},
				{ID: 2, ContactID: 12, Sender: models.SenderBroker, Message: "Yes, come visit"},
			},
		},
	}
	app := newContactTestApp(service, models.UserTypeBroker, "7")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts/12/reply", strings.NewReader(`{"message":"Yes, come visit"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastContactID != 12 || service.lastBrokerID != 7 {
		t.Fatalf("unexpected args: contact %d broker %d", service.lastContactID, service.lastBrokerID)
	}

	var body struct {
		Contact models.BrokerReplySnapshot `json:"contact"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Contact.Status != models.ContactStatusResponded {
		t.Fatalf("expected responded status, got %q", body.Contact.Status)
	}
	if len(body.Contact.Conversation) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Contact.Conversation))
	}
}

func TestBrokerReplyForbiddenForForeignThread(t *testing.T) {
	service := &stubContactService{brokerErr: services.ErrForbidden}
	app := newContactTestApp(service, models.UserTypeBroker, "99")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts/12/reply", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestStudentReplyRejectsEmptyMessage(t *testing.T) {
	service := &stubContactService{studentErr: services.ErrInvalidInput}
	app := newContactTestApp(service, models.UserTypeStudent, "42")

	req := httptest.NewRequest(http.MethodPost, "/api/contacts/12/student-reply", strings.NewReader(`{"message":"  "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListStudentContactsReturnsThreads(t *testing.T) {
	service := &stubContactService{
		listResult: []models.ContactDetail{
			{
				Contact:       models.Contact{ID: 5, StudentID: 42, BrokerID: 7, Status: models.ContactStatusPending},
				PropertyTitle: "Sunrise PG",
				Conversation: []models.ThreadMessage{
					{ID: 1, ContactID: 5, Sender: models.SenderStudent, Message: "hi"},
				},
			},
		},
	}
	app := newContactTestApp(service, models.UserTypeStudent, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/student", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStudentID != 42 {
		t.Fatalf("expected student 42, got %d", service.lastStudentID)
	}

	var body struct {
		Contacts []models.ContactDetail `json:"contacts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Contacts) != 1 || body.Contacts[0].PropertyTitle != "Sunrise PG" {
		t.Fatalf("unexpected contacts: %+v", body.Contacts)
	}
}

func TestListBrokerContactsRejectsStudents(t *testing.T) {
	app := newContactTestApp(&stubContactService{}, models.UserTypeStudent, "42")

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/broker", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

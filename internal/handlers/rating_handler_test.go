package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/services"
)

type stubRatingService struct {
	upsertResult   *models.Rating
	upsertCreated  bool
	upsertErr      error
	aggregate      *models.RatingAggregate
	aggregateErr   error
	studentRating  *models.Rating
	studentErr     error
	deleteErr      error
	lastStudentID  int64
	lastPropertyID int64
	lastRatingID   int64
	lastCallerID   int64
	lastAdmin      bool
	lastInput      services.UpsertRatingInput
}

func (s *stubRatingService) UpsertRating(_ context.Context, studentID, propertyID int64, input services.UpsertRatingInput) (*models.Rating, bool, error) {
	s.lastStudentID = studentID
	s.lastPropertyID = propertyID
	s.lastInput = input
	return s.upsertResult, s.upsertCreated, s.upsertErr
}

func (s *stubRatingService) ComputeAggregate(_ context.Context, propertyID int64) (*models.RatingAggregate, error) {
	s.lastPropertyID = propertyID
	return s.aggregate, s.aggregateErr
}

func (s *stubRatingService) GetStudentRating(_ context.Context, studentID, propertyID int64) (*models.Rating, error) {
	s.lastStudentID = studentID
	s.lastPropertyID = propertyID
	return s.studentRating, s.studentErr
}

func (s *stubRatingService) DeleteRating(_ context.Context, ratingID, callerID int64, callerIsAdmin bool) error {
	s.lastRatingID = ratingID
	s.lastCallerID = callerID
	s.lastAdmin = callerIsAdmin
	return s.deleteErr
}

func newRatingTestApp(service *stubRatingService, role, userID string) *fiber.App {
	handler := NewRatingHandler(service)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Post("/api/ratings", handler.UpsertRating)
	app.Get("/api/ratings/property/:propertyId", handler.GetPropertyRatings)
	app.Get("/api/ratings/property/:propertyId/student", handler.GetStudentRating)
	app.Delete("/api/ratings/:ratingId", handler.DeleteRating)
	return app
}

func TestUpsertRatingReturnsCreated(t *testing.T) {
	service := &stubRatingService{
		upsertResult:  &models.Rating{ID: 42, PropertyID: 9, StudentID: 3, Rating: 4},
		upsertCreated: true,
	}
	app := newRatingTestApp(service, models.UserTypeStudent, "3")

	req := httptest.NewRequest(http.MethodPost, "/api/ratings", strings.NewReader(`{"property_id":9,"rating":4,"review":"Nice place","categories":{"location":5}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastStudentID != 3 || service.lastPropertyID != 9 {
		t.Fatalf("unexpected args: %d %d", service.lastStudentID, service.lastPropertyID)
	}
	if service.lastInput.Categories.Location != 5 {
		t.Fatalf("expected location category 5, got %d", service.lastInput.Categories.Location)
	}
}

func TestUpsertRatingReturnsOKOnUpdate(t *testing.T) {
	service := &stubRatingService{
		upsertResult:  &models.Rating{ID: 42, PropertyID: 9, StudentID: 3, Rating: 5},
		upsertCreated: false,
	}
	app := newRatingTestApp(service, models.UserTypeStudent, "3")

	req := httptest.NewRequest(http.MethodPost, "/api/ratings", strings.NewReader(`{"property_id":9,"rating":5}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Message != "Rating updated successfully" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestUpsertRatingRejectsBrokers(t *testing.T) {
	app := newRatingTestApp(&stubRatingService{}, models.UserTypeBroker, "7")

	req := httptest.NewRequest(http.MethodPost, "/api/ratings", strings.NewReader(`{"property_id":9,"rating":4}`))
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

func TestUpsertRatingMapsInvalidInput(t *testing.T) {
	service := &stubRatingService{upsertErr: services.ErrInvalidInput}
	app := newRatingTestApp(service, models.UserTypeStudent, "3")

	req := httptest.NewRequest(http.MethodPost, "/api/ratings", strings.NewReader(`{"property_id":9,"rating":7}`))
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

func TestGetPropertyRatingsReturnsAggregate(t *testing.T) {
	service := &stubRatingService{
		aggregate: &models.RatingAggregate{
			Ratings:       []models.Rating{{ID: 1, Rating: 4}},
			AverageRating: 4.0,
			TotalRatings:  1,
			CategoryAverages: map[string]float64{
				"location":         5,
				"cleanliness":      0,
				"amenities":        0,
				"valueForMoney":    0,
				"landlordResponse": 0,
			},
		},
	}
	app := newRatingTestApp(service, "", "")

	req := httptest.NewRequest(http.MethodGet, "/api/ratings/property/9", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastPropertyID != 9 {
		t.Fatalf("expected property 9, got %d", service.lastPropertyID)
	}

	var body models.RatingAggregate
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.AverageRating != 4.0 || body.TotalRatings != 1 {
		t.Fatalf("unexpected aggregate: %+v", body)
	}
	if body.CategoryAverages["location"] != 5 {
		t.Fatalf("expected location 5, got %v", body.CategoryAverages["location"])
	}
}

func TestGetStudentRatingReturnsNullWhenUnrated(t *testing.T) {
	app := newRatingTestApp(&stubRatingService{}, models.UserTypeStudent, "3")

	req := httptest.NewRequest(http.MethodGet, "/api/ratings/property/9/student", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Rating *models.Rating `json:"rating"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Rating != nil {
		t.Fatalf("expected null rating, got %+v", body.Rating)
	}
}

func TestDeleteRatingPassesAdminFlag(t *testing.T) {
	service := &stubRatingService{}
	app := newRatingTestApp(service, models.UserTypeAdmin, "1")

	req := httptest.NewRequest(http.MethodDelete, "/api/ratings/42", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastRatingID != 42 || service.lastCallerID != 1 || !service.lastAdmin {
		t.Fatalf("unexpected delete args: %d %d admin=%v", service.lastRatingID, service.lastCallerID, service.lastAdmin)
	}
}

func TestDeleteRatingMapsForbidden(t *testing.T) {
	service := &stubRatingService{deleteErr: services.ErrForbidden}
	app := newRatingTestApp(service, models.UserTypeStudent, "99")

	req := httptest.NewRequest(http.MethodDelete, "/api/ratings/42", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/repository"
)

type stubRatingStore struct {
	ratings   map[int64]models.Rating
	byPair    map[[2]int64]models.Rating
	listed    []models.Rating
	upserted  *repository.UpsertRatingInput
	deletedID int64
}

func (s *stubRatingStore) Upsert(_ context.Context, input repository.UpsertRatingInput) (*models.Rating, error) {
	s.upserted = &input
	return &models.Rating{
		ID:         42,
		PropertyID: input.PropertyID,
		StudentID:  input.StudentID,
		Rating:     input.Rating,
		Review:     input.Review,
		Categories: input.Categories,
	}, nil
}

func (s *stubRatingStore) GetByID(_ context.Context, id int64) (*models.Rating, error) {
	rating, ok := s.ratings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rating, nil
}

func (s *stubRatingStore) GetByPropertyAndStudent(_ context.Context, propertyID, studentID int64) (*models.Rating, error) {
	rating, ok := s.byPair[[2]int64{propertyID, studentID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rating, nil
}

func (s *stubRatingStore) ListByProperty(_ context.Context, _ int64) ([]models.Rating, error) {
	return s.listed, nil
}

func (s *stubRatingStore) Delete(_ context.Context, id int64) error {
	s.deletedID = id
	return nil
}

type stubPropertyReader struct {
	properties map[int64]models.Property
}

func (s *stubPropertyReader) GetByID(_ context.Context, id int64) (*models.Property, error) {
	property, ok := s.properties[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &property, nil
}

type stubUserReader struct {
	users map[int64]models.User
}

func (s *stubUserReader) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func newRatingServiceForTest(store *stubRatingStore) *RatingService {
	return NewRatingService(
		store,
		&stubPropertyReader{properties: map[int64]models.Property{7: {ID: 7, Title: "Sunrise PG"}}},
		&stubUserReader{users: map[int64]models.User{3: {ID: 3, Name: "Asha"}}},
	)
}

func TestUpsertRatingCreatesWhenNoneExists(t *testing.T) {
	store := &stubRatingStore{byPair: map[[2]int64]models.Rating{}}
	service := newRatingServiceForTest(store)

	rating, created, err := service.UpsertRating(context.Background(), 3, 7, UpsertRatingInput{
		Rating: 4,
		Review: "Good location",
	})
	if err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}
	if !created {
		t.Fatal("expected rating to be reported as created")
	}
	if rating.StudentName != "Asha" {
		t.Fatalf("expected student name attached, got %q", rating.StudentName)
	}
	if store.upserted == nil || store.upserted.PropertyID != 7 || store.upserted.StudentID != 3 {
		t.Fatalf("unexpected upsert input: %+v", store.upserted)
	}
}

func TestUpsertRatingReportsUpdateForExistingPair(t *testing.T) {
	store := &stubRatingStore{byPair: map[[2]int64]models.Rating{
		{7, 3}: {ID: 42, PropertyID: 7, StudentID: 3, Rating: 2},
	}}
	service := newRatingServiceForTest(store)

	_, created, err := service.UpsertRating(context.Background(), 3, 7, UpsertRatingInput{Rating: 5})
	if err != nil {
		t.Fatalf("UpsertRating: %v", err)
	}
	if created {
		t.Fatal("expected rating to be reported as updated, not created")
	}
}

func TestUpsertRatingValidatesInput(t *testing.T) {
	store := &stubRatingStore{byPair: map[[2]int64]models.Rating{}}
	service := newRatingServiceForTest(store)

	cases := []struct {
		name  string
		input UpsertRatingInput
	}{
		{"rating too low", UpsertRatingInput{Rating: 0}},
		{"rating too high", UpsertRatingInput{Rating: 6}},
		{"category out of range", UpsertRatingInput{
			Rating:     4,
			Categories: models.RatingCategories{Location: 6},
		}},
	}

	for _, tc := range cases {
		if _, _, err := service.UpsertRating(context.Background(), 3, 7, tc.input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestUpsertRatingRequiresExistingProperty(t *testing.T) {
	store := &stubRatingStore{byPair: map[[2]int64]models.Rating{}}
	service := newRatingServiceForTest(store)

	_, _, err := service.UpsertRating(context.Background(), 3, 999, UpsertRatingInput{Rating: 4})
	if !errors.Is(err, ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestDeleteRatingOwnerAndAdminOnly(t *testing.T) {
	store := &stubRatingStore{ratings: map[int64]models.Rating{
		42: {ID: 42, PropertyID: 7, StudentID: 3},
	}}
	service := newRatingServiceForTest(store)

	if err := service.DeleteRating(context.Background(), 42, 99, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
	if store.deletedID != 0 {
		t.Fatal("forbidden delete must not reach the store")
	}

	if err := service.DeleteRating(context.Background(), 42, 3, false); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if store.deletedID != 42 {
		t.Fatalf("expected rating 42 deleted, got %d", store.deletedID)
	}

	store.deletedID = 0
	if err := service.DeleteRating(context.Background(), 42, 99, true); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if store.deletedID != 42 {
		t.Fatalf("expected admin delete of 42, got %d", store.deletedID)
	}
}

func TestDeleteRatingMissingRating(t *testing.T) {
	service := newRatingServiceForTest(&stubRatingStore{ratings: map[int64]models.Rating{}})

	if err := service.DeleteRating(context.Background(), 1, 3, false); !errors.Is(err, ErrRatingNotFound) {
		t.Fatalf("expected ErrRatingNotFound, got %v", err)
	}
}

func TestGetStudentRatingReturnsNilWhenUnrated(t *testing.T) {
	service := newRatingServiceForTest(&stubRatingStore{byPair: map[[2]int64]models.Rating{}})

	rating, err := service.GetStudentRating(context.Background(), 3, 7)
	if err != nil {
		t.Fatalf("GetStudentRating: %v", err)
	}
	if rating != nil {
		t.Fatalf("expected nil rating, got %+v", rating)
	}
}

func TestComputeAggregateEmpty(t *testing.T) {
	aggregate := computeAggregate(nil)

	if aggregate.TotalRatings != 0 || aggregate.AverageRating != 0 {
		t.Fatalf("expected zero aggregate, got %+v", aggregate)
	}
	if aggregate.Ratings == nil || len(aggregate.Ratings) != 0 {
		t.Fatalf("expected empty ratings slice, got %+v", aggregate.Ratings)
	}
	if len(aggregate.CategoryAverages) != 0 {
		t.Fatalf("expected empty category map, got %+v", aggregate.CategoryAverages)
	}
}

func TestComputeAggregateSingleRating(t *testing.T) {
	aggregate := computeAggregate([]models.Rating{
		{Rating: 4, Categories: models.RatingCategories{Location: 5}},
	})

	if aggregate.AverageRating != 4.0 {
		t.Fatalf("expected average 4.0, got %v", aggregate.AverageRating)
	}
	if aggregate.TotalRatings != 1 {
		t.Fatalf("expected 1 rating, got %d", aggregate.TotalRatings)
	}
	if got := aggregate.CategoryAverages["location"]; got != 5 {
		t.Fatalf("expected location average 5, got %v", got)
	}
	for _, name := range []string{"cleanliness", "amenities", "valueForMoney", "landlordResponse"} {
		if got, ok := aggregate.CategoryAverages[name]; !ok || got != 0 {
			t.Fatalf("expected %s average present and 0, got %v (present %v)", name, got, ok)
		}
	}
}

func TestComputeAggregateRoundsToOneDecimal(t *testing.T) {
	aggregate := computeAggregate([]models.Rating{
		{Rating: 5},
		{Rating: 4},
	})
	if aggregate.AverageRating != 4.5 {
		t.Fatalf("expected 4.5, got %v", aggregate.AverageRating)
	}

	aggregate = computeAggregate([]models.Rating{
		{Rating: 5},
		{Rating: 4},
		{Rating: 3},
	})
	if aggregate.AverageRating != 4.0 {
		t.Fatalf("expected 4.0, got %v", aggregate.AverageRating)
	}
}

func TestComputeAggregateSkipsUnratedCategories(t *testing.T) {
	aggregate := computeAggregate([]models.Rating{
		{Rating: 4, Categories: models.RatingCategories{Cleanliness: 4}},
		{Rating: 2, Categories: models.RatingCategories{Cleanliness: 2}},
		{Rating: 5},
	})

	// The third rating left cleanliness unscored, so only two contribute.
	if got := aggregate.CategoryAverages["cleanliness"]; got != 3 {
		t.Fatalf("expected cleanliness average 3, got %v", got)
	}
	if got := aggregate.CategoryAverages["amenities"]; got != 0 {
		t.Fatalf("expected amenities average 0, got %v", got)
	}
}

package services

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/repository"
)

type ratingStore interface {
	Upsert(ctx context.Context, input repository.UpsertRatingInput) (*models.Rating, error)
	GetByID(ctx context.Context, id int64) (*models.Rating, error)
	GetByPropertyAndStudent(ctx context.Context, propertyID, studentID int64) (*models.Rating, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]models.Rating, error)
	Delete(ctx context.Context, id int64) error
}

type propertyReader interface {
	GetByID(ctx context.Context, id int64) (*models.Property, error)
}

// RatingService upserts per-student ratings and derives a property's
// aggregate profile on read. Nothing aggregate is ever stored.
type RatingService struct {
	ratingRepo   ratingStore
	propertyRepo propertyReader
	userRepo     userReader
}

func NewRatingService(ratingRepo ratingStore, propertyRepo propertyReader, userRepo userReader) *RatingService {
	return &RatingService{
		ratingRepo:   ratingRepo,
		propertyRepo: propertyRepo,
		userRepo:     userRepo,
	}
}

type UpsertRatingInput struct {
	Rating     int
	Review     string
	Categories models.RatingCategories
}

const maxReviewLength = 500

// UpsertRating creates the student's rating for the property or replaces it
// in place. The bool result reports whether a new rating was created.
func (s *RatingService) UpsertRating(
	ctx context.Context,
	studentID int64,
	propertyID int64,
	input UpsertRatingInput,
) (*models.Rating, bool, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, false, ErrInvalidInput
	}
	if len(input.Review) > maxReviewLength {
		return nil, false, ErrInvalidInput
	}
	for _, score := range categoryScores(input.Categories) {
		if score < 0 || score > 5 {
			return nil, false, ErrInvalidInput
		}
	}

	if _, err := s.propertyRepo.GetByID(ctx, propertyID); err != nil {
		return nil, false, mapNotFound(err, ErrPropertyNotFound)
	}

	created := false
	if _, err := s.ratingRepo.GetByPropertyAndStudent(ctx, propertyID, studentID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, err
		}
		created = true
	}

	saved, err := s.ratingRepo.Upsert(ctx, repository.UpsertRatingInput{
		PropertyID: propertyID,
		StudentID:  studentID,
		Rating:     input.Rating,
		Review:     input.Review,
		Categories: input.Categories,
	})
	if err != nil {
		return nil, false, err
	}

	if rater, err := s.userRepo.GetByID(ctx, studentID); err == nil {
		saved.StudentName = rater.Name
	}

	return saved, created, nil
}

// ComputeAggregate loads the property's ratings (newest first) and derives
// the display aggregates.
func (s *RatingService) ComputeAggregate(ctx context.Context, propertyID int64) (*models.RatingAggregate, error) {
	ratings, err := s.ratingRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return computeAggregate(ratings), nil
}

// GetStudentRating returns the caller's own rating for the property, or nil
// when they have not rated it yet.
func (s *RatingService) GetStudentRating(ctx context.Context, studentID, propertyID int64) (*models.Rating, error) {
	rating, err := s.ratingRepo.GetByPropertyAndStudent(ctx, propertyID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rating, nil
}

// DeleteRating removes a rating for its owner or an admin. Aggregates are
// not recomputed; the next ComputeAggregate reflects the deletion.
func (s *RatingService) DeleteRating(ctx context.Context, ratingID, callerID int64, callerIsAdmin bool) error {
	rating, err := s.ratingRepo.GetByID(ctx, ratingID)
	if err != nil {
		return mapNotFound(err, ErrRatingNotFound)
	}
	if rating.StudentID != callerID && !callerIsAdmin {
		return ErrForbidden
	}
	return s.ratingRepo.Delete(ctx, ratingID)
}

var categoryNames = []string{"location", "cleanliness", "amenities", "valueForMoney", "landlordResponse"}

func categoryScores(c models.RatingCategories) map[string]int {
	return map[string]int{
		"location":         c.Location,
		"cleanliness":      c.Cleanliness,
		"amenities":        c.Amenities,
		"valueForMoney":    c.ValueForMoney,
		"landlordResponse": c.LandlordResponse,
	}
}

// computeAggregate averages the overall score across all ratings and each
// category across the ratings that actually scored it (zero means unrated
// and is skipped). With no ratings at all the category map stays empty;
// otherwise every category key is present, zero when nothing contributed.
func computeAggregate(ratings []models.Rating) *models.RatingAggregate {
	total := len(ratings)
	if total == 0 {
		return &models.RatingAggregate{
			Ratings:          []models.Rating{},
			AverageRating:    0,
			TotalRatings:     0,
			CategoryAverages: map[string]float64{},
		}
	}

	sum := 0
	for _, rating := range ratings {
		sum += rating.Rating
	}

	averages := make(map[string]float64, len(categoryNames))
	counts := make(map[string]int, len(categoryNames))
	for _, name := range categoryNames {
		averages[name] = 0
		counts[name] = 0
	}

	for _, rating := range ratings {
		for name, score := range categoryScores(rating.Categories) {
			if score > 0 {
				averages[name] += float64(score)
				counts[name]++
			}
		}
	}

	for _, name := range categoryNames {
		if counts[name] > 0 {
			averages[name] /= float64(counts[name])
		}
	}

	return &models.RatingAggregate{
		Ratings:          ratings,
		AverageRating:    roundToOneDecimal(float64(sum) / float64(total)),
		TotalRatings:     total,
		CategoryAverages: averages,
	}
}

// roundToOneDecimal rounds half away from zero, matching how the aggregate
// has always been displayed.
func roundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}

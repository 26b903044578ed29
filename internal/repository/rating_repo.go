package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
)

type RatingRepository struct {
	db DBTX
}

func NewRatingRepository(db DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

type UpsertRatingInput struct {
	PropertyID int64
	StudentID  int64
	Rating     int
	Review     string
	Categories models.RatingCategories
}

const ratingColumns = `r.id, r.property_id, r.student_id, r.rating, r.review,
		r.location, r.cleanliness, r.amenities, r.value_for_money, r.landlord_response, r.created_at`

func scanRating(row pgx.Row, dest ...any) (*models.Rating, error) {
	var rating models.Rating
	targets := []any{
		&rating.ID,
		&rating.PropertyID,
		&rating.StudentID,
		&rating.Rating,
		&rating.Review,
		&rating.Categories.Location,
		&rating.Categories.Cleanliness,
		&rating.Categories.Amenities,
		&rating.Categories.ValueForMoney,
		&rating.Categories.LandlordResponse,
		&rating.CreatedAt,
	}
	targets = append(targets, dest...)

	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return &rating, nil
}

// Upsert inserts the student's rating or replaces it in place. The unique
// (property_id, student_id) pair guarantees a single row per student;
// created_at is never touched on the update path.
func (r *RatingRepository) Upsert(ctx context.Context, input UpsertRatingInput) (*models.Rating, error) {
	query := `
		INSERT INTO ratings (
			property_id, student_id, rating, review,
			location, cleanliness, amenities, value_for_money, landlord_response
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (property_id, student_id)
		DO UPDATE SET
			rating = EXCLUDED.rating,
			review = EXCLUDED.review,
			location = EXCLUDED.location,
			cleanliness = EXCLUDED.cleanliness,
			amenities = EXCLUDED.amenities,
			value_for_money = EXCLUDED.value_for_money,
			landlord_response = EXCLUDED.landlord_response
		RETURNING id, property_id, student_id, rating, review,
			location, cleanliness, amenities, value_for_money, landlord_response, created_at
	`
	return scanRating(r.db.QueryRow(
		ctx,
		query,
		input.PropertyID,
		input.StudentID,
		input.Rating,
		input.Review,
		input.Categories.Location,
		input.Categories.Cleanliness,
		input.Categories.Amenities,
		input.Categories.ValueForMoney,
		input.Categories.LandlordResponse,
	))
}

func (r *RatingRepository) GetByID(ctx context.Context, id int64) (*models.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings r WHERE r.id = $1`
	return scanRating(r.db.QueryRow(ctx, query, id))
}

func (r *RatingRepository) GetByPropertyAndStudent(ctx context.Context, propertyID, studentID int64) (*models.Rating, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings r WHERE r.property_id = $1 AND r.student_id = $2`
	return scanRating(r.db.QueryRow(ctx, query, propertyID, studentID))
}

// ListByProperty returns every rating for the property newest first with the
// rater's display name joined in.
func (r *RatingRepository) ListByProperty(ctx context.Context, propertyID int64) ([]models.Rating, error) {
	query := `
		SELECT ` + ratingColumns + `, u.name
		FROM ratings r
		JOIN users u ON u.id = r.student_id
		WHERE r.property_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := r.db.Query(ctx, query, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var name string
		rating, err := scanRating(rows, &name)
		if err != nil {
			return nil, err
		}
		rating.StudentName = name
		ratings = append(ratings, *rating)
	}

	return ratings, rows.Err()
}

func (r *RatingRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	return err
}

func (r *RatingRepository) DeleteByProperty(ctx context.Context, propertyID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM ratings WHERE property_id = $1`, propertyID)
	return err
}

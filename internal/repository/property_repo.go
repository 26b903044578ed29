package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
)

type PropertyRepository struct {
	db DBTX
}

func NewPropertyRepository(db DBTX) *PropertyRepository {
	return &PropertyRepository{db: db}
}

type CreatePropertyInput struct {
	Title              string
	Description        string
	Address            string
	Price              int
	Bedrooms           int
	Bathrooms          int
	Area               int
	PropertyType       string
	Furnishing         string
	Amenities          []string
	NearbyUniversities []string
	Images             []string
	OwnerID            int64
}

type UpdatePropertyInput struct {
	Title              string
	Description        string
	Address            string
	Price              int
	Bedrooms           int
	Bathrooms          int
	Area               int
	PropertyType       string
	Furnishing         string
	Amenities          []string
	NearbyUniversities []string
	Images             []string
}

const propertyColumns = `p.id, p.title, p.description, p.address, p.price, p.bedrooms, p.bathrooms,
		p.area, p.property_type, p.furnishing, p.amenities, p.nearby_universities, p.images,
		p.owner_id, p.views, p.inquiries, p.is_active, p.created_at`

func withoutAlias(columns string) string {
	return strings.ReplaceAll(columns, "p.", "")
}

func scanProperty(row pgx.Row, withOwner bool) (*models.Property, error) {
	var property models.Property
	dest := []any{
		&property.ID,
		&property.Title,
		&property.Description,
		&property.Address,
		&property.Price,
		&property.Bedrooms,
		&property.Bathrooms,
		&property.Area,
		&property.PropertyType,
		&property.Furnishing,
		&property.Amenities,
		&property.NearbyUniversities,
		&property.Images,
		&property.OwnerID,
		&property.Views,
		&property.Inquiries,
		&property.IsActive,
		&property.CreatedAt,
	}

	var owner models.UserSummary
	if withOwner {
		dest = append(dest, &owner.ID, &owner.Name, &owner.Email, &owner.Phone)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if withOwner {
		property.Owner = &owner
	}

	return &property, nil
}

func (r *PropertyRepository) Create(ctx context.Context, input CreatePropertyInput) (*models.Property, error) {
	query := `
		INSERT INTO properties (
			title, description, address, price, bedrooms, bathrooms, area,
			property_type, furnishing, amenities, nearby_universities, images, owner_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + withoutAlias(propertyColumns)

	return scanProperty(r.db.QueryRow(
		ctx,
		query,
		input.Title,
		input.Description,
		input.Address,
		input.Price,
		input.Bedrooms,
		input.Bathrooms,
		input.Area,
		input.PropertyType,
		input.Furnishing,
		input.Amenities,
		input.NearbyUniversities,
		input.Images,
		input.OwnerID,
	), false)
}

func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `, u.id, u.name, u.email, u.phone
		FROM properties p
		JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1
	`
	return scanProperty(r.db.QueryRow(ctx, query, id), true)
}

func (r *PropertyRepository) ListActive(ctx context.Context, limit, offset int) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `, u.id, u.name, u.email, u.phone
		FROM properties p
		JOIN users u ON u.id = p.owner_id
		WHERE p.is_active = TRUE
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`
	return r.list(ctx, query, true, limit, offset)
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `
		FROM properties p
		WHERE p.owner_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`
	return r.list(ctx, query, false, ownerID)
}

func (r *PropertyRepository) ListAll(ctx context.Context) ([]models.Property, error) {
	query := `
		SELECT ` + propertyColumns + `, u.id, u.name, u.email, u.phone
		FROM properties p
		JOIN users u ON u.id = p.owner_id
		ORDER BY p.created_at DESC, p.id DESC
	`
	return r.list(ctx, query, true)
}

func (r *PropertyRepository) list(ctx context.Context, query string, withOwner bool, args ...any) ([]models.Property, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	properties := make([]models.Property, 0)
	for rows.Next() {
		property, err := scanProperty(rows, withOwner)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *property)
	}

	return properties, rows.Err()
}

func (r *PropertyRepository) Update(ctx context.Context, id int64, input UpdatePropertyInput) (*models.Property, error) {
	query := `
		UPDATE properties
		SET title = $2, description = $3, address = $4, price = $5, bedrooms = $6,
			bathrooms = $7, area = $8, property_type = $9, furnishing = $10,
			amenities = $11, nearby_universities = $12, images = $13
		WHERE id = $1
		RETURNING ` + withoutAlias(propertyColumns)

	return scanProperty(r.db.QueryRow(
		ctx,
		query,
		id,
		input.Title,
		input.Description,
		input.Address,
		input.Price,
		input.Bedrooms,
		input.Bathrooms,
		input.Area,
		input.PropertyType,
		input.Furnishing,
		input.Amenities,
		input.NearbyUniversities,
		input.Images,
	), false)
}

func (r *PropertyRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	return err
}

// IncrementViews bumps the detail-view counter in place so concurrent
// fetches never lose a count.
func (r *PropertyRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE properties SET views = views + 1 WHERE id = $1`, id)
	return err
}

func (r *PropertyRepository) IncrementInquiries(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE properties SET inquiries = inquiries + 1 WHERE id = $1`, id)
	return err
}

func (r *PropertyRepository) ToggleActive(ctx context.Context, id int64) (*models.Property, error) {
	query := `
		UPDATE properties
		SET is_active = NOT is_active
		WHERE id = $1
		RETURNING ` + withoutAlias(propertyColumns)
	return scanProperty(r.db.QueryRow(ctx, query, id), false)
}

func (r *PropertyRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count)
	return count, err
}

func (r *PropertyRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM properties WHERE is_active = TRUE`).Scan(&count)
	return count, err
}

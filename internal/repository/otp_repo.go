package repository

import (
	"context"
	"time"

	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
)

type OTPRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, phone, code string, expiresAt time.Time) (*models.OTP, error) {
	query := `
		INSERT INTO otps (phone, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, phone, code, expires_at, verified, attempts, created_at
	`

	var otp models.OTP
	err := r.db.QueryRow(ctx, query, phone, code, expiresAt).Scan(
		&otp.ID,
		&otp.Phone,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Verified,
		&otp.Attempts,
		&otp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &otp, nil
}

// GetPendingByPhone returns the newest unverified code for the phone.
func (r *OTPRepository) GetPendingByPhone(ctx context.Context, phone string) (*models.OTP, error) {
	query := `
		SELECT id, phone, code, expires_at, verified, attempts, created_at
		FROM otps
		WHERE phone = $1 AND verified = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var otp models.OTP
	err := r.db.QueryRow(ctx, query, phone).Scan(
		&otp.ID,
		&otp.Phone,
		&otp.Code,
		&otp.ExpiresAt,
		&otp.Verified,
		&otp.Attempts,
		&otp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &otp, nil
}

func (r *OTPRepository) HasVerified(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM otps WHERE phone = $1 AND verified = TRUE)`,
		phone,
	).Scan(&exists)
	return exists, err
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	var attempts int
	err := r.db.QueryRow(
		ctx,
		`UPDATE otps SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`,
		id,
	).Scan(&attempts)
	return attempts, err
}

func (r *OTPRepository) MarkVerified(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE otps SET verified = TRUE WHERE id = $1`, id)
	return err
}

func (r *OTPRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM otps WHERE id = $1`, id)
	return err
}

func (r *OTPRepository) DeleteByPhone(ctx context.Context, phone string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM otps WHERE phone = $1`, phone)
	return err
}

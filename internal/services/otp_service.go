package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/priyanshu85-coder/StudentFlatFinder/internal/models"
)

var (
	ErrOTPNotFound     = errors.New("otp not found or already verified")
	ErrOTPExpired      = errors.New("otp expired")
	ErrOTPMismatch     = errors.New("otp mismatch")
	ErrTooManyAttempts = errors.New("too many failed attempts")
)

const (
	otpLifetime    = 10 * time.Minute
	maxOTPAttempts = 3
)

type otpStore interface {
	Create(ctx context.Context, phone, code string, expiresAt time.Time) (*models.OTP, error)
	GetPendingByPhone(ctx context.Context, phone string) (*models.OTP, error)
	HasVerified(ctx context.Context, phone string) (bool, error)
	IncrementAttempts(ctx context.Context, id int64) (int, error)
	MarkVerified(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	DeleteByPhone(ctx context.Context, phone string) error
}

// OTPService verifies phone numbers before registration. Codes live for ten
// minutes, allow three attempts, and a new code replaces any older ones for
// the same phone.
type OTPService struct {
	otpRepo otpStore
}

func NewOTPService(otpRepo otpStore) *OTPService {
	return &OTPService{otpRepo: otpRepo}
}

// NormalizePhone strips formatting and requires a 10-digit number.
func NormalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() != 10 {
		return "", ErrInvalidInput
	}
	return digits.String(), nil
}

// SendOTP issues a fresh 6-digit code for the phone. There is no SMS gateway
// wired up; the code is logged and, in development, echoed by the handler.
func (s *OTPService) SendOTP(ctx context.Context, phone string) (string, error) {
	clean, err := NormalizePhone(phone)
	if err != nil {
		return "", err
	}

	code, err := generateOTPCode()
	if err != nil {
		return "", err
	}

	if err := s.otpRepo.DeleteByPhone(ctx, clean); err != nil {
		return "", err
	}
	if _, err := s.otpRepo.Create(ctx, clean, code, time.Now().Add(otpLifetime)); err != nil {
		return "", err
	}

	log.Printf("OTP for %s: %s", clean, code)
	return code, nil
}

// VerifyOTP checks the submitted code. On a mismatch the remaining attempt
// count is returned alongside ErrOTPMismatch.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code string) (int, error) {
	clean, err := NormalizePhone(phone)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(code) == "" {
		return 0, ErrInvalidInput
	}

	otp, err := s.otpRepo.GetPendingByPhone(ctx, clean)
	if err != nil {
		return 0, mapNotFound(err, ErrOTPNotFound)
	}

	if time.Now().After(otp.ExpiresAt) {
		_ = s.otpRepo.Delete(ctx, otp.ID)
		return 0, ErrOTPExpired
	}
	if otp.Attempts >= maxOTPAttempts {
		_ = s.otpRepo.Delete(ctx, otp.ID)
		return 0, ErrTooManyAttempts
	}

	if otp.Code != code {
		attempts, err := s.otpRepo.IncrementAttempts(ctx, otp.ID)
		if err != nil {
			return 0, err
		}
		return maxOTPAttempts - attempts, ErrOTPMismatch
	}

	return 0, s.otpRepo.MarkVerified(ctx, otp.ID)
}

// IsPhoneVerified reports whether the phone completed OTP verification.
func (s *OTPService) IsPhoneVerified(ctx context.Context, phone string) (bool, error) {
	clean, err := NormalizePhone(phone)
	if err != nil {
		return false, err
	}
	return s.otpRepo.HasVerified(ctx, clean)
}

// ConsumeVerification clears the phone's codes once registration succeeds.
func (s *OTPService) ConsumeVerification(ctx context.Context, phone string) error {
	clean, err := NormalizePhone(phone)
	if err != nil {
		return err
	}
	return s.otpRepo.DeleteByPhone(ctx, clean)
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"quickbasket/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrVendorInactive      = errors.New("vendor account is not active")
	ErrRegistrationInvalid = errors.New("name, email and password are required")
	ErrEmailTaken          = errors.New("email already registered")
)

type VendorStore interface {
	GetVendor(ctx context.Context, vendorID string) (*models.Vendor, error)
	GetVendorByEmail(ctx context.Context, email string) (*models.Vendor, error)
	CreateVendor(ctx context.Context, v *models.Vendor) error
	Touch(ctx context.Context, vendorID string, at time.Time) error
}

type VendorAuth struct {
	Store VendorStore
}

// Login checks the vendor's password and approval status. Lookup failures
// are reported as invalid credentials so the response does not reveal
// whether the email exists.
func (a *VendorAuth) Login(ctx context.Context, email, password string) (*models.Vendor, error) {
	vendor, err := a.Store.GetVendorByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(vendor.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if vendor.Status != models.VendorActive {
		return nil, ErrVendorInactive
	}

	if err := a.Store.Touch(ctx, vendor.VendorID, time.Now().UTC()); err != nil {
		// Last-seen tracking is advisory; never fail a valid login on it.
		log.Printf("touch vendor failed: %v", err)
	}
	return vendor, nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Pincodes []string
}

// Register creates a vendor account. New vendors start as pending and
// cannot log in until activated.
func (a *VendorAuth) Register(ctx context.Context, in RegisterInput) (*models.Vendor, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, ErrRegistrationInvalid
	}
	if _, err := a.Store.GetVendorByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	vendor := &models.Vendor{
		VendorID:     uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Status:       models.VendorPending,
		Pincodes:     in.Pincodes,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.Store.CreateVendor(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

// Profile returns the vendor's own account record.
func (a *VendorAuth) Profile(ctx context.Context, vendorID string) (*models.Vendor, error) {
	return a.Store.GetVendor(ctx, vendorID)
}

// HashPassword generates the stored form of a vendor password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

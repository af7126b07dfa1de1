package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickbasket/internal/models"
	"quickbasket/internal/otp"
	"quickbasket/internal/state"

	"golang.org/x/crypto/bcrypt"
)

func newPhoneAuth(limit int) *PhoneAuth {
	return &PhoneAuth{
		Provider: DevProvider{},
		Limiter:  otp.NewLimiter(state.NewMemoryStore(), limit),
	}
}

func TestSendOTPGatedByLimiter(t *testing.T) {
	a := newPhoneAuth(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := a.SendOTP(ctx, "9876543210"); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}

	if _, err := a.SendOTP(ctx, "9876543210"); !errors.Is(err, ErrDailyLimit) {
		t.Errorf("got %v, want ErrDailyLimit", err)
	}
}

func TestVerifyOTPDevFlow(t *testing.T) {
	a := newPhoneAuth(5)
	ctx := context.Background()

	id, err := a.SendOTP(ctx, "9876543210")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	user, err := a.VerifyOTP(ctx, id, "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.UID == "" {
		t.Error("expected a uid")
	}

	if _, err := a.VerifyOTP(ctx, id, "12345"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("short code: got %v, want ErrInvalidCode", err)
	}
	if _, err := a.VerifyOTP(ctx, id, "12345a"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("non-numeric code: got %v, want ErrInvalidCode", err)
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("9876543210"); got != "+919876543210" {
		t.Errorf("NormalizePhone = %q", got)
	}
	if got := NormalizePhone("+14155550123"); got != "+14155550123" {
		t.Errorf("NormalizePhone = %q, want unchanged", got)
	}
}

func TestClassifyProviderErrors(t *testing.T) {
	cases := []struct {
		code string
		want Category
	}{
		{"auth/popup-closed-by-user", CategoryCancelled},
		{"auth/popup-blocked", CategoryBlocked},
		{"network-request-failed", CategoryNetwork},
		{"auth/too-many-requests", CategoryUnavailable},
		{"http-503", CategoryUnavailable},
		{"something-else", CategoryUnknown},
	}
	for _, tc := range cases {
		if got := Classify(&ProviderError{Code: tc.code}); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
	if got := Classify(errors.New("plain")); got != CategoryUnknown {
		t.Errorf("Classify(plain) = %q, want unknown", got)
	}
}

type fakeVendorStore struct {
	vendor  *models.Vendor
	err     error
	created []*models.Vendor
	touched int
}

func (s *fakeVendorStore) GetVendor(ctx context.Context, vendorID string) (*models.Vendor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vendor, nil
}

func (s *fakeVendorStore) GetVendorByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vendor, nil
}

func (s *fakeVendorStore) CreateVendor(ctx context.Context, v *models.Vendor) error {
	s.created = append(s.created, v)
	return nil
}

func (s *fakeVendorStore) Touch(ctx context.Context, vendorID string, at time.Time) error {
	s.touched++
	return nil
}

func TestVendorLogin(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	vendor := &models.Vendor{VendorID: "v1", Email: "shop@example.com", PasswordHash: hash, Status: models.VendorActive}
	a := &VendorAuth{Store: &fakeVendorStore{vendor: vendor}}
	ctx := context.Background()

	got, err := a.Login(ctx, "shop@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.VendorID != "v1" {
		t.Errorf("vendor = %q", got.VendorID)
	}

	if _, err := a.Login(ctx, "shop@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}

	a = &VendorAuth{Store: &fakeVendorStore{err: errors.New("no rows")}}
	if _, err := a.Login(ctx, "missing@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestVendorLoginRejectsInactive(t *testing.T) {
	hash, _ := HashPassword("secret123")
	vendor := &models.Vendor{VendorID: "v1", PasswordHash: hash, Status: models.VendorPending}
	a := &VendorAuth{Store: &fakeVendorStore{vendor: vendor}}

	if _, err := a.Login(context.Background(), "shop@example.com", "secret123"); !errors.Is(err, ErrVendorInactive) {
		t.Errorf("got %v, want ErrVendorInactive", err)
	}
}

func TestVendorLoginRecordsLastSeen(t *testing.T) {
	hash, _ := HashPassword("secret123")
	st := &fakeVendorStore{vendor: &models.Vendor{VendorID: "v1", PasswordHash: hash, Status: models.VendorActive}}
	a := &VendorAuth{Store: st}
	ctx := context.Background()

	if _, err := a.Login(ctx, "shop@example.com", "secret123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if st.touched != 1 {
		t.Errorf("touched = %d, want 1", st.touched)
	}

	_, _ = a.Login(ctx, "shop@example.com", "wrong")
	if st.touched != 1 {
		t.Error("failed login must not update last seen")
	}
}

func TestVendorRegister(t *testing.T) {
	st := &fakeVendorStore{err: errors.New("no rows")}
	a := &VendorAuth{Store: st}

	vendor, err := a.Register(context.Background(), RegisterInput{
		Name:     "Fresh Mart",
		Email:    "shop@example.com",
		Password: "secret123",
		Pincodes: []string{"332211"},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if vendor.Status != models.VendorPending {
		t.Errorf("status = %q, want pending", vendor.Status)
	}
	if vendor.VendorID == "" {
		t.Error("expected a vendor id")
	}
	if vendor.PasswordHash == "" || vendor.PasswordHash == "secret123" {
		t.Error("password must be stored hashed")
	}
	if bcrypt.CompareHashAndPassword([]byte(vendor.PasswordHash), []byte("secret123")) != nil {
		t.Error("stored hash does not verify the password")
	}
	if len(st.created) != 1 {
		t.Fatalf("created %d vendors, want 1", len(st.created))
	}
}

func TestVendorRegisterRejectsDuplicateEmail(t *testing.T) {
	st := &fakeVendorStore{vendor: &models.Vendor{Email: "shop@example.com"}}
	a := &VendorAuth{Store: st}

	_, err := a.Register(context.Background(), RegisterInput{Name: "Fresh Mart", Email: "shop@example.com", Password: "secret123"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("got %v, want ErrEmailTaken", err)
	}
	if len(st.created) != 0 {
		t.Error("duplicate registration must not create a vendor")
	}
}

func TestVendorRegisterRequiresFields(t *testing.T) {
	a := &VendorAuth{Store: &fakeVendorStore{err: errors.New("no rows")}}

	for _, in := range []RegisterInput{
		{Email: "shop@example.com", Password: "secret123"},
		{Name: "Fresh Mart", Password: "secret123"},
		{Name: "Fresh Mart", Email: "shop@example.com"},
	} {
		if _, err := a.Register(context.Background(), in); !errors.Is(err, ErrRegistrationInvalid) {
			t.Errorf("Register(%+v): got %v, want ErrRegistrationInvalid", in, err)
		}
	}
}

// Package auth wraps the external phone-OTP provider and the vendor portal
// login. The provider is opaque: challenges and verifications go over its
// HTTP API and come back as an opaque user identity.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quickbasket/internal/metrics"
	"quickbasket/internal/otp"

	"github.com/google/uuid"
)

// ErrDailyLimit is returned when the local OTP limiter rejects an attempt
// before any network call is made.
var ErrDailyLimit = errors.New(otp.LimitMessage)

var ErrInvalidCode = errors.New("invalid verification code")

// User is the opaque identity returned by the auth provider.
type User struct {
	UID         string `json:"uid"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type Provider interface {
	SendCode(ctx context.Context, phone string) (verificationID string, err error)
	VerifyCode(ctx context.Context, verificationID, code string) (*User, error)
}

type PhoneAuth struct {
	Provider Provider
	Limiter  *otp.Limiter
}

// SendOTP issues a verification challenge for the phone number. The daily
// limiter is consulted first so a capped session issues no network call.
func (a *PhoneAuth) SendOTP(ctx context.Context, phone string) (string, error) {
	if !a.Limiter.CanSend() {
		metrics.OTPRejected.Inc()
		return "", ErrDailyLimit
	}
	if err := a.Limiter.Record(); err != nil {
		return "", err
	}
	metrics.OTPAttempts.Inc()
	return a.Provider.SendCode(ctx, NormalizePhone(phone))
}

// VerifyOTP confirms the challenge. Codes must be exactly six digits.
func (a *PhoneAuth) VerifyOTP(ctx context.Context, verificationID, code string) (*User, error) {
	if !validCode(code) {
		return nil, ErrInvalidCode
	}
	return a.Provider.VerifyCode(ctx, verificationID, code)
}

// NormalizePhone prefixes the default country code when none is given.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+91" + phone
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// HTTPProvider talks to the real auth provider.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) SendCode(ctx context.Context, phone string) (string, error) {
	var resp struct {
		VerificationID string `json:"verification_id"`
	}
	if err := p.post(ctx, "/otp/send", map[string]string{"phone": phone}, &resp); err != nil {
		return "", err
	}
	return resp.VerificationID, nil
}

func (p *HTTPProvider) VerifyCode(ctx context.Context, verificationID, code string) (*User, error) {
	var user User
	body := map[string]string{"verification_id": verificationID, "code": code}
	if err := p.post(ctx, "/otp/verify", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return &ProviderError{Code: "network-request-failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var pe ProviderError
		if json.NewDecoder(resp.Body).Decode(&pe) != nil || pe.Code == "" {
			pe.Code = fmt.Sprintf("http-%d", resp.StatusCode)
		}
		return &pe
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// DevProvider bypasses the real provider in development: any six-digit code
// verifies against a locally issued verification id.
type DevProvider struct{}

const devVerificationPrefix = "dev-verification-"

func (DevProvider) SendCode(ctx context.Context, phone string) (string, error) {
	return devVerificationPrefix + uuid.NewString(), nil
}

func (DevProvider) VerifyCode(ctx context.Context, verificationID, code string) (*User, error) {
	if !strings.HasPrefix(verificationID, devVerificationPrefix) {
		return nil, &ProviderError{Code: "invalid-verification-id"}
	}
	if !validCode(code) {
		return nil, ErrInvalidCode
	}
	return &User{UID: "dev-user-" + uuid.NewString()}, nil
}

package auth

import "errors"

// ProviderError carries the provider's error code across the wire.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Category buckets provider failures into the small set the UI knows how
// to message.
type Category string

const (
	CategoryCancelled   Category = "cancelled-by-user"
	CategoryBlocked     Category = "popup-blocked"
	CategoryNetwork     Category = "network-failure"
	CategoryUnavailable Category = "service-unavailable"
	CategoryUnknown     Category = "unknown"
)

func Classify(err error) Category {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return CategoryUnknown
	}
	switch pe.Code {
	case "auth/cancelled-popup-request", "auth/popup-closed-by-user", "cancelled":
		return CategoryCancelled
	case "auth/popup-blocked":
		return CategoryBlocked
	case "network-request-failed", "auth/network-request-failed", "auth/timeout":
		return CategoryNetwork
	case "auth/too-many-requests", "auth/quota-exceeded", "http-503", "http-429":
		return CategoryUnavailable
	default:
		return CategoryUnknown
	}
}

// UserMessage maps a failure to the text shown to the user.
func UserMessage(err error) string {
	switch Classify(err) {
	case CategoryCancelled:
		return "Sign-in was cancelled. Please try again."
	case CategoryBlocked:
		return "Sign-in window was blocked. Allow popups and try again."
	case CategoryNetwork:
		return "Network error. Check your connection and try again."
	case CategoryUnavailable:
		return "Sign-in is temporarily unavailable. Please try again later."
	default:
		return "Sign-in failed. Please try again."
	}
}

package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"quickbasket/internal/metrics"
	"quickbasket/internal/models"
	"quickbasket/internal/pincode"
)

var ErrInvalidPincode = errors.New("invalid pincode")

type Serviceability int

const (
	NotServiceable Serviceability = iota
	Serviceable
	// Unknown means the lookup itself failed; policy decides what to do.
	Unknown
)

func (s Serviceability) String() string {
	switch s {
	case Serviceable:
		return "serviceable"
	case NotServiceable:
		return "not_serviceable"
	default:
		return "unknown"
	}
}

type CatalogStore interface {
	IsPincodeServiceable(ctx context.Context, pin string) (bool, error)
	ListCategories(ctx context.Context, pincode string) ([]*models.Category, error)
	ListProducts(ctx context.Context, pincode, categoryID string) ([]*models.Product, error)
}

type CatalogService struct {
	Store    CatalogStore
	Pincodes *pincode.Resolver

	// FailOpen accepts a pincode when the serviceability lookup errors,
	// favoring availability over strict enforcement.
	FailOpen bool
}

// Resolution is the outcome of submitting a pincode.
type Resolution struct {
	Pincode  string
	Outcome  Serviceability
	Accepted bool
}

// Resolve validates and stores the submitted pincode, then checks whether
// the locality is served. The pincode is saved as current regardless of the
// outcome; only the Accepted flag tells the caller whether to show the
// catalog or route to the not-available page.
func (s *CatalogService) Resolve(ctx context.Context, pin string) (*Resolution, error) {
	if !pincode.Valid(pin) {
		return nil, ErrInvalidPincode
	}

	if err := s.Pincodes.Set(pin); err != nil {
		// Session state is advisory; never block entry on it.
		log.Printf("persist pincode failed: %v", err)
	}

	outcome, err := s.CheckServiceability(ctx, pin)
	if err != nil {
		if s.FailOpen {
			return &Resolution{Pincode: pin, Outcome: Unknown, Accepted: true}, nil
		}
		return nil, err
	}
	return &Resolution{Pincode: pin, Outcome: outcome, Accepted: outcome == Serviceable}, nil
}

func (s *CatalogService) CheckServiceability(ctx context.Context, pin string) (Serviceability, error) {
	ok, err := s.Store.IsPincodeServiceable(ctx, pin)
	if err != nil {
		metrics.ServiceabilityChecks.WithLabelValues(Unknown.String()).Inc()
		return Unknown, err
	}
	outcome := NotServiceable
	if ok {
		outcome = Serviceable
	}
	metrics.ServiceabilityChecks.WithLabelValues(outcome.String()).Inc()
	return outcome, nil
}

// Categories lists the categories serviceable at pin. An empty pin means
// the session's current pincode.
func (s *CatalogService) Categories(ctx context.Context, pin string) ([]*models.Category, error) {
	if pin == "" {
		pin = s.Pincodes.Current()
	}
	return s.Store.ListCategories(ctx, pin)
}

func (s *CatalogService) Products(ctx context.Context, pin, categoryID string) ([]*models.Product, error) {
	if pin == "" {
		pin = s.Pincodes.Current()
	}
	return s.Store.ListProducts(ctx, pin, categoryID)
}

// CategoryName resolves a category id to its display name, falling back to
// a title-cased rendering of the slug when the id is not in the list.
func CategoryName(id string, categories []*models.Category) string {
	for _, c := range categories {
		if c.CategoryID == id {
			return c.Name
		}
	}
	return slugTitle(id)
}

func slugTitle(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

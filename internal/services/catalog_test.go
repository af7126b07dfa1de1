package services

import (
	"context"
	"errors"
	"testing"

	"quickbasket/internal/models"
	"quickbasket/internal/pincode"
	"quickbasket/internal/state"
)

type fakeCatalogStore struct {
	serviceable map[string]bool
	lookupErr   error
	categories  []*models.Category
	products    []*models.Product
}

func (s *fakeCatalogStore) IsPincodeServiceable(ctx context.Context, pin string) (bool, error) {
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	return s.serviceable[pin], nil
}

func (s *fakeCatalogStore) ListCategories(ctx context.Context, pin string) ([]*models.Category, error) {
	var out []*models.Category
	for _, c := range s.categories {
		for _, p := range c.Pincodes {
			if p == pin {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeCatalogStore) ListProducts(ctx context.Context, pin, categoryID string) ([]*models.Product, error) {
	var out []*models.Product
	for _, prod := range s.products {
		if categoryID != "" && prod.CategoryID != categoryID {
			continue
		}
		for _, p := range prod.Pincodes {
			if p == pin {
				out = append(out, prod)
				break
			}
		}
	}
	return out, nil
}

func newCatalog(st *fakeCatalogStore, failOpen bool) (*CatalogService, *pincode.Resolver) {
	pins := pincode.New(state.NewMemoryStore())
	return &CatalogService{Store: st, Pincodes: pins, FailOpen: failOpen}, pins
}

func TestResolveServiceablePincode(t *testing.T) {
	svc, pins := newCatalog(&fakeCatalogStore{serviceable: map[string]bool{"110011": true}}, false)

	res, err := svc.Resolve(context.Background(), "110011")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.Accepted || res.Outcome != Serviceable {
		t.Errorf("res = %+v, want accepted serviceable", res)
	}
	if pins.Current() != "110011" {
		t.Errorf("pincode not saved, current = %q", pins.Current())
	}
}

func TestResolveUnserviceableStillSavesPincode(t *testing.T) {
	svc, pins := newCatalog(&fakeCatalogStore{serviceable: map[string]bool{}}, false)

	res, err := svc.Resolve(context.Background(), "560001")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Accepted {
		t.Error("unserviceable pincode must not be accepted")
	}
	if res.Outcome != NotServiceable {
		t.Errorf("outcome = %v, want NotServiceable", res.Outcome)
	}
	if pins.Current() != "560001" {
		t.Errorf("pincode must be saved regardless of outcome, current = %q", pins.Current())
	}
}

func TestResolveFailOpenOnLookupError(t *testing.T) {
	st := &fakeCatalogStore{lookupErr: errors.New("backend down")}

	svc, pins := newCatalog(st, true)
	res, err := svc.Resolve(context.Background(), "400001")
	if err != nil {
		t.Fatalf("fail-open resolve returned error: %v", err)
	}
	if !res.Accepted || res.Outcome != Unknown {
		t.Errorf("res = %+v, want accepted with unknown outcome", res)
	}
	if pins.Current() != "400001" {
		t.Errorf("pincode not saved, current = %q", pins.Current())
	}

	strict, _ := newCatalog(st, false)
	if _, err := strict.Resolve(context.Background(), "400001"); err == nil {
		t.Error("fail-closed resolve should surface the error")
	}
}

func TestResolveRejectsMalformedPincode(t *testing.T) {
	svc, pins := newCatalog(&fakeCatalogStore{}, true)

	for _, pin := range []string{"12345", "1234567", "12a456", ""} {
		if _, err := svc.Resolve(context.Background(), pin); !errors.Is(err, ErrInvalidPincode) {
			t.Errorf("Resolve(%q): got %v, want ErrInvalidPincode", pin, err)
		}
	}
	if pins.Current() != pincode.DefaultPincode {
		t.Errorf("invalid input must not be saved, current = %q", pins.Current())
	}
}

func TestCategoriesDefaultToCurrentPincode(t *testing.T) {
	st := &fakeCatalogStore{categories: []*models.Category{
		{CategoryID: "fresh-fruits", Name: "Fresh Fruits", Pincodes: []string{"332211"}},
		{CategoryID: "dairy", Name: "Dairy", Pincodes: []string{"560001"}},
	}}
	svc, _ := newCatalog(st, false)

	got, err := svc.Categories(context.Background(), "")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(got) != 1 || got[0].CategoryID != "fresh-fruits" {
		t.Errorf("got %d categories, want only fresh-fruits for default pincode", len(got))
	}
}

func TestCategoryNameFallsBackToSlug(t *testing.T) {
	categories := []*models.Category{
		{CategoryID: "dairy", Name: "Dairy & Eggs"},
	}

	if got := CategoryName("dairy", categories); got != "Dairy & Eggs" {
		t.Errorf("CategoryName = %q, want map hit", got)
	}
	if got := CategoryName("fresh-fruits", categories); got != "Fresh Fruits" {
		t.Errorf("CategoryName = %q, want Fresh Fruits", got)
	}
	if got := CategoryName("ready-to-eat", categories); got != "Ready To Eat" {
		t.Errorf("CategoryName = %q, want Ready To Eat", got)
	}
}

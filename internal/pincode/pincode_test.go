package pincode

import (
	"testing"

	"quickbasket/internal/state"
)

// countingStore wraps a MemoryStore and counts writes.
type countingStore struct {
	*state.MemoryStore
	writes int
}

func (s *countingStore) Set(key, value string) error {
	s.writes++
	return s.MemoryStore.Set(key, value)
}

func TestCurrentDefaultsWhenUnset(t *testing.T) {
	r := New(state.NewMemoryStore())
	if got := r.Current(); got != DefaultPincode {
		t.Errorf("Current() = %q, want %q", got, DefaultPincode)
	}
}

func TestSetThenCurrent(t *testing.T) {
	r := New(state.NewMemoryStore())
	if err := r.Set("560001"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := r.Current(); got != "560001" {
		t.Errorf("Current() = %q, want 560001", got)
	}
}

func TestSetSameValueIsNoOp(t *testing.T) {
	st := &countingStore{MemoryStore: state.NewMemoryStore()}
	r := New(st)

	notified := 0
	defer r.Subscribe(func(string) { notified++ })()

	if err := r.Set("110011"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := r.Set("110011"); err != nil {
		t.Fatalf("set same: %v", err)
	}

	if st.writes != 1 {
		t.Errorf("writes = %d, want 1", st.writes)
	}
	if notified != 1 {
		t.Errorf("notifications = %d, want 1", notified)
	}
}

func TestSubscribeFiltersOtherKeys(t *testing.T) {
	st := state.NewMemoryStore()
	r := New(st)

	var got string
	defer r.Subscribe(func(p string) { got = p })()

	_ = st.Set("otp_daily_usage", "{}")
	if got != "" {
		t.Errorf("subscriber fired for unrelated key, got %q", got)
	}

	_ = r.Set("400001")
	if got != "400001" {
		t.Errorf("subscriber got %q, want 400001", got)
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"332211":  true,
		"560001":  true,
		"56001":   false,
		"5600011": false,
		"56000a":  false,
		"":        false,
	}
	for pin, want := range cases {
		if got := Valid(pin); got != want {
			t.Errorf("Valid(%q) = %v, want %v", pin, got, want)
		}
	}
}

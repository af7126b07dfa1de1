// Package otp caps phone-verification attempts per calendar day so the
// backing auth provider's quota is not burned on doomed requests. The cap
// is advisory: the authoritative limit lives with the provider.
package otp

import (
	"encoding/json"
	"time"

	"quickbasket/internal/state"
)

const (
	// DefaultDailyLimit matches the provider's free-tier verification quota.
	DefaultDailyLimit = 10

	usageKey = "otp_daily_usage"
)

// LimitMessage is shown when the daily cap has been reached.
const LimitMessage = "Daily OTP limit reached. Please use Google Sign-In instead."

type usage struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Limiter struct {
	State      state.Store
	DailyLimit int

	// Now is injectable for date-rollover tests.
	Now func() time.Time
}

func NewLimiter(st state.Store, dailyLimit int) *Limiter {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &Limiter{State: st, DailyLimit: dailyLimit, Now: time.Now}
}

func (l *Limiter) today() string {
	return l.Now().Format("2006-01-02")
}

// load reads the stored usage record. Missing or corrupt data counts as no
// usage yet: a broken counter must never lock a legitimate user out.
func (l *Limiter) load() usage {
	raw, ok := l.State.Get(usageKey)
	if !ok {
		return usage{Date: l.today()}
	}
	var u usage
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return usage{Date: l.today()}
	}
	if u.Date != l.today() {
		return usage{Date: l.today()}
	}
	return u
}

// CanSend reports whether another verification attempt is permitted today.
func (l *Limiter) CanSend() bool {
	return l.load().Count < l.DailyLimit
}

// Remaining returns how many attempts are left today.
func (l *Limiter) Remaining() int {
	left := l.DailyLimit - l.load().Count
	if left < 0 {
		return 0
	}
	return left
}

// Record counts one verification attempt against today's quota.
func (l *Limiter) Record() error {
	u := l.load()
	u.Count++
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return l.State.Set(usageKey, string(raw))
}

package wallet

import (
	"fmt"
	"time"

	"github.com/mcash/mcash-api/internal/pkg/apperr"
	"github.com/mcash/mcash-api/internal/pkg/money"
)

// ErrLimitExceeded is the sentinel every LimitExceededError unwraps to.
var ErrLimitExceeded = apperr.New(apperr.LimitExceeded, "daily limit exceeded")

// LimitExceededError reports which counter refused the amount and how much
// headroom is left today.
type LimitExceededError struct {
	Kind      LimitKind
	Remaining money.Amount
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("Daily %s limit exceeded. Remaining: %s", e.Kind, e.Remaining)
}

func (e *LimitExceededError) Unwrap() error {
	return ErrLimitExceeded
}

func (e *LimitExceededError) Details() map[string]string {
	return map[string]string{
		"limit":     string(e.Kind),
		"remaining": e.Remaining.String(),
	}
}

// Consume charges amount against the counter at now. The counter is reset
// first when now falls on a later calendar day than LastReset, with days
// taken in now's location. l itself is never modified.
func (l Limit) Consume(now time.Time, amount money.Amount) (Limit, error) {
	next := l
	if !sameDay(l.LastReset, now) {
		next.UsedToday = 0
		next.LastReset = now
	}

	remaining := next.DailyCap - next.UsedToday
	if remaining < 0 {
		remaining = 0
	}
	if amount > remaining {
		return l, &LimitExceededError{Kind: l.Kind, Remaining: remaining}
	}

	next.UsedToday += amount
	return next, nil
}

// Remaining is the headroom left at now.
func (l Limit) Remaining(now time.Time) money.Amount {
	used := l.UsedToday
	if !sameDay(l.LastReset, now) {
		used = 0
	}
	if used > l.DailyCap {
		return 0
	}
	return l.DailyCap - used
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

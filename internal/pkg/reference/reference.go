// Package reference issues transaction references: a fixed prefix followed by
// a ULID, so references sort by creation time and never repeat within a process.
package reference

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const Prefix = "TXN"

// Generator is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// New returns a fresh reference such as TXN01J9Z3M8Q4C6W2KX7B5T0RFYHD.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
	return Prefix + id.String()
}

// Valid reports whether s has the shape produced by New.
func Valid(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	_, err := ulid.ParseStrict(strings.TrimPrefix(s, Prefix))
	return err == nil
}

// Time extracts the issue time embedded in a reference.
func Time(s string) (time.Time, bool) {
	id, err := ulid.ParseStrict(strings.TrimPrefix(s, Prefix))
	if err != nil || !strings.HasPrefix(s, Prefix) {
		return time.Time{}, false
	}
	return ulid.Time(id.Time()), true
}

var defaultGenerator = NewGenerator()

// New issues a reference from the package-level generator.
func New() string {
	return defaultGenerator.New()
}

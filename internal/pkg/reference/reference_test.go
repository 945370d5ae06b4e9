package reference

import (
	"sync"
	"testing"
	"time"
)

func TestReferencesAreUniqueUnderConcurrency(t *testing.T) {
	g := NewGenerator()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	const workers = 8
	const perWorker = 500

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ref := g.New()
				mu.Lock()
				if _, dup := seen[ref]; dup {
					t.Errorf("duplicate reference %s", ref)
				}
				seen[ref] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Fatalf("expected %d references, got %d", workers*perWorker, len(seen))
	}
}

func TestReferenceShape(t *testing.T) {
	ref := New()
	if !Valid(ref) {
		t.Fatalf("generated reference %q is not valid", ref)
	}
	if len(ref) != len(Prefix)+26 {
		t.Fatalf("unexpected length %d", len(ref))
	}
	if Valid("TXN") || Valid("ABC01J9Z3M8Q4C6W2KX7B5T0RFYHD") {
		t.Fatalf("malformed references must be rejected")
	}

	issued, ok := Time(ref)
	if !ok || time.Since(issued) > time.Minute {
		t.Fatalf("expected recent issue time, got %v (%v)", issued, ok)
	}
}

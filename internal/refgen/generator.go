// Package refgen generates the human-readable reference numbers handed
// to submitters at intake time. References are not guaranteed unique by
// construction; the persistence layer enforces a unique constraint and
// callers regenerate on collision.
package refgen

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Kind selects the reference prefix for a submission type.
type Kind string

const (
	// KindAudit produces references like GWPL-2026-48213.
	KindAudit Kind = "audit"
	// KindCareers produces references like GWPL-HR-2026-48213.
	KindCareers Kind = "careers"
)

// Suffix range is inclusive: a 5-digit number with no leading zeros.
const (
	suffixMin = 10000
	suffixMax = 99999
)

// Generator mints reference numbers and is safe for concurrent use.
// The zero value is not usable; construct with New or NewWithSource.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a Generator seeded from the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()), time.Now)
}

// NewWithSource creates a Generator with an injectable random source and
// clock, for deterministic tests.
func NewWithSource(src rand.Source, now func() time.Time) *Generator {
	return &Generator{
		rng: rand.New(src),
		now: now,
	}
}

// Mint returns a new reference for the given kind.
func (g *Generator) Mint(kind Kind) string {
	year := g.now().Year()
	g.mu.Lock()
	suffix := suffixMin + g.rng.Intn(suffixMax-suffixMin+1)
	g.mu.Unlock()
	if kind == KindCareers {
		return fmt.Sprintf("GWPL-HR-%d-%d", year, suffix)
	}
	return fmt.Sprintf("GWPL-%d-%d", year, suffix)
}

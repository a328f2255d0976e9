package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RefCodeGenerator mints reference codes for subledger transactions.
// Codes are ULIDs (sortable, URL-safe) with an uppercase prefix, e.g.
// AR-01ARZ3NDEKTSV4RRFFQ69G5FAV. Monotonic entropy keeps codes ordered
// within the same millisecond.
type RefCodeGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewRefCodeGenerator() *RefCodeGenerator {
	return &RefCodeGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New mints a prefixed reference code.
func (g *RefCodeGenerator) New(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), id.String())
}

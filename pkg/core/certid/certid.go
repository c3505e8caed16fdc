// Package certid generates and recognizes certificate identifiers.
//
// Persistent certificates use "CERT-<unix millis>-<8 chars>", previews that are
// never stored use "DEMO-<6 chars>". The random part is drawn from an uppercase
// base36 alphabet.
package certid

import (
	"crypto/rand"
	"io"
	"math/big"
	mrand "math/rand/v2"
	"regexp"
	"strconv"
	"sync"
	"time"
)

const (
	certPrefix = "CERT-"
	demoPrefix = "DEMO-"

	suffixLength     = 8
	demoSuffixLength = 6
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	certPattern = regexp.MustCompile(`^CERT-[0-9]{13}-[A-Z0-9]{8}$`)
	demoPattern = regexp.MustCompile(`^DEMO-[A-Z0-9]{6}$`)
)

// Generator produces certificate identifiers from a clock and an entropy source.
// The zero value is not usable; use NewGenerator.
type Generator struct {
	now    func() time.Time
	random io.Reader
	mu     sync.Mutex
}

// NewGenerator returns a Generator. A nil clock means time.Now, a nil reader
// means crypto/rand.
func NewGenerator(now func() time.Time, random io.Reader) *Generator {
	if now == nil {
		now = time.Now
	}
	if random == nil {
		random = rand.Reader
	}
	return &Generator{now: now, random: random}
}

var defaultGenerator = NewGenerator(nil, nil)

// New returns a fresh certificate id using the wall clock and crypto/rand.
func New() string { return defaultGenerator.New() }

// NewDemo returns a preview id using crypto/rand.
func NewDemo() string { return defaultGenerator.NewDemo() }

// New returns "CERT-<millis>-<suffix>". It never fails.
func (g *Generator) New() string {
	ms := g.now().UnixMilli()
	return certPrefix + strconv.FormatInt(ms, 10) + "-" + g.suffix(suffixLength)
}

// NewDemo returns "DEMO-<suffix>".
func (g *Generator) NewDemo() string {
	return demoPrefix + g.suffix(demoSuffixLength)
}

func (g *Generator) suffix(length int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	b := make([]byte, length)
	base := big.NewInt(int64(len(charset)))
	for i := range b {
		num, err := rand.Int(g.random, base)
		if err != nil {
			// degraded but still well-formed
			b[i] = charset[mrand.IntN(len(charset))]
			continue
		}
		b[i] = charset[num.Int64()]
	}
	return string(b)
}

// Valid reports whether s is a certificate or preview identifier.
func Valid(s string) bool {
	return certPattern.MatchString(s) || demoPattern.MatchString(s)
}

// IsDemo reports whether s is a preview identifier.
func IsDemo(s string) bool {
	return demoPattern.MatchString(s)
}

// IssuedAt extracts the creation time embedded in a CERT- identifier.
func IssuedAt(s string) (time.Time, bool) {
	if !certPattern.MatchString(s) {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(s[len(certPrefix):len(certPrefix)+13], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

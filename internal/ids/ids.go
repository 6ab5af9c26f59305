package ids

import (
	"errors"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrMalformed indicates the supplied string is not a well-formed identifier.
// Callers must treat this as distinct from "not found".
var ErrMalformed = errors.New("ids: malformed identifier")

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier suitable for storage keys.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Parse validates raw and returns its canonical form.
func Parse(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformed
	}
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return "", ErrMalformed
	}
	return id.String(), nil
}

package ids

import (
	"fmt"
	mathrand "math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Scheme names an identifier format.
type Scheme string

const (
	// SchemeUUID produces random RFC 4122 version 4 identifiers.
	SchemeUUID Scheme = "uuid"
	// SchemeULID produces lexicographically sortable identifiers.
	SchemeULID Scheme = "ulid"
)

// ParseScheme normalises a configured scheme name.
func ParseScheme(value string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(value))) {
	case "", SchemeUUID:
		return SchemeUUID, nil
	case SchemeULID:
		return SchemeULID, nil
	default:
		return "", fmt.Errorf("ids: unknown scheme %q", value)
	}
}

// Generator returns the identifier function for scheme. Services accept the
// result as a plain func() string so tests can substitute deterministic ids.
func Generator(scheme Scheme) func() string {
	if scheme == SchemeULID {
		return NewULIDGenerator(time.Now)
	}
	return NewUUID
}

// NewUUID returns a random UUID string.
func NewUUID() string {
	return uuid.NewString()
}

// NewULIDGenerator returns a generator producing monotonic ULIDs stamped with now.
func NewULIDGenerator(now func() time.Time) func() string {
	if now == nil {
		now = time.Now
	}
	var mu sync.Mutex
	entropy := ulid.Monotonic(mathrand.New(mathrand.NewSource(now().UnixNano())), 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(now()), entropy).String()
	}
}

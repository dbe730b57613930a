package ids

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestParseScheme(t *testing.T) {
	t.Parallel()

	cases := map[string]Scheme{"": SchemeUUID, "UUID": SchemeUUID, " ulid ": SchemeULID}
	for input, want := range cases {
		got, err := ParseScheme(input)
		if err != nil {
			t.Fatalf("ParseScheme(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseScheme(%q)=%q, want %q", input, got, want)
		}
	}

	if _, err := ParseScheme("snowflake"); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}

func TestGeneratorUUID(t *testing.T) {
	t.Parallel()

	next := Generator(SchemeUUID)
	first, second := next(), next()
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected valid uuid, got %q: %v", first, err)
	}
	if first == second {
		t.Fatalf("expected distinct identifiers")
	}
}

func TestULIDGeneratorIsMonotonic(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)
	next := NewULIDGenerator(func() time.Time { return fixed })

	previous := next()
	for i := 0; i < 50; i++ {
		current := next()
		if current <= previous {
			t.Fatalf("expected increasing identifiers, got %q after %q", current, previous)
		}
		parsed, err := ulid.Parse(current)
		if err != nil {
			t.Fatalf("expected valid ulid: %v", err)
		}
		if parsed.Time() != ulid.Timestamp(fixed) {
			t.Fatalf("expected timestamp %d, got %d", ulid.Timestamp(fixed), parsed.Time())
		}
		previous = current
	}
}

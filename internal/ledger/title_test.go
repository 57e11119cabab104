package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(year int) time.Time {
	return time.Date(year, time.June, 15, 10, 0, 0, 0, time.UTC)
}

func TestSeedTitle(t *testing.T) {
	assert.Equal(t, "2025-001", SeedTitle(at(2025)))
}

func TestNextTitle(t *testing.T) {
	cases := []struct {
		name    string
		current string
		year    int
		want    string
	}{
		{"same year increments", "2025-004", 2025, "2025-005"},
		{"year rollover resets", "2024-004", 2025, "2025-001"},
		{"sequence pads to three digits", "2025-009", 2025, "2025-010"},
		{"three digit boundary", "2025-099", 2025, "2025-100"},
		{"malformed falls back to seed", "not-a-title", 2025, "2025-001"},
		{"short sequence is malformed", "2025-01", 2025, "2025-001"},
		{"empty falls back to seed", "", 2026, "2026-001"},
		{"trailing garbage is malformed", "2025-001-01", 2025, "2025-001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextTitle(tc.current, at(tc.year)))
		})
	}
}

package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// titlePattern matches year-scoped order titles: 4-digit year, dash, 3-digit
// zero-padded sequence.
var titlePattern = regexp.MustCompile(`^(\d{4})-(\d{3})$`)

// SeedTitle returns the first title for the given clock's calendar year.
func SeedTitle(now time.Time) string {
	return fmt.Sprintf("%d-001", now.Year())
}

// NextTitle derives the successor of the given order title. Within the same
// calendar year the sequence increments; a year change resets the sequence to
// 001. A title that does not match the expected pattern is treated as if no
// prior title existed and falls back to the current year's seed. The fallback
// is deliberate recovery behaviour, unlike the department-head deriver which
// fails hard on malformed input.
func NextTitle(current string, now time.Time) string {
	m := titlePattern.FindStringSubmatch(current)
	if m == nil {
		return SeedTitle(now)
	}
	year, _ := strconv.Atoi(m[1])
	seq, _ := strconv.Atoi(m[2])
	if year != now.Year() {
		return SeedTitle(now)
	}
	return fmt.Sprintf("%d-%03d", year, seq+1)
}

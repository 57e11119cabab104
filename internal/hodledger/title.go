package hodledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// suffixPattern matches the trailing 2-digit sub-ledger sequence.
var suffixPattern = regexp.MustCompile(`-(\d{2})$`)

// FirstTitle derives the first sub-ledger title for a parent order title.
func FirstTitle(parentTitle string) string {
	return parentTitle + "-01"
}

// NextTitle increments the trailing 2-digit suffix of an existing sub-ledger
// title ("2025-001-01" -> "2025-001-02"). Unlike the order-title deriver, a
// malformed suffix is a hard failure: the stored title is authoritative data
// and silently reseeding it would hide corruption.
func NextTitle(current string) (string, error) {
	m := suffixPattern.FindStringSubmatch(current)
	if m == nil {
		return "", shared.NewMalformedTitle(current)
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return "", shared.NewMalformedTitle(current)
	}
	prefix := current[:len(current)-len(m[1])]
	return fmt.Sprintf("%s%02d", prefix, seq+1), nil
}

// ParentTitle strips the sub-ledger suffix, recovering the parent order title.
func ParentTitle(hodTitle string) string {
	if i := strings.LastIndex(hodTitle, "-"); i > 0 {
		return hodTitle[:i]
	}
	return hodTitle
}

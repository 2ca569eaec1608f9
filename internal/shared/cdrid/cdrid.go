// Package cdrid normalizes CDR document identifiers. The canonical form
// is "CDR" followed by a ten-digit zero-padded integer; input may be a
// bare integer, a short prefixed form, or the canonical form itself.
package cdrid

import (
	"fmt"
	"strconv"
	"strings"

	"cdrcgi/internal/shared/errors"
)

const prefix = "CDR"

// Normalize converts any accepted identifier spelling to canonical form.
func Normalize(id string) (string, error) {
	n, err := Parse(id)
	if err != nil {
		return "", err
	}
	return Format(n), nil
}

// Parse extracts the numeric document id from any accepted spelling.
func Parse(id string) (int, error) {
	s := strings.TrimSpace(id)
	if upper := strings.ToUpper(s); strings.HasPrefix(upper, prefix) {
		s = s[len(prefix):]
	}
	// Fragment suffixes (CDR0000000042#F1) are not document ids.
	if s == "" || strings.ContainsAny(s, "#/") {
		return 0, errors.NewInputError("invalid document id", id)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.NewInputError("invalid document id", id)
	}
	return n, nil
}

// Format renders a numeric document id in canonical form.
func Format(n int) string {
	return fmt.Sprintf("%s%010d", prefix, n)
}

package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

var caseCodeRe = regexp.MustCompile(`^WR-\d{4}-\d{4}$`)

// ParseCaseCode canonicalizes a human-entered case code to upper case and
// rejects anything that is not shaped like WR-YYYY-NNNN.
func ParseCaseCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !caseCodeRe.MatchString(code) {
		return "", NewValidationError("code", "must look like WR-YYYY-NNNN")
	}
	return code, nil
}

// FormatCaseCode renders a year and sequence as a case code.
func FormatCaseCode(year, seq int) string {
	return fmt.Sprintf("WR-%04d-%04d", year, seq)
}

// RandomCaseCode returns a code for the year of now with a random sequence
// in [1, 9999]. Uniqueness is enforced by storage; callers retry on collision.
func RandomCaseCode(now time.Time) string {
	return FormatCaseCode(now.UTC().Year(), rand.IntN(9999)+1)
}

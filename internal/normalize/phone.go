// Package normalize turns raw scraper records into canonical leads:
// phone and name canonicalization, source detection, and per-source
// field mapping with admission filters.
package normalize

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	// defaultRegion biases parsing of numbers without an explicit
	// country code. The platform's campaigns are Brazil-first.
	defaultRegion      = "BR"
	defaultCallingCode = "+55"

	// minPhoneDigits rejects fragments (extensions, partial captures)
	// before they ever reach the parser.
	minPhoneDigits = 8
)

// Phone canonicalizes arbitrary phone text into E.164, or returns "" when
// the input does not resolve to a valid dialable number. An empty result
// is a normal outcome, not an error; callers use it to decide the lead's
// outreach readiness.
func Phone(raw string) string {
	cleaned := cleanPhone(raw)
	if digitCount(cleaned) < minPhoneDigits {
		return ""
	}

	if num, err := phonenumbers.Parse(cleaned, defaultRegion); err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164)
	}

	// Numbers captured without a country code sometimes fail the biased
	// parse outright; retry once as an explicit international number.
	if !strings.HasPrefix(cleaned, "+") {
		if num, err := phonenumbers.Parse(defaultCallingCode+cleaned, ""); err == nil && phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164)
		}
	}

	return ""
}

// cleanPhone strips everything except digits and a leading plus sign.
func cleanPhone(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

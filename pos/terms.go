package pos

import (
	"regexp"
	"strconv"
	"strings"
)

// TermKind classifies a supplier's free-text payment terms. Each vendor maps
// the kind to its own enumerated code at payload-build time.
type TermKind int

const (
	TermNone TermKind = iota // unmatched text: omit the field
	TermCash                 // immediate payment
	TermEOM                  // end of month
	TermNetDays              // net N days
)

var (
	netDaysRe    = regexp.MustCompile(`(?i)net\s*\+?\s*(\d+)`)
	shotefPlusRe = regexp.MustCompile(`שוטף\s*\+\s*(\d+)`)
)

// ParsePaymentTerms matches free text against the known payment-term
// phrases. Unrecognized text yields TermNone rather than an error.
func ParsePaymentTerms(text string) (TermKind, int) {
	s := strings.TrimSpace(strings.ToLower(text))
	if s == "" {
		return TermNone, 0
	}

	if m := netDaysRe.FindStringSubmatch(s); m != nil {
		days, _ := strconv.Atoi(m[1])
		return TermNetDays, days
	}
	if m := shotefPlusRe.FindStringSubmatch(s); m != nil {
		days, _ := strconv.Atoi(m[1])
		return TermNetDays, days
	}

	switch {
	case strings.Contains(s, "immediate"), strings.Contains(s, "cash"), strings.Contains(s, "מזומן"):
		return TermCash, 0
	case strings.Contains(s, "eom"), strings.Contains(s, "end of month"), strings.Contains(s, "שוטף"):
		return TermEOM, 0
	}
	return TermNone, 0
}

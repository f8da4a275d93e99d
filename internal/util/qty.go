package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousandDots   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	reThousandCommas = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseQuantity parses a user- or document-supplied quantity string. It
// tolerates thousand separators (space, dot, comma groups of three) and a
// comma decimal mark. Returns false for anything that is not a finite number.
func ParseQuantity(input string) (float64, bool) {
	s := strings.ReplaceAll(input, "\u00A0", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	compact := strings.ReplaceAll(s, " ", "")
	switch {
	case reThousandDots.MatchString(compact):
		compact = strings.ReplaceAll(compact, ".", "")
	case reThousandCommas.MatchString(compact):
		compact = strings.ReplaceAll(compact, ",", "")
	case strings.Contains(compact, ",") && !strings.Contains(compact, "."):
		compact = strings.ReplaceAll(compact, ",", ".")
	}

	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

// FormatQuantity renders a quantity the way edit forms display it.
func FormatQuantity(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

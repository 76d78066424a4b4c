package agents

import (
	"strconv"
	"strings"
)

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// formatSpend renders a dollar amount with thousands separators.
func formatSpend(spend *float64) string {
	if spend == nil {
		return "Not specified"
	}
	digits := strconv.FormatInt(int64(*spend), 10)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// formatScore prints a score without trailing zeros: 4, 3.5.
func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

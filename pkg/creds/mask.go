package creds

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

func init() {
	// Register the credential fields so masking uses sane defaults.
	for field := range sensitiveKeys {
		masker.Default.RegisterMaskField(field, "preserveEnds(2,2)")
	}
}

// Display returns the line value safe for an unprivileged surface: sensitive
// values come back masked, everything else verbatim.
func (l Line) Display() string {
	if !l.Sensitive {
		return l.Value
	}
	return maskString(l.Value)
}

func maskString(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String("preserveEnds(2,2)", value); err == nil {
		return masked
	}
	// Fallback masking if no rule is registered.
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

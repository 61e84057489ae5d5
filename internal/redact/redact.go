// Package redact masks sensitive substrings in raw statement text before it
// leaves the process. Redaction runs strictly before the extraction call, so
// no unmasked match of any pattern is ever transmitted to the model.
package redact

import "regexp"

// MaskToken replaces every sensitive match in the output.
const MaskToken = "****"

// Patterns are best-effort; later patterns may re-mask spans an earlier
// pattern already hit, which is harmless. The requirement is only that
// every match of every pattern ends up masked.
var patterns = []*regexp.Regexp{
	// credit-card-like 16 digit runs, optionally grouped by space or dash
	regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`),
	// typical account number lengths
	regexp.MustCompile(`\b\d{8,12}\b`),
	// SSN-like
	regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`),
	// email addresses
	regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
	// phone numbers
	regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
}

// Mask returns text with all sensitive matches replaced by MaskToken.
// It is a pure function with no failure modes; empty input comes back
// unchanged.
func Mask(text string) string {
	if text == "" {
		return text
	}
	masked := text
	for _, p := range patterns {
		masked = p.ReplaceAllString(masked, MaskToken)
	}
	return masked
}

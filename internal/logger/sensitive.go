package logger

import (
	"regexp"
)

// SensitiveDataPatterns match credentials that must never reach log output
var SensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	regexp.MustCompile(`(?i)((api|access|auth|token|secret|key|passw(or)?d)[0-9a-z\-_\.]*[\s:=]+)([^;,\s]{5,})`),
	regexp.MustCompile(`()(AIza[0-9A-Za-z_-]{20,})`), // Google API keys embedded in URLs or messages
}

// RedactSensitiveData replaces credential values with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, pattern := range SensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}[REDACTED]")
	}
	return input
}

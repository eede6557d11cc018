package logging

import (
	"regexp"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log
	MaxQueryLogLength = 120
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential passwords in connection strings
	// Matches: password=xxx, pwd=xxx, pass=xxx, passwd=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|passwd|pwd|pass)=[^;&\s]+`)

	// Pattern to match connection string credentials (user:pass@host format)
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// Pattern to match scheme-less driver DSN credentials
	// (user:pass@tcp(host:port)/db form used by database/sql drivers).
	// The password part excludes "/" so scheme-prefixed URLs never match.
	bareCredsPattern = regexp.MustCompile(`^[^:@/\s]+:[^@/\s]+@`)
)

// SanitizeConnectionString removes credentials from a DSN before logging.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
	sanitized = bareCredsPattern.ReplaceAllString(sanitized, RedactedText+"@")

	return sanitized
}

// SanitizeError sanitizes driver errors that may echo connection details.
// Use this before logging any error from datasource operations.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	sanitized := passwordPattern.ReplaceAllString(errStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeQuery truncates a statistics query for logging. Coverage and
// cardinality queries embed quoted identifiers but never literal values,
// so truncation is the only treatment needed beyond the password pattern.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	sanitized := query
	if len(sanitized) > MaxQueryLogLength {
		sanitized = sanitized[:MaxQueryLogLength] + "..."
	}

	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

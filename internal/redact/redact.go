// Package redact removes sensitive information from strings before they are
// logged. Error messages from the AWS SDK, the database driver and the JWT
// library can carry presigned URL signatures, access keys, bearer tokens and
// connection strings; everything written to the logs by the API layer passes
// through this package first.
package redact

import "regexp"

// Placeholders written in place of redacted values.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
)

type rule struct {
	pattern *regexp.Regexp
	// replacement may reference capture groups with ${n}.
	replacement string
}

// rules are applied in order; narrower patterns come first so that their
// surrounding context is kept.
var rules = []rule{
	// Presigned URL query parameters
	{
		regexp.MustCompile(`(?i)(X-Amz-(?:Signature|Credential|Security-Token))=[^&\s"']+`),
		"${1}=" + RedactionPlaceholder,
	},
	// Bearer credentials in headers
	{
		regexp.MustCompile(`(?i)\b(Bearer)\s+[A-Za-z0-9\-._~+/]+=*`),
		"${1} " + RedactedTokenPlaceholder,
	},
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		RedactedJWTPlaceholder,
	},
	// AWS secret keys and session tokens
	{
		regexp.MustCompile(
			`(?i)(aws_secret_access_key|secret_?access_?key|aws_session_token|session_?token)(['"\s:=]+)[A-Za-z0-9/+=]{16,}`,
		),
		"${1}${2}" + RedactedCredentialPlaceholder,
	},
	// Database connection strings
	{
		regexp.MustCompile(`(?i)(postgres|postgresql|mysql|db|database|connection)://[^@\s]+@`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|secret|gemini[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},
	// AWS access key ids
	{
		regexp.MustCompile(`\b(?:AKIA|ASIA)[A-Z0-9]{16}\b`),
		RedactedKeyPlaceholder,
	},
	// Stack trace fragments
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},
	// File paths
	{
		regexp.MustCompile(`(^|\s)(?:/[\w.-]+){2,}`),
		"${1}" + RedactedPathPlaceholder,
	},
	{
		regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`),
		RedactedPathPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		"[REDACTED_EMAIL]",
	},
	// SQL statements
	{
		regexp.MustCompile(
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\w,*()$.]+\b(FROM|INTO|SET)\b[^;]*`,
		),
		"[REDACTED_SQL]",
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}

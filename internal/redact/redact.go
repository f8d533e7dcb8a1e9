// Package redact scrubs credentials and infrastructure details from text before
// it is logged or returned to a client. Provider keys, bot tokens and
// connection strings routinely end up inside wrapped transport errors.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules run in order; earlier rules see the original text.
var rules = []rule{
	// Telegram Bot API paths and bare bot tokens
	{regexp.MustCompile(`bot\d{5,}:[A-Za-z0-9_-]{30,}`), "bot" + RedactedTokenPlaceholder},
	{regexp.MustCompile(`\b\d{5,}:AA[A-Za-z0-9_-]{30,}`), RedactedTokenPlaceholder},

	// Connection strings with user info
	{
		regexp.MustCompile(`(?i)(postgres|postgresql|redis|rediss|mongodb|amqp|database)://[^@\s]+@`),
		RedactedCredentialPlaceholder,
	},

	// Provider keys: Google (Gemini) and OpenAI-style (OpenRouter)
	{regexp.MustCompile(`AIza[0-9A-Za-z_-]{30,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`sk-(?:or-)?(?:v1-)?[A-Za-z0-9_-]{16,}`), RedactedKeyPlaceholder},

	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret|authorization|bearer)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},

	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), "[STACK_TRACE_REDACTED]"},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`(?:^|\s)(/[\w.-]+){2,}`), " " + RedactedPathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`), RedactedPathPlaceholder},
}

// String redacts sensitive information from s.
func String(s string) string {
	if s == "" {
		return s
	}
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.placeholder)
	}
	return s
}

// Error redacts the text of err. A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

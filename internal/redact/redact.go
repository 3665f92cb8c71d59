// Package redact masks credentials in text destined for logs or error
// messages. File paths stay readable; only values that look like secrets
// are replaced.
package redact

import "regexp"

// Rule pairs a secret-shaped pattern with its replacement token.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// defaultRules covers the credential formats that show up in AI provider
// errors and connection strings. Specific key formats come before the
// generic assignment pattern so they win.
var defaultRules = []Rule{
	{
		Name:        "anthropic_api_key",
		Pattern:     regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{40,}`),
		Replacement: "<ANTHROPIC_API_KEY>",
	},
	{
		Name:        "openai_api_key",
		Pattern:     regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
		Replacement: "<OPENAI_API_KEY>",
	},
	{
		Name:        "github_token",
		Pattern:     regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
		Replacement: "<GITHUB_TOKEN>",
	},
	{
		Name:        "aws_access_key",
		Pattern:     regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		Replacement: "<AWS_ACCESS_KEY>",
	},
	{
		Name:        "bearer_token",
		Pattern:     regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		Replacement: "Bearer <TOKEN>",
	},
	{
		Name:        "assigned_secret",
		Pattern:     regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|password|passwd)(\s*[=:]\s*)\S+`),
		Replacement: "$1$2<REDACTED>",
	},
}

// Mask replaces every secret-shaped substring in s.
func Mask(s string) string {
	for _, r := range defaultRules {
		s = r.Pattern.ReplaceAllString(s, r.Replacement)
	}
	return s
}

// MaskErr renders err through Mask. Nil-safe.
func MaskErr(err error) string {
	if err == nil {
		return ""
	}
	return Mask(err.Error())
}

// Package sanitize provides text sanitization utilities for user-provided
// content such as inbound email replies.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes all HTML tags from a string, making it safe for text-only
// storage and for inclusion in collaborator prompts.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a string for safe storage: strips HTML, drops control
// characters except newlines and tabs, and truncates to maxLen when
// maxLen > 0.
func Text(s string, maxLen int) string {
	stripped := StripHTML(s)

	var sb strings.Builder
	for _, r := range stripped {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	result := sb.String()

	if maxLen > 0 && len(result) > maxLen {
		result = result[:maxLen] + "... [truncated]"
	}
	return result
}

// Package shellwords tokenizes command lines using shell-like quoting rules.
package shellwords

import (
	"strings"
	"unicode"
)

// Split tokenizes a command line into an executable and its arguments.
//
// Whitespace separates tokens unless inside double quotes, a backslash escapes
// the next character, and quote characters toggle the in-quotes state while
// being removed from the token stream. An unterminated quote flushes the final
// token as-is.
func Split(commandLine string) []string {
	var tokens []string
	var current strings.Builder

	inQuotes := false
	escaped := false
	hasToken := false

	for _, r := range commandLine {
		switch {
		case escaped:
			current.WriteRune(r)
			hasToken = true
			escaped = false

		case r == '\\':
			escaped = true

		case r == '"':
			inQuotes = !inQuotes
			hasToken = true

		case unicode.IsSpace(r) && !inQuotes:
			if hasToken {
				tokens = append(tokens, current.String())
				current.Reset()
				hasToken = false
			}

		default:
			current.WriteRune(r)
			hasToken = true
		}
	}

	// A trailing backslash escapes nothing, keep it literal.
	if escaped {
		current.WriteRune('\\')
		hasToken = true
	}

	if hasToken {
		tokens = append(tokens, current.String())
	}

	return tokens
}

package shellwords_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskpilot/taskpilot/internal/utils/shellwords"
)

func TestSplit(t *testing.T) {
	tests := map[string]struct {
		commandLine string
		expTokens   []string
	}{
		"Plain words split on whitespace": {
			commandLine: "ls -la /tmp",
			expTokens:   []string{"ls", "-la", "/tmp"},
		},
		"Double quotes keep whitespace": {
			commandLine: `echo "hello world" foo`,
			expTokens:   []string{"echo", "hello world", "foo"},
		},
		"Backslash escapes whitespace": {
			commandLine: `a\ b`,
			expTokens:   []string{"a b"},
		},
		"Backslash escapes a quote": {
			commandLine: `echo \"hi\"`,
			expTokens:   []string{"echo", `"hi"`},
		},
		"Quotes are removed from tokens": {
			commandLine: `grep "foo"bar`,
			expTokens:   []string{"grep", "foobar"},
		},
		"Empty quotes produce an empty token": {
			commandLine: `printf ""`,
			expTokens:   []string{"printf", ""},
		},
		"Multiple spaces collapse": {
			commandLine: "echo   one    two",
			expTokens:   []string{"echo", "one", "two"},
		},
		"Tabs split tokens": {
			commandLine: "echo\tone",
			expTokens:   []string{"echo", "one"},
		},
		"Unterminated quote flushes the final token": {
			commandLine: `echo "unterminated arg`,
			expTokens:   []string{"echo", "unterminated arg"},
		},
		"Trailing backslash stays literal": {
			commandLine: `echo foo\`,
			expTokens:   []string{"echo", `foo\`},
		},
		"Empty input has no tokens": {
			commandLine: "",
			expTokens:   nil,
		},
		"Only whitespace has no tokens": {
			commandLine: "   ",
			expTokens:   nil,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expTokens, shellwords.Split(tc.commandLine))
		})
	}
}

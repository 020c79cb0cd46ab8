package util

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// tokenPattern matches {name} and {name:width}.
var tokenPattern = regexp.MustCompile(`\{([a-z_]+)(?::(-?\d+))?\}`)

// ExpandPattern replaces {token} placeholders with values from tokens.
// {token:N} pads the value with spaces to N runes, left-aligned; a negative
// N right-aligns. Values are never truncated. Unknown tokens are left as-is
// and a blank pattern expands to "".
func ExpandPattern(pattern string, tokens map[string]string) string {
	if strings.TrimSpace(pattern) == "" {
		return ""
	}
	return tokenPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		sub := tokenPattern.FindStringSubmatch(m)
		v, ok := tokens[sub[1]]
		if !ok {
			return m
		}
		v = strings.TrimSpace(v)
		if sub[2] == "" {
			return v
		}
		width, _ := strconv.Atoi(sub[2])
		return pad(v, width)
	})
}

func pad(s string, width int) string {
	left := width >= 0
	if !left {
		width = -width
	}
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if left {
		return s + strings.Repeat(" ", n)
	}
	return strings.Repeat(" ", n) + s
}

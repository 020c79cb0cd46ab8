package catalog

import "regexp"

// keyPattern matches a Hungarian-prefixed object key such as "_tsDateAdded":
// the closing quote must be followed by a colon, so string values are never
// touched. Group 1 is the type prefix, group 2 the CamelCase run.
var keyPattern = regexp.MustCompile(`"(_[a-z]+)((?:[A-Z][a-z0-9]*)+)"(\s*:)`)

// Humanize rewrites catalog keys in a raw response body to snake_case,
// dropping the type prefix: _tsDateAdded -> date_added, _idRow -> row.
func Humanize(body []byte) []byte {
	return keyPattern.ReplaceAllFunc(body, func(m []byte) []byte {
		sub := keyPattern.FindSubmatch(m)
		out := make([]byte, 0, len(m)+4)
		out = append(out, '"')
		out = append(out, snakeCase(sub[2])...)
		out = append(out, '"')
		return append(out, sub[3]...)
	})
}

// snakeCase lowers the first letter and turns every later capital into
// "_" + lowercase.
func snakeCase(run []byte) []byte {
	out := make([]byte, 0, len(run)+4)
	for i, c := range run {
		if 'A' <= c && c <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return out
}

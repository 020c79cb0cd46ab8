package logging

import (
	"net/url"
	"strings"
)

// sensitiveKeys are query parameter name fragments whose values are masked.
var sensitiveKeys = []string{"token", "key", "sig", "auth", "pass", "secret", "session"}

// SanitizeURL prepares a URL for logging: userinfo and fragment are dropped
// and values of credential-like query parameters are replaced with REDACTED.
// Catalog query parameters such as _sName are kept since they explain the
// request. Unparseable input is returned trimmed.
func SanitizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if s == "" || err != nil {
		return s
	}
	u.User = nil
	u.Fragment = ""
	if u.RawQuery != "" {
		q := u.Query()
		for k := range q {
			if isSensitive(k) {
				q[k] = []string{"REDACTED"}
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

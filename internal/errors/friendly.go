package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserFriendlyError is what the CLI and TUI show a user: what went wrong,
// what to try, and optionally where to read more. Details keeps the cause
// for logs and errors.Is.
type UserFriendlyError struct {
	Message    string
	Suggestion string
	DocsLink   string
	Details    error
}

func (e *UserFriendlyError) Error() string {
	parts := []string{e.Message}
	if e.Suggestion != "" {
		parts = append(parts, "How to fix:\n"+e.Suggestion)
	}
	if e.DocsLink != "" {
		parts = append(parts, "Documentation: "+e.DocsLink)
	}
	return strings.Join(parts, "\n\n")
}

func (e *UserFriendlyError) Unwrap() error { return e.Details }

func NewFriendlyError(message, suggestion string) *UserFriendlyError {
	return &UserFriendlyError{Message: message, Suggestion: suggestion}
}

func (e *UserFriendlyError) WithDetails(err error) *UserFriendlyError {
	e.Details = err
	return e
}

func (e *UserFriendlyError) WithDocs(link string) *UserFriendlyError {
	e.DocsLink = link
	return e
}

// networkRules map substrings of transport and HTTP status errors to advice.
// The first match wins.
var networkRules = []struct {
	match      []string
	message    string
	suggestion string
}{
	{[]string{"no such host", "name resolution"}, "Cannot resolve hostname - DNS lookup failed",
		"1. Check your internet connection\n2. Verify DNS settings\n3. Run 'ggmod doctor' to test catalog reachability"},
	{[]string{"connection refused"}, "Server refused connection",
		"The catalog may be down or blocking requests. Try again later."},
	{[]string{"timeout", "deadline exceeded"}, "Connection timed out",
		"Server is slow or unreachable. Try:\n1. Increase network.timeout_seconds in the config\n2. Check your network speed\n3. Try again later"},
	{[]string{"certificate", "x509"}, "SSL/TLS certificate verification failed",
		"You may be behind a corporate proxy. Try:\n  export SSL_CERT_FILE=/path/to/cert.pem"},
	{[]string{"status: 404", "status: 410"}, "The mod or file is no longer available",
		"It may have been withdrawn or moved; search for it again with 'ggmod search'"},
	{[]string{"status: 429"}, "The catalog is rate limiting requests",
		"Wait a minute before searching or downloading again"},
	{[]string{"status: 5"}, "The mod catalog is having problems",
		"Try again later"},
}

// NetworkError explains a catalog request or download failure.
func NetworkError(err error) *UserFriendlyError {
	fe := &UserFriendlyError{
		Message:    "Network error occurred",
		Suggestion: "Check your internet connection and try again",
		Details:    err,
	}
	if err == nil {
		return fe
	}
	errStr := err.Error()
	for _, r := range networkRules {
		for _, m := range r.match {
			if strings.Contains(errStr, m) {
				fe.Message, fe.Suggestion = r.message, r.suggestion
				return fe
			}
		}
	}
	return fe
}

// ConfigError points at a bad config field.
func ConfigError(field, issue string) *UserFriendlyError {
	return &UserFriendlyError{
		Message:    fmt.Sprintf("Configuration error in field '%s': %s", field, issue),
		Suggestion: "Run 'ggmod config validate' to check your configuration\nOr run 'ggmod config print' to see the effective values",
		DocsLink:   "https://github.com/jxwalker/ggmod#configuration",
	}
}

// PathError explains a filesystem failure on path, usually the mods
// directory or the download cache.
func PathError(path string, err error) *UserFriendlyError {
	fe := &UserFriendlyError{
		Message:    "Cannot use " + path,
		Suggestion: "Check that the path exists and you have permission to access it",
		Details:    err,
	}
	switch {
	case err == nil:
	case stderrors.Is(err, fs.ErrPermission) || strings.Contains(err.Error(), "permission denied"):
		fe.Message = "Permission denied: " + path
		fe.Suggestion = "Ensure you have write permission:\n  chmod u+w " + path
	case stderrors.Is(err, fs.ErrNotExist):
		fe.Message = "Directory does not exist: " + path
		fe.Suggestion = "Create it, or point game.mods_dir / general.data_root elsewhere:\n  mkdir -p " + path
	case strings.Contains(err.Error(), "not a directory"):
		fe.Message = "Path exists but is not a directory: " + path
		fe.Suggestion = "Remove the file or choose a different path"
	case strings.Contains(err.Error(), "no space left"):
		fe.Message = "Disk full while writing " + path
		fe.Suggestion = "Free some space or move general.download_root to a larger disk"
	}
	return fe
}

// Friendly turns any error from the core into a message a user can act on.
// Errors that already carry a UserFriendlyError are returned as-is.
func Friendly(err error) *UserFriendlyError {
	if err == nil {
		return nil
	}
	var uf *UserFriendlyError
	if stderrors.As(err, &uf) {
		return uf
	}
	switch KindOf(err) {
	case KindNotFound:
		return NewFriendlyError(err.Error(), "Run 'ggmod list' to see the ids of registered mods").WithDetails(err)
	case KindIndexOutOfRange:
		return NewFriendlyError(err.Error(), "Pick one of the file numbers shown for the mod").WithDetails(err)
	case KindAlreadyExists:
		return NewFriendlyError(err.Error(), "The mod is already registered; use 'ggmod install' to stage it").WithDetails(err)
	case KindNetwork:
		return NetworkError(err)
	case KindParse:
		return NewFriendlyError("Unexpected response from the mod catalog",
			"The catalog API may have changed. Run with --log-level debug and report the response").WithDetails(err)
	case KindIO:
		path := ""
		var pe *fs.PathError
		if stderrors.As(err, &pe) {
			path = pe.Path
		}
		if path == "" {
			return NewFriendlyError(err.Error(), "Check that the data, download and mods directories are writable").WithDetails(err)
		}
		return PathError(path, err)
	default:
		return &UserFriendlyError{Message: err.Error(), Details: err}
	}
}

package flows

import (
	"net/url"
	"strings"
)

// SafeNext returns next when it may be used as a post-flow destination.
// Unless allowExternal is set only local absolute paths are accepted.
func SafeNext(next string, allowExternal bool) string {
	if next == "" {
		return ""
	}
	if allowExternal {
		return next
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	for i := 0; i < len(next); i++ {
		if next[i] < 0x20 || next[i] == 0x7f {
			return ""
		}
	}
	return next
}

// AppendQueryParam appends key=QueryEscape(value) with '&' when uri already
// has a query, '?' otherwise.
func AppendQueryParam(uri, key, value string) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + key + "=" + url.QueryEscape(value)
}

// FailureRedirect points back at the submitting path with error=1 and the
// preserved next target.
func FailureRedirect(path, next string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	uri := path + "?error=1"
	if next != "" {
		uri = AppendQueryParam(uri, "next", next)
	}
	return uri
}

// ResetRedirect points at the login page with reset=1 and the preserved next target.
func ResetRedirect(loginURI, next string) string {
	uri := AppendQueryParam(loginURI, "reset", "1")
	if next != "" {
		uri = AppendQueryParam(uri, "next", next)
	}
	return uri
}

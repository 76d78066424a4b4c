package middleware

import (
	"net/http"
	"strings"

	"github.com/Wikid82/warden/backend/internal/util"
)

const maxLoggedValue = 200

// sensitiveHeaders are never logged, in lower case.
var sensitiveHeaders = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"cookie":              {},
	"set-cookie":          {},
	"x-api-key":           {},
	"x-auth-token":        {},
	"x-forwarded-for":     {},
}

// SanitizeHeaders returns a copy of h that is safe to log.
func SanitizeHeaders(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if _, ok := sensitiveHeaders[strings.ToLower(k)]; ok {
			out[k] = []string{"<redacted>"}
			continue
		}
		clean := make([]string, 0, len(vals))
		for _, v := range vals {
			clean = append(clean, util.Truncate(util.SanitizeForLog(v), maxLoggedValue))
		}
		out[k] = clean
	}
	return out
}

// SanitizePath strips the query string and control characters from p.
func SanitizePath(p string) string {
	if i := strings.IndexByte(p, '?'); i != -1 {
		p = p[:i]
	}
	return util.Truncate(util.SanitizeForLog(p), maxLoggedValue)
}

package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHeaders(t *testing.T) {
	assert.Nil(t, SanitizeHeaders(nil))

	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("X-Api-Key", "k")
	h.Set("User-Agent", "curl\n/8.0")
	h.Set("X-Long", strings.Repeat("a", 300))

	out := SanitizeHeaders(h)
	assert.Equal(t, []string{"<redacted>"}, out["Authorization"])
	assert.Equal(t, []string{"<redacted>"}, out["X-Api-Key"])
	assert.NotContains(t, out["User-Agent"][0], "\n")
	assert.Len(t, []rune(out["X-Long"][0]), 203)
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/vendors", SanitizePath("/api/v1/vendors?search=secret"))
	assert.NotContains(t, SanitizePath("/api/v1/\r\nvendors"), "\n")
}

package middleware

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig configures SecurityHeaders.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS for plain-HTTP local runs.
	IsDevelopment bool
	// AllowedOrigins are echoed in Access-Control-Allow-Origin. "*" allows
	// any origin.
	AllowedOrigins []string
}

// SecurityHeaders sets the response headers every JSON API response carries
// and answers CORS preflight requests.
func SecurityHeaders(cfg SecurityHeadersConfig) gin.HandlerFunc {
	csp := buildCSP()
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", csp)
		if !cfg.IsDevelopment {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")

		if origin := c.GetHeader("Origin"); origin != "" && originAllowed(allowed, origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Add("Vary", "Origin")
			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}
		}
		c.Next()
	}
}

func originAllowed(allowed map[string]struct{}, origin string) bool {
	if _, ok := allowed["*"]; ok {
		return true
	}
	_, ok := allowed[strings.TrimRight(origin, "/")]
	return ok
}

// buildCSP returns a policy that forbids any active content; the API only
// serves JSON.
func buildCSP() string {
	directives := map[string]string{
		"default-src":     "'none'",
		"frame-ancestors": "'none'",
		"base-uri":        "'none'",
		"form-action":     "'none'",
	}
	parts := make([]string, 0, len(directives))
	for k, v := range directives {
		parts = append(parts, k+" "+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

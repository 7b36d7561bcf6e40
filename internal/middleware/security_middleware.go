package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func SecurityHeadersMiddleware() gin.HandlerFunc {
	csp := buildContentSecurityPolicy(nil, nil)

	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("X-DNS-Prefetch-Control", "off")
		c.Header("X-Download-Options", "noopen")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Cross-Origin-Resource-Policy", "same-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("Content-Security-Policy", csp)
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Next()
	}
}

// buildContentSecurityPolicy assembles the CSP for API responses.
// Rendered pages embed uploaded images and media inline, so img-src and
// media-src allow data and blob URLs on top of any extra origins.
func buildContentSecurityPolicy(extraImageSources, extraMediaSources []string) string {
	imgSources := append([]string{"'self'", "data:", "blob:"}, extraImageSources...)
	mediaSources := append([]string{"'self'", "data:", "blob:"}, extraMediaSources...)

	directives := []string{
		"default-src 'self'",
		"img-src " + strings.Join(imgSources, " "),
		"media-src " + strings.Join(mediaSources, " "),
		"object-src 'none'",
		"base-uri 'self'",
		"frame-ancestors 'none'",
	}
	return strings.Join(directives, "; ")
}

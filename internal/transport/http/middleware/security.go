package middleware

import "github.com/gin-gonic/gin"

// SecurityHeaders debug 模式下放宽 CSP 便于本地调试，生产加 HSTS
func SecurityHeaders(debug bool) gin.HandlerFunc {
	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	if debug {
		headers["X-Frame-Options"] = "SAMEORIGIN"
	} else {
		headers["X-Frame-Options"] = "DENY"
		headers["Strict-Transport-Security"] = "max-age=31536000; includeSubDomains"
		headers["Content-Security-Policy"] = "default-src 'self'; frame-ancestors 'none'"
		headers["Permissions-Policy"] = "camera=(), microphone=(), geolocation=()"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for k, v := range headers {
			h.Set(k, v)
		}
		c.Next()
	}
}

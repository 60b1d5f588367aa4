package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/atylespot/conversions-relay/internal/handlers"
)

// RequestMeta is a middleware that adds client IP, user-agent, and referrer to
// the request context. The forwarder needs all three for event enrichment.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  extractClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

func extractClientIP(ctx huma.Context) string {
	// Check X-Forwarded-For first (may contain multiple IPs)
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP
	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to remote addr, then loopback
	host := ctx.Host()

	if ip, _, err := net.SplitHostPort(host); err == nil {
		host = ip
	}

	if host == "" {
		return "127.0.0.1"
	}

	return host
}

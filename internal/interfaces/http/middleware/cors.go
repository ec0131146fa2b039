// internal/interfaces/http/middleware/cors.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/your-org/checkout-backend/internal/config"
)

const corsMaxAge = "86400"

// originPolicy decides which browser origins may call the API.
// Entries are exact origins, "*" or a "*.domain" suffix.
type originPolicy struct {
	any      bool
	exact    []string
	suffixes []string
}

func newOriginPolicy(origins []string) originPolicy {
	var p originPolicy
	for _, o := range origins {
		switch {
		case o == "*":
			p.any = true
		case strings.HasPrefix(o, "*."):
			p.suffixes = append(p.suffixes, o[1:])
		default:
			p.exact = append(p.exact, strings.TrimSuffix(o, "/"))
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any || lo.Contains(p.exact, origin) {
		return true
	}
	return lo.SomeBy(p.suffixes, func(suffix string) bool { return strings.HasSuffix(origin, suffix) })
}

// CORS answers preflight requests and tags responses for allowed origins.
// Preflights from other origins are refused with 403.
func CORS(cfg config.SecurityConfig) gin.HandlerFunc {
	policy := newOriginPolicy(cfg.CORSAllowedOrigins)
	methods := strings.Join(cfg.CORSAllowedMethods, ", ")
	headers := strings.Join(cfg.CORSAllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		allowed := policy.allows(origin)
		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Expose-Headers", RequestIDHeader)
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Max-Age", corsMaxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}

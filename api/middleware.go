package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// MaxRequestSize bounds request bodies.
	MaxRequestSize = 1 << 20 // 1 MB

	contextKeyPrincipal = "principal"
	contextKeyRequestID = "request_id"
)

// AuthMiddleware resolves the bearer token to a principal. Authorization
// itself is decided by the keeper for each operation.
func (s *Server) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthenticated(c, "Bearer token required", "")
			return
		}

		claims, err := s.authService.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			abortUnauthenticated(c, "Invalid or expired token", err.Error())
			return
		}

		c.Set(contextKeyPrincipal, claims.Principal)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, msg, details string) {
	c.Header("WWW-Authenticate", `Bearer realm="poold"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:   msg,
		Code:    "UNAUTHENTICATED",
		Details: details,
	})
}

// CORSMiddleware echoes allowed origins and answers preflight requests.
func (s *Server) CORSMiddleware() gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(s.config.CORSOrigins))
	for _, origin := range s.config.CORSOrigins {
		allowed[origin] = struct{}{}
	}
	_, wildcard := allowed["*"]

	return func(c *gin.Context) {
		c.Writer.Header().Add("Vary", "Origin")
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok || wildcard {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Max-Age", "86400")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware gives every client IP a token bucket of rps with a
// burst of twice that.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	var limiters sync.Map // client IP -> *rate.Limiter

	return func(c *gin.Context) {
		v, _ := limiters.LoadOrStore(c.ClientIP(), rate.NewLimiter(rate.Limit(rps), 2*rps))
		if !v.(*rate.Limiter).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "Rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs each request through logger.
func LoggerMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if query := c.Request.URL.RawQuery; query != "" {
			path = path + "?" + query
		}

		c.Next()

		logger.Info("http request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(contextKeyRequestID),
		)
	}
}

// RequestIDMiddleware keeps a client supplied X-Request-ID when it is a
// UUID and mints one otherwise.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-Request-ID"))
		if err != nil {
			id = uuid.New()
		}
		c.Set(contextKeyRequestID, id.String())
		c.Header("X-Request-ID", id.String())
		c.Next()
	}
}

// SecurityHeadersMiddleware sets the headers every JSON response carries.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}

// RequestSizeLimitMiddleware caps the request body at maxBytes.
func RequestSizeLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "Request body too large",
				Code:  "REQUEST_TOO_LARGE",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// TimeoutMiddleware attaches a deadline to the request context.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func callerFrom(c *gin.Context) string {
	return c.GetString(contextKeyPrincipal)
}

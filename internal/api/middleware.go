package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"t2e-leaderboard/internal/authz"
)

const (
	authorizationHeader = "Authorization"
	requestIDHeader     = "X-Request-ID"
	requestIDKey        = "request_id"
)

// requestID propagates or assigns the X-Request-ID header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

// authenticate attaches the bearer token subject to the request context.
// Requests without a token continue anonymously; a bad token is rejected.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || token == "" {
			abort(c, http.StatusUnauthorized, "authorization header must be \"Bearer <token>\"")
			return
		}

		subject, err := s.tokens.Parse(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Request = c.Request.WithContext(authz.WithCaller(c.Request.Context(), subject))
		c.Next()
	}
}

// requireCaller rejects anonymous requests.
func requireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authz.CallerFrom(c.Request.Context()); !ok {
			abort(c, http.StatusUnauthorized, "bearer token required")
			return
		}
		c.Next()
	}
}

package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/bbelderbos/codeimages/internal/netx"
	"github.com/bbelderbos/codeimages/internal/server/metrics"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const accountKey = "account"

type ctxKey int

const requestIDCtxKey ctxKey = iota

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDCtxKey).(string)
	return id, ok
}

func requestID(c *gin.Context) string {
	id, _ := RequestIDFromContext(c.Request.Context())
	return id
}

// RequestID reuses the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(common.RequestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDCtxKey, id))
		c.Next()
	}
}

// AccessLog logs one line per request.
func AccessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"request_id", requestID(c),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "http request", args...)
		case status >= http.StatusBadRequest:
			logger.Warn(c.Request.Context(), "http request", args...)
		default:
			logger.Info(c.Request.Context(), "http request", args...)
		}
	}
}

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Recovery turns panics into a logged 500 envelope.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		logger.Error(c.Request.Context(), "panic recovered", "panic", rec, "path", c.Request.URL.Path, "request_id", requestID(c))
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	})
}

// Authenticate resolves the bearer token to an account and stores it on
// the gin context.
func Authenticate(accounts AccountService, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := netx.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			writeError(c, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
			return
		}
		account, err := accounts.ResolveToken(c.Request.Context(), token)
		if err != nil {
			writeDomainError(c, logger, err)
			return
		}
		c.Set(accountKey, account)
		c.Next()
	}
}

// currentAccount returns the account stored by Authenticate.
func currentAccount(c *gin.Context) *models.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	account, _ := v.(*models.Account)
	return account
}

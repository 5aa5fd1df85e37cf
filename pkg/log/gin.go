package log

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	headerRequestID = "X-Request-ID"
	lookupKey       = "log.lookup"
)

// LookupFields is the directory lookup a request served. Handlers record it
// with SetLookup so the access line says what was searched.
type LookupFields struct {
	Term         string
	CategoryCode string
	Page         int
	ResultCount  int
	TotalFound   int
}

// SetLookup attaches lookup details to the access line of the current request.
func SetLookup(c *gin.Context, f LookupFields) {
	c.Set(lookupKey, f)
}

// GinMiddleware injects a request-scoped logger and writes one access line
// per request. Successful requests to quietPaths are not logged.
func GinMiddleware(logger zerolog.Logger, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		status := c.Writer.Status()
		if _, ok := quiet[c.Request.URL.Path]; ok && status < 400 {
			return
		}

		evt := accessEvent(&child, status).
			Int(FieldStatus, status).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds()))

		if route := c.FullPath(); route != "" {
			evt = evt.Str(FieldRoute, route)
		}
		// Tenant and user are set by the auth middleware during c.Next().
		if tenantID := c.GetString(FieldTenantID); tenantID != "" {
			evt = evt.Str(FieldTenantID, tenantID)
		}
		if userID := c.GetString(FieldUserID); userID != "" {
			evt = evt.Str(FieldUserID, userID)
		}
		if v, ok := c.Get(lookupKey); ok {
			if f, ok := v.(LookupFields); ok {
				evt = withLookup(evt, f)
			}
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.Msg("request completed")
	}
}

func accessEvent(l *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return l.Error()
	case status >= 400:
		return l.Warn()
	default:
		return l.Info()
	}
}

func withLookup(evt *zerolog.Event, f LookupFields) *zerolog.Event {
	if f.Term != "" {
		evt = evt.Str(FieldTerm, f.Term)
	}
	if f.CategoryCode != "" {
		evt = evt.Str(FieldCategory, f.CategoryCode)
	}
	if f.Page > 0 {
		evt = evt.Int(FieldPage, f.Page)
	}
	return evt.Int(FieldResultCount, f.ResultCount).Int(FieldTotalFound, f.TotalFound)
}

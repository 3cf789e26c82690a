package logger

import (
	"context"
	"log/slog"
	"time"
)

type contextKey struct{}

// LogContext carries request-scoped fields. The API middleware creates one
// per request; later stages attach enriched copies with WithContext.
type LogContext struct {
	TraceID   string
	SpanID    string
	RequestID string
	Operation string // upload, rename, batch_download, ...
	ClientIP  string // without port
	UserID    string
	Username  string
	StartTime time.Time
}

// WithContext returns a child of ctx carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, contextKey{}, lc)
}

// FromContext returns the LogContext stored in ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(contextKey{}).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for a request from clientIP.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{ClientIP: clientIP, StartTime: time.Now()}
}

// Clone returns a shallow copy, or nil for a nil receiver.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithOperation returns a copy naming the operation in progress.
func (lc *LogContext) WithOperation(op string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Operation = op
	}
	return c
}

// WithUser returns a copy carrying the authenticated user.
func (lc *LogContext) WithUser(userID, username string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.UserID, c.Username = userID, username
	}
	return c
}

// WithTrace returns a copy carrying the active span.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID, c.SpanID = traceID, spanID
	}
	return c
}

// DurationMs returns the milliseconds elapsed since StartTime.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}

// attrs lists the non-empty fields in output order.
func (lc *LogContext) attrs() []slog.Attr {
	fields := [...]struct{ key, val string }{
		{KeyTraceID, lc.TraceID},
		{KeySpanID, lc.SpanID},
		{KeyRequestID, lc.RequestID},
		{KeyOperation, lc.Operation},
		{KeyClientIP, lc.ClientIP},
		{KeyUserID, lc.UserID},
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		if f.val != "" {
			attrs = append(attrs, slog.String(f.key, f.val))
		}
	}
	return attrs
}

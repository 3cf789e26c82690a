package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TextTimeLayout is the timestamp layout of text records. `dittodrive logs
// --since` parses it back.
const TextTimeLayout = "2006-01-02 15:04:05"

const (
	ansiReset = "\033[0m"
	ansiKey   = "\033[36m"
)

// levelLabels holds the bracketed name and color of each level band.
var levelLabels = []struct {
	min   slog.Level
	name  string
	color string
}{
	{slog.LevelError, "ERROR", "\033[31m"},
	{slog.LevelWarn, "WARN", "\033[33m"},
	{slog.LevelInfo, "INFO", "\033[32m"},
	{slog.Level(math.MinInt), "DEBUG", "\033[90m"},
}

// ColorTextHandler writes one line per record:
//
//	[2006-01-02 15:04:05] [INFO] message key=value ...
//
// Keys and level names are colored when color is enabled.
type ColorTextHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	color  bool
	prefix string // key prefix from WithGroup, "a.b."
	preset []byte // attrs bound with WithAttrs, already formatted
}

// NewColorTextHandler creates a ColorTextHandler writing to w.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions, useColor bool) *ColorTextHandler {
	var lvl slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		lvl = opts.Level
	}
	return &ColorTextHandler{level: lvl, w: w, mu: &sync.Mutex{}, color: useColor}
}

// Enabled reports whether level passes the handler's minimum.
func (h *ColorTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats r into a local buffer and writes it in one call.
func (h *ColorTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString(r.Time.Format(TextTimeLayout))
	buf.WriteString("] [")
	h.writeLevel(&buf, r.Level)
	buf.WriteString("] ")
	buf.WriteString(r.Message)
	buf.Write(h.preset)
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *ColorTextHandler) writeLevel(buf *bytes.Buffer, level slog.Level) {
	for _, l := range levelLabels {
		if level < l.min {
			continue
		}
		if h.color {
			buf.WriteString(l.color + l.name + ansiReset)
		} else {
			buf.WriteString(l.name)
		}
		return
	}
}

// writeAttr appends " key=value". Groups are flattened into dotted keys.
func (h *ColorTextHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(buf, inner, ga)
		}
		return
	}

	buf.WriteByte(' ')
	if h.color {
		buf.WriteString(ansiKey + prefix + a.Key + ansiReset)
	} else {
		buf.WriteString(prefix + a.Key)
	}
	buf.WriteByte('=')
	buf.WriteString(formatValue(a.Value))
}

// formatValue renders v for text output. Strings containing spaces, quotes,
// or '=' are quoted.
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 3, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}

// WithAttrs returns a handler that writes attrs on every record.
func (h *ColorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	buf.Write(h.preset)
	for _, a := range attrs {
		h.writeAttr(&buf, h.prefix, a)
	}
	c := *h
	c.preset = buf.Bytes()
	return &c
}

// WithGroup returns a handler that prefixes later keys with name.
func (h *ColorTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

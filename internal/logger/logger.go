// Package logger provides a convenience function to constructing a logger
// for use. This is required not just for applications but for testing.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rschio/walletledger/internal/web"
)

// New constructs a slog Logger that writes JSON to stdout.
func New(service string, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, service, level)
}

// NewWithWriter constructs a JSON logger that writes to w. Every record
// carries the service name, the trace id and, inside a request, the
// request id.
func NewWithWriter(w io.Writer, service string, level string) *slog.Logger {
	opts := slog.HandlerOptions{
		AddSource:   true,
		Level:       ParseLevel(level),
		ReplaceAttr: trimSource,
	}
	jh := slog.NewJSONHandler(w, &opts)
	return slog.New(withTraceID{Handler: jh}).With("service", service)
}

// ParseLevel converts a level name to a slog.Level, INFO when unknown.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func trimSource(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok {
		src.File = filepath.Base(src.File)
	}
	return a
}

type withTraceID struct {
	slog.Handler
}

func (h withTraceID) Handle(ctx context.Context, r slog.Record) error {
	r.Add("trace_id", web.GetTraceID(ctx))
	if id := web.GetRequestID(ctx); id != "" {
		r.Add("request_id", id)
	}

	return h.Handler.Handle(ctx, r)
}

func (h withTraceID) WithAttrs(attrs []slog.Attr) slog.Handler {
	hwa := h.Handler.WithAttrs(attrs)
	return withTraceID{Handler: hwa}
}

func (h withTraceID) WithGroup(name string) slog.Handler {
	hwg := h.Handler.WithGroup(name)
	return withTraceID{Handler: hwg}
}

// InfocCtx logs at info level reporting the source of the caller frame
// skipped by caller.
func InfocCtx(ctx context.Context, log *slog.Logger, caller int, msg string, args ...any) {
	if !log.Enabled(ctx, slog.LevelInfo) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(caller, pcs[:]) // skip [Callers, Infof]

	r := slog.NewRecord(time.Now(), slog.LevelInfo, msg, pcs[0])
	r.Add(args...)

	log.Handler().Handle(ctx, r)
}

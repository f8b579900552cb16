package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/giovaniif/fundraising/infra/requestid"
)

type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string
	Extra  io.Writer
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func logColors(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// NewHandler builds the process handler. Colored text goes to stdout; the
// rotating file and any extra writer (Loki) always receive JSON lines.
func NewHandler(stdout io.Writer, opts Options) (slog.Handler, io.Closer) {
	level := ParseLevel(opts.Level)

	var console slog.Handler
	if opts.Format == "json" {
		console = slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: level})
	} else {
		console = tint.NewHandler(stdout, &tint.Options{
			Level: level,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if _, ok := attr.Value.Any().(error); attr.Key == "err" || ok {
					return tint.Attr(9, attr)
				}
				return attr
			},
			TimeFormat: time.RFC3339,
			NoColor:    !logColors(stdout),
		})
	}

	var sinks []io.Writer
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			Compress:   true,
		}
		sinks = append(sinks, file)
		closer = file
	}
	if opts.Extra != nil {
		sinks = append(sinks, opts.Extra)
	}

	handlers := []slog.Handler{console}
	if len(sinks) > 0 {
		handlers = append(handlers, slog.NewJSONHandler(io.MultiWriter(sinks...), &slog.HandlerOptions{Level: level}))
	}
	return requestIDHandler{slogmulti.Fanout(handlers...)}, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// requestIDHandler adds the request id stored in the context to every record.
type requestIDHandler struct {
	slog.Handler
}

func (h requestIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := requestid.FromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return requestIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h requestIDHandler) WithGroup(name string) slog.Handler {
	return requestIDHandler{h.Handler.WithGroup(name)}
}

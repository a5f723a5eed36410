package vecproof

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/hupe1980/vecproof/fingerprint"
	"github.com/hupe1980/vecproof/provenance"
)

// LogFormat selects the slog handler used by NewLogger.
type LogFormat string

const (
	// LogFormatText writes logfmt-style lines through slog.TextHandler.
	LogFormatText LogFormat = "text"
	// LogFormatJSON writes one JSON object per record.
	LogFormatJSON LogFormat = "json"
)

// Logger is a slog.Logger with helpers that emit the engine's events with
// stable attribute keys.
type Logger struct {
	*slog.Logger
}

// NewLogger writes records at or above level to w. Unknown formats fall back
// to text.
func NewLogger(w io.Writer, format LogFormat, level slog.Leveler) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == LogFormatJSON {
		return NewHandlerLogger(slog.NewJSONHandler(w, opts))
	}
	return NewHandlerLogger(slog.NewTextHandler(w, opts))
}

// NewHandlerLogger wraps an existing handler, or a stderr text handler when h
// is nil.
func NewHandlerLogger(h slog.Handler) *Logger {
	if h == nil {
		h = slog.NewTextHandler(os.Stderr, nil)
	}
	return &Logger{Logger: slog.New(h)}
}

// NewTextLogger logs text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(os.Stderr, LogFormatText, level)
}

// NoopLogger drops every record.
func NoopLogger() *Logger {
	return NewHandlerLogger(slog.DiscardHandler)
}

// WithRunID tags all records with a run identifier.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{Logger: l.With(slog.String("run_id", id))}
}

// WithDataset tags all records with a dataset fingerprint.
func (l *Logger) WithDataset(fp fingerprint.Fingerprint) *Logger {
	return &Logger{Logger: l.With(slog.String("dataset", fp.String()))}
}

// outcome logs msg+" completed" at info level, or msg+" failed" at error
// level with the error attached.
func (l *Logger) outcome(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if err != nil {
		l.LogAttrs(ctx, slog.LevelError, msg+" failed", append(attrs, slog.Any("error", err))...)
		return
	}
	l.LogAttrs(ctx, slog.LevelInfo, msg+" completed", attrs...)
}

// LogReduce logs a lossless reduction. reducedRows is omitted on failure.
func (l *Logger) LogReduce(ctx context.Context, mode string, rows, reducedRows int, err error) {
	attrs := []slog.Attr{slog.String("mode", mode), slog.Int("rows", rows)}
	if err == nil {
		attrs = append(attrs, slog.Int("reduced_rows", reducedRows))
	}
	l.outcome(ctx, "reduce", err, attrs...)
}

// LogCluster logs a near-duplicate clustering. modes is omitted on failure.
func (l *Logger) LogCluster(ctx context.Context, threshold float64, rows, modes int, err error) {
	attrs := []slog.Attr{slog.Float64("threshold", threshold), slog.Int("rows", rows)}
	if err == nil {
		attrs = append(attrs, slog.Int("modes", modes))
	}
	l.outcome(ctx, "cluster", err, attrs...)
}

// LogVerify logs a verification. rec is nil when verification could not run.
func (l *Logger) LogVerify(ctx context.Context, rec *provenance.Record, err error) {
	if rec == nil {
		l.LogAttrs(ctx, slog.LevelError, "verification failed", slog.Any("error", err))
		return
	}

	attrs := []slog.Attr{
		slog.String("mode", rec.Mode),
		slog.String("original", rec.Original.String()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("expanded", rec.Expanded.String()),
			slog.Bool("byte_equal", rec.ByteEqual),
			slog.Bool("hash_equal", rec.HashEqual),
			slog.Any("error", err),
		)
		l.LogAttrs(ctx, slog.LevelError, "verification failed", attrs...)
		return
	}
	l.LogAttrs(ctx, slog.LevelInfo, "verification passed", append(attrs, slog.Float64("ratio", rec.Ratio))...)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package logging provides structured logging with OpenTelemetry trace
// context and PII redaction.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"

	"github.com/gatewarden/gatewarden/internal/redact"
)

// LineSeparator is the field separator assumed when redacting free-form
// log messages of the form "k=v;k=v".
const LineSeparator = ";"

// DefaultRedactedFields are the attribute keys whose values never reach
// a log sink. Config can extend the set but not shrink it.
var DefaultRedactedFields = []string{"password", "reset_token", "session_token"}

// traceHandler wraps a slog.Handler to add service identity and trace
// context.
type traceHandler struct {
	handler slog.Handler
	service string
	version string
}

// Handle adds service/version and trace context to the record.
func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, r)
}

// Enabled returns true if the level is enabled.
func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes.
func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{
		handler: h.handler.WithAttrs(attrs),
		service: h.service,
		version: h.version,
	}
}

// WithGroup returns a new handler with the given group.
func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{
		handler: h.handler.WithGroup(name),
		service: h.service,
		version: h.version,
	}
}

// redactHandler wraps a slog.Handler to obfuscate sensitive values.
// Attribute values are replaced outright when their key is a redacted
// field; the message and other string values are run through the line
// redactor so embedded "password=..." pairs are scrubbed too.
type redactHandler struct {
	handler  slog.Handler
	redactor *redact.Redactor
}

// NewRedactingHandler wraps next so that values of the named fields are
// replaced with replacement. With no fields it returns next unchanged.
func NewRedactingHandler(next slog.Handler, fields []string, replacement string) slog.Handler {
	r := redact.New(fields, replacement, LineSeparator)
	if r == nil {
		return next
	}
	return &redactHandler{handler: next, redactor: r}
}

// Handle rewrites the record with sensitive values replaced.
func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	nr := slog.NewRecord(r.Time, r.Level, h.redactor.Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		nr.AddAttrs(h.redactAttr(a))
		return true
	})
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, nr)
}

// redactAttr replaces the value when the key is a redacted field, and
// scrubs embedded pairs out of string values otherwise.
func (h *redactHandler) redactAttr(a slog.Attr) slog.Attr {
	if h.redactor.Hides(a.Key) {
		return slog.String(a.Key, h.redactor.Replacement())
	}
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]any, 0, len(attrs))
		for _, ga := range attrs {
			out = append(out, h.redactAttr(ga))
		}
		return slog.Group(a.Key, out...)
	case slog.KindString:
		return slog.String(a.Key, h.redactor.Redact(a.Value.String()))
	default:
		return a
	}
}

// Enabled returns true if the level is enabled.
func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes, redacted.
func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = h.redactAttr(a)
	}
	return &redactHandler{handler: h.handler.WithAttrs(out), redactor: h.redactor}
}

// WithGroup returns a new handler with the given group.
func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{handler: h.handler.WithGroup(name), redactor: h.redactor}
}

// Setup creates a configured slog.Logger. The chain is
// redact → trace → JSON/text sink, so no stage below the redactor ever
// sees a sensitive value.
// format: "json" or "text" (defaults to "json" if empty).
// redactFields extends DefaultRedactedFields.
// If w is nil, writes to os.Stderr.
func Setup(service, version, format string, redactFields []string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	var baseHandler slog.Handler
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	if format == "text" {
		baseHandler = slog.NewTextHandler(w, opts)
	} else {
		baseHandler = slog.NewJSONHandler(w, opts)
	}

	fields := append([]string{}, DefaultRedactedFields...)
	fields = append(fields, redactFields...)

	var handler slog.Handler = &traceHandler{
		handler: baseHandler,
		service: service,
		version: version,
	}
	handler = NewRedactingHandler(handler, fields, "[REDACTED]")

	return slog.New(handler)
}

// SetDefault sets up and installs the default logger.
func SetDefault(service, version, format string, redactFields []string) {
	logger := Setup(service, version, format, redactFields, nil)
	slog.SetDefault(logger)
}

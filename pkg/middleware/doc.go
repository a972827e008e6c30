// Package middleware provides net/http middleware for the live server.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request duration metrics
//   - Structured access logging with slog
//
// All three compose with chi:
//
//	r := chi.NewRouter()
//	r.Use(chimw.RequestID)
//	r.Use(middleware.Logger(logger))
//	r.Use(middleware.Tracing())
//	r.Use(middleware.Metrics(m))
//
// # Route patterns
//
// When the handler is served by chi, spans, log lines and metric labels name
// the matched route pattern ("/*", "/_pushroute/live") instead of the raw
// path, which keeps label cardinality bounded.
//
// # Tracing
//
// The tracer comes from the global OpenTelemetry tracer provider. Configure
// it in main() before starting the server:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
// Router spans started while handling a request become children of the
// request span.
package middleware

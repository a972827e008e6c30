package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vango-dev/pushroute/pkg/metrics"
	"github.com/vango-dev/pushroute/pkg/routepath"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NotFoundTitle is the document title used for the not-found page.
const NotFoundTitle = "Not Found"

const defaultTracerName = "pushroute"

// Router errors.
var (
	ErrDefaultNotRegistered = errors.New("default route is not registered")
	ErrNoDefaultRoute       = errors.New("no default route configured")
	ErrMalformedState       = errors.New("malformed history state")
)

type route struct {
	content string
	title   string
}

// Router maps paths to content and keeps the history stack in step with
// what is displayed.
//
// A Router is not safe for concurrent use. All calls, including the history
// notifications it subscribes to, are expected to arrive from one event loop.
type Router struct {
	routes       map[string]route
	defaultRoute string
	notFound     *string

	location Location
	renderer Renderer
	history  History

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics records navigation outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for navigation spans.
// Defaults to the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Router) {
		r.tracer = tracer
	}
}

// WithNotFound sets the page shown for unknown paths while no default route
// is configured. It is rendered under NotFoundTitle and never pushed onto
// the history stack.
func WithNotFound(content string) Option {
	return func(r *Router) {
		r.notFound = &content
	}
}

// New creates a router over the given environment and subscribes it to
// history changes for the router's lifetime.
func New(location Location, renderer Renderer, history History, opts ...Option) *Router {
	r := &Router{
		routes:   make(map[string]route),
		location: location,
		renderer: renderer,
		history:  history,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default().With("component", "router")
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(defaultTracerName)
	}

	history.Subscribe(func(ev HistoryEvent) {
		if err := r.OnHistoryChange(ev); err != nil {
			r.logger.Warn("history replay rejected", "error", err)
		}
	})
	return r
}

// Register inserts or overwrites the content for path. The document title
// shown for the route is the path itself.
//
// Register panics if path cannot be canonicalized, the same way a malformed
// pattern panics in chi or http.ServeMux.
func (r *Router) Register(path, content string) {
	r.RegisterTitled(path, "", content)
}

// RegisterTitled is Register with an explicit document title.
// An empty title falls back to the path.
func (r *Router) RegisterTitled(path, title, content string) {
	clean, err := routepath.Clean(path)
	if err != nil {
		panic(fmt.Sprintf("pushroute: invalid route path %q: %v", path, err))
	}
	if title == "" {
		title = clean
	}
	r.routes[clean] = route{content: content, title: title}
}

// SetDefault records path as the fallback for root and unknown paths.
// The path must already be registered; routes are never removed, so a
// default accepted here stays resolvable.
func (r *Router) SetDefault(path string) error {
	clean, err := routepath.Clean(path)
	if err != nil {
		return fmt.Errorf("set default %q: %w", path, err)
	}
	if _, ok := r.routes[clean]; !ok {
		return fmt.Errorf("set default %q: %w", clean, ErrDefaultNotRegistered)
	}
	r.defaultRoute = clean
	return nil
}

// Default returns the default route, or "" if none is set.
func (r *Router) Default() string {
	return r.defaultRoute
}

// Lookup returns the state that navigating to path would push.
func (r *Router) Lookup(path string) (State, bool) {
	clean, err := routepath.Clean(path)
	if err != nil {
		return State{}, false
	}
	rt, ok := r.routes[clean]
	if !ok {
		return State{}, false
	}
	return State{Content: rt.content, Title: rt.title}, true
}

// Routes returns the registered paths in lexical order.
func (r *Router) Routes() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ResolveCurrent navigates to the path currently shown by the Location.
// The root path resolves to the default route. If the Location is a
// SearchLocation, its query string is carried into the pushed url unless
// the path falls back to the default route. Call it once, after all routes
// are registered.
func (r *Router) ResolveCurrent() error {
	return r.ResolveCurrentContext(context.Background())
}

// ResolveCurrentContext is ResolveCurrent with a parent context for tracing.
func (r *Router) ResolveCurrentContext(ctx context.Context) error {
	path := r.location.Path()
	if routepath.IsRoot(path) && r.defaultRoute != "" {
		path = r.defaultRoute
	}
	if sl, ok := r.location.(SearchLocation); ok {
		if q := sl.Search(); q != "" {
			path += "?" + q
		}
	}
	return r.NavigateContext(ctx, path)
}

// Navigate renders the content registered for path and pushes a matching
// history entry. An unregistered path is redirected once to the default
// route.
func (r *Router) Navigate(path string, opts ...NavigateOption) error {
	return r.NavigateContext(context.Background(), path, opts...)
}

// NavigateContext is Navigate with a parent context for tracing.
func (r *Router) NavigateContext(ctx context.Context, path string, opts ...NavigateOption) error {
	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	_, span := r.tracer.Start(ctx, "pushroute.navigate",
		trace.WithAttributes(
			attribute.String("pushroute.path", path),
			attribute.Bool("pushroute.replace", options.Replace),
		),
	)
	defer span.End()

	outcome, err := r.navigate(path, options)

	span.SetAttributes(attribute.String("pushroute.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.metrics.RecordNavigation(outcome)
	return err
}

func (r *Router) navigate(target string, options NavigateOptions) (string, error) {
	res, err := routepath.Canonicalize(target)
	if err != nil {
		return metrics.OutcomeError, fmt.Errorf("navigate %q: %w", target, err)
	}

	path, query := res.Path, res.Query
	outcome := metrics.OutcomeDirect

	// At most one redirect hop: the default route is checked at SetDefault
	// time, so a miss here means no default exists at all.
	rt, ok := r.routes[path]
	if !ok {
		if r.defaultRoute == "" {
			if r.notFound != nil {
				r.logger.Debug("route not registered, showing not-found page", "path", path)
				if err := r.renderer.Render(*r.notFound, NotFoundTitle); err != nil {
					return metrics.OutcomeError, fmt.Errorf("render not-found page: %w", err)
				}
				return metrics.OutcomeNotFound, nil
			}
			return metrics.OutcomeError, fmt.Errorf("navigate %q: %w", path, ErrNoDefaultRoute)
		}

		r.logger.Debug("route not registered, falling back to default",
			"path", path, "default", r.defaultRoute)
		path, query = r.defaultRoute, ""
		outcome = metrics.OutcomeFallback
		if rt, ok = r.routes[path]; !ok {
			return metrics.OutcomeError, fmt.Errorf("navigate %q: %w", path, ErrDefaultNotRegistered)
		}
	}

	url, err := buildURL(path, query, options.Params)
	if err != nil {
		return metrics.OutcomeError, fmt.Errorf("navigate %q: %w", target, err)
	}

	state := State{Content: rt.content, Title: rt.title}
	if err := r.renderer.Render(state.Content, state.Title); err != nil {
		return metrics.OutcomeError, fmt.Errorf("render %q: %w", path, err)
	}

	if options.Replace {
		err = r.history.ReplaceState(state, state.Title, url)
	} else {
		err = r.history.PushState(state, state.Title, url)
	}
	if err != nil {
		return metrics.OutcomeError, fmt.Errorf("record history for %q: %w", path, err)
	}
	return outcome, nil
}

// OnHistoryChange redraws the state carried by a back/forward event.
// The route table is not consulted, so the page looks exactly as it did when
// the entry was pushed. Events without state are ignored.
func (r *Router) OnHistoryChange(ev HistoryEvent) error {
	return r.OnHistoryChangeContext(context.Background(), ev)
}

// OnHistoryChangeContext is OnHistoryChange with a parent context for tracing.
func (r *Router) OnHistoryChangeContext(ctx context.Context, ev HistoryEvent) error {
	if ev.State == nil {
		return nil
	}

	_, span := r.tracer.Start(ctx, "pushroute.history_change",
		trace.WithAttributes(attribute.String("pushroute.title", ev.State.Title)),
	)
	defer span.End()

	err := ev.State.Validate()
	if err == nil {
		err = r.renderer.Render(ev.State.Content, ev.State.Title)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.metrics.RecordReplay(err)
	return err
}

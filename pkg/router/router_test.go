package router

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/pushroute/pkg/metrics"
)

type pushed struct {
	state   State
	title   string
	url     string
	replace bool
}

// fakeEnv records everything a router writes to its environment.
type fakeEnv struct {
	path     string
	query    string
	content  string
	title    string
	renders  int
	pushes   []pushed
	listener func(HistoryEvent)

	renderErr error
}

func (e *fakeEnv) Path() string { return e.path }

func (e *fakeEnv) Search() string { return e.query }

func (e *fakeEnv) Render(content, title string) error {
	if e.renderErr != nil {
		return e.renderErr
	}
	e.content, e.title = content, title
	e.renders++
	return nil
}

func (e *fakeEnv) PushState(state State, title, url string) error {
	e.pushes = append(e.pushes, pushed{state: state, title: title, url: url})
	return nil
}

func (e *fakeEnv) ReplaceState(state State, title, url string) error {
	e.pushes = append(e.pushes, pushed{state: state, title: title, url: url, replace: true})
	return nil
}

func (e *fakeEnv) Subscribe(fn func(HistoryEvent)) { e.listener = fn }

func (e *fakeEnv) top(t *testing.T) pushed {
	t.Helper()
	if len(e.pushes) == 0 {
		t.Fatal("no history entries pushed")
	}
	return e.pushes[len(e.pushes)-1]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, opts ...Option) (*Router, *fakeEnv) {
	t.Helper()
	env := &fakeEnv{path: "/"}
	r := New(env, env, env, append([]Option{WithLogger(quietLogger())}, opts...)...)
	r.Register("/about", "<div>About me</div>")
	r.Register("/home", "<div>Custom client router</div>")
	r.Register("/contact", "<div>clientrouter@xyz.com</div>")
	if err := r.SetDefault("/home"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	return r, env
}

func TestNewSubscribesToHistory(t *testing.T) {
	_, env := newTestRouter(t)
	if env.listener == nil {
		t.Fatal("router did not subscribe to history")
	}
}

func TestNavigateRegistered(t *testing.T) {
	r, env := newTestRouter(t)

	for _, path := range []string{"/about", "/home", "/contact"} {
		want, _ := r.Lookup(path)
		if err := r.Navigate(path); err != nil {
			t.Fatalf("Navigate(%q): %v", path, err)
		}
		if env.content != want.Content {
			t.Errorf("content = %q, want %q", env.content, want.Content)
		}
		if env.title != path {
			t.Errorf("title = %q, want %q", env.title, path)
		}
		top := env.top(t)
		if top.state != (State{Content: want.Content, Title: path}) {
			t.Errorf("pushed state = %+v", top.state)
		}
		if top.url != path || top.title != path {
			t.Errorf("pushed url/title = %q/%q, want %q", top.url, top.title, path)
		}
	}
}

func TestNavigateUnknownFallsBackToDefault(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.Navigate("/unknown"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if env.content != "<div>Custom client router</div>" || env.title != "/home" {
		t.Errorf("rendered %q/%q, want default route", env.content, env.title)
	}
	if top := env.top(t); top.url != "/home" {
		t.Errorf("pushed url = %q, want /home", top.url)
	}
}

func TestNavigateCanonicalizesPath(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.Navigate("/about/"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if env.title != "/about" {
		t.Errorf("title = %q, want /about", env.title)
	}
}

func TestNavigateInvalidPath(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.Navigate("/../etc"); err == nil {
		t.Fatal("expected error for path escaping root")
	}
	if env.renders != 0 || len(env.pushes) != 0 {
		t.Error("invalid path must not render or push")
	}
}

func TestNavigateWithoutDefault(t *testing.T) {
	env := &fakeEnv{path: "/"}
	r := New(env, env, env, WithLogger(quietLogger()))
	r.Register("/about", "about")

	err := r.Navigate("/missing")
	if !errors.Is(err, ErrNoDefaultRoute) {
		t.Fatalf("Navigate error = %v, want ErrNoDefaultRoute", err)
	}
	if env.renders != 0 || len(env.pushes) != 0 {
		t.Error("failed navigation must not render or push")
	}
}

func TestNavigateNotFoundPage(t *testing.T) {
	env := &fakeEnv{path: "/"}
	r := New(env, env, env, WithLogger(quietLogger()), WithNotFound("page not found"))
	r.Register("/about", "about")

	if err := r.Navigate("/missing"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if env.content != "page not found" || env.title != NotFoundTitle {
		t.Errorf("rendered %q/%q", env.content, env.title)
	}
	if len(env.pushes) != 0 {
		t.Error("not-found page must not be pushed")
	}
}

func TestNavigateWithReplace(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.Navigate("/about", WithReplace()); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if top := env.top(t); !top.replace {
		t.Error("expected ReplaceState")
	}
}

func TestNavigateWithParams(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.Navigate("/about?tab=bio", WithParams(map[string]any{"page": 2})); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	top := env.top(t)
	if top.url != "/about?page=2&tab=bio" {
		t.Errorf("url = %q", top.url)
	}
	if top.state.Title != "/about" || env.title != "/about" {
		t.Errorf("title must be the bare path, got %q", top.state.Title)
	}
}

func TestNavigateFallbackDropsQuery(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.Navigate("/nope?x=1"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if top := env.top(t); top.url != "/home" {
		t.Errorf("url = %q, want /home", top.url)
	}
}

func TestNavigateRenderError(t *testing.T) {
	r, env := newTestRouter(t)
	env.renderErr = errors.New("display gone")

	if err := r.Navigate("/about"); err == nil {
		t.Fatal("expected render error")
	}
	if len(env.pushes) != 0 {
		t.Error("history must not be pushed when render fails")
	}
}

func TestRegisterOverwrites(t *testing.T) {
	r, env := newTestRouter(t)
	r.Register("/about", "<div>v2</div>")

	if err := r.Navigate("/about"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if env.content != "<div>v2</div>" {
		t.Errorf("content = %q", env.content)
	}
}

func TestRegisterTitled(t *testing.T) {
	r, env := newTestRouter(t)
	r.RegisterTitled("/blog", "Blog", "<div>posts</div>")

	if err := r.Navigate("/blog"); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if env.title != "Blog" || env.top(t).state.Title != "Blog" {
		t.Errorf("title = %q, want Blog", env.title)
	}
	if env.top(t).url != "/blog" {
		t.Errorf("url = %q, want /blog", env.top(t).url)
	}
}

func TestRegisterInvalidPathPanics(t *testing.T) {
	r, _ := newTestRouter(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	r.Register("/a\\b", "x")
}

func TestSetDefaultRequiresRegisteredRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	err := r.SetDefault("/missing")
	if !errors.Is(err, ErrDefaultNotRegistered) {
		t.Fatalf("SetDefault error = %v, want ErrDefaultNotRegistered", err)
	}
	if r.Default() != "/home" {
		t.Errorf("default changed to %q", r.Default())
	}
}

func TestResolveCurrent(t *testing.T) {
	tests := []struct {
		path      string
		wantTitle string
	}{
		{path: "/", wantTitle: "/home"},
		{path: "", wantTitle: "/home"},
		{path: "/about", wantTitle: "/about"},
		{path: "/unknown", wantTitle: "/home"},
	}

	for _, tt := range tests {
		r, env := newTestRouter(t)
		env.path = tt.path
		if err := r.ResolveCurrent(); err != nil {
			t.Fatalf("ResolveCurrent(%q): %v", tt.path, err)
		}
		if env.title != tt.wantTitle {
			t.Errorf("ResolveCurrent(%q) title = %q, want %q", tt.path, env.title, tt.wantTitle)
		}
	}
}

func TestResolveCurrentKeepsQuery(t *testing.T) {
	tests := []struct {
		path    string
		query   string
		wantURL string
	}{
		{path: "/about", query: "tab=bio", wantURL: "/about?tab=bio"},
		{path: "/", query: "tab=bio", wantURL: "/home?tab=bio"},
		{path: "/unknown", query: "tab=bio", wantURL: "/home"},
	}

	for _, tt := range tests {
		r, env := newTestRouter(t)
		env.path, env.query = tt.path, tt.query
		if err := r.ResolveCurrent(); err != nil {
			t.Fatalf("ResolveCurrent(%q?%s): %v", tt.path, tt.query, err)
		}
		if got := env.top(t).url; got != tt.wantURL {
			t.Errorf("ResolveCurrent(%q?%s) url = %q, want %q", tt.path, tt.query, got, tt.wantURL)
		}
	}
}

func TestNavigateEncodedPath(t *testing.T) {
	r, env := newTestRouter(t)
	r.RegisterTitled("/café", "Café", "<div>café</div>")

	for _, target := range []string{"/café", "/caf%C3%A9", "/caf%c3%a9"} {
		if err := r.Navigate(target); err != nil {
			t.Fatalf("Navigate(%q): %v", target, err)
		}
		if env.title != "Café" {
			t.Errorf("Navigate(%q) title = %q, want Café", target, env.title)
		}
		if got := env.top(t).url; got != "/caf%C3%A9" {
			t.Errorf("Navigate(%q) url = %q, want /caf%%C3%%A9", target, got)
		}
	}
}

func TestOnHistoryChangeReplaysPushedState(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.Navigate("/about"); err != nil {
		t.Fatal(err)
	}
	saved := env.top(t).state

	// The table changes after the push; replay must not notice.
	r.Register("/about", "<div>rewritten</div>")
	if err := r.Navigate("/home"); err != nil {
		t.Fatal(err)
	}

	env.listener(HistoryEvent{State: &saved})
	if env.content != "<div>About me</div>" || env.title != "/about" {
		t.Errorf("replayed %q/%q", env.content, env.title)
	}
}

func TestOnHistoryChangeDoesNotPush(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.OnHistoryChange(HistoryEvent{State: &State{Content: "x", Title: "/x"}}); err != nil {
		t.Fatal(err)
	}
	if len(env.pushes) != 0 {
		t.Error("replay must not push history")
	}
	if env.content != "x" || env.title != "/x" {
		t.Errorf("rendered %q/%q", env.content, env.title)
	}
}

func TestOnHistoryChangeNilState(t *testing.T) {
	r, env := newTestRouter(t)

	if err := r.OnHistoryChange(HistoryEvent{}); err != nil {
		t.Fatal(err)
	}
	if env.renders != 0 {
		t.Error("nil state must not render")
	}
}

func TestOnHistoryChangeMalformedState(t *testing.T) {
	r, env := newTestRouter(t)

	err := r.OnHistoryChange(HistoryEvent{State: &State{Content: "x"}})
	if !errors.Is(err, ErrMalformedState) {
		t.Fatalf("error = %v, want ErrMalformedState", err)
	}
	if env.renders != 0 {
		t.Error("malformed state must not render")
	}
}

func TestRoutesSorted(t *testing.T) {
	r, _ := newTestRouter(t)

	got := r.Routes()
	want := []string{"/about", "/contact", "/home"}
	if len(got) != len(want) {
		t.Fatalf("Routes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Routes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRouterRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, _ := newTestRouter(t, WithMetrics(metrics.New(metrics.WithRegistry(reg))))

	_ = r.Navigate("/about")
	_ = r.Navigate("/unknown")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "pushroute_navigations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				counts[lp.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if counts[metrics.OutcomeDirect] != 1 || counts[metrics.OutcomeFallback] != 1 {
		t.Errorf("navigation counts = %v", counts)
	}
}

package live

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/pushroute/pkg/metrics"
	"github.com/vango-dev/pushroute/pkg/router"
	"github.com/vango-dev/pushroute/pkg/site"
)

func testSite() *site.Site {
	return &site.Site{
		Name: "demo",
		Routes: []site.Route{
			{Path: "/about", Title: "/about", Content: "<div>About me</div>"},
			{Path: "/home", Title: "/home", Content: "<div>Custom client router</div>"},
			{Path: "/contact", Title: "/contact", Content: "<div>clientrouter@xyz.com</div>"},
		},
		Default: "/home",
		Triggers: []site.Trigger{
			{ID: "about", Path: "/about"},
			{ID: "home", Path: "/home"},
			{ID: "contact", Path: "/contact"},
		},
	}
}

func newTestServer(t *testing.T, st *site.Site) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := New(st, nil,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.New(metrics.WithRegistry(reg)), reg),
	)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + LivePath
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(body)
}

func TestNavigateRendersThenPushes(t *testing.T) {
	ts, _ := newTestServer(t, testSite())
	conn := dial(t, ts)

	send(t, conn, ClientMessage{Op: OpNavigate, Path: "/about"})

	render := recv(t, conn)
	if render.Op != OpRender || render.Content != "<div>About me</div>" || render.Title != "/about" {
		t.Errorf("render = %+v", render)
	}
	push := recv(t, conn)
	if push.Op != OpPush || push.URL != "/about" {
		t.Fatalf("push = %+v", push)
	}
	if push.State == nil || *push.State != (router.State{Content: "<div>About me</div>", Title: "/about"}) {
		t.Errorf("push state = %+v", push.State)
	}
}

func TestNavigateUnknownFallsBack(t *testing.T) {
	ts, _ := newTestServer(t, testSite())
	conn := dial(t, ts)

	send(t, conn, ClientMessage{Op: OpNavigate, Path: "/unknown"})

	if render := recv(t, conn); render.Title != "/home" {
		t.Errorf("render title = %q, want /home", render.Title)
	}
	if push := recv(t, conn); push.URL != "/home" {
		t.Errorf("push url = %q, want /home", push.URL)
	}
}

func TestClickDispatchesTrigger(t *testing.T) {
	ts, _ := newTestServer(t, testSite())
	conn := dial(t, ts)

	send(t, conn, ClientMessage{Op: OpClick, ID: "contact"})
	if render := recv(t, conn); render.Content != "<div>clientrouter@xyz.com</div>" {
		t.Errorf("render = %+v", render)
	}
	recv(t, conn)

	send(t, conn, ClientMessage{Op: OpClick, ID: "ghost"})
	if msg := recv(t, conn); msg.Op != OpError || msg.Code != ErrCodeUnknownClick {
		t.Errorf("unknown click reply = %+v", msg)
	}
}

func TestPopStateReplaysState(t *testing.T) {
	ts, _ := newTestServer(t, testSite())
	conn := dial(t, ts)

	send(t, conn, map[string]any{
		"op":    OpPopState,
		"state": map[string]string{"content": "<div>About me</div>", "title": "/about"},
	})
	msg := recv(t, conn)
	if msg.Op != OpRender || msg.Content != "<div>About me</div>" || msg.Title != "/about" {
		t.Errorf("replay = %+v", msg)
	}

	// A replay renders only; the next message answers the next request.
	send(t, conn, ClientMessage{Op: "bogus"})
	if msg := recv(t, conn); msg.Op != OpError || msg.Code != ErrCodeUnknownOp {
		t.Errorf("reply = %+v", msg)
	}
}

func TestPopStateRejectsMalformedState(t *testing.T) {
	tests := []struct {
		name  string
		state any
	}{
		{name: "missing title", state: map[string]string{"content": "x"}},
		{name: "not an object", state: "x"},
		{name: "wrong type", state: map[string]any{"content": 1, "title": "/x"}},
	}

	ts, _ := newTestServer(t, testSite())
	conn := dial(t, ts)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, map[string]any{"op": OpPopState, "state": tt.state})
			if msg := recv(t, conn); msg.Op != OpError || msg.Code != ErrCodeBadState {
				t.Errorf("reply = %+v", msg)
			}
		})
	}
}

func TestBadMessages(t *testing.T) {
	ts, _ := newTestServer(t, testSite())
	conn := dial(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if msg := recv(t, conn); msg.Code != ErrCodeBadMessage {
		t.Errorf("reply = %+v", msg)
	}

	send(t, conn, ClientMessage{Op: OpNavigate, Path: "//evil.example"})
	if msg := recv(t, conn); msg.Code != ErrCodeBadPath {
		t.Errorf("reply = %+v", msg)
	}
}

func TestPageResolvesPath(t *testing.T) {
	ts, _ := newTestServer(t, testSite())

	tests := []struct {
		path    string
		content string
		title   string
	}{
		{path: "/", content: "<div>Custom client router</div>", title: "/home"},
		{path: "/about", content: "<div>About me</div>", title: "/about"},
		{path: "/unknown", content: "<div>Custom client router</div>", title: "/home"},
	}

	for _, tt := range tests {
		status, body := get(t, ts.URL+tt.path)
		if status != http.StatusOK {
			t.Errorf("GET %s status = %d", tt.path, status)
		}
		if !strings.Contains(body, `<div id="content">`+tt.content+`</div>`) {
			t.Errorf("GET %s body missing content:\n%s", tt.path, body)
		}
		if !strings.Contains(body, "<title>"+tt.title+"</title>") {
			t.Errorf("GET %s body missing title %q", tt.path, tt.title)
		}
		if !strings.Contains(body, `<button id="contact">`) {
			t.Errorf("GET %s body missing trigger buttons", tt.path)
		}
		if !strings.Contains(body, ClientPath) {
			t.Errorf("GET %s body missing client script", tt.path)
		}
	}
}

func TestPageNotFound(t *testing.T) {
	st := testSite()
	st.Default = ""
	st.NotFound = "<p>nothing here</p>"
	ts, _ := newTestServer(t, st)

	status, body := get(t, ts.URL+"/missing")
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if !strings.Contains(body, "<p>nothing here</p>") {
		t.Errorf("body missing not-found page:\n%s", body)
	}

	st.NotFound = ""
	ts, _ = newTestServer(t, st)
	if status, _ := get(t, ts.URL+"/missing"); status != http.StatusNotFound {
		t.Errorf("status without not-found page = %d, want 404", status)
	}
}

func TestEncodedPathsResolveAlike(t *testing.T) {
	st := testSite()
	st.Routes = append(st.Routes, site.Route{Path: "/caf%C3%A9", Title: "Café", Content: "<div>café</div>"})
	ts, _ := newTestServer(t, st)

	status, body := get(t, ts.URL+"/caf%C3%A9")
	if status != http.StatusOK || !strings.Contains(body, `<div id="content"><div>café</div></div>`) {
		t.Errorf("GET /caf%%C3%%A9 = %d:\n%s", status, body)
	}

	conn := dial(t, ts)
	send(t, conn, ClientMessage{Op: OpNavigate, Path: "/caf%C3%A9"})
	if render := recv(t, conn); render.Content != "<div>café</div>" || render.Title != "Café" {
		t.Errorf("live navigate render = %+v", render)
	}
	if push := recv(t, conn); push.URL != "/caf%C3%A9" {
		t.Errorf("live navigate url = %q", push.URL)
	}

	// An escaped percent sign is a valid path that falls back like any
	// other unknown path.
	status, body = get(t, ts.URL+"/100%25")
	if status != http.StatusOK || !strings.Contains(body, "<div>Custom client router</div>") {
		t.Errorf("GET /100%%25 = %d:\n%s", status, body)
	}
}

func TestResolveKeepsQuery(t *testing.T) {
	ts, _ := newTestServer(t, testSite())
	conn := dial(t, ts)

	send(t, conn, ClientMessage{Op: OpResolve, Path: "/about?tab=bio"})
	if render := recv(t, conn); render.Title != "/about" {
		t.Errorf("render = %+v", render)
	}
	if push := recv(t, conn); push.URL != "/about?tab=bio" {
		t.Errorf("push url = %q, want /about?tab=bio", push.URL)
	}

	status, body := get(t, ts.URL+"/about?tab=bio")
	if status != http.StatusOK || !strings.Contains(body, `data-pushroute-url="/about?tab=bio"`) {
		t.Errorf("GET /about?tab=bio = %d:\n%s", status, body)
	}
}

func TestServiceEndpoints(t *testing.T) {
	ts, reg := newTestServer(t, testSite())

	if status, body := get(t, ts.URL+"/healthz"); status != http.StatusOK || body != "ok" {
		t.Errorf("healthz = %d %q", status, body)
	}
	if status, body := get(t, ts.URL+ClientPath); status != http.StatusOK || !strings.Contains(body, "popstate") {
		t.Errorf("client.js = %d", status)
	}

	conn := dial(t, ts)
	send(t, conn, ClientMessage{Op: OpNavigate, Path: "/about"})
	recv(t, conn)
	recv(t, conn)

	status, body := get(t, ts.URL+"/metrics")
	if status != http.StatusOK {
		t.Fatalf("metrics status = %d", status)
	}
	if !strings.Contains(body, `pushroute_navigations_total{outcome="direct"}`) {
		t.Errorf("metrics missing navigation counter:\n%s", body)
	}
	if _, err := reg.Gather(); err != nil {
		t.Errorf("Gather: %v", err)
	}
}

func TestCheckOrigin(t *testing.T) {
	s := New(testSite(), &Config{AllowedOrigins: []string{"https://app.example"}})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "http://localhost:3000", want: true},
		{origin: "https://app.example", want: true},
		{origin: "https://evil.example", want: false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://localhost:3000"+LivePath, nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := s.checkOrigin(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestRunShutsDown(t *testing.T) {
	s := New(testSite(), &Config{Address: "127.0.0.1:0"},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

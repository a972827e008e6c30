package live

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/vango-dev/pushroute/pkg/browser"
	"github.com/vango-dev/pushroute/pkg/router"
)

var shell = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body data-pushroute-state="{{.State}}" data-pushroute-url="{{.URL}}" data-pushroute-triggers="{{.Triggers}}">
{{- if .TriggerIDs}}
<nav>
{{- range .TriggerIDs}}
<button id="{{.}}">{{.}}</button>
{{- end}}
</nav>
{{- end}}
<div id="content">{{.Content}}</div>
<script src="{{.Client}}"></script>
</body>
</html>
`))

type shellData struct {
	Title      string
	Content    template.HTML
	State      string
	URL        string
	Triggers   string
	TriggerIDs []string
	Client     string
}

// HandlePage renders the page for the request path server-side. The path is
// resolved exactly as a tab opened on it would resolve it, so "/" and
// unknown paths show the default route. The resulting history entry is
// embedded so the client can seed history.state with it.
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	// The escaped form matches what the client sends as location.pathname.
	target := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	tab := browser.NewWindow(target)
	rt := tab.NewRouter(append(s.site.RouterOptions(),
		router.WithLogger(s.logger),
		router.WithMetrics(s.metrics),
	)...)

	triggers, err := s.site.Mount(rt)
	if err != nil {
		s.logger.Error("site mount failed", "error", err)
		http.Error(w, "site misconfigured", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if err := rt.ResolveCurrentContext(r.Context()); err != nil {
		s.logger.Debug("page not resolved", "path", target, "error", err)
		http.NotFound(w, r)
		return
	}
	if tab.Document.Title == router.NotFoundTitle && tab.History.Len() == 1 {
		status = http.StatusNotFound
	}

	data := shellData{
		Title:      tab.Document.Title,
		Content:    template.HTML(tab.Document.Content()),
		URL:        tab.Location.Href(),
		TriggerIDs: triggers.IDs(),
		Client:     ClientPath,
	}
	if st := tab.History.Current().State; st != nil {
		b, err := json.Marshal(st)
		if err != nil {
			s.logger.Error("state encode failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		data.State = string(b)
	}
	ids, err := json.Marshal(data.TriggerIDs)
	if err != nil {
		s.logger.Error("trigger ids encode failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data.Triggers = string(ids)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := shell.Execute(w, data); err != nil {
		s.logger.Error("page render failed", "error", err)
	}
}

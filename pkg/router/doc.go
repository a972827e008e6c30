// Package router implements a pushState-style page router.
//
// A Router owns a table of path → content, a default route, and a handle on
// the navigation history stack. It never touches a browser directly: the
// address bar, the display region and the history stack are injected, so the
// same router runs against the headless pkg/browser environment in tests and
// against a real tab through pkg/live.
//
// # Navigation
//
//	r := router.New(location, renderer, history)
//	r.Register("/about", "<div>About me</div>")
//	r.Register("/home", "<div>Custom client router</div>")
//	if err := r.SetDefault("/home"); err != nil {
//	    return err
//	}
//	r.ResolveCurrent() // "/" renders /home
//
//	r.Navigate("/about")   // renders and pushes {content, title: "/about"}
//	r.Navigate("/unknown") // renders /home
//
// Unknown paths redirect to the default route exactly once. SetDefault only
// accepts registered paths, so the redirect always lands.
//
// # History
//
// Back/forward notifications replay the state that was pushed with the
// entry. The route table is not consulted, which keeps a navigate-then-back
// round trip exact even if routes were re-registered in between.
//
// # Triggers
//
// Triggers binds UI element ids to paths and dispatches clicks through a
// single function:
//
//	t := router.NewTriggers(r)
//	t.Bind("about", "/about")
//	t.Dispatch("about")
package router

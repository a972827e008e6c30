// Package live serves a site to real browser tabs.
//
// Every page is rendered on the server the way a freshly opened tab would
// resolve it. The embedded client script then opens a WebSocket to
// LivePath, and a Session on the server runs one router per tab: the
// router's location, display region and history stack are the remote tab,
// reached through a small JSON protocol.
//
// Browser → server:
//
//	{"op":"navigate","path":"/about"}
//	{"op":"click","id":"about"}
//	{"op":"popstate","state":{"content":"...","title":"/about"}}
//	{"op":"resolve","path":"/"}
//
// Server → browser:
//
//	{"op":"render","content":"...","title":"/about"}
//	{"op":"push","state":{...},"title":"/about","url":"/about"}
//	{"op":"error","code":"unknown_trigger","message":"..."}
package live

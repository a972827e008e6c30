// Package errors provides structured, actionable error messages for project
// files and the command line.
//
// Each error has a unique code that maps to a short message and a longer
// explanation:
//   - C: project file and server configuration
//   - R: route table consistency (default route, triggers)
//   - S: route content sources
//
// # Usage
//
//	err := errors.New("R001").
//	    At("pushroute.json", "default").
//	    WithSuggestion(`Add a route with path "/home" or change "default"`)
//
//	errors.PrintError(err)
package errors

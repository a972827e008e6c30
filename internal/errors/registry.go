package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (C001-C049)
	"C001": {
		Category: CategoryConfig,
		Message:  "Project file not found",
		Detail:   "No pushroute.json, pushroute.toml or pushroute.yaml was found in the project directory.",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Project file could not be parsed",
		Detail:   "The project file is not valid for its format.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Unsupported project file format",
		Detail:   "Project files must end in .json, .toml, .yaml or .yml.",
	},
	"C004": {
		Category: CategoryConfig,
		Message:  "Invalid server address",
		Detail:   "The port must be between 1 and 65535.",
	},
	"C005": {
		Category: CategoryConfig,
		Message:  "Invalid duration",
		Detail:   "Durations use Go syntax, for example \"10s\" or \"1m30s\".",
	},

	// Routing (R001-R049)
	"R001": {
		Category: CategoryRouting,
		Message:  "Default route is not registered",
		Detail:   "The default route must name one of the configured routes, otherwise unknown paths have nowhere to go.",
	},
	"R002": {
		Category: CategoryRouting,
		Message:  "Invalid route path",
		Detail:   "Route paths must not contain backslashes, NUL bytes, malformed percent escapes or climb above the root.",
	},
	"R003": {
		Category: CategoryRouting,
		Message:  "Duplicate route path",
		Detail:   "Two routes canonicalize to the same path.",
	},
	"R004": {
		Category: CategoryRouting,
		Message:  "Route has no content source",
		Detail:   "Each route needs exactly one of content, file or source.",
	},
	"R005": {
		Category: CategoryRouting,
		Message:  "Trigger targets an unknown route",
		Detail:   "Trigger paths must name a configured route.",
	},
	"R006": {
		Category: CategoryRouting,
		Message:  "Duplicate trigger id",
		Detail:   "Trigger ids must be unique.",
	},
	"R007": {
		Category: CategoryRouting,
		Message:  "No routes configured",
		Detail:   "The project file must declare at least one route.",
	},

	// CLI (X001-X049)
	"X001": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},

	// Content (S001-S049)
	"S001": {
		Category: CategoryContent,
		Message:  "Route content could not be loaded",
		Detail:   "Reading the content file or object failed.",
	},
	"S002": {
		Category: CategoryContent,
		Message:  "Unsupported content source",
		Detail:   "Content sources must be file paths or s3://bucket/key urls.",
	},
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

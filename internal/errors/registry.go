package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Build Errors (E200-E209)
	// ============================================

	"E201": {
		Category:   CategoryBuild,
		Message:    "Pop with no open element",
		Detail:     "Pop was called while no element was on the build stack.",
		Suggestion: "Every Pop must match an earlier Push",
		DocURL:     "https://elemtree.dev/docs/errors/E201",
	},
	"E202": {
		Category:   CategoryBuild,
		Message:    "Popped the wrong element",
		Detail:     "The element passed to Pop is not the one on top of the build stack.",
		Suggestion: "Pop elements in the reverse order they were pushed",
		DocURL:     "https://elemtree.dev/docs/errors/E202",
	},
	"E203": {
		Category:   CategoryBuild,
		Message:    "Build pass ended with open elements",
		Detail:     "The build pass returned while elements were still on the build stack.",
		Suggestion: "Use Scope, or defer Pop right after Push",
		DocURL:     "https://elemtree.dev/docs/errors/E203",
	},

	// ============================================
	// Registry Errors (E210-E219)
	// ============================================

	"E210": {
		Category: CategoryRegistry,
		Message:  "Type already registered",
		Detail:   "A debug implementation for this type was already registered.",
		DocURL:   "https://elemtree.dev/docs/errors/E210",
	},
	"E211": {
		Category: CategoryRegistry,
		Message:  "Missing debug function",
		Detail:   "A component was registered without a DebugProps function.",
		DocURL:   "https://elemtree.dev/docs/errors/E211",
	},
	"E212": {
		Category:   CategoryRegistry,
		Message:    "Invalid type id",
		Detail:     "The zero TypeID identifies no type and cannot be registered.",
		Suggestion: "Obtain the id with registry.TypeOf",
		DocURL:     "https://elemtree.dev/docs/errors/E212",
	},

	// ============================================
	// Source Errors (E220-E229)
	// ============================================

	"E220": {
		Category: CategorySource,
		Message:  "Tree description not found",
		Detail:   "The tree description file or object does not exist.",
		DocURL:   "https://elemtree.dev/docs/errors/E220",
	},
	"E221": {
		Category:   CategorySource,
		Message:    "Invalid tree description",
		Detail:     "The tree description could not be decoded.",
		Suggestion: `Expected {"roots": [{"kind": "box", "children": [...]}]}`,
		DocURL:     "https://elemtree.dev/docs/errors/E221",
	},
	"E222": {
		Category: CategorySource,
		Message:  "Object storage read failed",
		Detail:   "The tree description could not be fetched from object storage.",
		DocURL:   "https://elemtree.dev/docs/errors/E222",
	},
	"E223": {
		Category:   CategorySource,
		Message:    "Tree description too deep",
		Detail:     "The tree description nests deeper than the configured limit.",
		Suggestion: "Raise source.maxDepth in elemtree.json",
		DocURL:     "https://elemtree.dev/docs/errors/E223",
	},

	// ============================================
	// Config Errors (E230-E239)
	// ============================================

	"E230": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The elemtree.json file contains invalid configuration.",
		DocURL:   "https://elemtree.dev/docs/errors/E230",
	},
	"E231": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No elemtree.json file was found.",
		DocURL:   "https://elemtree.dev/docs/errors/E231",
	},

	// ============================================
	// CLI Errors (E240-E249)
	// ============================================

	"E240": {
		Category: CategoryCLI,
		Message:  "Port already in use",
		Detail:   "The debug server port is already being used by another process.",
		DocURL:   "https://elemtree.dev/docs/errors/E240",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

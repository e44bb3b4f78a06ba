package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	Hint     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (R001-R099)
	// ============================================

	"R001": {
		Category: CategoryRuntime,
		Message:  "Circular dependency detected",
		Detail:   "A computed value read itself, directly or through other computed values, while it was being derived.",
		Hint:     "Break the cycle by moving one of the reads into a signal or an untracked read",
	},
	"R002": {
		Category: CategoryRuntime,
		Message:  "Effect failed",
		Detail:   "An effect body or cleanup returned an error or panicked. Other effects scheduled by the same change still ran.",
	},
	"R003": {
		Category: CategoryRuntime,
		Message:  "Effect run budget exceeded",
		Detail:   "A single change caused more effect runs than the configured limit. This usually means an effect writes a signal it also reads.",
		Hint:     "Read the written signal with Peek or Untracked, or raise maxEffectRuns",
	},
	"R004": {
		Category: CategoryRuntime,
		Message:  "Signal written inside effect",
		Detail:   "An effect wrote a signal synchronously from its body while strict effect mode is enabled.",
		Hint:     "Create the effect with reactive.AllowWrites() if the write is intentional",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No workshop.json or workshop.yaml was found in the current directory or any parent directory.",
		Hint:     "Run without --config to use defaults",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is outside its allowed range.",
		Hint:     "Check workshop.json against the documented defaults",
	},

	// ============================================
	// Service Errors (S001-S099)
	// ============================================

	"S001": {
		Category: CategoryService,
		Message:  "Invalid service input",
		Detail:   "A workshop service rejected its input.",
	},

	// ============================================
	// CLI Errors (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryCLI,
		Message:  "Invalid flag value",
		Detail:   "A command-line flag has a value the command cannot use.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
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

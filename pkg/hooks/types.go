package hooks

import "context"

// HookType represents the point in the build at which a hook runs.
type HookType string

// Supported hook types.
const (
	PreBuild  HookType = "pre-build"
	PostBuild HookType = "post-build"
)

// Types lists the supported hook types in execution order.
func Types() []HookType {
	return []HookType{PreBuild, PostBuild}
}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	switch t {
	case PreBuild, PostBuild:
		return true
	default:
		return false
	}
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	ExtensionName string
	StagingDir    string
	SourceDir     string
	ArchivePath   string
	Files         []string
	Vars          map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the hook of the given type, if one is registered.
	Execute(ctx context.Context, hookType HookType, hctx HookContext) error

	// AddHook adds or replaces a hook.
	AddHook(hook Hook) error

	// RemoveHook removes the hook of the given type.
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the given type exists.
	HasHook(hookType HookType) bool
}

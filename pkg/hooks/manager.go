package hooks

import (
	"context"
	"log/slog"
	"time"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/internal/logger"
)

// DefaultHookManager is the default implementation of HookManager.
type DefaultHookManager struct {
	executor *TengoExecutor
	log      *slog.Logger
}

// NewHookManager creates a new hook manager.
func NewHookManager(log *slog.Logger) *DefaultHookManager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DefaultHookManager{
		executor: NewTengoExecutor(),
		log:      log,
	}
}

// Execute runs the specified hook type with the given context.
func (m *DefaultHookManager) Execute(ctx context.Context, hookType HookType, hctx HookContext) error {
	if !m.HasHook(hookType) {
		return nil
	}

	ctxCopy := hctx
	if ctxCopy.Vars == nil {
		ctxCopy.Vars = make(map[string]interface{})
	}

	log := logger.FromContextOr(ctx, m.log)
	start := time.Now()
	err := m.executor.Execute(ctx, hookType, ctxCopy)
	if err != nil {
		log.Error("hook failed", "hook", string(hookType), "error", err)
		return err
	}
	log.Debug("hook finished", "hook", string(hookType), "duration", time.Since(start))
	return nil
}

// AddHook adds a new hook.
func (m *DefaultHookManager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return ErrHookTypeEmpty
	}
	if !hook.Type.Valid() {
		return ErrUnsupportedHookType(string(hook.Type))
	}
	m.executor.AddScript(hook.Type, hook.Content)
	return nil
}

// RemoveHook removes a hook of the specified type.
func (m *DefaultHookManager) RemoveHook(hookType HookType) error {
	if hookType == "" {
		return ErrHookTypeEmpty
	}
	m.executor.RemoveScript(hookType)
	return nil
}

// HasHook checks if a hook of the specified type exists.
func (m *DefaultHookManager) HasHook(hookType HookType) bool {
	return m.executor.HasScript(hookType)
}

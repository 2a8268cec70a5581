package hooks

import (
	"fmt"

	"github.com/Cumulocity-IoT/cumulocity-analytics-management/pkg/errors"
)

// Common hooks errors. Execution and script errors are shared with the rest
// of the pipeline so callers can map them without importing this package.
var (
	// ErrHookTypeEmpty is returned when a hook type is empty.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")

	ErrHookExecution = errors.ErrHookExecution
	ErrHookScript    = errors.ErrHookScript
	ErrHookLoad      = errors.ErrHookLoad
)

// ErrUnsupportedHookType is returned when a hook type is not known.
func ErrUnsupportedHookType(hookType string) error {
	return errors.Wrapf(ErrHookLoad, "unsupported hook type: %s", hookType)
}

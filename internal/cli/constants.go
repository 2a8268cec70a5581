package cli

// Default values for CLI flags and formatted output.
const (
	// DefaultStageDir is where the stage command writes when --out is not given.
	DefaultStageDir = "staged"
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
)

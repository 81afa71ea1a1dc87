package tui

// Color constants for samwise TUI theme
const (
	ColorBorder = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2" // Primary text (task content, titles)
	ColorSecondaryText = "#B1B8C7" // Secondary text, dates
	ColorDisabledText  = "#6D7383" // Checked tasks, out-of-focus tags
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240" // Dark grey for help text

	// Accent Colors
	ColorAccentMain   = "#7C3AED" // Header, active borders
	ColorAccentBright = "#A78BFA" // Selected row

	// DefaultTagColor is given to tags created without a color.
	DefaultTagColor = ColorAccentBright

	// State Colors
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E" // Checked marks, points
	ColorWarning = "#F59E0B" // Overdue
)

package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths as recorded in the snapshot.
	PathModeAuto PathMode = iota
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	Width     int // maximum message width in cells, 0 - unlimited
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	Max          int // truncates the output, not the Bag
	IncludeNotes bool
}

// TreeOpts configures the unit tree printer.
type TreeOpts struct {
	Color bool
	// Spans appends the "start:length:index" location to every node.
	Spans bool
	// Refs lists references under their owning declaration.
	Refs bool
}

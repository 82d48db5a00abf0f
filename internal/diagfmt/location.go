package diagfmt

import (
	"fmt"
	"path/filepath"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

func formatPath(files *source.FileTable, id source.FileID, mode PathMode) string {
	if files == nil || id == 0 {
		return ""
	}
	path := files.Path(id)
	if mode == PathModeBasename {
		return filepath.Base(path)
	}
	return path
}

// formatLocation renders "<path>:<start>-<end>", or "<unknown>" for a span
// that has no file and no extent.
func formatLocation(sp source.Span, files *source.FileTable, mode PathMode) string {
	path := formatPath(files, sp.File, mode)
	if path == "" && sp.Empty() {
		return "<unknown>"
	}
	if path == "" {
		path = "<unknown>"
	}
	return fmt.Sprintf("%s:%d-%d", path, sp.Start, sp.End)
}

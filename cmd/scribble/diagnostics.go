package main

import (
	"io"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diagfmt"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

// printDiagnostics writes bag in the requested format (pretty|json).
func printDiagnostics(w io.Writer, bag *diag.Bag, files *source.FileTable, color bool, format string) {
	if bag.Len() == 0 {
		return
	}
	if format == "json" {
		_ = diagfmt.JSON(w, bag, files, diagfmt.JSONOpts{IncludeNotes: true})
		return
	}
	diagfmt.Pretty(w, bag, files, diagfmt.PrettyOpts{
		Color:     color,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	})
}

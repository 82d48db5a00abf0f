package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/diag"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

type palette struct {
	err, warn, info, code, note, loc *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.Faint),
		note: color.New(color.FgBlue),
		loc:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.note, p.loc} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty prints diagnostics in the order of bag.Items() (call bag.Sort()
// first for a stable listing):
//
//	<path>:<start>-<end>: <SEV> <CODE>: <message>
//	  note: <path>:<start>-<end>: <message>
func Pretty(w io.Writer, bag *diag.Bag, files *source.FileTable, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		msg := d.Message
		if opts.Width > 0 {
			msg = truncate(msg, opts.Width)
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.loc.Sprint(formatLocation(d.Primary, files, opts.PathMode)),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			msg,
		)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			loc := ""
			if !n.Span.Empty() || n.Span.File != 0 {
				loc = formatLocation(n.Span, files, opts.PathMode) + ": "
			}
			fmt.Fprintf(w, "  %s %s%s\n", p.note.Sprint("note:"), loc, n.Msg)
		}
	}
}

// Summary renders "N error(s), M warning(s)".
func Summary(bag *diag.Bag) string {
	var errs, warns int
	if bag != nil {
		for _, d := range bag.Items() {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
	}
	return fmt.Sprintf("%d %s, %d %s", errs, plural(errs, "error"), warns, plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

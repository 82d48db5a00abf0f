package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/source"
)

type treeNode struct {
	label    string
	children []*treeNode
}

type treePrinter struct {
	b    *ast.Builder
	opts TreeOpts
	kind *color.Color
	ref  *color.Color
}

// UnitTree prints every unit with its declarations, nested members and,
// optionally, references as an indented tree.
func UnitTree(w io.Writer, b *ast.Builder, units []ast.UnitID, opts TreeOpts) error {
	p := &treePrinter{
		b:    b,
		opts: opts,
		kind: color.New(color.FgMagenta),
		ref:  color.New(color.FgCyan),
	}
	if opts.Color {
		p.kind.EnableColor()
		p.ref.EnableColor()
	} else {
		p.kind.DisableColor()
		p.ref.DisableColor()
	}
	var sb strings.Builder
	for _, uid := range units {
		root := p.unitNode(uid)
		sb.WriteString(root.label)
		sb.WriteByte('\n')
		writeChildren(&sb, root.children, "")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeChildren(sb *strings.Builder, children []*treeNode, prefix string) {
	for i, child := range children {
		last := i == len(children)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(branch)
		sb.WriteString(child.label)
		sb.WriteByte('\n')
		writeChildren(sb, child.children, prefix+next)
	}
}

func (p *treePrinter) span(sp source.Span) string {
	if !p.opts.Spans || sp == (source.Span{}) {
		return ""
	}
	return " @" + sp.Src()
}

func (p *treePrinter) unitNode(uid ast.UnitID) *treeNode {
	u := p.b.Units.Get(uid)
	if u == nil {
		return &treeNode{label: fmt.Sprintf("unit#%d: <nil>", uid)}
	}
	label := fmt.Sprintf("%s %s", p.kind.Sprint("unit"), u.Name)
	if u.Path != "" && u.Path != u.Name {
		label += " (" + u.Path + ")"
	}
	if u.Consumed {
		label += " [merged]"
	}
	node := &treeNode{label: label + p.span(u.Span)}
	for _, id := range u.Items {
		node.children = append(node.children, p.declNode(id, 0))
	}
	return node
}

const maxTreeDepth = 64

func (p *treePrinter) declNode(id ast.DeclID, depth int) *treeNode {
	d := p.b.Decls.Get(id)
	if d == nil {
		return &treeNode{label: fmt.Sprintf("decl#%d: <nil>", id)}
	}
	node := &treeNode{label: p.declLabel(id, d) + p.span(d.Span)}
	if depth >= maxTreeDepth {
		node.children = append(node.children, &treeNode{label: "..."})
		return node
	}
	if p.opts.Refs {
		for _, r := range d.Refs {
			if ref := p.b.Refs.Get(r); ref != nil && !ref.Detached {
				node.children = append(node.children, p.refNode(ref))
			}
		}
	}
	for _, m := range d.Members {
		node.children = append(node.children, p.declNode(m, depth+1))
	}
	return node
}

func (p *treePrinter) declLabel(id ast.DeclID, d *ast.Decl) string {
	switch d.Kind {
	case ast.DeclContract:
		c, ok := p.b.Decls.Contract(id)
		if !ok {
			break
		}
		label := fmt.Sprintf("%s %s", p.kind.Sprint(c.Kind.String()), d.Name)
		if len(c.Bases) > 0 {
			names := make([]string, 0, len(c.Bases))
			for _, base := range c.Bases {
				names = append(names, p.declName(base))
			}
			label += " is " + strings.Join(names, ", ")
		}
		return label
	case ast.DeclImport:
		imp, ok := p.b.Decls.Import(id)
		if !ok {
			break
		}
		label := fmt.Sprintf("%s %q", p.kind.Sprint("import"), imp.Path)
		if d.Name != "" {
			label += " as " + d.Name
		}
		if len(imp.Symbols) > 0 {
			syms := make([]string, 0, len(imp.Symbols))
			for _, s := range imp.Symbols {
				name := p.declName(s.Foreign)
				if s.Local != "" && s.Local != name {
					name += " as " + s.Local
				}
				syms = append(syms, name)
			}
			label += " {" + strings.Join(syms, ", ") + "}"
		}
		return label
	case ast.DeclPragma:
		if pr, ok := p.b.Decls.Pragma(id); ok {
			return fmt.Sprintf("%s %s %s", p.kind.Sprint("pragma"), d.Name, pr.Value)
		}
	}
	return fmt.Sprintf("%s %s", p.kind.Sprint(d.Kind.String()), d.Name)
}

func (p *treePrinter) declName(id ast.DeclID) string {
	if d := p.b.Decls.Get(id); d != nil {
		return d.Name
	}
	return fmt.Sprintf("decl#%d", id)
}

func (p *treePrinter) refNode(ref *ast.Ref) *treeNode {
	name := ref.Name
	if ref.Kind == ast.RefMember {
		if base := p.b.Refs.Get(ref.Base); base != nil {
			name = base.Name + "." + ref.Name
		}
	}
	label := fmt.Sprintf("%s %s", p.ref.Sprint(ref.Kind.String()), name)
	if ref.Target.IsValid() {
		if t := p.b.Decls.Get(ref.Target); t != nil {
			label += fmt.Sprintf(" -> %s %s", t.Kind, t.Name)
		}
	}
	return &treeNode{label: label + p.span(ref.Span)}
}

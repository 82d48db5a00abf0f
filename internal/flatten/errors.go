package flatten

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samkenxstream/SAMkenxConsenSys-scribble/internal/ast"
)

var (
	// ErrStructural marks inheritance graphs that cannot be linearized.
	ErrStructural = errors.New("structural error")
	// ErrInvariant marks malformed frontend output.
	ErrInvariant = errors.New("invariant violation")
)

type CycleMember struct {
	Decl ast.DeclID
	Name string
}

// CycleError lists the contracts on an inheritance cycle and, in Blocked,
// those that only derive from one.
type CycleError struct {
	Contracts []CycleMember
	Blocked   []CycleMember
}

func (e *CycleError) Error() string {
	msg := "inheritance cycle among contracts: " + memberNames(e.Contracts)
	if len(e.Blocked) > 0 {
		msg += "; blocked by it: " + memberNames(e.Blocked)
	}
	return msg
}

func memberNames(list []CycleMember) string {
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

func (e *CycleError) Unwrap() error { return ErrStructural }

type InvariantError struct {
	Decl   ast.DeclID
	Name   string
	Reason string
}

func (e *InvariantError) Error() string {
	if e.Decl.IsValid() {
		return fmt.Sprintf("decl#%d %q: %s", e.Decl, e.Name, e.Reason)
	}
	return e.Reason
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

func invariant(b *ast.Builder, id ast.DeclID, format string, args ...any) *InvariantError {
	name := ""
	if d := b.Decls.Get(id); d != nil {
		name = d.Name
	}
	return &InvariantError{Decl: id, Name: name, Reason: fmt.Sprintf(format, args...)}
}

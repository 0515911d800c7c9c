// Package gates provides the gate-resolution capability: the mapping from a
// gate name to a constructor describing how to instantiate it. Constructors
// come from two sources, consulted in order: caller-supplied custom gates and
// the standard-library table keyed by include file.
package gates

// Constructor describes how a named gate is instantiated: its qubit and
// numeric-parameter arity, and the include file that declares it ("" for
// custom gates supplied by the caller).
type Constructor struct {
	Name      string
	NumQubits int
	NumParams int
	Include   string
}

// Factory resolves gate names to constructors. Implementations are
// read-only after construction and safe for concurrent reads, so one factory
// may serve parallel builds of different programs.
type Factory interface {
	Resolve(name string) (Constructor, bool)
}

// Table is the standard Factory implementation: custom constructors shadow
// standard-library ones of the same name.
type Table struct {
	custom map[string]Constructor
	std    map[string]Constructor
}

// NewTable builds a factory from caller-supplied custom constructors layered
// over the standard-library table. Custom entries win on name collision.
func NewTable(custom []Constructor) *Table {
	t := &Table{
		custom: make(map[string]Constructor, len(custom)),
		std:    standardTable(),
	}
	for _, c := range custom {
		c.Include = ""
		t.custom[c.Name] = c
	}
	return t
}

// Standard returns a factory holding only the standard-library gates.
func Standard() *Table {
	return NewTable(nil)
}

// Resolve implements Factory.
func (t *Table) Resolve(name string) (Constructor, bool) {
	if c, ok := t.custom[name]; ok {
		return c, true
	}
	c, ok := t.std[name]
	return c, ok
}

// IsCustom reports whether name resolves to a caller-supplied constructor.
func (t *Table) IsCustom(name string) bool {
	_, ok := t.custom[name]
	return ok
}

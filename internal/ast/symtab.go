package ast

// SymbolKind categorizes a global declaration.
type SymbolKind string

const (
	SymbolQuantumReg   SymbolKind = "qreg"
	SymbolClassicalReg SymbolKind = "creg"
	SymbolAlias        SymbolKind = "alias"
	SymbolGate         SymbolKind = "gate"
	SymbolConst        SymbolKind = "const"
)

// Symbol is one entry in the front-end's symbol table.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Size     int // register width; 0 for gates and aliases
	Position Position
}

// SymbolTable holds the program's global declarations in declaration order.
// Lookup is by name; iteration over Symbols is deterministic.
type SymbolTable struct {
	Symbols []Symbol
	byName  map[string]int
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]int)}
}

// Define appends a symbol. Redefinition replaces the earlier entry's
// metadata but keeps its position in declaration order; the front-end
// reports redefinitions as diagnostics before the table reaches the builder.
func (t *SymbolTable) Define(sym Symbol) {
	if i, ok := t.byName[sym.Name]; ok {
		t.Symbols[i] = sym
		return
	}
	t.byName[sym.Name] = len(t.Symbols)
	t.Symbols = append(t.Symbols, sym)
}

// Lookup returns the symbol for name, if defined.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Symbol{}, false
	}
	return t.Symbols[i], true
}

// Len returns the number of defined symbols.
func (t *SymbolTable) Len() int { return len(t.Symbols) }

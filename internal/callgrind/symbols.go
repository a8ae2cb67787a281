package callgrind

// SymbolTable maps the compressed ids of a callgrind file ("(1)", "(2)", ...)
// to the names they were first declared with. Files and functions use
// separate tables.
type SymbolTable struct {
	names map[string]string
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{names: make(map[string]string)}
}

// Resolve returns the name bound to id. A non-blank name is bound to id
// first; a blank name reads through to the current binding. The resulting
// association is always (re)written, so an id seen without a name before any
// declaration is bound to the empty string until a real name arrives.
func (t *SymbolTable) Resolve(id, name string) string {
	if name == "" {
		name = t.names[id]
	}
	t.names[id] = name
	return name
}

// Lookup returns the name bound to id without mutating the table.
func (t *SymbolTable) Lookup(id string) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

// Len returns the number of bound ids.
func (t *SymbolTable) Len() int {
	return len(t.names)
}

package types

// SymbolTable maps identifiers to coarse static type tags for one
// function or module scope, nested via a parent pointer exactly like
// the teacher's interpreter.Environment is nested for block scoping
// (generalized here from block nesting to function/module nesting).
type SymbolTable struct {
	parent      *SymbolTable
	tags        map[string]Tag
	assignCount map[string]int
}

// NewSymbolTable creates a module-level (root) symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{tags: make(map[string]Tag), assignCount: make(map[string]int)}
}

// NewNestedSymbolTable creates a function-level scope chained to an
// enclosing (module) scope, mirroring MakeNestedEnvironment.
func NewNestedSymbolTable(parent *SymbolTable) *SymbolTable {
	return &SymbolTable{parent: parent, tags: make(map[string]Tag), assignCount: make(map[string]int)}
}

// RecordAssignment increments the reassignment counter for sweep 1.
func (s *SymbolTable) RecordAssignment(name string) {
	s.assignCount[name]++
}

// IsReassigned reports whether name is assigned more than once in this
// scope (sweep 1's output, consumed by the emitter's const/var choice).
func (s *SymbolTable) IsReassigned(name string) bool {
	return s.assignCount[name] > 1
}

// Declare binds name to tag the first time it is seen. Per spec §4.3's
// invariant, once a name is tagged the tag is never weakened or
// replaced — a later Declare for the same name in the same scope is a
// no-op.
func (s *SymbolTable) Declare(name string, tag Tag) {
	if _, ok := s.tags[name]; ok {
		return
	}
	s.tags[name] = tag
}

// Lookup resolves name in this scope, falling back to enclosing scopes.
func (s *SymbolTable) Lookup(name string) (Tag, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if tag, ok := scope.tags[name]; ok {
			return tag, true
		}
	}
	return Tag{}, false
}

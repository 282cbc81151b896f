package types

// Scope maps C names to types. C keeps tags (struct, union and enum names)
// and ordinary identifiers in separate namespaces, so a scope holds both.
// Scopes form a chain from block scopes up to file scope.
type Scope struct {
	parent   *Scope
	tags     map[string]ID
	typedefs map[string]ID
	comment  string // debugging comment (e.g., "file", "function main")
}

// NewScope creates a new scope with the given parent.
func NewScope(parent *Scope, comment string) *Scope {
	return &Scope{
		parent:   parent,
		tags:     make(map[string]ID),
		typedefs: make(map[string]ID),
		comment:  comment,
	}
}

// Parent returns the parent scope, or nil for file scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Comment returns the scope's comment (for debugging).
func (s *Scope) Comment() string {
	return s.comment
}

// InsertTag binds a struct, union or enum tag in this scope.
func (s *Scope) InsertTag(name string, id ID) {
	s.tags[name] = id
}

// InsertTypedef binds a typedef name in this scope.
func (s *Scope) InsertTypedef(name string, id ID) {
	s.typedefs[name] = id
}

// LookupTag searches this scope and its parents for a tag.
func (s *Scope) LookupTag(name string) (ID, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if id, ok := scope.tags[name]; ok {
			return id, true
		}
	}
	return Invalid, false
}

// LookupTypedef searches this scope and its parents for a typedef name.
func (s *Scope) LookupTypedef(name string) (ID, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if id, ok := scope.typedefs[name]; ok {
			return id, true
		}
	}
	return Invalid, false
}

// LocalTag looks up a tag in this scope only.
func (s *Scope) LocalTag(name string) (ID, bool) {
	id, ok := s.tags[name]
	return id, ok
}

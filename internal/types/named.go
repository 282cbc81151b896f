package types

// Typedef represents a typedef name. It is an alias: the C type it names
// is Alias, and the name exists only for readable output.
type Typedef struct {
	typ
	Name  string
	Alias ID
}

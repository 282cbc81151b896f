// Package syntax decodes the typed AST that clang emits with
// -Xclang -ast-dump=json and parses the C type spellings it contains.
package syntax

import "encoding/json"

// Node is one node of the clang JSON AST. Only the fields the importer
// consumes are decoded; the rest of clang's output is ignored.
type Node struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Loc   *Loc   `json:"loc"`
	Range *Range `json:"range"`

	Name               string `json:"name"`
	Type               *Type  `json:"type"`
	ArgType            *Type  `json:"argType"`
	ComputeLHSType     *Type  `json:"computeLHSType"`
	ComputeResultType  *Type  `json:"computeResultType"`
	FixedUnderlying    *Type  `json:"fixedUnderlyingType"`
	StorageClass       string `json:"storageClass"`
	TagUsed            string `json:"tagUsed"`
	CompleteDefinition bool   `json:"completeDefinition"`
	IsImplicit         bool   `json:"isImplicit"`
	IsUsed             bool   `json:"isUsed"`
	IsReferenced       bool   `json:"isReferenced"`
	IsArrow            bool   `json:"isArrow"`
	IsPostfix          bool   `json:"isPostfix"`
	IsBitfield         bool   `json:"isBitfield"`
	IsInvalid          bool   `json:"isInvalid"`
	HasElse            bool   `json:"hasElse"`
	Inline             bool   `json:"inline"`
	Variadic           bool   `json:"variadic"`
	TLS                string `json:"tls"`
	Init               string `json:"init"`
	ValueCategory      string `json:"valueCategory"`
	CastKind           string `json:"castKind"`
	Opcode             string `json:"opcode"`
	PreviousDecl       string `json:"previousDecl"`

	Value json.RawMessage `json:"value"`

	ReferencedDecl       *Node   `json:"referencedDecl"`
	ReferencedMemberDecl string  `json:"referencedMemberDecl"`
	OwnedTagDecl         *Node   `json:"ownedTagDecl"`
	Decl                 *Node   `json:"decl"`
	Field                *Node   `json:"field"`
	ArrayFiller          []*Node `json:"array_filler"`
	TargetLabelDeclID    string  `json:"targetLabelDeclId"`
	DeclID               string  `json:"declId"`
	LabelDeclID          string  `json:"labelDeclId"`

	Inner []*Node `json:"inner"`

	// Positions resolved by Decode. Pos is the node's location; Begin and
	// End bound its source range.
	Pos   Pos `json:"-"`
	Begin Pos `json:"-"`
	End   Pos `json:"-"`

	// TokLen is the length of the token at Pos, and Macro is set when the
	// node was produced by a macro expansion.
	TokLen int  `json:"-"`
	Macro  bool `json:"-"`
}

// Type is the type annotation attached to a node.
type Type struct {
	QualType          string `json:"qualType"`
	DesugaredQualType string `json:"desugaredQualType"`
	TypeAliasDeclID   string `json:"typeAliasDeclId"`
}

// Loc is a source location as written by clang. File and line are only
// present when they differ from the previously written location.
type Loc struct {
	Offset       int64  `json:"offset"`
	File         string `json:"file"`
	Line         int    `json:"line"`
	PresumedFile string `json:"presumedFile"`
	PresumedLine int    `json:"presumedLine"`
	Col          int    `json:"col"`
	TokLen       int    `json:"tokLen"`
	IncludedFrom *struct {
		File string `json:"file"`
	} `json:"includedFrom"`

	SpellingLoc         *Loc `json:"spellingLoc"`
	ExpansionLoc        *Loc `json:"expansionLoc"`
	IsMacroArgExpansion bool `json:"isMacroArgExpansion"`
}

// Range is a begin/end pair of locations.
type Range struct {
	Begin Loc `json:"begin"`
	End   Loc `json:"end"`
}

// Child returns the i'th inner node, or nil.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Inner) {
		return nil
	}
	return n.Inner[i]
}

// IsNull reports whether n is absent or one of the empty placeholder
// objects clang writes for missing children, e.g. a for loop without init.
func (n *Node) IsNull() bool {
	return n == nil || n.Kind == ""
}

// QualType returns the spelling of the node's type, or "".
func (n *Node) QualType() string {
	if n == nil || n.Type == nil {
		return ""
	}
	return n.Type.QualType
}

// StringValue returns the node's value when clang wrote it as a JSON
// string, as it does for integer and floating literals.
func (n *Node) StringValue() (string, bool) {
	var s string
	if len(n.Value) == 0 || json.Unmarshal(n.Value, &s) != nil {
		return "", false
	}
	return s, true
}

// NumberValue returns the node's value when clang wrote it as a JSON
// number, as it does for character literals.
func (n *Node) NumberValue() (int64, bool) {
	var v int64
	if len(n.Value) == 0 || json.Unmarshal(n.Value, &v) != nil {
		return 0, false
	}
	return v, true
}

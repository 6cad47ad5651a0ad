package directive

// Template is a parsed template
type Template struct {
	Name  string
	Nodes []Node
	// Macros lists the macro names declared by the template, in declaration order
	Macros []string
}

// Node is one element of a directive tree
type Node interface {
	Position() Pos
	node()
}

// Text is literal output
type Text struct {
	Pos   Pos
	Value string
}

// Placeholder is a bare DTIG_ name resolved against the scope
type Placeholder struct {
	Pos  Pos
	Name string
}

// Param is a DTIG> reference to a macro parameter or user variable
type Param struct {
	Pos  Pos
	Name string
}

// For repeats Body once per element of Source
type For struct {
	Pos    Pos
	Source Expr
	Body   []Node
}

// Branch is one guarded body of an If
type Branch struct {
	Pos  Pos
	Cond Expr
	Body []Node
}

// If emits the body of the first branch whose condition holds, or Else
type If struct {
	Pos      Pos
	Branches []Branch
	HasElse  bool
	Else     []Node
}

// MacroDef registers a parameterized fragment
type MacroDef struct {
	Pos    Pos
	Name   string
	Params []string
	Body   []Node
}

// MacroCall expands a previously defined macro. Args are Fragments.
type MacroCall struct {
	Pos  Pos
	Name string
	Args []Expr
	// LineEnd holds the rest of the line when the call stands alone on it
	LineEnd string
}

// StringLiteral emits an expression as a quoted target-language string
type StringLiteral struct {
	Pos  Pos
	Expr Expr
}

// QueryKind selects the type table column a TypeQuery reads
type QueryKind int

const (
	QueryAccessor QueryKind = iota + 1
	QueryWrapper
)

// TypeQuery emits the accessor or wrapper of the type an expression names
type TypeQuery struct {
	Pos   Pos
	Query QueryKind
	Expr  Expr
}

func (n *Text) Position() Pos          { return n.Pos }
func (n *Placeholder) Position() Pos   { return n.Pos }
func (n *Param) Position() Pos         { return n.Pos }
func (n *For) Position() Pos           { return n.Pos }
func (n *If) Position() Pos            { return n.Pos }
func (n *MacroDef) Position() Pos      { return n.Pos }
func (n *MacroCall) Position() Pos     { return n.Pos }
func (n *StringLiteral) Position() Pos { return n.Pos }
func (n *TypeQuery) Position() Pos     { return n.Pos }

func (*Text) node()          {}
func (*Placeholder) node()   {}
func (*Param) node()         {}
func (*For) node()           {}
func (*If) node()            {}
func (*MacroDef) node()      {}
func (*MacroCall) node()     {}
func (*StringLiteral) node() {}
func (*TypeQuery) node()     {}

// Expr is a condition, loop source or call argument
type Expr interface {
	Position() Pos
	expr()
}

// Op is an expression operator
type Op int

const (
	OpOr Op = iota + 1
	OpAnd
	OpNot
	OpHas
	OpNeg
	OpEq
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpIn
	OpNotIn
	OpIs
	OpIsNot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

var opNames = map[Op]string{
	OpOr: "OR", OpAnd: "AND", OpNot: "NOT", OpHas: "HAS", OpNeg: "-",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpGt: ">", OpLe: "<=", OpGe: ">=",
	OpIn: "IN", OpNotIn: "NOT IN", OpIs: "IS", OpIsNot: "IS NOT",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
}

func (o Op) String() string {
	return opNames[o]
}

// StringLit is a quoted string or a bare word
type StringLit struct {
	Pos   Pos
	Value string
}

// IntLit is an integer literal
type IntLit struct {
	Pos   Pos
	Value int
}

// NameRef is a placeholder used inside an expression
type NameRef struct {
	Pos  Pos
	Name string
}

// ParamRef is a DTIG> reference used inside an expression
type ParamRef struct {
	Pos  Pos
	Name string
}

// Call is a builtin or macro call used inside an expression
type Call struct {
	Pos  Pos
	Name string
	Args []Expr
}

// Fragment is the literal text of one macro argument. Directives inside it
// expand in the caller's scope.
type Fragment struct {
	Pos   Pos
	Nodes []Node
}

// Unary applies OpNot, OpHas or OpNeg
type Unary struct {
	Pos Pos
	Op  Op
	X   Expr
}

// Binary applies a logical, comparison or arithmetic operator
type Binary struct {
	Pos   Pos
	Op    Op
	Left  Expr
	Right Expr
}

// Concat joins adjacent atoms written without whitespace, e.g. mDTIG>PREFIX
type Concat struct {
	Pos   Pos
	Parts []Expr
}

func (e *StringLit) Position() Pos { return e.Pos }
func (e *IntLit) Position() Pos    { return e.Pos }
func (e *NameRef) Position() Pos   { return e.Pos }
func (e *ParamRef) Position() Pos  { return e.Pos }
func (e *Call) Position() Pos      { return e.Pos }
func (e *Unary) Position() Pos     { return e.Pos }
func (e *Binary) Position() Pos    { return e.Pos }
func (e *Concat) Position() Pos    { return e.Pos }
func (e *Fragment) Position() Pos  { return e.Pos }

func (*StringLit) expr() {}
func (*IntLit) expr()    {}
func (*NameRef) expr()   {}
func (*ParamRef) expr()  {}
func (*Call) expr()      {}
func (*Unary) expr()     {}
func (*Binary) expr()    {}
func (*Concat) expr()    {}
func (*Fragment) expr()  {}

// Package ast defines the typed syntax tree handed from the parser to the
// code generator.
//
// Expressions are split into two categories: value expressions produce a
// 32-bit integer in a register, boolean expressions produce control flow to
// one of two labels. The constructors coerce every child into the category
// its parent requires by wrapping it in a ValueCast or BoolCast node, so the
// emitter never sees a category mismatch.
package ast

import (
	"fmt"

	"cmips/pkg/token"
)

// Expr is either a *ValueExpr or a *BoolExpr.
type Expr interface {
	Loc() token.Location
	exprNode()
}

// ValueKind defines the kind of a value expression node
type ValueKind int

const (
	Constant ValueKind = iota
	Variable
	ArrayAccess
	Unary
	Binary
	Assign
	Call
	ValueCast
	StringLit
)

// ValueExpr is an expression that evaluates to an integer delivered through
// a Symbol.
type ValueExpr struct {
	Kind     ValueKind
	Location token.Location
	Data     any
}

func (e *ValueExpr) Loc() token.Location { return e.Location }
func (e *ValueExpr) exprNode()           {}

// BoolKind defines the kind of a boolean expression node
type BoolKind int

const (
	Not BoolKind = iota
	Logical
	Relational
	BoolCast
)

// BoolExpr is an expression that evaluates by branching to a caller-supplied
// true or false label.
type BoolExpr struct {
	Kind     BoolKind
	Location token.Location
	Data     any
}

func (e *BoolExpr) Loc() token.Location { return e.Location }
func (e *BoolExpr) exprNode()           {}

// --- Expression payloads ---

type ConstantNode struct{ Value int32 }
type VariableNode struct{ Name string }
type ArrayAccessNode struct {
	Name  string
	Index *ValueExpr
}
type UnaryNode struct {
	Op string
	X  *ValueExpr
}
type BinaryNode struct {
	Op   string
	L, R *ValueExpr
}
type AssignNode struct {
	Target *ValueExpr // Variable or ArrayAccess
	Value  *ValueExpr
}
type CallNode struct {
	Name string
	Args []*ValueExpr
}
type ValueCastNode struct{ X *BoolExpr }
type StringNode struct{ Value string }

type NotNode struct{ X *BoolExpr }
type LogicalNode struct {
	Op   string // "&&" or "||"
	L, R *BoolExpr
}
type RelationalNode struct {
	Op   string
	L, R *ValueExpr
}
type BoolCastNode struct{ X *ValueExpr }

// --- Coercion factories ---

// ToValue returns e as a value expression, wrapping boolean expressions in a
// ValueCast. The match is exhaustive: any other dynamic type is a parser bug.
func ToValue(e Expr) *ValueExpr {
	switch x := e.(type) {
	case *ValueExpr:
		return x
	case *BoolExpr:
		return &ValueExpr{Kind: ValueCast, Location: x.Location, Data: ValueCastNode{X: x}}
	}
	panic(fmt.Sprintf("ast: expression %T belongs to no category", e))
}

// ToBool returns e as a boolean expression, wrapping value expressions in a
// BoolCast.
func ToBool(e Expr) *BoolExpr {
	switch x := e.(type) {
	case *BoolExpr:
		return x
	case *ValueExpr:
		return &BoolExpr{Kind: BoolCast, Location: x.Location, Data: BoolCastNode{X: x}}
	}
	panic(fmt.Sprintf("ast: expression %T belongs to no category", e))
}

// IsLValue reports whether e designates writable storage.
func IsLValue(e *ValueExpr) bool {
	return e.Kind == Variable || e.Kind == ArrayAccess
}

// --- Expression constructors ---

func NewConstant(value int32, loc token.Location) *ValueExpr {
	return &ValueExpr{Kind: Constant, Location: loc, Data: ConstantNode{Value: value}}
}

func NewVariable(name string, loc token.Location) *ValueExpr {
	return &ValueExpr{Kind: Variable, Location: loc, Data: VariableNode{Name: name}}
}

func NewArrayAccess(name string, index Expr, loc token.Location) *ValueExpr {
	idx := ToValue(index)
	return &ValueExpr{Kind: ArrayAccess, Location: loc.Merge(idx.Location), Data: ArrayAccessNode{Name: name, Index: idx}}
}

func NewUnary(op string, x Expr, loc token.Location) *ValueExpr {
	switch op {
	case "+", "-", "~":
	default:
		panic(fmt.Sprintf("ast: invalid unary operator %q", op))
	}
	child := ToValue(x)
	return &ValueExpr{Kind: Unary, Location: loc.Merge(child.Location), Data: UnaryNode{Op: op, X: child}}
}

func NewBinary(op string, l, r Expr) *ValueExpr {
	switch op {
	case "+", "-", "*", "/", "&", "|", "^":
	default:
		panic(fmt.Sprintf("ast: invalid binary operator %q", op))
	}
	lv, rv := ToValue(l), ToValue(r)
	return &ValueExpr{Kind: Binary, Location: lv.Location.Merge(rv.Location), Data: BinaryNode{Op: op, L: lv, R: rv}}
}

func NewAssign(target, value Expr) *ValueExpr {
	tv := ToValue(target)
	if !IsLValue(tv) {
		panic("ast: assignment target is not an l-value")
	}
	vv := ToValue(value)
	return &ValueExpr{Kind: Assign, Location: tv.Location.Merge(vv.Location), Data: AssignNode{Target: tv, Value: vv}}
}

func NewCall(name string, args []Expr, loc token.Location) *ValueExpr {
	coerced := make([]*ValueExpr, len(args))
	for i, a := range args {
		coerced[i] = ToValue(a)
	}
	return &ValueExpr{Kind: Call, Location: loc, Data: CallNode{Name: name, Args: coerced}}
}

func NewString(value string, loc token.Location) *ValueExpr {
	return &ValueExpr{Kind: StringLit, Location: loc, Data: StringNode{Value: value}}
}

func NewNot(x Expr, loc token.Location) *BoolExpr {
	child := ToBool(x)
	return &BoolExpr{Kind: Not, Location: loc.Merge(child.Location), Data: NotNode{X: child}}
}

func NewLogical(op string, l, r Expr) *BoolExpr {
	if op != "&&" && op != "||" {
		panic(fmt.Sprintf("ast: invalid logical operator %q", op))
	}
	lb, rb := ToBool(l), ToBool(r)
	return &BoolExpr{Kind: Logical, Location: lb.Location.Merge(rb.Location), Data: LogicalNode{Op: op, L: lb, R: rb}}
}

func NewRelational(op string, l, r Expr) *BoolExpr {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
	default:
		panic(fmt.Sprintf("ast: invalid relational operator %q", op))
	}
	lv, rv := ToValue(l), ToValue(r)
	return &BoolExpr{Kind: Relational, Location: lv.Location.Merge(rv.Location), Data: RelationalNode{Op: op, L: lv, R: rv}}
}

// --- Statements ---

// StmtKind defines the kind of a statement node
type StmtKind int

const (
	VarDecl StmtKind = iota
	ExprStmt
	Block
	If
	Switch
	While
	For
	Break
	Continue
	Return
)

type Stmt struct {
	Kind     StmtKind
	Location token.Location
	Data     any
}

type VarDeclNode struct {
	Name string
	Type *Type
}
type ExprStmtNode struct{ X Expr }
type BlockNode struct{ Stmts []*Stmt }
type IfNode struct {
	Cond *BoolExpr
	Then *Stmt
	Else *Stmt // may be nil
}
type SwitchCase struct {
	Value     *ValueExpr // nil for the default case
	Body      []*Stmt
	Location  token.Location
	IsDefault bool
}
type SwitchNode struct {
	X     *ValueExpr
	Cases []SwitchCase
}
type WhileNode struct {
	Cond *BoolExpr
	Body *Stmt
}
type ForNode struct {
	Init []*Stmt
	Cond *BoolExpr // may be nil: loop until break
	Step *Stmt     // may be nil
	Body *Stmt
}
type BreakNode struct{}
type ContinueNode struct{}
type ReturnNode struct{ X *ValueExpr } // nil for bare return

func NewVarDecl(name string, typ *Type, loc token.Location) *Stmt {
	return &Stmt{Kind: VarDecl, Location: loc, Data: VarDeclNode{Name: name, Type: typ}}
}

func NewExprStmt(x Expr) *Stmt {
	return &Stmt{Kind: ExprStmt, Location: x.Loc(), Data: ExprStmtNode{X: x}}
}

func NewBlock(stmts []*Stmt, loc token.Location) *Stmt {
	return &Stmt{Kind: Block, Location: loc, Data: BlockNode{Stmts: stmts}}
}

func NewIf(cond Expr, then, els *Stmt, loc token.Location) *Stmt {
	return &Stmt{Kind: If, Location: loc, Data: IfNode{Cond: ToBool(cond), Then: then, Else: els}}
}

func NewSwitch(x Expr, cases []SwitchCase, loc token.Location) *Stmt {
	return &Stmt{Kind: Switch, Location: loc, Data: SwitchNode{X: ToValue(x), Cases: cases}}
}

func NewWhile(cond Expr, body *Stmt, loc token.Location) *Stmt {
	return &Stmt{Kind: While, Location: loc, Data: WhileNode{Cond: ToBool(cond), Body: body}}
}

func NewFor(init []*Stmt, cond Expr, step, body *Stmt, loc token.Location) *Stmt {
	n := ForNode{Init: init, Step: step, Body: body}
	if cond != nil {
		n.Cond = ToBool(cond)
	}
	return &Stmt{Kind: For, Location: loc.Merge(body.Location), Data: n}
}

func NewBreak(loc token.Location) *Stmt {
	return &Stmt{Kind: Break, Location: loc, Data: BreakNode{}}
}

func NewContinue(loc token.Location) *Stmt {
	return &Stmt{Kind: Continue, Location: loc, Data: ContinueNode{}}
}

func NewReturn(x Expr, loc token.Location) *Stmt {
	n := ReturnNode{}
	if x != nil {
		n.X = ToValue(x)
	}
	return &Stmt{Kind: Return, Location: loc, Data: n}
}

// --- Definitions ---

// DefKind defines the kind of a top-level definition
type DefKind int

const (
	FieldDef DefKind = iota
	FuncDef
	MainDef
)

type Def struct {
	Kind     DefKind
	Location token.Location
	Data     any
}

type FieldNode struct {
	Name string
	Type *Type
	Init *ValueExpr // nil when uninitialized; StringLit for byte-array literals
}

type Param struct {
	Name     string
	Type     *Type
	Location token.Location
}

type FuncNode struct {
	Name   string
	Return *Type
	Params []Param
	Body   *Stmt
}

func NewField(name string, typ *Type, init Expr, loc token.Location) *Def {
	n := FieldNode{Name: name, Type: typ}
	if init != nil {
		n.Init = ToValue(init)
		loc = loc.Merge(n.Init.Location)
	}
	return &Def{Kind: FieldDef, Location: loc, Data: n}
}

func NewFunc(name string, ret *Type, params []Param, body *Stmt, loc token.Location) *Def {
	return &Def{Kind: FuncDef, Location: loc, Data: FuncNode{Name: name, Return: ret, Params: params, Body: body}}
}

// NewMain builds the distinguished entry-point definition.
func NewMain(ret *Type, body *Stmt, loc token.Location) *Def {
	return &Def{Kind: MainDef, Location: loc, Data: FuncNode{Name: "main", Return: ret, Body: body}}
}

// Program is the parsed compilation unit.
type Program struct {
	Defs []*Def
}

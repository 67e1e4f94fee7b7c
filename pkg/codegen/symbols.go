package codegen

import (
	"fmt"

	"cmips/pkg/ast"
	"cmips/pkg/diag"
	"cmips/pkg/token"
)

// Symbol abstracts a storage location. A symbol knows how to load its value
// into a named register and how to store a named register back into its
// slot. Variants that are not assignable (literals, array bases, void call
// results) report a compile error from SaveValue.
type Symbol interface {
	LoadValue(reg string) (Code, error)
	SaveValue(reg string) (Code, error)
	Type() *ast.Type
	IsArray() bool
}

// GlobalVariable is a word in the data section addressed by label.
type GlobalVariable struct {
	Label string
	Typ   *ast.Type
	Loc   token.Location
}

func (s *GlobalVariable) LoadValue(reg string) (Code, error) {
	var c Code
	c.Ins("lw %s, %s", reg, s.Label)
	return c, nil
}

func (s *GlobalVariable) SaveValue(reg string) (Code, error) {
	var c Code
	c.Ins("sw %s, %s", reg, s.Label)
	return c, nil
}

func (s *GlobalVariable) Type() *ast.Type { return s.Typ }
func (s *GlobalVariable) IsArray() bool   { return false }

// LocalVariable is a word on the frame at a fixed negative $fp offset.
type LocalVariable struct {
	Offset int
	Typ    *ast.Type
	Loc    token.Location
}

func (s *LocalVariable) LoadValue(reg string) (Code, error) {
	var c Code
	c.Ins("lw %s, %d($fp)", reg, s.Offset)
	return c, nil
}

func (s *LocalVariable) SaveValue(reg string) (Code, error) {
	var c Code
	c.Ins("sw %s, %d($fp)", reg, s.Offset)
	return c, nil
}

func (s *LocalVariable) Type() *ast.Type { return s.Typ }
func (s *LocalVariable) IsArray() bool   { return false }

// Parameter is an argument slot stored by the caller just above the callee
// frame; argument i sits at 4i($fp).
type Parameter struct {
	Index int
	Typ   *ast.Type
	Loc   token.Location
}

func (s *Parameter) offset() int { return 4 * s.Index }

func (s *Parameter) LoadValue(reg string) (Code, error) {
	var c Code
	c.Ins("lw %s, %d($fp)", reg, s.offset())
	return c, nil
}

func (s *Parameter) SaveValue(reg string) (Code, error) {
	var c Code
	c.Ins("sw %s, %d($fp)", reg, s.offset())
	return c, nil
}

func (s *Parameter) Type() *ast.Type { return s.Typ }
func (s *Parameter) IsArray() bool   { return false }

// ArrayBase designates the start of an array, either a data-section label or
// a frame slice. Loading it yields the base address; the array as a whole is
// not assignable.
type ArrayBase struct {
	Label   string // data-section arrays
	Offset  int    // frame arrays
	OnFrame bool
	Typ     *ast.Type
	Loc     token.Location
}

func (s *ArrayBase) LoadValue(reg string) (Code, error) {
	var c Code
	if s.OnFrame {
		c.Ins("addu %s, $fp, %d", reg, s.Offset)
	} else {
		c.Ins("la %s, %s", reg, s.Label)
	}
	return c, nil
}

func (s *ArrayBase) SaveValue(reg string) (Code, error) {
	return Code{}, diag.Errorf(s.Loc, "value of type \"%s\" is not assignable", s.Typ.Name())
}

func (s *ArrayBase) Type() *ast.Type { return s.Typ }
func (s *ArrayBase) IsArray() bool   { return true }

// Literal is a known constant; it has no storage.
type Literal struct {
	Value int32
	Loc   token.Location
}

func (s *Literal) LoadValue(reg string) (Code, error) {
	var c Code
	c.Ins("li %s, %d", reg, s.Value)
	return c, nil
}

func (s *Literal) SaveValue(reg string) (Code, error) {
	return Code{}, diag.Errorf(s.Loc, "constant is not assignable")
}

func (s *Literal) Type() *ast.Type { return ast.TypeInt }
func (s *Literal) IsArray() bool   { return false }

// Temporary is a reserved $t register held by an ExpressionContext.
type Temporary struct {
	Index int
	Typ   *ast.Type
	Loc   token.Location
}

func (s *Temporary) Reg() string { return fmt.Sprintf("$t%d", s.Index) }

func (s *Temporary) LoadValue(reg string) (Code, error) {
	var c Code
	c.Ins("move %s, %s", reg, s.Reg())
	return c, nil
}

func (s *Temporary) SaveValue(reg string) (Code, error) {
	var c Code
	c.Ins("move %s, %s", s.Reg(), reg)
	return c, nil
}

func (s *Temporary) Type() *ast.Type { return s.Typ }
func (s *Temporary) IsArray() bool   { return false }

// VoidResult is the result of calling a void function; any attempt to read
// or write it is a compile error at the point of use.
type VoidResult struct {
	Loc token.Location
}

func (s *VoidResult) LoadValue(reg string) (Code, error) {
	return Code{}, diag.Errorf(s.Loc, "void function used as value")
}

func (s *VoidResult) SaveValue(reg string) (Code, error) {
	return Code{}, diag.Errorf(s.Loc, "void function used as value")
}

func (s *VoidResult) Type() *ast.Type { return ast.TypeVoid }
func (s *VoidResult) IsArray() bool   { return false }

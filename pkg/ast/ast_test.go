package ast

import (
	"testing"

	"cmips/pkg/token"
)

func loc(line, col int) token.Location {
	return token.At("test.mc", line, col, 1)
}

func TestToValueWrapsBooleans(t *testing.T) {
	rel := NewRelational("==", NewConstant(1, loc(1, 1)), NewConstant(2, loc(1, 6)))
	v := ToValue(rel)
	if v.Kind != ValueCast {
		t.Fatalf("ToValue(bool) kind = %d, want ValueCast", v.Kind)
	}
	if v.Data.(ValueCastNode).X != rel {
		t.Fatal("ValueCast does not wrap the original expression")
	}
}

func TestToValueIsIdentityOnValues(t *testing.T) {
	c := NewConstant(7, loc(1, 1))
	if ToValue(c) != c {
		t.Fatal("ToValue(value) must not insert a cast")
	}
}

func TestToBoolWrapsValues(t *testing.T) {
	c := NewConstant(7, loc(1, 1))
	b := ToBool(c)
	if b.Kind != BoolCast {
		t.Fatalf("ToBool(value) kind = %d, want BoolCast", b.Kind)
	}
	if ToBool(b) != b {
		t.Fatal("ToBool(bool) must not insert a cast")
	}
}

func TestNoNestedIdentityCasts(t *testing.T) {
	// round-tripping through both factories yields exactly one cast layer
	// per category change
	c := NewConstant(1, loc(1, 1))
	b := ToBool(c)
	v := ToValue(b)
	inner := v.Data.(ValueCastNode).X
	if inner != b {
		t.Fatal("ValueCast should wrap the BoolCast directly")
	}
	if inner.Data.(BoolCastNode).X != c {
		t.Fatal("BoolCast should wrap the constant directly")
	}
}

func TestConstructorsCoerceChildren(t *testing.T) {
	rel := NewRelational("<", NewConstant(1, loc(1, 1)), NewConstant(2, loc(1, 5)))
	sum := NewBinary("+", rel, NewConstant(3, loc(1, 9)))
	d := sum.Data.(BinaryNode)
	if d.L.Kind != ValueCast {
		t.Fatal("binary operator must coerce a boolean operand to a value")
	}

	logical := NewLogical("&&", NewConstant(1, loc(2, 1)), NewConstant(0, loc(2, 6)))
	ld := logical.Data.(LogicalNode)
	if ld.L.Kind != BoolCast || ld.R.Kind != BoolCast {
		t.Fatal("logical operator must coerce value operands to booleans")
	}
}

func TestInvalidOperatorsPanic(t *testing.T) {
	cases := []func(){
		func() { NewBinary("%", NewConstant(1, loc(1, 1)), NewConstant(2, loc(1, 2))) },
		func() { NewUnary("!", NewConstant(1, loc(1, 1)), loc(1, 1)) },
		func() { NewLogical("&", NewConstant(1, loc(1, 1)), NewConstant(2, loc(1, 2))) },
		func() { NewRelational("<>", NewConstant(1, loc(1, 1)), NewConstant(2, loc(1, 2))) },
	}
	for i, fn := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("case %d: constructor accepted an invalid operator", i)
				}
			}()
			fn()
		}()
	}
}

func TestIsLValue(t *testing.T) {
	if !IsLValue(NewVariable("x", loc(1, 1))) {
		t.Error("variable must be an l-value")
	}
	if !IsLValue(NewArrayAccess("a", NewConstant(0, loc(1, 3)), loc(1, 1))) {
		t.Error("array access must be an l-value")
	}
	if IsLValue(NewConstant(3, loc(1, 1))) {
		t.Error("constant must not be an l-value")
	}
	if IsLValue(NewBinary("+", NewConstant(1, loc(1, 1)), NewConstant(2, loc(1, 3)))) {
		t.Error("binary expression must not be an l-value")
	}
}

func TestPrecompute(t *testing.T) {
	one := func() *ValueExpr { return NewConstant(1, loc(1, 1)) }
	tests := []struct {
		name string
		expr *ValueExpr
		want int32
		ok   bool
	}{
		{"constant", NewConstant(42, loc(1, 1)), 42, true},
		{"sum", NewBinary("+", NewConstant(2, loc(1, 1)), NewConstant(3, loc(1, 3))), 5, true},
		{"precedence tree", NewBinary("-",
			NewBinary("+", NewConstant(2, loc(1, 1)),
				NewBinary("*", NewConstant(3, loc(1, 3)), NewConstant(4, loc(1, 5)))),
			one()), 13, true},
		{"negation", NewUnary("-", NewConstant(7, loc(1, 1)), loc(1, 1)), -7, true},
		{"complement", NewUnary("~", NewConstant(0, loc(1, 1)), loc(1, 1)), -1, true},
		{"wrapping multiply", NewBinary("*",
			NewConstant(0x40000000, loc(1, 1)), NewConstant(4, loc(1, 3))), 0, true},
		{"unsigned division", NewBinary("/",
			NewConstant(-4, loc(1, 1)), NewConstant(2, loc(1, 3))), 0x7ffffffe, true},
		{"division by zero stays unfolded", NewBinary("/",
			NewConstant(10, loc(1, 1)), NewConstant(0, loc(1, 3))), 0, false},
		{"bitwise", NewBinary("^",
			NewConstant(0b1100, loc(1, 1)), NewConstant(0b1010, loc(1, 3))), 0b0110, true},
		{"variable is opaque", NewVariable("x", loc(1, 1)), 0, false},
		{"call is opaque", NewCall("f", nil, loc(1, 1)), 0, false},
		{"assignment is opaque", NewAssign(NewVariable("x", loc(1, 1)), one()), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.expr.Precompute()
			if ok != tt.ok {
				t.Fatalf("Precompute ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("Precompute = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPrecomputeHasNoSideEffects(t *testing.T) {
	// a subtree containing an opaque node must not partially fold
	e := NewBinary("+", NewVariable("x", loc(1, 1)), NewConstant(1, loc(1, 3)))
	if _, ok := e.Precompute(); ok {
		t.Fatal("expression with a variable folded")
	}
	d := e.Data.(BinaryNode)
	if d.L.Kind != Variable || d.R.Kind != Constant {
		t.Fatal("Precompute mutated the tree")
	}
}

func TestTypeEquality(t *testing.T) {
	if !TypeInt.Equal(TypeInt) || TypeInt.Equal(TypeVoid) {
		t.Fatal("scalar type equality broken")
	}
	a := ArrayOf(TypeInt, 5)
	b := ArrayOf(TypeInt, 5)
	c := ArrayOf(TypeInt, 6)
	if !a.Equal(b) {
		t.Fatal("equal array types compare unequal")
	}
	if a.Equal(c) {
		t.Fatal("arrays of different length compare equal")
	}
	if !TypeInt.IsValue() || !TypeBool.IsValue() || TypeVoid.IsValue() || a.IsValue() {
		t.Fatal("IsValue predicate broken")
	}
	if a.Width() != 20 || TypeInt.Width() != 4 {
		t.Fatal("Width broken")
	}
}

package ast

// Precompute performs compile-time constant evaluation on a value expression.
// It succeeds only for Constant nodes and for Unary/Binary nodes whose
// children all precompute. Arithmetic wraps at 32 bits; division follows the
// unsigned semantics of the divu instruction the emitter lowers "/" to, and
// a zero divisor leaves the expression unfolded so the emitted code traps at
// runtime instead.
func (e *ValueExpr) Precompute() (int32, bool) {
	switch e.Kind {
	case Constant:
		return e.Data.(ConstantNode).Value, true
	case Unary:
		d := e.Data.(UnaryNode)
		a, ok := d.X.Precompute()
		if !ok {
			return 0, false
		}
		switch d.Op {
		case "+":
			return a, true
		case "-":
			return -a, true
		case "~":
			return ^a, true
		}
	case Binary:
		d := e.Data.(BinaryNode)
		a, ok := d.L.Precompute()
		if !ok {
			return 0, false
		}
		b, ok := d.R.Precompute()
		if !ok {
			return 0, false
		}
		switch d.Op {
		case "+":
			return a + b, true
		case "-":
			return a - b, true
		case "*":
			return a * b, true
		case "/":
			if b == 0 {
				return 0, false
			}
			return int32(uint32(a) / uint32(b)), true
		case "&":
			return a & b, true
		case "|":
			return a | b, true
		case "^":
			return a ^ b, true
		}
	}
	return 0, false
}

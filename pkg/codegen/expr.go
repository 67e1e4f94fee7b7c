package codegen

import (
	"fmt"

	"cmips/pkg/ast"
	"cmips/pkg/config"
	"cmips/pkg/diag"
	"cmips/pkg/token"
)

var binaryOps = map[string]string{
	"+": "addu", "-": "subu", "*": "mul", "/": "divu",
	"&": "and", "|": "or", "^": "xor",
}

var unaryOps = map[string]string{
	"+": "move", "-": "negu", "~": "not",
}

var branchOps = map[string]string{
	"==": "beq", "!=": "bne", "<": "blt", "<=": "ble", ">": "bgt", ">=": "bge",
}

// evalValue emits code computing e and returns the symbol holding the
// result. The caller owns the returned symbol and releases it when done.
func evalValue(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	switch e.Kind {
	case ast.Constant:
		return evalConstant(ctx, e)
	case ast.Variable:
		return evalVariable(ctx, e)
	case ast.ArrayAccess:
		return evalArrayAccess(ctx, e)
	case ast.Unary:
		return evalUnary(ctx, e)
	case ast.Binary:
		return evalBinary(ctx, e)
	case ast.Assign:
		return evalAssign(ctx, e)
	case ast.Call:
		return evalCall(ctx, e)
	case ast.ValueCast:
		return evalValueCast(ctx, e)
	case ast.StringLit:
		return Code{}, nil, diag.Errorf(e.Location, "a string literal can only initialize a global array")
	}
	panic(fmt.Sprintf("codegen: unhandled value expression kind %d", e.Kind))
}

func evalConstant(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	temp, err := ctx.NewTemp(ast.TypeInt, e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	lit := &Literal{Value: e.Data.(ast.ConstantNode).Value, Loc: e.Location}
	code, err := lit.LoadValue(temp.Reg())
	if err != nil {
		return Code{}, nil, err
	}
	return code, temp, nil
}

func evalVariable(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	name := e.Data.(ast.VariableNode).Name
	sym, sig := ctx.Local.Lookup(name)
	if sym == nil {
		if sig != nil {
			return Code{}, nil, diag.Errorf(e.Location, "symbol \"%s\" is a function, not a variable", name)
		}
		return Code{}, nil, diag.Errorf(e.Location, "undefined symbol \"%s\"", name)
	}
	if sym.IsArray() {
		// the array designates its base address; no copy is made
		return Code{}, sym, nil
	}
	temp, err := ctx.NewTemp(sym.Type(), e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	code, err := sym.LoadValue(temp.Reg())
	if err != nil {
		return Code{}, nil, err
	}
	return code, temp, nil
}

// elementAddr emits the runtime bounds check and computes the address of
// element idxSym of the named array into a fresh temporary.
func elementAddr(ctx *ExpressionContext, arr Symbol, idxSym Symbol, loc token.Location) (Code, *Temporary, error) {
	var code Code
	length := arr.Type().Len

	errLabel := ctx.Local.Fn.Global.NewLabel()
	okLabel := ctx.Local.Fn.Global.NewLabel()
	code.Ins("# runtime array index bounds check")
	load, err := idxSym.LoadValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(load)
	code.Ins("bltz $v0, %s", errLabel)
	code.Ins("bgeu $v0, %d, %s", length, errLabel)
	code.Ins("j %s", okLabel)
	code.Label(errLabel)
	code.Ins("jal %s", boundsErrorLabel)
	code.Label(okLabel)

	addr, err := ctx.NewTemp(ast.TypeInt, loc)
	if err != nil {
		return Code{}, nil, err
	}
	base, err := arr.LoadValue(addr.Reg())
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(base)
	code.Ins("mul $v0, $v0, 4")
	code.Ins("addu %s, %s, $v0", addr.Reg(), addr.Reg())
	return code, addr, nil
}

// lookupArray resolves an indexed name and applies the compile-time bounds
// check when the index folds to a constant.
func lookupArray(ctx *ExpressionContext, name string, index *ast.ValueExpr, loc token.Location) (Symbol, error) {
	sym, sig := ctx.Local.Lookup(name)
	if sym == nil {
		if sig != nil {
			return nil, diag.Errorf(loc, "symbol \"%s\" is a function, not a variable", name)
		}
		return nil, diag.Errorf(loc, "undefined symbol \"%s\"", name)
	}
	if !sym.IsArray() {
		return nil, diag.Errorf(loc, "symbol \"%s\" of type %s is not indexable", name, sym.Type().Name())
	}
	if value, ok := index.Precompute(); ok {
		if value < 0 || int(value) >= sym.Type().Len {
			// the emitted runtime check still fires; flag it early
			ctx.Local.Fn.Global.Diag(loc, diag.SeverityWarning, "array index is out of bounds")
		}
	}
	return sym, nil
}

func evalArrayAccess(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	d := e.Data.(ast.ArrayAccessNode)
	arr, err := lookupArray(ctx, d.Name, d.Index, e.Location)
	if err != nil {
		return Code{}, nil, err
	}

	code, idxSym, err := evalValue(ctx, d.Index)
	if err != nil {
		return Code{}, nil, err
	}
	addrCode, addr, err := elementAddr(ctx, arr, idxSym, e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(addrCode)
	ctx.Release(idxSym)

	result, err := ctx.NewTemp(arr.Type().Elem, e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	code.Ins("lw $v0, 0(%s)", addr.Reg())
	save, err := result.SaveValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(save)
	ctx.Release(addr)
	return code, result, nil
}

func evalUnary(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	d := e.Data.(ast.UnaryNode)
	code, child, err := evalValue(ctx, d.X)
	if err != nil {
		return Code{}, nil, err
	}
	load, err := child.LoadValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(load)
	code.Ins("%s $v0, $v0", unaryOps[d.Op])
	ctx.Release(child)

	result, err := ctx.NewTemp(ast.TypeInt, e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	save, err := result.SaveValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(save)
	return code, result, nil
}

func evalBinary(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	d := e.Data.(ast.BinaryNode)

	if d.Op == "/" {
		if den, ok := d.R.Precompute(); ok && den == 0 {
			global := ctx.Local.Fn.Global
			if global.Cfg == nil || global.Cfg.IsWarningEnabled(config.WarnDivZero) {
				global.Diag(e.Location, diag.SeverityWarning, "divide by zero")
			}
		}
	}

	code, left, err := evalValue(ctx, d.L)
	if err != nil {
		return Code{}, nil, err
	}
	rightCode, right, err := evalValue(ctx, d.R)
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(rightCode)

	loadL, err := left.LoadValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	loadR, err := right.LoadValue("$v1")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(loadL)
	code.Append(loadR)
	code.Ins("%s $v0, $v0, $v1", binaryOps[d.Op])
	ctx.Release(left)
	ctx.Release(right)

	result, err := ctx.NewTemp(ast.TypeInt, e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	save, err := result.SaveValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(save)
	return code, result, nil
}

// assignTo stores value into the l-value target. The value symbol stays
// reserved; it is also the result of the enclosing assignment expression.
func assignTo(ctx *ExpressionContext, target *ast.ValueExpr, value Symbol) (Code, error) {
	if !value.Type().IsValue() {
		if _, ok := value.(*VoidResult); ok {
			return Code{}, diag.Errorf(target.Location, "void function used as value")
		}
		return Code{}, diag.Errorf(target.Location, "type mismatch in assignment: cannot assign value of type %s", value.Type().Name())
	}

	switch target.Kind {
	case ast.Variable:
		name := target.Data.(ast.VariableNode).Name
		sym, sig := ctx.Local.Lookup(name)
		if sym == nil {
			if sig != nil {
				return Code{}, diag.Errorf(target.Location, "symbol \"%s\" is a function, not a variable", name)
			}
			return Code{}, diag.Errorf(target.Location, "undefined symbol \"%s\"", name)
		}
		code, err := value.LoadValue("$v0")
		if err != nil {
			return Code{}, err
		}
		save, err := sym.SaveValue("$v0")
		if err != nil {
			return Code{}, err
		}
		code.Append(save)
		return code, nil

	case ast.ArrayAccess:
		d := target.Data.(ast.ArrayAccessNode)
		arr, err := lookupArray(ctx, d.Name, d.Index, target.Location)
		if err != nil {
			return Code{}, err
		}
		code, idxSym, err := evalValue(ctx, d.Index)
		if err != nil {
			return Code{}, err
		}
		addrCode, addr, err := elementAddr(ctx, arr, idxSym, target.Location)
		if err != nil {
			return Code{}, err
		}
		code.Append(addrCode)
		ctx.Release(idxSym)

		load, err := value.LoadValue("$v0")
		if err != nil {
			return Code{}, err
		}
		code.Append(load)
		code.Ins("sw $v0, 0(%s)", addr.Reg())
		ctx.Release(addr)
		return code, nil
	}
	panic("codegen: assignment target is not an l-value")
}

func evalAssign(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	d := e.Data.(ast.AssignNode)
	code, value, err := evalValue(ctx, d.Value)
	if err != nil {
		return Code{}, nil, err
	}
	store, err := assignTo(ctx, d.Target, value)
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(store)
	// the value stored is the value of the assignment expression
	return code, value, nil
}

func evalCall(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	d := e.Data.(ast.CallNode)
	sym, sig := ctx.Local.Lookup(d.Name)
	if sig == nil {
		if sym != nil {
			return Code{}, nil, diag.Errorf(e.Location, "symbol \"%s\" is not a function", d.Name)
		}
		return Code{}, nil, diag.Errorf(e.Location, "undefined symbol \"%s\"", d.Name)
	}
	if len(d.Args) != len(sig.Params) {
		return Code{}, nil, diag.Errorf(e.Location, "arity mismatch: function \"%s\" expects %d argument(s), got %d",
			d.Name, len(sig.Params), len(d.Args))
	}

	var code Code
	argSyms := make([]Symbol, len(d.Args))
	for i, arg := range d.Args {
		argCode, argSym, err := evalValue(ctx, arg)
		if err != nil {
			return Code{}, nil, err
		}
		if !sig.Params[i].IsValue() || !argSym.Type().IsValue() {
			return Code{}, nil, diag.Errorf(arg.Location, "argument of type %s is not compatible with parameter of type %s",
				argSym.Type().Name(), sig.Params[i].Name())
		}
		code.Append(argCode)
		argSyms[i] = argSym
	}

	n := len(argSyms)
	if n > 0 {
		code.Ins("subu $sp, $sp, %d", 4*n)
		for i, argSym := range argSyms {
			load, err := argSym.LoadValue("$v0")
			if err != nil {
				return Code{}, nil, err
			}
			code.Append(load)
			code.Ins("sw $v0, %d($sp)", 4*i)
		}
	}
	code.Ins("jal %s", sig.Label)
	if n > 0 {
		code.Ins("addu $sp, $sp, %d", 4*n)
	}
	for _, argSym := range argSyms {
		ctx.Release(argSym)
	}

	if sig.Return.Kind == ast.TYPE_VOID {
		return code, &VoidResult{Loc: e.Location}, nil
	}
	result, err := ctx.NewTemp(sig.Return, e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	save, err := result.SaveValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(save)
	return code, result, nil
}

func evalValueCast(ctx *ExpressionContext, e *ast.ValueExpr) (Code, Symbol, error) {
	d := e.Data.(ast.ValueCastNode)
	global := ctx.Local.Fn.Global
	setLabel := global.NewLabel()
	clearLabel := global.NewLabel()
	endLabel := global.NewLabel()

	code, err := evalBool(ctx, d.X, setLabel, clearLabel)
	if err != nil {
		return Code{}, nil, err
	}
	result, err := ctx.NewTemp(ast.TypeBool, e.Location)
	if err != nil {
		return Code{}, nil, err
	}
	code.Label(setLabel)
	code.Ins("li $v0, 1")
	code.Ins("j %s", endLabel)
	code.Label(clearLabel)
	code.Ins("move $v0, $zero")
	code.Label(endLabel)
	save, err := result.SaveValue("$v0")
	if err != nil {
		return Code{}, nil, err
	}
	code.Append(save)
	return code, result, nil
}

// evalBool emits code that transfers control to trueLabel or falseLabel
// depending on the expression. It never falls through.
func evalBool(ctx *ExpressionContext, e *ast.BoolExpr, trueLabel, falseLabel string) (Code, error) {
	switch e.Kind {
	case ast.Not:
		return evalBool(ctx, e.Data.(ast.NotNode).X, falseLabel, trueLabel)

	case ast.Logical:
		d := e.Data.(ast.LogicalNode)
		mid := ctx.Local.Fn.Global.NewLabel()
		var code Code
		var err error
		if d.Op == "&&" {
			code, err = evalBool(ctx, d.L, mid, falseLabel)
		} else {
			code, err = evalBool(ctx, d.L, trueLabel, mid)
		}
		if err != nil {
			return Code{}, err
		}
		code.Label(mid)
		rest, err := evalBool(ctx, d.R, trueLabel, falseLabel)
		if err != nil {
			return Code{}, err
		}
		code.Append(rest)
		return code, nil

	case ast.Relational:
		d := e.Data.(ast.RelationalNode)
		code, left, err := evalValue(ctx, d.L)
		if err != nil {
			return Code{}, err
		}
		rightCode, right, err := evalValue(ctx, d.R)
		if err != nil {
			return Code{}, err
		}
		code.Append(rightCode)
		loadL, err := left.LoadValue("$v0")
		if err != nil {
			return Code{}, err
		}
		loadR, err := right.LoadValue("$v1")
		if err != nil {
			return Code{}, err
		}
		code.Append(loadL)
		code.Append(loadR)
		code.Ins("%s $v0, $v1, %s", branchOps[d.Op], trueLabel)
		code.Ins("j %s", falseLabel)
		ctx.Release(left)
		ctx.Release(right)
		return code, nil

	case ast.BoolCast:
		d := e.Data.(ast.BoolCastNode)
		code, sym, err := evalValue(ctx, d.X)
		if err != nil {
			return Code{}, err
		}
		load, err := sym.LoadValue("$v0")
		if err != nil {
			return Code{}, err
		}
		code.Append(load)
		code.Ins("bne $v0, $zero, %s", trueLabel)
		code.Ins("j %s", falseLabel)
		ctx.Release(sym)
		return code, nil
	}
	panic(fmt.Sprintf("codegen: unhandled boolean expression kind %d", e.Kind))
}

package codegen

import (
	"fmt"

	"cmips/pkg/ast"
	"cmips/pkg/diag"
)

// compileStmt emits one statement in the given scope.
func compileStmt(ctx *LocalContext, s *ast.Stmt) (Code, error) {
	switch s.Kind {
	case ast.VarDecl:
		d := s.Data.(ast.VarDeclNode)
		if _, err := ctx.Declare(d.Name, d.Type, s.Location); err != nil {
			return Code{}, err
		}
		return Code{}, nil

	case ast.ExprStmt:
		return compileExprStmt(ctx, s)

	case ast.Block:
		child := ctx.Child()
		defer child.Close()
		var code Code
		for _, inner := range s.Data.(ast.BlockNode).Stmts {
			c, err := compileStmt(child, inner)
			if err != nil {
				return Code{}, err
			}
			code.Append(c)
		}
		return code, nil

	case ast.If:
		return compileIf(ctx, s)
	case ast.Switch:
		return compileSwitch(ctx, s)
	case ast.While:
		return compileWhile(ctx, s)
	case ast.For:
		return compileFor(ctx, s)

	case ast.Break:
		target, ok := ctx.BreakTarget()
		if !ok {
			return Code{}, diag.Errorf(s.Location, "break outside loop/switch")
		}
		var code Code
		code.Ins("j %s", target)
		return code, nil

	case ast.Continue:
		target, ok := ctx.ContinueTarget()
		if !ok {
			return Code{}, diag.Errorf(s.Location, "continue outside loop")
		}
		var code Code
		code.Ins("j %s", target)
		return code, nil

	case ast.Return:
		return compileReturn(ctx, s)
	}
	panic(fmt.Sprintf("codegen: unhandled statement kind %d", s.Kind))
}

func compileExprStmt(ctx *LocalContext, s *ast.Stmt) (Code, error) {
	switch x := s.Data.(ast.ExprStmtNode).X.(type) {
	case *ast.ValueExpr:
		ectx := NewExpressionContext(ctx)
		code, sym, err := evalValue(ectx, x)
		if err != nil {
			return Code{}, err
		}
		ectx.Release(sym)
		return code, nil
	case *ast.BoolExpr:
		// at statement level both outcomes continue at the same place
		end := ctx.Fn.Global.NewLabel()
		ectx := NewExpressionContext(ctx)
		code, err := evalBool(ectx, x, end, end)
		if err != nil {
			return Code{}, err
		}
		code.Label(end)
		return code, nil
	}
	panic("codegen: expression statement holds no expression")
}

func compileIf(ctx *LocalContext, s *ast.Stmt) (Code, error) {
	d := s.Data.(ast.IfNode)
	global := ctx.Fn.Global
	thenLabel := global.NewLabel()
	endLabel := global.NewLabel()
	elseLabel := endLabel
	if d.Else != nil {
		elseLabel = global.NewLabel()
	}

	ectx := NewExpressionContext(ctx)
	code, err := evalBool(ectx, d.Cond, thenLabel, elseLabel)
	if err != nil {
		return Code{}, err
	}
	code.Label(thenLabel)
	thenCode, err := compileStmt(ctx, d.Then)
	if err != nil {
		return Code{}, err
	}
	code.Append(thenCode)
	if d.Else != nil {
		code.Ins("j %s", endLabel)
		code.Label(elseLabel)
		elseCode, err := compileStmt(ctx, d.Else)
		if err != nil {
			return Code{}, err
		}
		code.Append(elseCode)
	}
	code.Label(endLabel)
	return code, nil
}

func compileWhile(ctx *LocalContext, s *ast.Stmt) (Code, error) {
	d := s.Data.(ast.WhileNode)
	global := ctx.Fn.Global
	topLabel := global.NewLabel()
	bodyLabel := global.NewLabel()
	endLabel := global.NewLabel()

	ctx.PushLoop(endLabel, topLabel)
	defer ctx.PopLoop()

	var code Code
	code.Label(topLabel)
	ectx := NewExpressionContext(ctx)
	cond, err := evalBool(ectx, d.Cond, bodyLabel, endLabel)
	if err != nil {
		return Code{}, err
	}
	code.Append(cond)
	code.Label(bodyLabel)
	body, err := compileStmt(ctx, d.Body)
	if err != nil {
		return Code{}, err
	}
	code.Append(body)
	code.Ins("j %s", topLabel)
	code.Label(endLabel)
	return code, nil
}

func compileFor(ctx *LocalContext, s *ast.Stmt) (Code, error) {
	d := s.Data.(ast.ForNode)
	global := ctx.Fn.Global
	topLabel := global.NewLabel()
	bodyLabel := global.NewLabel()
	stepLabel := global.NewLabel()
	endLabel := global.NewLabel()

	// the init declarations live in their own scope wrapping the loop
	scope := ctx.Child()
	defer scope.Close()

	var code Code
	for _, init := range d.Init {
		c, err := compileStmt(scope, init)
		if err != nil {
			return Code{}, err
		}
		code.Append(c)
	}

	scope.PushLoop(endLabel, stepLabel)
	defer scope.PopLoop()

	code.Label(topLabel)
	if d.Cond != nil {
		ectx := NewExpressionContext(scope)
		cond, err := evalBool(ectx, d.Cond, bodyLabel, endLabel)
		if err != nil {
			return Code{}, err
		}
		code.Append(cond)
	}
	code.Label(bodyLabel)
	body, err := compileStmt(scope, d.Body)
	if err != nil {
		return Code{}, err
	}
	code.Append(body)
	code.Label(stepLabel)
	if d.Step != nil {
		step, err := compileStmt(scope, d.Step)
		if err != nil {
			return Code{}, err
		}
		code.Append(step)
	}
	code.Ins("j %s", topLabel)
	code.Label(endLabel)
	return code, nil
}

func compileSwitch(ctx *LocalContext, s *ast.Stmt) (Code, error) {
	d := s.Data.(ast.SwitchNode)
	global := ctx.Fn.Global
	endLabel := global.NewLabel()

	// resolve the case labels and reject duplicates up front
	type caseInfo struct {
		value int32
		label string
	}
	infos := make([]caseInfo, len(d.Cases))
	seen := make(map[int32]bool)
	defaultLabel := endLabel
	haveDefault := false
	for i, c := range d.Cases {
		label := global.NewLabel()
		if c.IsDefault {
			if haveDefault {
				return Code{}, diag.Errorf(c.Location, "duplicate default case")
			}
			haveDefault = true
			defaultLabel = label
			infos[i] = caseInfo{label: label}
			continue
		}
		value, ok := c.Value.Precompute()
		if !ok {
			return Code{}, diag.Errorf(c.Value.Location, "case value must be a constant expression")
		}
		if seen[value] {
			return Code{}, diag.Errorf(c.Location, "duplicate case value")
		}
		seen[value] = true
		infos[i] = caseInfo{value: value, label: label}
	}

	ectx := NewExpressionContext(ctx)
	code, sym, err := evalValue(ectx, d.X)
	if err != nil {
		return Code{}, err
	}
	switchTemp, isTemp := sym.(*Temporary)
	if !isTemp {
		switchTemp, err = ectx.NewTemp(sym.Type(), s.Location)
		if err != nil {
			return Code{}, err
		}
		load, err := sym.LoadValue(switchTemp.Reg())
		if err != nil {
			return Code{}, err
		}
		code.Append(load)
	}

	cmp, err := ectx.NewTemp(ast.TypeInt, s.Location)
	if err != nil {
		return Code{}, err
	}
	for i, c := range d.Cases {
		if c.IsDefault {
			continue
		}
		code.Ins("li %s, %d", cmp.Reg(), infos[i].value)
		code.Ins("beq %s, %s, %s", switchTemp.Reg(), cmp.Reg(), infos[i].label)
	}
	code.Ins("j %s", defaultLabel)
	ectx.Release(cmp)
	ectx.Release(switchTemp)
	if !isTemp {
		ectx.Release(sym)
	}

	// case bodies fall through into each other unless a break jumps out
	ctx.PushSwitch(endLabel)
	defer ctx.PopSwitch()
	scope := ctx.Child()
	defer scope.Close()
	for i, c := range d.Cases {
		code.Label(infos[i].label)
		for _, inner := range c.Body {
			bodyCode, err := compileStmt(scope, inner)
			if err != nil {
				return Code{}, err
			}
			code.Append(bodyCode)
		}
	}
	code.Label(endLabel)
	return code, nil
}

func compileReturn(ctx *LocalContext, s *ast.Stmt) (Code, error) {
	d := s.Data.(ast.ReturnNode)
	returnType := ctx.Fn.Sig.Return

	var code Code
	switch {
	case d.X != nil && returnType.IsValue():
		if value, ok := d.X.Precompute(); ok {
			code.Ins("li $v0, %d", value)
		} else {
			ectx := NewExpressionContext(ctx)
			exprCode, sym, err := evalValue(ectx, d.X)
			if err != nil {
				return Code{}, err
			}
			code.Append(exprCode)
			load, err := sym.LoadValue("$v0")
			if err != nil {
				return Code{}, err
			}
			code.Append(load)
			ectx.Release(sym)
		}
	case d.X == nil && returnType.Kind == ast.TYPE_VOID:
		// nothing to materialize
	default:
		return Code{}, diag.Errorf(s.Location, "return value type does not match function return type")
	}
	code.Ins("j %s", ctx.Fn.ReturnLabel)
	return code, nil
}

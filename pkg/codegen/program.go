package codegen

import (
	_ "embed"
	"fmt"
	"strings"

	"cmips/pkg/ast"
	"cmips/pkg/config"
	"cmips/pkg/diag"
	"cmips/pkg/token"
)

// The runtime library appended verbatim to every compilation.
//
//go:embed builtins.asm
var builtinsAsm string

// boundsErrorLabel is the runtime routine the emitted bounds checks jump to.
const boundsErrorLabel = "bounds_error"

var builtinLoc = token.Location{File: "builtin", Line: 1, Column: 1}

// registerBuiltins declares the callable runtime routines. The string I/O
// routines also present in builtins.asm are not registered: the type model
// has no pointer type to describe their parameters.
func registerBuiltins(g *GlobalContext) {
	builtins := []struct {
		name   string
		ret    *ast.Type
		params []*ast.Type
	}{
		{"print_int", ast.TypeVoid, []*ast.Type{ast.TypeInt}},
		{"print_char", ast.TypeVoid, []*ast.Type{ast.TypeInt}},
		{"read_int", ast.TypeInt, nil},
		{"read_char", ast.TypeInt, nil},
		{"exit", ast.TypeVoid, nil},
		{"exit2", ast.TypeVoid, []*ast.Type{ast.TypeInt}},
	}
	for _, b := range builtins {
		// built-ins keep their plain labels; user symbols are prefixed
		err := g.DeclareFunction(&Signature{
			Name: b.name, Label: b.name, Return: b.ret, Params: b.params, Loc: builtinLoc,
		})
		if err != nil {
			panic("codegen: duplicate builtin " + b.name)
		}
	}
}

// Compile translates the program into a complete MIPS assembly listing.
//
// The first pass registers every top-level name so functions may call each
// other regardless of textual order. The second pass compiles each
// definition; a definition that fails is reported through the handler and
// contributes no output, and compilation continues with the next one.
func Compile(prog *ast.Program, cfg *config.Config, handler diag.Handler) (string, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	global := NewGlobalContext(cfg, handler)
	registerBuiltins(global)

	errCount := 0
	report := func(err error) {
		ce, ok := err.(*diag.Error)
		if !ok {
			panic(err)
		}
		global.Diag(ce.Loc, diag.SeverityError, ce.Msg)
		errCount++
	}

	skip := make(map[*ast.Def]bool)
	hasMain := false
	for _, def := range prog.Defs {
		var err error
		switch def.Kind {
		case ast.FieldDef:
			d := def.Data.(ast.FieldNode)
			_, err = global.DeclareField(d.Name, d.Type, def.Location)
		case ast.FuncDef:
			d := def.Data.(ast.FuncNode)
			params := make([]*ast.Type, len(d.Params))
			for i, p := range d.Params {
				params[i] = p.Type
			}
			err = global.DeclareFunction(&Signature{
				Name: d.Name, Label: mangle(d.Name), Return: d.Return, Params: params, Loc: def.Location,
			})
		case ast.MainDef:
			d := def.Data.(ast.FuncNode)
			hasMain = true
			err = global.DeclareFunction(&Signature{
				Name: "main", Label: "main", Return: d.Return, Loc: def.Location,
			})
		}
		if err != nil {
			report(err)
			skip[def] = true
		}
	}
	if !hasMain {
		global.Diag(token.Location{}, diag.SeverityError, "program does not define a main function")
		errCount++
	}

	var out Code
	for _, def := range prog.Defs {
		if skip[def] {
			continue
		}
		code, err := compileDef(global, def)
		if err != nil {
			report(err)
			continue
		}
		out.Append(code)
	}

	var sb strings.Builder
	sb.WriteString(".data\n")
	sb.WriteString(".align 2\n")
	sb.WriteString(out.DataSection())
	sb.WriteString("\n.text\n")
	sb.WriteString(".globl main\n")
	sb.WriteString(out.Text())
	sb.WriteString("\n")
	sb.WriteString(builtinsAsm)

	if errCount > 0 {
		return sb.String(), fmt.Errorf("compilation failed with %d error(s)", errCount)
	}
	return sb.String(), nil
}

func compileDef(global *GlobalContext, def *ast.Def) (Code, error) {
	switch def.Kind {
	case ast.FieldDef:
		return compileField(global, def)
	case ast.FuncDef, ast.MainDef:
		return compileFunction(global, def)
	}
	panic(fmt.Sprintf("codegen: unhandled definition kind %d", def.Kind))
}

func compileField(global *GlobalContext, def *ast.Def) (Code, error) {
	d := def.Data.(ast.FieldNode)
	label := mangle(d.Name)

	var code Code
	switch {
	case d.Type.IsValue():
		var value int32
		if d.Init != nil {
			if d.Init.Kind == ast.StringLit {
				return Code{}, diag.Errorf(def.Location, "a string literal can only initialize an array")
			}
			v, ok := d.Init.Precompute()
			if !ok {
				return Code{}, diag.Errorf(def.Location, "non-constant global initializer")
			}
			value = v
		}
		code.Data("%s:", label)
		code.Data("\t.word %d", value)

	case d.Type.IsArray():
		switch {
		case d.Init == nil:
			code.Data("%s:", label)
			code.Data("\t.space %d", d.Type.Width())
		case d.Init.Kind == ast.StringLit:
			literal := d.Init.Data.(ast.StringNode).Value
			if len(literal)+1 > d.Type.Width() {
				return Code{}, diag.Errorf(def.Location, "the string literal does not fit in the array")
			}
			code.Data("%s:", label)
			code.Data("\t.asciiz \"%s\"", escapeAsm(literal))
			if pad := d.Type.Width() - len(literal) - 1; pad > 0 {
				code.Data("\t.space %d", pad)
			}
		default:
			return Code{}, diag.Errorf(def.Location, "an array can only be initialized with a string literal")
		}

	default:
		panic("codegen: field of non-storable type " + d.Type.Name())
	}
	return code, nil
}

func compileFunction(global *GlobalContext, def *ast.Def) (Code, error) {
	d := def.Data.(ast.FuncNode)
	entry := global.lookup(d.Name)
	if entry == nil || entry.sig == nil {
		panic("codegen: function compiled before registration: " + d.Name)
	}
	sig := entry.sig

	fctx := NewFunctionContext(global, sig)
	local := NewLocalContext(fctx)
	defer local.Close()
	for i, p := range d.Params {
		if _, err := local.DeclareParameter(p.Name, p.Type, i, p.Location); err != nil {
			return Code{}, err
		}
	}

	body, err := compileStmt(local, d.Body)
	if err != nil {
		return Code{}, err
	}
	frame := fctx.FrameSize()

	var code Code
	code.Label(sig.Label)
	code.Ins("subu $sp, $sp, %d", frame)
	code.Ins("sw $ra, %d($sp)", frame-4)
	code.Ins("sw $fp, %d($sp)", frame-8)
	code.Ins("addu $fp, $sp, %d", frame)
	for i := 0; i < 10; i++ {
		code.Ins("sw $t%d, %d($fp)", i, -12-4*i)
	}
	code.Append(body)

	code.Label(fctx.ReturnLabel)
	for i := 0; i < 10; i++ {
		code.Ins("lw $t%d, %d($fp)", i, -12-4*i)
	}
	code.Ins("lw $ra, -4($fp)")
	code.Ins("move $sp, $fp")
	code.Ins("lw $fp, -8($sp)")
	if def.Kind == ast.MainDef {
		code.Ins("li $v0, 10")
		code.Ins("syscall")
	} else {
		code.Ins("jr $ra")
	}
	code.Raw("")
	return code, nil
}

// escapeAsm re-encodes a decoded string literal for a .asciiz directive.
func escapeAsm(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if b >= 0x20 && b < 0x7f {
				sb.WriteByte(b)
			} else {
				fmt.Fprintf(&sb, `\%03o`, b)
			}
		}
	}
	return sb.String()
}

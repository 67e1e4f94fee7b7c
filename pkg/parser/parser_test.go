package parser

import (
	"strings"
	"testing"

	"cmips/pkg/ast"
	"cmips/pkg/diag"
	"cmips/pkg/lexer"
)

func parse(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, err := lexer.New(source, "test.mc").Tokenize()
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	prog, err := New(tokens).Parse()
	if err != nil {
		t.Fatalf("parsing failed: %v", err)
	}
	return prog
}

func parseErr(t *testing.T, source string) *diag.Error {
	t.Helper()
	tokens, err := lexer.New(source, "test.mc").Tokenize()
	if err != nil {
		t.Fatalf("lexing failed: %v", err)
	}
	_, err = New(tokens).Parse()
	if err == nil {
		t.Fatal("expected a parse error")
	}
	return err.(*diag.Error)
}

func mainBody(t *testing.T, prog *ast.Program) []*ast.Stmt {
	t.Helper()
	for _, d := range prog.Defs {
		if d.Kind == ast.MainDef {
			return d.Data.(ast.FuncNode).Body.Data.(ast.BlockNode).Stmts
		}
	}
	t.Fatal("program has no main")
	return nil
}

func TestTopLevelDefinitions(t *testing.T) {
	prog := parse(t, `
int counter;
int table[8];
int msg[4] = "ok\n";
int limit = 2 * 16;
void reset(int base) { counter = base; }
int main() { reset(0); }
`)
	if len(prog.Defs) != 6 {
		t.Fatalf("got %d definitions, want 6", len(prog.Defs))
	}

	field := prog.Defs[1].Data.(ast.FieldNode)
	if !field.Type.IsArray() || field.Type.Len != 8 {
		t.Fatalf("table type = %s", field.Type.Name())
	}

	str := prog.Defs[2].Data.(ast.FieldNode)
	if str.Init == nil || str.Init.Kind != ast.StringLit {
		t.Fatal("string initializer not recorded")
	}
	if str.Init.Data.(ast.StringNode).Value != "ok\n" {
		t.Fatalf("string value = %q", str.Init.Data.(ast.StringNode).Value)
	}

	fn := prog.Defs[4].Data.(ast.FuncNode)
	if fn.Name != "reset" || fn.Return.Kind != ast.TYPE_VOID || len(fn.Params) != 1 {
		t.Fatalf("function header wrong: %+v", fn)
	}
	if prog.Defs[5].Kind != ast.MainDef {
		t.Fatal("main not recognized as the entry point")
	}
}

func TestPrecedence(t *testing.T) {
	prog := parse(t, "int r;\nint main() { r = 2 + 3 * 4 - 1; }")
	stmt := mainBody(t, prog)[0]
	assign := stmt.Data.(ast.ExprStmtNode).X.(*ast.ValueExpr).Data.(ast.AssignNode)

	// ((2 + (3*4)) - 1)
	top := assign.Value.Data.(ast.BinaryNode)
	if top.Op != "-" {
		t.Fatalf("top operator = %q, want -", top.Op)
	}
	left := top.L.Data.(ast.BinaryNode)
	if left.Op != "+" {
		t.Fatalf("left operator = %q, want +", left.Op)
	}
	inner := left.R.Data.(ast.BinaryNode)
	if inner.Op != "*" {
		t.Fatalf("inner operator = %q, want *", inner.Op)
	}
	if value, ok := assign.Value.Precompute(); !ok || value != 13 {
		t.Fatalf("tree folds to %d, want 13", value)
	}
}

func TestConditionCategoryCoercion(t *testing.T) {
	prog := parse(t, `
int x;
int main() {
	if (x) { }
	if (x < 1) { }
	while (x && 1) { }
}
`)
	body := mainBody(t, prog)

	// a numeric condition is wrapped in a bool cast
	cond := body[0].Data.(ast.IfNode).Cond
	if cond.Kind != ast.BoolCast {
		t.Fatalf("numeric condition kind = %d, want BoolCast", cond.Kind)
	}
	// a relational condition stays native
	if body[1].Data.(ast.IfNode).Cond.Kind != ast.Relational {
		t.Fatal("relational condition was wrapped")
	}
	logical := body[2].Data.(ast.WhileNode).Cond
	if logical.Kind != ast.Logical {
		t.Fatal("while condition should be the logical operator")
	}
	if logical.Data.(ast.LogicalNode).L.Kind != ast.BoolCast {
		t.Fatal("logical operand was not coerced to a boolean")
	}
}

func TestBooleanInValuePosition(t *testing.T) {
	prog := parse(t, "int r;\nint main() { r = 1 < 2; }")
	assign := mainBody(t, prog)[0].Data.(ast.ExprStmtNode).X.(*ast.ValueExpr).Data.(ast.AssignNode)
	if assign.Value.Kind != ast.ValueCast {
		t.Fatalf("relational in value position kind = %d, want ValueCast", assign.Value.Kind)
	}
}

func TestForLoopForms(t *testing.T) {
	prog := parse(t, `
int s;
int main() {
	for (int i = 0; i < 4; i = i + 1) { s = s + i; }
	for (s = 0, s = 1; ; ) { break; }
}
`)
	body := mainBody(t, prog)

	first := body[0].Data.(ast.ForNode)
	if len(first.Init) != 2 {
		t.Fatalf("declaration-with-initializer should yield 2 init statements, got %d", len(first.Init))
	}
	if first.Init[0].Kind != ast.VarDecl || first.Init[1].Kind != ast.ExprStmt {
		t.Fatal("for init statements have wrong kinds")
	}
	if first.Cond == nil || first.Step == nil {
		t.Fatal("for clauses missing")
	}

	second := body[1].Data.(ast.ForNode)
	if len(second.Init) != 2 || second.Cond != nil || second.Step != nil {
		t.Fatalf("open-ended for parsed wrong: %+v", second)
	}
}

func TestSwitchParsing(t *testing.T) {
	prog := parse(t, `
int main() {
	switch (3 + 4) {
	case 1:
	case 2:
		break;
	default:
		return;
	}
}
`)
	sw := mainBody(t, prog)[0].Data.(ast.SwitchNode)
	if len(sw.Cases) != 3 {
		t.Fatalf("got %d cases, want 3", len(sw.Cases))
	}
	if len(sw.Cases[0].Body) != 0 {
		t.Fatal("empty case body should have no statements")
	}
	if len(sw.Cases[1].Body) != 1 {
		t.Fatal("second case should hold the break")
	}
	if !sw.Cases[2].IsDefault {
		t.Fatal("default clause not flagged")
	}
}

func TestNestedBlocksAndShadowing(t *testing.T) {
	prog := parse(t, `
int main() {
	int x;
	{
		int x;
		x = 1;
	}
}
`)
	body := mainBody(t, prog)
	if body[1].Kind != ast.Block {
		t.Fatal("nested block not parsed as a block statement")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"assignment to constant", "int main() { 3 = 4; }", "assignment"},
		{"assignment to call", "int f() { return 1; }\nint main() { f() = 4; }", "assignment"},
		{"missing semicolon", "int main() { return 1 }", "';'"},
		{"missing paren", "int main() { if x { } }", "'('"},
		{"void variable", "void x;\nint main() { }", "void"},
		{"zero length array", "int a[0];\nint main() { }", "array length"},
		{"main with params", "int main(int argc) { }", "main"},
		{"case outside switch", "int main() { case 1: ; }", "expression"},
		{"top-level junk", "42;", "definition"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErr(t, tt.source)
			if !strings.Contains(err.Msg, tt.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Msg, tt.wantMsg)
			}
		})
	}
}

func TestLocationSpans(t *testing.T) {
	prog := parse(t, "int r;\nint main() { r = 10 + 20; }")
	assign := mainBody(t, prog)[0].Data.(ast.ExprStmtNode).X.(*ast.ValueExpr)
	loc := assign.Location
	if loc.Line != 2 || loc.Column != 14 {
		t.Fatalf("assignment span starts at %d:%d, want 2:14", loc.Line, loc.Column)
	}
	if loc.EndColumn != 24 {
		t.Fatalf("assignment span ends at column %d, want 24", loc.EndColumn)
	}
}

package ast

import (
	"fmt"
	"strings"
)

const indentStep = 2

// Dump renders the program as an indented tree, one node per line. Used by
// the -ast trace flag.
func (p *Program) Dump() string {
	var sb strings.Builder
	sb.WriteString("program\n")
	for _, d := range p.Defs {
		dumpDef(&sb, d, indentStep)
	}
	return sb.String()
}

func pad(sb *strings.Builder, indent int) {
	sb.WriteString(strings.Repeat(" ", indent))
}

func dumpDef(sb *strings.Builder, d *Def, indent int) {
	switch d.Kind {
	case FieldDef:
		n := d.Data.(FieldNode)
		pad(sb, indent)
		fmt.Fprintf(sb, "field %s : %s\n", n.Name, n.Type.Name())
		if n.Init != nil {
			dumpValue(sb, n.Init, indent+indentStep)
		}
	case FuncDef, MainDef:
		n := d.Data.(FuncNode)
		pad(sb, indent)
		fmt.Fprintf(sb, "function %s : %s\n", n.Name, n.Return.Name())
		if len(n.Params) > 0 {
			pad(sb, indent+indentStep)
			sb.WriteString("parameters\n")
			for _, p := range n.Params {
				pad(sb, indent+2*indentStep)
				fmt.Fprintf(sb, "%s : %s\n", p.Name, p.Type.Name())
			}
		}
		pad(sb, indent+indentStep)
		sb.WriteString("body\n")
		dumpStmt(sb, n.Body, indent+2*indentStep)
	}
}

func dumpStmt(sb *strings.Builder, s *Stmt, indent int) {
	if s == nil {
		return
	}
	switch s.Kind {
	case VarDecl:
		n := s.Data.(VarDeclNode)
		pad(sb, indent)
		fmt.Fprintf(sb, "%s : %s\n", n.Name, n.Type.Name())
	case ExprStmt:
		dumpExpr(sb, s.Data.(ExprStmtNode).X, indent)
	case Block:
		pad(sb, indent)
		sb.WriteString("block\n")
		for _, inner := range s.Data.(BlockNode).Stmts {
			dumpStmt(sb, inner, indent+indentStep)
		}
	case If:
		n := s.Data.(IfNode)
		pad(sb, indent)
		sb.WriteString("if\n")
		dumpBool(sb, n.Cond, indent+indentStep)
		dumpStmt(sb, n.Then, indent+indentStep)
		if n.Else != nil {
			pad(sb, indent)
			sb.WriteString("else\n")
			dumpStmt(sb, n.Else, indent+indentStep)
		}
	case Switch:
		n := s.Data.(SwitchNode)
		pad(sb, indent)
		sb.WriteString("switch\n")
		dumpValue(sb, n.X, indent+indentStep)
		for _, c := range n.Cases {
			pad(sb, indent+indentStep)
			if c.IsDefault {
				sb.WriteString("default\n")
			} else {
				sb.WriteString("case\n")
				dumpValue(sb, c.Value, indent+2*indentStep)
			}
			for _, inner := range c.Body {
				dumpStmt(sb, inner, indent+2*indentStep)
			}
		}
	case While:
		n := s.Data.(WhileNode)
		pad(sb, indent)
		sb.WriteString("while\n")
		dumpBool(sb, n.Cond, indent+indentStep)
		dumpStmt(sb, n.Body, indent+indentStep)
	case For:
		n := s.Data.(ForNode)
		pad(sb, indent)
		sb.WriteString("for\n")
		for _, init := range n.Init {
			dumpStmt(sb, init, indent+indentStep)
		}
		if n.Cond != nil {
			dumpBool(sb, n.Cond, indent+indentStep)
		}
		dumpStmt(sb, n.Step, indent+indentStep)
		dumpStmt(sb, n.Body, indent+indentStep)
	case Break:
		pad(sb, indent)
		sb.WriteString("break\n")
	case Continue:
		pad(sb, indent)
		sb.WriteString("continue\n")
	case Return:
		n := s.Data.(ReturnNode)
		pad(sb, indent)
		sb.WriteString("return\n")
		if n.X != nil {
			dumpValue(sb, n.X, indent+indentStep)
		}
	}
}

func dumpExpr(sb *strings.Builder, e Expr, indent int) {
	switch x := e.(type) {
	case *ValueExpr:
		dumpValue(sb, x, indent)
	case *BoolExpr:
		dumpBool(sb, x, indent)
	}
}

func dumpValue(sb *strings.Builder, e *ValueExpr, indent int) {
	pad(sb, indent)
	switch e.Kind {
	case Constant:
		fmt.Fprintf(sb, "%d\n", e.Data.(ConstantNode).Value)
	case Variable:
		fmt.Fprintf(sb, "%s\n", e.Data.(VariableNode).Name)
	case ArrayAccess:
		n := e.Data.(ArrayAccessNode)
		fmt.Fprintf(sb, "%s[ ]\n", n.Name)
		dumpValue(sb, n.Index, indent+indentStep)
	case Unary:
		n := e.Data.(UnaryNode)
		fmt.Fprintf(sb, "unary operator %s\n", n.Op)
		dumpValue(sb, n.X, indent+indentStep)
	case Binary:
		n := e.Data.(BinaryNode)
		fmt.Fprintf(sb, "binary operator %s\n", n.Op)
		dumpValue(sb, n.L, indent+indentStep)
		dumpValue(sb, n.R, indent+indentStep)
	case Assign:
		n := e.Data.(AssignNode)
		sb.WriteString("assignment =\n")
		dumpValue(sb, n.Target, indent+indentStep)
		dumpValue(sb, n.Value, indent+indentStep)
	case Call:
		n := e.Data.(CallNode)
		fmt.Fprintf(sb, "call %s\n", n.Name)
		for _, a := range n.Args {
			dumpValue(sb, a, indent+indentStep)
		}
	case ValueCast:
		sb.WriteString("cast to int\n")
		dumpBool(sb, e.Data.(ValueCastNode).X, indent+indentStep)
	case StringLit:
		fmt.Fprintf(sb, "%q\n", e.Data.(StringNode).Value)
	}
}

func dumpBool(sb *strings.Builder, e *BoolExpr, indent int) {
	pad(sb, indent)
	switch e.Kind {
	case Not:
		sb.WriteString("unary operator !\n")
		dumpBool(sb, e.Data.(NotNode).X, indent+indentStep)
	case Logical:
		n := e.Data.(LogicalNode)
		fmt.Fprintf(sb, "binary operator %s\n", n.Op)
		dumpBool(sb, n.L, indent+indentStep)
		dumpBool(sb, n.R, indent+indentStep)
	case Relational:
		n := e.Data.(RelationalNode)
		fmt.Fprintf(sb, "relational operator %s\n", n.Op)
		dumpValue(sb, n.L, indent+indentStep)
		dumpValue(sb, n.R, indent+indentStep)
	case BoolCast:
		sb.WriteString("cast to bool\n")
		dumpValue(sb, e.Data.(BoolCastNode).X, indent+indentStep)
	}
}

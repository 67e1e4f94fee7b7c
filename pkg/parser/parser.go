// Package parser builds the typed AST from a token stream using recursive
// descent with precedence climbing.
package parser

import (
	"strconv"

	"cmips/pkg/ast"
	"cmips/pkg/diag"
	"cmips/pkg/token"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
}

func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Parse consumes the whole token stream and returns the program.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		def, err := p.parseDefinition()
		if err != nil {
			return nil, err
		}
		prog.Defs = append(prog.Defs, def)
	}
	return prog, nil
}

// Parser helpers

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) check(tokType token.Type) bool { return p.current.Type == tokType }

func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type, message string) error {
	if p.check(tokType) {
		p.advance()
		return nil
	}
	return diag.Errorf(p.current.Loc, "%s", message)
}

func (p *Parser) number() (int32, error) {
	value, err := strconv.ParseUint(p.previous.Value, 10, 32)
	if err != nil {
		return 0, diag.Errorf(p.previous.Loc, "invalid number literal %q", p.previous.Value)
	}
	return int32(uint32(value)), nil
}

// Top-level definitions

func (p *Parser) parseDefinition() (*ast.Def, error) {
	startLoc := p.current.Loc
	var returnType *ast.Type
	switch {
	case p.match(token.Int):
		returnType = ast.TypeInt
	case p.match(token.Void):
		returnType = ast.TypeVoid
	default:
		return nil, diag.Errorf(p.current.Loc, "expected a top-level definition")
	}

	if err := p.expect(token.Ident, "expected identifier"); err != nil {
		return nil, err
	}
	name := p.previous.Value
	nameLoc := p.previous.Loc

	if p.check(token.LParen) {
		return p.parseFunction(name, returnType, startLoc)
	}
	return p.parseField(name, returnType, startLoc.Merge(nameLoc))
}

func (p *Parser) parseFunction(name string, returnType *ast.Type, startLoc token.Location) (*ast.Def, error) {
	p.advance() // consume '('

	var params []ast.Param
	if !p.check(token.RParen) {
		for {
			if err := p.expect(token.Int, "expected parameter type"); err != nil {
				return nil, err
			}
			if err := p.expect(token.Ident, "expected parameter name"); err != nil {
				return nil, err
			}
			params = append(params, ast.Param{Name: p.previous.Value, Type: ast.TypeInt, Location: p.previous.Loc})
			if !p.match(token.Comma) {
				break
			}
		}
	}
	if err := p.expect(token.RParen, "expected ')' after parameters"); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	if name == "main" {
		if len(params) > 0 {
			return nil, diag.Errorf(startLoc, "'main' takes no parameters")
		}
		return ast.NewMain(returnType, body, startLoc), nil
	}
	return ast.NewFunc(name, returnType, params, body, startLoc), nil
}

func (p *Parser) parseField(name string, typ *ast.Type, loc token.Location) (*ast.Def, error) {
	if typ.Kind == ast.TYPE_VOID {
		return nil, diag.Errorf(loc, "cannot declare a variable of type void")
	}

	if err := p.parseArraySuffix(&typ); err != nil {
		return nil, err
	}

	var init ast.Expr
	var err error
	if p.match(token.Eq) {
		if p.match(token.String) {
			init = ast.NewString(p.previous.Value, p.previous.Loc)
		} else {
			init, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(token.Semi, "expected ';' after definition"); err != nil {
		return nil, err
	}
	return ast.NewField(name, typ, init, loc), nil
}

// parseArraySuffix consumes an optional [N] and wraps typ accordingly.
func (p *Parser) parseArraySuffix(typ **ast.Type) error {
	if !p.match(token.LBracket) {
		return nil
	}
	if err := p.expect(token.Number, "expected array length"); err != nil {
		return err
	}
	length, err := p.number()
	if err != nil {
		return err
	}
	if length < 1 {
		return diag.Errorf(p.previous.Loc, "array length must be at least 1")
	}
	if err := p.expect(token.RBracket, "expected ']' after array length"); err != nil {
		return err
	}
	*typ = ast.ArrayOf(*typ, int(length))
	return nil
}

// Statements

func (p *Parser) parseBlock() (*ast.Stmt, error) {
	loc := p.current.Loc
	if err := p.expect(token.LBrace, "expected '{' to start a block"); err != nil {
		return nil, err
	}
	var stmts []*ast.Stmt
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	if err := p.expect(token.RBrace, "expected '}' after block"); err != nil {
		return nil, err
	}
	return ast.NewBlock(stmts, loc.Merge(p.previous.Loc)), nil
}

func (p *Parser) parseVarDecl() (*ast.Stmt, error) {
	loc := p.previous.Loc // the 'int' keyword
	if err := p.expect(token.Ident, "expected identifier in declaration"); err != nil {
		return nil, err
	}
	name := p.previous.Value
	typ := ast.TypeInt
	if err := p.parseArraySuffix(&typ); err != nil {
		return nil, err
	}
	return ast.NewVarDecl(name, typ, loc.Merge(p.previous.Loc)), nil
}

func (p *Parser) parseStmt() (*ast.Stmt, error) {
	loc := p.current.Loc
	switch {
	case p.match(token.Int):
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semi, "expected ';' after declaration"); err != nil {
			return nil, err
		}
		return decl, nil

	case p.match(token.Void):
		return nil, diag.Errorf(loc, "cannot declare a variable of type void")

	case p.check(token.LBrace):
		return p.parseBlock()

	case p.match(token.If):
		return p.parseIf(loc)

	case p.match(token.While):
		return p.parseWhile(loc)

	case p.match(token.For):
		return p.parseFor(loc)

	case p.match(token.Switch):
		return p.parseSwitch(loc)

	case p.match(token.Break):
		if err := p.expect(token.Semi, "expected ';' after 'break'"); err != nil {
			return nil, err
		}
		return ast.NewBreak(loc), nil

	case p.match(token.Continue):
		if err := p.expect(token.Semi, "expected ';' after 'continue'"); err != nil {
			return nil, err
		}
		return ast.NewContinue(loc), nil

	case p.match(token.Return):
		var expr ast.Expr
		if !p.check(token.Semi) {
			var err error
			expr, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expect(token.Semi, "expected ';' after return statement"); err != nil {
			return nil, err
		}
		return ast.NewReturn(expr, loc), nil

	case p.match(token.Semi):
		return nil, nil

	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.Semi, "expected ';' after expression statement"); err != nil {
			return nil, err
		}
		return ast.NewExprStmt(expr), nil
	}
}

func (p *Parser) parseIf(loc token.Location) (*ast.Stmt, error) {
	if err := p.expect(token.LParen, "expected '(' after 'if'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RParen, "expected ')' after if condition"); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var els *ast.Stmt
	if p.match(token.Else) {
		els, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewIf(cond, then, els, loc), nil
}

func (p *Parser) parseWhile(loc token.Location) (*ast.Stmt, error) {
	if err := p.expect(token.LParen, "expected '(' after 'while'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RParen, "expected ')' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(cond, body, loc), nil
}

func (p *Parser) parseFor(loc token.Location) (*ast.Stmt, error) {
	if err := p.expect(token.LParen, "expected '(' after 'for'"); err != nil {
		return nil, err
	}

	var init []*ast.Stmt
	if !p.check(token.Semi) {
		if p.match(token.Int) {
			decl, err := p.parseVarDecl()
			if err != nil {
				return nil, err
			}
			init = append(init, decl)
			if p.match(token.Eq) {
				name := decl.Data.(ast.VarDeclNode).Name
				value, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				assign := ast.NewAssign(ast.NewVariable(name, decl.Location), value)
				init = append(init, ast.NewExprStmt(assign))
			}
		} else {
			for {
				expr, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				init = append(init, ast.NewExprStmt(expr))
				if !p.match(token.Comma) {
					break
				}
			}
		}
	}
	if err := p.expect(token.Semi, "expected ';' after for initializer"); err != nil {
		return nil, err
	}

	var cond ast.Expr
	if !p.check(token.Semi) {
		var err error
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.Semi, "expected ';' after for condition"); err != nil {
		return nil, err
	}

	var step *ast.Stmt
	if !p.check(token.RParen) {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		step = ast.NewExprStmt(expr)
	}
	if err := p.expect(token.RParen, "expected ')' after for clauses"); err != nil {
		return nil, err
	}

	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.NewFor(init, cond, step, body, loc), nil
}

func (p *Parser) parseSwitch(loc token.Location) (*ast.Stmt, error) {
	if err := p.expect(token.LParen, "expected '(' after 'switch'"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RParen, "expected ')' after switch expression"); err != nil {
		return nil, err
	}
	if err := p.expect(token.LBrace, "expected '{' to start switch body"); err != nil {
		return nil, err
	}

	var cases []ast.SwitchCase
	for !p.check(token.RBrace) && !p.check(token.EOF) {
		caseLoc := p.current.Loc
		var clause ast.SwitchCase
		switch {
		case p.match(token.Case):
			value, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			clause = ast.SwitchCase{Value: ast.ToValue(value), Location: caseLoc}
		case p.match(token.Default):
			clause = ast.SwitchCase{IsDefault: true, Location: caseLoc}
		default:
			return nil, diag.Errorf(p.current.Loc, "expected 'case' or 'default' in switch body")
		}
		if err := p.expect(token.Colon, "expected ':' after case label"); err != nil {
			return nil, err
		}
		for !p.check(token.Case) && !p.check(token.Default) && !p.check(token.RBrace) && !p.check(token.EOF) {
			s, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			if s != nil {
				clause.Body = append(clause.Body, s)
			}
		}
		cases = append(cases, clause)
	}
	if err := p.expect(token.RBrace, "expected '}' after switch body"); err != nil {
		return nil, err
	}
	return ast.NewSwitch(expr, cases, loc), nil
}

// Expressions

func binaryPrecedence(op token.Type) int {
	switch op {
	case token.Star, token.Slash:
		return 13
	case token.Plus, token.Minus:
		return 12
	case token.Lt, token.Gt, token.Lte, token.Gte:
		return 10
	case token.EqEq, token.Neq:
		return 9
	case token.And:
		return 8
	case token.Xor:
		return 7
	case token.Or:
		return 6
	case token.AndAnd:
		return 5
	case token.OrOr:
		return 4
	default:
		return -1
	}
}

var opNames = map[token.Type]string{
	token.Star: "*", token.Slash: "/", token.Plus: "+", token.Minus: "-",
	token.Lt: "<", token.Gt: ">", token.Lte: "<=", token.Gte: ">=",
	token.EqEq: "==", token.Neq: "!=",
	token.And: "&", token.Xor: "^", token.Or: "|",
	token.AndAnd: "&&", token.OrOr: "||",
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Expr, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if p.check(token.Eq) {
		target, ok := left.(*ast.ValueExpr)
		if !ok || !ast.IsLValue(target) {
			return nil, diag.Errorf(p.current.Loc, "invalid target for assignment")
		}
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(target, right), nil
	}
	return left, nil
}

func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.current.Type
		prec := binaryPrecedence(op)
		if prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		switch op {
		case token.AndAnd, token.OrOr:
			left = ast.NewLogical(opNames[op], left, right)
		case token.EqEq, token.Neq, token.Lt, token.Gt, token.Lte, token.Gte:
			left = ast.NewRelational(opNames[op], left, right)
		default:
			left = ast.NewBinary(opNames[op], left, right)
		}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	loc := p.current.Loc
	switch {
	case p.match(token.Not):
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewNot(operand, loc), nil
	case p.match(token.Minus), p.match(token.Plus), p.match(token.Complement):
		op := opName(p.previous.Type)
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(op, operand, loc), nil
	}
	return p.parsePrimary()
}

func opName(t token.Type) string {
	switch t {
	case token.Minus:
		return "-"
	case token.Plus:
		return "+"
	case token.Complement:
		return "~"
	}
	panic("parser: token is not a unary operator")
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	loc := p.current.Loc
	switch {
	case p.match(token.Number):
		value, err := p.number()
		if err != nil {
			return nil, err
		}
		return ast.NewConstant(value, loc), nil

	case p.match(token.String):
		return ast.NewString(p.previous.Value, loc), nil

	case p.match(token.Ident):
		name := p.previous.Value
		switch {
		case p.match(token.LParen):
			var args []ast.Expr
			if !p.check(token.RParen) {
				for {
					arg, err := p.parseExpr()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.match(token.Comma) {
						break
					}
				}
			}
			if err := p.expect(token.RParen, "expected ')' after function arguments"); err != nil {
				return nil, err
			}
			return ast.NewCall(name, args, loc.Merge(p.previous.Loc)), nil

		case p.match(token.LBracket):
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(token.RBracket, "expected ']' after array index"); err != nil {
				return nil, err
			}
			return ast.NewArrayAccess(name, index, loc.Merge(p.previous.Loc)), nil
		}
		return ast.NewVariable(name, loc), nil

	case p.match(token.LParen):
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen, "expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, diag.Errorf(loc, "expected an expression")
}

package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cmips/pkg/token"
)

func tokenize(t *testing.T, source string) []token.Token {
	t.Helper()
	tokens, err := New(source, "test.mc").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	return tokens
}

func types(tokens []token.Token) []token.Type {
	out := make([]token.Type, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestKeywordsAndOperators(t *testing.T) {
	tokens := tokenize(t, "int x; if (x <= 10 && x != 0) { x = x + 1; }")
	want := []token.Type{
		token.Int, token.Ident, token.Semi,
		token.If, token.LParen, token.Ident, token.Lte, token.Number,
		token.AndAnd, token.Ident, token.Neq, token.Number, token.RParen,
		token.LBrace, token.Ident, token.Eq, token.Ident, token.Plus,
		token.Number, token.Semi, token.RBrace, token.EOF,
	}
	if diff := cmp.Diff(want, types(tokens)); diff != "" {
		t.Fatalf("token stream mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleVersusDoubleOperators(t *testing.T) {
	tokens := tokenize(t, "& && | || = == ! != < <= > >=")
	want := []token.Type{
		token.And, token.AndAnd, token.Or, token.OrOr,
		token.Eq, token.EqEq, token.Not, token.Neq,
		token.Lt, token.Lte, token.Gt, token.Gte, token.EOF,
	}
	if diff := cmp.Diff(want, types(tokens)); diff != "" {
		t.Fatalf("token stream mismatch (-want +got):\n%s", diff)
	}
}

func TestNumbers(t *testing.T) {
	tokens := tokenize(t, "0 42 0x1F")
	if tokens[0].Value != "0" || tokens[1].Value != "42" || tokens[2].Value != "31" {
		t.Fatalf("number values = %q %q %q", tokens[0].Value, tokens[1].Value, tokens[2].Value)
	}
}

func TestStringEscapes(t *testing.T) {
	tokens := tokenize(t, `"a\n\t\\\"\0\x41"`)
	want := "a\n\t\\\"\x00A"
	if tokens[0].Type != token.String || tokens[0].Value != want {
		t.Fatalf("string literal = %q, want %q", tokens[0].Value, want)
	}
}

func TestComments(t *testing.T) {
	tokens := tokenize(t, "a // line comment\nb /* block\ncomment */ c")
	want := []token.Type{token.Ident, token.Ident, token.Ident, token.EOF}
	if diff := cmp.Diff(want, types(tokens)); diff != "" {
		t.Fatalf("token stream mismatch (-want +got):\n%s", diff)
	}
	if tokens[2].Loc.Line != 3 {
		t.Fatalf("token after multi-line comment at line %d, want 3", tokens[2].Loc.Line)
	}
}

func TestLocations(t *testing.T) {
	tokens := tokenize(t, "int\n  value;")
	if l := tokens[0].Loc; l.Line != 1 || l.Column != 1 || l.EndColumn != 3 {
		t.Fatalf("keyword location = %+v", l)
	}
	if l := tokens[1].Loc; l.Line != 2 || l.Column != 3 || l.EndColumn != 7 {
		t.Fatalf("identifier location = %+v", l)
	}
}

func TestLexErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"unexpected character", "int @;"},
		{"unterminated string", `"abc`},
		{"unterminated block comment", "/* abc"},
		{"bad escape", `"\q"`},
		{"short hex escape", `"\x4"`},
		{"huge number", "4294967296"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.source, "test.mc").Tokenize(); err == nil {
				t.Fatal("expected a lex error")
			}
		})
	}
}

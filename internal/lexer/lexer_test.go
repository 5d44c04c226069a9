// ==============================================================================================
// FILE: internal/lexer/lexer_test.go
// PURPOSE: Validates that the lexer correctly produces tokens for every
//          token kind, in the teacher's table-driven style
//          (lexer/lexer_unit_test.go), adapted to Manaknight's grammar.
// ==============================================================================================

package lexer

import (
	"testing"

	"github.com/manaknight/mkc/internal/token"
)

func TestNextTokenCoreGrammar(t *testing.T) {
	input := `
module demo {
    fn inc(x: Int) -> Int {
        x + 1
    }
}
`
	expected := []struct {
		kind   token.Kind
		lexeme string
	}{
		{token.MODULE, "module"},
		{token.IDENT, "demo"},
		{token.LBRACE, "{"},
		{token.FN, "fn"},
		{token.IDENT, "inc"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.KW_INT, "Int"},
		{token.RPAREN, ")"},
		{token.ARROW, "->"},
		{token.KW_INT, "Int"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.INT, "1"},
		{token.RBRACE, "}"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}
	runLexerTest(t, input, expected)
}

func TestNextTokenTwoCharOperators(t *testing.T) {
	input := `== != <= >= -> => |> && ||`
	expected := []struct {
		kind   token.Kind
		lexeme string
	}{
		{token.EQ, "=="},
		{token.NEQ, "!="},
		{token.LE, "<="},
		{token.GE, ">="},
		{token.ARROW, "->"},
		{token.FATARROW, "=>"},
		{token.PIPE, "|>"},
		{token.ANDAND, "&&"},
		{token.OROR, "||"},
		{token.EOF, ""},
	}
	runLexerTest(t, input, expected)
}

func TestLineCommentSkipped(t *testing.T) {
	l := New("t.mk", "let x = 1 // trailing note\nlet y = 2")
	var kinds []token.Kind
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	for _, k := range kinds {
		if k == token.ILLEGAL {
			t.Fatalf("comment leaked a token: %v", kinds)
		}
	}
}

func TestUnterminatedStringProducesE1001(t *testing.T) {
	l := New("t.mk", `"never closes`)
	tok := l.NextToken()
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token, got %s", tok.Kind)
	}
	if !l.Diags.HasErrors() {
		t.Fatalf("expected a diagnostic for the unterminated string")
	}
	got := l.Diags.Sorted()[0]
	if got.Code != "E1001" {
		t.Errorf("expected E1001, got %s", got.Code)
	}
}

func TestIntOverflowProducesE1002(t *testing.T) {
	l := New("t.mk", "99999999999999999999999999")
	tok := l.NextToken()
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token for overflowing literal, got %s", tok.Kind)
	}
	if got := l.Diags.Sorted()[0].Code; got != "E1002" {
		t.Errorf("expected E1002, got %s", got)
	}
}

func TestStringEscapes(t *testing.T) {
	l := New("t.mk", `"line\"break\\done"`)
	tok := l.NextToken()
	want := `line"break\done`
	if tok.StringValue != want {
		t.Errorf("got %q, want %q", tok.StringValue, want)
	}
}

func TestBlockCommentsAreNotRecognized(t *testing.T) {
	// spec.md §4.1: block comments are not recognized. "/*" lexes as two
	// SLASH-then-STAR-ish tokens, not as a skipped comment.
	l := New("t.mk", "/* not a comment */")
	tok := l.NextToken()
	if tok.Kind != token.SLASH {
		t.Errorf("expected a literal SLASH token since block comments are unsupported, got %s", tok.Kind)
	}
}

func runLexerTest(t *testing.T, input string, expected []struct {
	kind   token.Kind
	lexeme string
}) {
	t.Helper()
	l := New("t.mk", input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Kind != exp.kind {
			t.Fatalf("token[%d] - wrong kind. expected=%s, got=%s (lexeme %q)", i, exp.kind, tok.Kind, tok.Lexeme)
		}
		if tok.Lexeme != exp.lexeme {
			t.Fatalf("token[%d] - wrong lexeme. expected=%q, got=%q", i, exp.lexeme, tok.Lexeme)
		}
	}
}

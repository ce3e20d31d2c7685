package lexer

import "testing"

func tokenize(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := New(src, nil).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	return toks
}

func types(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestTokenizeKeywordsAndSymbols(t *testing.T) {
	toks := tokenize(t, "num_ps = { H = { m1 } ; }")
	want := []TokenType{TokenNumPS, TokenAssign, TokenLBrace, TokenH, TokenAssign, TokenLBrace, TokenIdent, TokenRBrace, TokenSemicolon, TokenRBrace, TokenEOF}
	got := types(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFuncNameLongestMatch(t *testing.T) {
	toks := tokenize(t, "asind asin sind sin")
	for i, tok := range toks[:4] {
		if tok.Type != TokenFuncName {
			t.Fatalf("token %d: got %s, want FUNC", i, tok.Type)
		}
	}
	want := []string{"asind", "asin", "sind", "sin"}
	for i, w := range want {
		if toks[i].Lexeme != w {
			t.Fatalf("token %d: got lexeme %q, want %q", i, toks[i].Lexeme, w)
		}
	}
}

func TestNumberVsNumberFloat(t *testing.T) {
	toks := tokenize(t, "42 3.14")
	if toks[0].Type != TokenNumber || toks[0].Lexeme != "42" {
		t.Fatalf("got %v", toks[0])
	}
	if toks[1].Type != TokenNumberFloat || toks[1].Lexeme != "3.14" {
		t.Fatalf("got %v", toks[1])
	}
}

func TestIdentifierAfterKeywordsFail(t *testing.T) {
	toks := tokenize(t, "x1 y_2 H2var")
	for _, tok := range toks[:3] {
		if tok.Type != TokenIdent {
			t.Fatalf("got %s for %q, want IDENT", tok.Type, tok.Lexeme)
		}
	}
}

func TestCommentSuppressesRestOfLine(t *testing.T) {
	toks := tokenize(t, "x # this is + - ignored\ny")
	got := types(toks)
	want := []TokenType{TokenIdent, TokenIdent, TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestUnrecognizedCharacterFails(t *testing.T) {
	_, err := New("x @ y", nil).Tokenize()
	if err == nil {
		t.Fatal("expected a lex error")
	}
}

func TestColumnTracking(t *testing.T) {
	toks := tokenize(t, "  ab")
	if toks[0].Column != 3 {
		t.Fatalf("got column %d, want 3", toks[0].Column)
	}
}

package lexer

import (
	"testing"

	"wisp/token"
)

func scanAll(src string) []token.Token {
	l := New(src)
	var out []token.Token
	for {
		tok := l.ScanToken()
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestOperators(t *testing.T) {
	toks := scanAll("==/=*+>-<!=<=>=!")
	want := []token.Type{
		token.EqualEqual, token.Slash, token.Equal, token.Star, token.Plus,
		token.Greater, token.Minus, token.Less, token.BangEqual, token.LessEqual,
		token.GreaterEqual, token.Bang, token.EOF,
	}
	got := types(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v tokens, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPunctuationAndComment(t *testing.T) {
	toks := scanAll("(){};  // a comment\n+")
	want := []token.Type{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Semicolon, token.Plus, token.EOF,
	}
	got := types(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestStringLiteralSpansNewlines(t *testing.T) {
	toks := scanAll("\"hello\nworld\"")
	if toks[0].Type != token.String {
		t.Fatalf("want STRING, got %s", toks[0].Type)
	}
	if toks[0].Lexeme != "\"hello\nworld\"" {
		t.Errorf("unexpected lexeme: %q", toks[0].Lexeme)
	}
	if toks[1].Type != token.EOF {
		t.Fatalf("want EOF after string, got %s", toks[1].Type)
	}
	if toks[1].Line != 2 {
		t.Errorf("want line 2 after embedded newline, got %d", toks[1].Line)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := scanAll("\"oops")
	if toks[0].Type != token.Error {
		t.Fatalf("want ERROR, got %s", toks[0].Type)
	}
}

func TestNumbers(t *testing.T) {
	toks := scanAll("123 45.67 8.")
	if toks[0].Type != token.Number || toks[0].Lexeme != "123" {
		t.Errorf("got %v", toks[0])
	}
	if toks[1].Type != token.Number || toks[1].Lexeme != "45.67" {
		t.Errorf("got %v", toks[1])
	}
	// "8." with no trailing digit: '.' is not consumed as part of the number.
	if toks[2].Type != token.Number || toks[2].Lexeme != "8" {
		t.Errorf("got %v", toks[2])
	}
	if toks[3].Type != token.Dot {
		t.Errorf("got %v", toks[3])
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll("fun foo and orange")
	want := []token.Type{token.Fun, token.Identifier, token.And, token.Identifier, token.EOF}
	got := types(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if toks[3].Lexeme != "orange" {
		t.Errorf("keyword prefix must not shadow longer identifiers, got %q", toks[3].Lexeme)
	}
}

func TestScanTokenNeverAdvancesPastEOF(t *testing.T) {
	l := New("")
	first := l.ScanToken()
	second := l.ScanToken()
	if first.Type != token.EOF || second.Type != token.EOF {
		t.Fatalf("expected repeated EOF, got %v then %v", first, second)
	}
}

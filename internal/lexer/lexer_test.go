package lexer

import (
	"testing"

	"pyxc/internal/token"
)

func tokenTypes(tokens []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.TokenType
	}
	return out
}

func assertTypesEqual(t *testing.T, got, want []token.TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token[%d] = %s, want %s\ngot:  %v\nwant: %v", i, got[i], want[i], got, want)
		}
	}
}

func TestScanOperators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.TokenType
	}{
		{
			name:  "maximal munch comparisons",
			input: "<= >= == != // **",
			want:  []token.TokenType{token.LESS_EQUAL, token.GREATER_EQUAL, token.EQUAL_EQUAL, token.NOT_EQUAL, token.FLOORDIV, token.POW, token.NEWLINE, token.EOF},
		},
		{
			name:  "augmented assignment",
			input: "x += 1",
			want:  []token.TokenType{token.IDENTIFIER, token.ADD_ASSIGN, token.INT, token.NEWLINE, token.EOF},
		},
		{
			name:  "bitwise operators",
			input: "a & b | c ^ d << e >> ~f",
			want: []token.TokenType{
				token.IDENTIFIER, token.BITAND, token.IDENTIFIER, token.BITOR, token.IDENTIFIER,
				token.BITXOR, token.IDENTIFIER, token.SHL, token.IDENTIFIER, token.SHR, token.BITNOT,
				token.IDENTIFIER, token.NEWLINE, token.EOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lex := New(tt.input)
			got, err := lex.Scan()
			if err != nil {
				t.Fatalf("Scan() error: %v", err)
			}
			assertTypesEqual(t, tokenTypes(got), tt.want)
		})
	}
}

func TestScanKeywords(t *testing.T) {
	lex := New("def class if elif else for while return import from as async True False None")
	got, err := lex.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []token.TokenType{
		token.DEF, token.CLASS, token.IF, token.ELIF, token.ELSE, token.FOR, token.WHILE,
		token.RETURN, token.IMPORT, token.FROM, token.AS, token.ASYNC, token.TRUE, token.FALSE,
		token.NONE, token.NEWLINE, token.EOF,
	}
	assertTypesEqual(t, tokenTypes(got), want)
}

func TestScanIndentation(t *testing.T) {
	input := "if x:\n    y = 1\n    z = 2\nw = 3\n"
	lex := New(input)
	got, err := lex.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []token.TokenType{
		token.IF, token.IDENTIFIER, token.COLON, token.NEWLINE,
		token.INDENT,
		token.IDENTIFIER, token.ASSIGN, token.INT, token.NEWLINE,
		token.IDENTIFIER, token.ASSIGN, token.INT, token.NEWLINE,
		token.DEDENT,
		token.IDENTIFIER, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	}
	assertTypesEqual(t, tokenTypes(got), want)
}

func TestScanBlankLinesAndCommentsSwallowed(t *testing.T) {
	input := "x = 1\n\n# a comment\ny = 2\n"
	lex := New(input)
	got, err := lex.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []token.TokenType{
		token.IDENTIFIER, token.ASSIGN, token.INT, token.NEWLINE,
		token.IDENTIFIER, token.ASSIGN, token.INT, token.NEWLINE,
		token.EOF,
	}
	assertTypesEqual(t, tokenTypes(got), want)
}

func TestScanStringLiteralsAndEscapes(t *testing.T) {
	lex := New(`"Hello\n" 'World'`)
	got, err := lex.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(got) < 2 || got[0].TokenType != token.STRING || got[1].TokenType != token.STRING {
		t.Fatalf("expected two STRING tokens, got %v", tokenTypes(got))
	}
	if got[0].Literal != "Hello\n" {
		t.Fatalf("escape sequence not decoded: got %q", got[0].Literal)
	}
}

func TestScanIntegerPrefixes(t *testing.T) {
	lex := New("0x1F 0o17 0b101 42")
	got, err := lex.Scan()
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []int64{31, 15, 5, 42}
	var ints []int64
	for _, tok := range got {
		if tok.TokenType == token.INT {
			ints = append(ints, tok.Literal.(int64))
		}
	}
	if len(ints) != len(want) {
		t.Fatalf("got %d int literals, want %d (%v)", len(ints), len(want), ints)
	}
	for i := range want {
		if ints[i] != want[i] {
			t.Errorf("int[%d] = %d, want %d", i, ints[i], want[i])
		}
	}
}

func TestScanUnexpectedCharacterFailsFast(t *testing.T) {
	lex := New("x = 1 $ y")
	_, err := lex.Scan()
	if err == nil {
		t.Fatal("expected an error for an unrecognised byte")
	}
}

// TestLexIdempotence checks the invariant of spec §8: re-scanning a
// token stream's source text a second time yields the same tokens.
func TestLexIdempotence(t *testing.T) {
	input := "def f(n):\n    return n\nprint(f(7))\n"
	first, err := New(input).Scan()
	if err != nil {
		t.Fatalf("first Scan() error: %v", err)
	}
	second, err := New(input).Scan()
	if err != nil {
		t.Fatalf("second Scan() error: %v", err)
	}
	assertTypesEqual(t, tokenTypes(second), tokenTypes(first))
}

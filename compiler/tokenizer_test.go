package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Keywords(t *testing.T) {
	tk := NewTokenizer()
	tokens, err := tk.Tokenize(strings.NewReader("let const function class while foreach in"))
	assert.Nil(t, err)
	want := []TokenType{LetTP, ConstTP, FunctionTP, ClassTP, WhileTP, ForeachTP, InTP}
	assert.Equal(t, len(want), len(tokens))
	for i, tp := range want {
		assert.Equal(t, tp, tokens[i].TP)
	}
}

func TestTokenizer_Operators(t *testing.T) {
	testData := []struct {
		src      string
		expected TokenType
	}{
		{"==", EqualEqualTP},
		{"!=", NotEqualTP},
		{"<=", LessEqualTP},
		{">=", GreaterEqualTP},
		{"&&", AndAndTP},
		{"||", OrOrTP},
		{"!", NotTP},
		{"<", LessTP},
		{"=", EqualTP},
	}
	for _, td := range testData {
		tk := NewTokenizer()
		tokens, err := tk.Tokenize(strings.NewReader(td.src))
		assert.Nil(t, err)
		assert.Equal(t, 1, len(tokens))
		assert.Equal(t, td.expected, tokens[0].TP)
	}
}

func TestTokenizer_StringLiteral(t *testing.T) {
	tk := NewTokenizer()
	tokens, err := tk.Tokenize(strings.NewReader(`"hola mundo"`))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(tokens))
	assert.Equal(t, StringLiteralTP, tokens[0].TP)
	assert.Equal(t, "hola mundo", tokens[0].Content)
}

func TestTokenizer_UnterminatedString(t *testing.T) {
	tk := NewTokenizer()
	_, err := tk.Tokenize(strings.NewReader(`"hola`))
	assert.NotNil(t, err)
}

func TestTokenizer_IntegerLiteral(t *testing.T) {
	tk := NewTokenizer()
	tokens, err := tk.Tokenize(strings.NewReader("42"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(tokens))
	assert.Equal(t, IntegerLiteralTP, tokens[0].TP)
	assert.Equal(t, "42", tokens[0].Content)
}

func TestTokenizer_SkipsComments(t *testing.T) {
	tk := NewTokenizer()
	tokens, err := tk.Tokenize(strings.NewReader("let x = 1; // trailing\n/* block\ncomment */let y = 2;"))
	assert.Nil(t, err)
	var kinds []TokenType
	for _, tok := range tokens {
		kinds = append(kinds, tok.TP)
	}
	assert.Contains(t, kinds, LetTP)
	assert.Equal(t, 10, len(tokens))
}

func TestTokenizer_LineAndColTracking(t *testing.T) {
	tk := NewTokenizer()
	tokens, err := tk.Tokenize(strings.NewReader("let x\nlet y"))
	assert.Nil(t, err)
	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 2, tokens[2].Line)
}

func TestTokenizer_Reset(t *testing.T) {
	tk := NewTokenizer()
	_, err := tk.Tokenize(strings.NewReader("let x = 1;"))
	assert.Nil(t, err)
	tk.Reset()
	assert.Equal(t, 0, len(tk.tokens))
}

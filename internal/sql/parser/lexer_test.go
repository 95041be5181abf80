package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, sql string) []Token {
	t.Helper()
	l := NewLexer(sql)
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == TokEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerCreateTable(t *testing.T) {
	toks := scanAll(t, `CREATE table tbl (id1 int primary key, id2 integer default 100);`)
	assert.Equal(t, []Token{
		{Kind: TokKeyword, Keyword: KwCreate},
		{Kind: TokKeyword, Keyword: KwTable},
		{Kind: TokIdentifier, Text: "tbl"},
		{Kind: TokLeftParen},
		{Kind: TokIdentifier, Text: "id1"},
		{Kind: TokKeyword, Keyword: KwInt},
		{Kind: TokKeyword, Keyword: KwPrimary},
		{Kind: TokKeyword, Keyword: KwKey},
		{Kind: TokComma},
		{Kind: TokIdentifier, Text: "id2"},
		{Kind: TokKeyword, Keyword: KwInteger},
		{Kind: TokKeyword, Keyword: KwDefault},
		{Kind: TokNumber, Text: "100"},
		{Kind: TokRightParen},
		{Kind: TokSemicolon},
	}, toks)
}

func TestLexerSelectStar(t *testing.T) {
	toks := scanAll(t, `select * from tbl;`)
	assert.Equal(t, []Token{
		{Kind: TokKeyword, Keyword: KwSelect},
		{Kind: TokStar},
		{Kind: TokKeyword, Keyword: KwFrom},
		{Kind: TokIdentifier, Text: "tbl"},
		{Kind: TokSemicolon},
	}, toks)
}

func TestLexerFloatNumber(t *testing.T) {
	toks := scanAll(t, `4.55`)
	require.Len(t, toks, 1)
	assert.Equal(t, Token{Kind: TokNumber, Text: "4.55"}, toks[0])
}

func TestLexerNotEqualBothSpellings(t *testing.T) {
	toks := scanAll(t, `a <> b != c`)
	assert.Equal(t, TokNotEqual, toks[1].Kind)
	assert.Equal(t, TokNotEqual, toks[3].Kind)
}

func TestLexerIdentifiersLowercased(t *testing.T) {
	toks := scanAll(t, `MyTable`)
	require.Len(t, toks, 1)
	assert.Equal(t, "mytable", toks[0].Text)
}

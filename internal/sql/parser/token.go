// Package parser turns SQL text into an AST: a hand-written lexer feeding a
// recursive-descent parser, in the shape of original_source's
// sql/parser/lexer.rs and parser.rs but completed to the full grammar spec
// §4.4 describes (joins, WHERE/HAVING expression trees, GROUP BY, aliases).
package parser

import (
	"fmt"
	"strings"
)

// Keyword is one of the reserved words recognized by the lexer. Identifiers
// are matched against this table first; anything that doesn't match falls
// through to Identifier.
type Keyword int

const (
	KwCreate Keyword = iota
	KwTable
	KwDatabase
	KwInt
	KwInteger
	KwBoolean
	KwBool
	KwString
	KwText
	KwVarchar
	KwFloat
	KwDouble
	KwSelect
	KwFrom
	KwWhere
	KwInsert
	KwUpdate
	KwSet
	KwDelete
	KwDrop
	KwInto
	KwValues
	KwTrue
	KwFalse
	KwDefault
	KwNot
	KwNull
	KwPrimary
	KwKey
	KwAnd
	KwOr
	KwGroup
	KwHaving
	KwBy
	KwAsc
	KwDesc
	KwLimit
	KwOffset
	KwAs
	KwCross
	KwJoin
	KwInner
	KwLeft
	KwRight
	KwOn
	KwOrder
	KwUse
	KwExplain
)

var keywordNames = map[string]Keyword{
	"CREATE":   KwCreate,
	"TABLE":    KwTable,
	"DATABASE": KwDatabase,
	"INT":      KwInt,
	"INTEGER":  KwInteger,
	"BOOLEAN":  KwBoolean,
	"BOOL":     KwBool,
	"STRING":   KwString,
	"TEXT":     KwText,
	"VARCHAR":  KwVarchar,
	"FLOAT":    KwFloat,
	"DOUBLE":   KwDouble,
	"SELECT":   KwSelect,
	"FROM":     KwFrom,
	"WHERE":    KwWhere,
	"INSERT":   KwInsert,
	"UPDATE":   KwUpdate,
	"SET":      KwSet,
	"DELETE":   KwDelete,
	"DROP":     KwDrop,
	"INTO":     KwInto,
	"VALUES":   KwValues,
	"TRUE":     KwTrue,
	"FALSE":    KwFalse,
	"DEFAULT":  KwDefault,
	"NOT":      KwNot,
	"NULL":     KwNull,
	"PRIMARY":  KwPrimary,
	"KEY":      KwKey,
	"AND":      KwAnd,
	"OR":       KwOr,
	"GROUP":    KwGroup,
	"HAVING":   KwHaving,
	"BY":       KwBy,
	"ASC":      KwAsc,
	"DESC":     KwDesc,
	"LIMIT":    KwLimit,
	"OFFSET":   KwOffset,
	"AS":       KwAs,
	"CROSS":    KwCross,
	"JOIN":     KwJoin,
	"INNER":    KwInner,
	"LEFT":     KwLeft,
	"RIGHT":    KwRight,
	"ON":       KwOn,
	"ORDER":    KwOrder,
	"USE":      KwUse,
	"EXPLAIN":  KwExplain,
}

var keywordStrings = func() map[Keyword]string {
	out := make(map[Keyword]string, len(keywordNames))
	for s, k := range keywordNames {
		out[k] = s
	}
	return out
}()

func (k Keyword) String() string { return keywordStrings[k] }

func lookupKeyword(ident string) (Keyword, bool) {
	k, ok := keywordNames[strings.ToUpper(ident)]
	return k, ok
}

// TokenKind tags the alternative of Token that's populated.
type TokenKind int

const (
	TokKeyword TokenKind = iota
	TokIdentifier
	TokNumber
	TokString
	TokLeftParen
	TokRightParen
	TokComma
	TokSemicolon
	TokStar
	TokDot
	TokEqual
	TokNotEqual
	TokGreaterThan
	TokLessThan
	TokEOF
)

// Token is one lexical unit. Only the field matching Kind is meaningful.
type Token struct {
	Kind    TokenKind
	Keyword Keyword
	Text    string // Identifier, Number (raw digits), String (unescaped)
}

func (t Token) String() string {
	switch t.Kind {
	case TokKeyword:
		return t.Keyword.String()
	case TokIdentifier, TokNumber, TokString:
		return t.Text
	case TokLeftParen:
		return "("
	case TokRightParen:
		return ")"
	case TokComma:
		return ","
	case TokSemicolon:
		return ";"
	case TokStar:
		return "*"
	case TokDot:
		return "."
	case TokEqual:
		return "="
	case TokNotEqual:
		return "!="
	case TokGreaterThan:
		return ">"
	case TokLessThan:
		return "<"
	case TokEOF:
		return "<eof>"
	default:
		return fmt.Sprintf("<token %d>", t.Kind)
	}
}

func (t Token) isKeyword(k Keyword) bool { return t.Kind == TokKeyword && t.Keyword == k }

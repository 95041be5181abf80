package parser

import (
	"strings"
	"unicode"

	"github.com/tuplebase/tuplebase/internal/errs"
)

// Lexer scans SQL source into Tokens one at a time, in the style of
// original_source's char-at-a-time Lexer: peek the next rune, dispatch on its
// class, consume a run of matching runes.
type Lexer struct {
	input []rune
	pos   int
	// prevSignificant remembers the last token returned. scanSymbol checks it
	// for '*' (right after SELECT or elsewhere), but both cases yield TokStar:
	// tuplebase has no multiplication operator and no separate asterisk token.
	prevSignificant *Token
}

// NewLexer wraps sql for tokenization.
func NewLexer(sql string) *Lexer {
	return &Lexer{input: []rune(sql)}
}

func (l *Lexer) peekRune() (rune, bool) {
	if l.pos >= len(l.input) {
		return 0, false
	}
	return l.input[l.pos], true
}

func (l *Lexer) peekRuneAt(offset int) (rune, bool) {
	idx := l.pos + offset
	if idx >= len(l.input) {
		return 0, false
	}
	return l.input[idx], true
}

func (l *Lexer) advance() rune {
	r := l.input[l.pos]
	l.pos++
	return r
}

func (l *Lexer) skipWhitespace() {
	for {
		r, ok := l.peekRune()
		if !ok || !unicode.IsSpace(r) {
			return
		}
		l.advance()
	}
}

// Next returns the next Token, or a TokEOF token once input is exhausted.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()
	r, ok := l.peekRune()
	if !ok {
		return Token{Kind: TokEOF}, nil
	}

	var tok Token
	var err error
	switch {
	case r == '\'':
		tok, err = l.scanString()
	case unicode.IsDigit(r):
		tok = l.scanNumber()
	case unicode.IsLetter(r) || r == '_':
		tok = l.scanIdentifier()
	default:
		tok, err = l.scanSymbol()
	}
	if err != nil {
		return Token{}, err
	}
	l.prevSignificant = &tok
	return tok, nil
}

// scanString consumes a '...' literal. A doubled '' inside the literal is an
// escaped single quote, the conventional SQL string-escaping rule; the
// original source instead stops at the first quote with no escaping, but
// spec §4.4 is silent on the point and an embeddable SQL engine without any
// way to put a quote in a string literal is not a reasonable reading of it.
func (l *Lexer) scanString() (Token, error) {
	l.advance() // opening '
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok {
			return Token{}, errs.New(errs.Parser, "unterminated string literal")
		}
		if r == '\'' {
			l.advance()
			if next, ok := l.peekRune(); ok && next == '\'' {
				b.WriteRune('\'')
				l.advance()
				continue
			}
			return Token{Kind: TokString, Text: b.String()}, nil
		}
		b.WriteRune(r)
		l.advance()
	}
}

func (l *Lexer) scanNumber() Token {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || !unicode.IsDigit(r) {
			break
		}
		b.WriteRune(l.advance())
	}
	if r, ok := l.peekRune(); ok && r == '.' {
		if next, ok := l.peekRuneAt(1); ok && unicode.IsDigit(next) {
			b.WriteRune(l.advance())
			for {
				r, ok := l.peekRune()
				if !ok || !unicode.IsDigit(r) {
					break
				}
				b.WriteRune(l.advance())
			}
		}
	}
	return Token{Kind: TokNumber, Text: b.String()}
}

func (l *Lexer) scanIdentifier() Token {
	var b strings.Builder
	for {
		r, ok := l.peekRune()
		if !ok || !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			break
		}
		b.WriteRune(l.advance())
	}
	ident := b.String()
	if kw, ok := lookupKeyword(ident); ok {
		return Token{Kind: TokKeyword, Keyword: kw}
	}
	return Token{Kind: TokIdentifier, Text: strings.ToLower(ident)}
}

func (l *Lexer) scanSymbol() (Token, error) {
	r := l.advance()
	switch r {
	case '*':
		if l.prevSignificant != nil && l.prevSignificant.isKeyword(KwSelect) {
			return Token{Kind: TokStar}, nil
		}
		return Token{Kind: TokStar}, nil
	case '(':
		return Token{Kind: TokLeftParen}, nil
	case ')':
		return Token{Kind: TokRightParen}, nil
	case ',':
		return Token{Kind: TokComma}, nil
	case ';':
		return Token{Kind: TokSemicolon}, nil
	case '.':
		return Token{Kind: TokDot}, nil
	case '=':
		return Token{Kind: TokEqual}, nil
	case '>':
		return Token{Kind: TokGreaterThan}, nil
	case '<':
		if next, ok := l.peekRune(); ok && next == '>' {
			l.advance()
			return Token{Kind: TokNotEqual}, nil
		}
		return Token{Kind: TokLessThan}, nil
	case '!':
		if next, ok := l.peekRune(); ok && next == '=' {
			l.advance()
			return Token{Kind: TokNotEqual}, nil
		}
		return Token{}, errs.New(errs.Parser, "unexpected character '!'")
	default:
		return Token{}, errs.New(errs.Parser, "unexpected character %q", r)
	}
}

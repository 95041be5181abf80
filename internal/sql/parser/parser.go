package parser

import (
	"strconv"

	"github.com/tuplebase/tuplebase/internal/errs"
	"github.com/tuplebase/tuplebase/internal/sql/types"
)

// Parser is a one-token-lookahead recursive-descent parser over a Lexer,
// following the shape of original_source's Parser but completed to the full
// grammar of spec §4.4: WHERE/HAVING as general boolean expression trees,
// joins, GROUP BY, ORDER BY with direction, LIMIT/OFFSET, and column aliases.
type Parser struct {
	lexer   *Lexer
	lookTok Token
	lookErr error
	primed  bool
}

// New wraps sql for parsing.
func New(sql string) *Parser {
	return &Parser{lexer: NewLexer(sql)}
}

// Parse consumes exactly one statement followed by ';' and end of input.
func Parse(sql string) (Statement, error) {
	p := New(sql)
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokSemicolon); err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokEOF {
		return nil, errs.New(errs.Parser, "unexpected token after statement: %s", tok)
	}
	return stmt, nil
}

func (p *Parser) peek() (Token, error) {
	if !p.primed {
		tok, err := p.lexer.Next()
		p.lookTok, p.lookErr = tok, err
		p.primed = true
	}
	return p.lookTok, p.lookErr
}

func (p *Parser) next() (Token, error) {
	tok, err := p.peek()
	p.primed = false
	return tok, err
}

func (p *Parser) expect(kind TokenKind) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != kind {
		return errs.New(errs.Parser, "unexpected token: %s", tok)
	}
	return nil
}

func (p *Parser) expectKeyword(kw Keyword) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if !tok.isKeyword(kw) {
		return errs.New(errs.Parser, "expected %s, got %s", kw, tok)
	}
	return nil
}

func (p *Parser) acceptKeyword(kw Keyword) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if tok.isKeyword(kw) {
		_, _ = p.next()
		return true, nil
	}
	return false, nil
}

func (p *Parser) acceptToken(kind TokenKind) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if tok.Kind == kind {
		_, _ = p.next()
		return true, nil
	}
	return false, nil
}

func (p *Parser) identifier() (string, error) {
	tok, err := p.next()
	if err != nil {
		return "", err
	}
	if tok.Kind != TokIdentifier {
		return "", errs.New(errs.Parser, "expected identifier, got %s", tok)
	}
	return tok.Text, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokKeyword {
		return nil, errs.New(errs.Parser, "unexpected token: %s", tok)
	}
	switch tok.Keyword {
	case KwCreate:
		return p.parseCreate()
	case KwDrop:
		return p.parseDrop()
	case KwUse:
		return p.parseUse()
	case KwInsert:
		return p.parseInsert()
	case KwUpdate:
		return p.parseUpdate()
	case KwDelete:
		return p.parseDelete()
	case KwSelect:
		return p.parseSelect()
	case KwExplain:
		_, _ = p.next()
		inner, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return ExplainStatement{Inner: inner}, nil
	default:
		return nil, errs.New(errs.Parser, "unexpected token: %s", tok)
	}
}

func (p *Parser) parseCreate() (Statement, error) {
	if err := p.expectKeyword(KwCreate); err != nil {
		return nil, err
	}
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.isKeyword(KwTable):
		return p.parseCreateTable()
	case tok.isKeyword(KwDatabase):
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return CreateDatabaseStatement{Name: name}, nil
	default:
		return nil, errs.New(errs.Parser, "expected TABLE or DATABASE, got %s", tok)
	}
}

func (p *Parser) parseDrop() (Statement, error) {
	if err := p.expectKeyword(KwDrop); err != nil {
		return nil, err
	}
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.isKeyword(KwTable):
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return DropTableStatement{Name: name}, nil
	case tok.isKeyword(KwDatabase):
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return DropDatabaseStatement{Name: name}, nil
	default:
		return nil, errs.New(errs.Parser, "expected TABLE or DATABASE, got %s", tok)
	}
}

func (p *Parser) parseUse() (Statement, error) {
	if err := p.expectKeyword(KwUse); err != nil {
		return nil, err
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	return UseDatabaseStatement{Name: name}, nil
}

func (p *Parser) parseCreateTable() (Statement, error) {
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokLeftParen); err != nil {
		return nil, err
	}
	var columns []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
		if ok, err := p.acceptToken(TokComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if err := p.expect(TokRightParen); err != nil {
		return nil, err
	}
	return CreateTableStatement{Name: name, Columns: columns}, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.identifier()
	if err != nil {
		return ColumnDef{}, err
	}
	tok, err := p.next()
	if err != nil {
		return ColumnDef{}, err
	}
	var dt types.DataType
	switch {
	case tok.isKeyword(KwInt) || tok.isKeyword(KwInteger):
		dt = types.Integer
	case tok.isKeyword(KwBoolean) || tok.isKeyword(KwBool):
		dt = types.Boolean
	case tok.isKeyword(KwFloat) || tok.isKeyword(KwDouble):
		dt = types.Float
	case tok.isKeyword(KwString) || tok.isKeyword(KwVarchar) || tok.isKeyword(KwText):
		dt = types.String
	default:
		return ColumnDef{}, errs.New(errs.Parser, "expected a column type, got %s", tok)
	}

	col := ColumnDef{Name: name, DataType: dt}
	for {
		tok, err := p.peek()
		if err != nil {
			return ColumnDef{}, err
		}
		if tok.Kind != TokKeyword {
			break
		}
		switch tok.Keyword {
		case KwNull:
			_, _ = p.next()
			t := true
			col.Nullable = &t
		case KwNot:
			_, _ = p.next()
			if err := p.expectKeyword(KwNull); err != nil {
				return ColumnDef{}, err
			}
			f := false
			col.Nullable = &f
		case KwDefault:
			_, _ = p.next()
			expr, err := p.parseExpression()
			if err != nil {
				return ColumnDef{}, err
			}
			col.Default = expr
		case KwPrimary:
			_, _ = p.next()
			if err := p.expectKeyword(KwKey); err != nil {
				return ColumnDef{}, err
			}
			col.IsPrimaryKey = true
		default:
			return col, nil
		}
	}
	return col, nil
}

func (p *Parser) parseInsert() (Statement, error) {
	if err := p.expectKeyword(KwInsert); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KwInto); err != nil {
		return nil, err
	}
	table, err := p.identifier()
	if err != nil {
		return nil, err
	}

	var columns []string
	if ok, err := p.acceptToken(TokLeftParen); err != nil {
		return nil, err
	} else if ok {
		for {
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			columns = append(columns, name)
			tok, err := p.next()
			if err != nil {
				return nil, err
			}
			if tok.Kind == TokRightParen {
				break
			}
			if tok.Kind != TokComma {
				return nil, errs.New(errs.Parser, "unexpected token: %s", tok)
			}
		}
	}

	if err := p.expectKeyword(KwValues); err != nil {
		return nil, err
	}

	var values [][]Expression
	for {
		if err := p.expect(TokLeftParen); err != nil {
			return nil, err
		}
		var row []Expression
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			row = append(row, expr)
			tok, err := p.next()
			if err != nil {
				return nil, err
			}
			if tok.Kind == TokRightParen {
				break
			}
			if tok.Kind != TokComma {
				return nil, errs.New(errs.Parser, "unexpected token: %s", tok)
			}
		}
		values = append(values, row)
		if ok, err := p.acceptToken(TokComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}

	return InsertStatement{Table: table, Columns: columns, Values: values}, nil
}

func (p *Parser) parseUpdate() (Statement, error) {
	if err := p.expectKeyword(KwUpdate); err != nil {
		return nil, err
	}
	table, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KwSet); err != nil {
		return nil, err
	}

	var sets []SetClause
	seen := map[string]bool{}
	for {
		col, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if seen[col] {
			return nil, errs.New(errs.Parser, "duplicate column %q in SET", col)
		}
		seen[col] = true
		if err := p.expect(TokEqual); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		sets = append(sets, SetClause{Column: col, Value: expr})
		if ok, err := p.acceptToken(TokComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}

	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	return UpdateStatement{Table: table, Set: sets, Where: where}, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	if err := p.expectKeyword(KwDelete); err != nil {
		return nil, err
	}
	if err := p.expectKeyword(KwFrom); err != nil {
		return nil, err
	}
	table, err := p.identifier()
	if err != nil {
		return nil, err
	}
	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}
	return DeleteStatement{Table: table, Where: where}, nil
}

func (p *Parser) parseOptionalWhere() (Expression, error) {
	ok, err := p.acceptKeyword(KwWhere)
	if err != nil || !ok {
		return nil, err
	}
	return p.parseExpression()
}

func (p *Parser) parseSelect() (Statement, error) {
	if err := p.expectKeyword(KwSelect); err != nil {
		return nil, err
	}

	var columns []SelectColumn
	if ok, err := p.acceptToken(TokStar); err != nil {
		return nil, err
	} else if !ok {
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			alias := ""
			if ok, err := p.acceptKeyword(KwAs); err != nil {
				return nil, err
			} else if ok {
				alias, err = p.identifier()
				if err != nil {
					return nil, err
				}
			}
			columns = append(columns, SelectColumn{Expr: expr, Alias: alias})
			if ok, err := p.acceptToken(TokComma); err != nil {
				return nil, err
			} else if !ok {
				break
			}
		}
	}

	if err := p.expectKeyword(KwFrom); err != nil {
		return nil, err
	}
	from, err := p.parseFromItem()
	if err != nil {
		return nil, err
	}

	where, err := p.parseOptionalWhere()
	if err != nil {
		return nil, err
	}

	var groupBy Expression
	if ok, err := p.acceptKeyword(KwGroup); err != nil {
		return nil, err
	} else if ok {
		if err := p.expectKeyword(KwBy); err != nil {
			return nil, err
		}
		groupBy, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	var having Expression
	if ok, err := p.acceptKeyword(KwHaving); err != nil {
		return nil, err
	} else if ok {
		having, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	orderBy, err := p.parseOrderBy()
	if err != nil {
		return nil, err
	}

	var limit, offset Expression
	if ok, err := p.acceptKeyword(KwLimit); err != nil {
		return nil, err
	} else if ok {
		limit, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if ok, err := p.acceptKeyword(KwOffset); err != nil {
		return nil, err
	} else if ok {
		offset, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}

	return SelectStatement{
		Columns: columns,
		From:    from,
		Where:   where,
		GroupBy: groupBy,
		Having:  having,
		OrderBy: orderBy,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

func (p *Parser) parseOrderBy() ([]OrderField, error) {
	ok, err := p.acceptKeyword(KwOrder)
	if err != nil || !ok {
		return nil, err
	}
	if err := p.expectKeyword(KwBy); err != nil {
		return nil, err
	}
	var fields []OrderField
	for {
		col, err := p.identifier()
		if err != nil {
			return nil, err
		}
		dir := Asc
		if ok, err := p.acceptKeyword(KwAsc); err != nil {
			return nil, err
		} else if !ok {
			if ok, err := p.acceptKeyword(KwDesc); err != nil {
				return nil, err
			} else if ok {
				dir = Desc
			}
		}
		fields = append(fields, OrderField{Column: col, Direction: dir})
		if ok, err := p.acceptToken(TokComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	return fields, nil
}

func (p *Parser) parseFromItem() (FromItem, error) {
	left, err := p.parseBaseFromItem()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != TokKeyword {
			return left, nil
		}
		var joinType JoinType
		switch tok.Keyword {
		case KwCross:
			_, _ = p.next()
			if err := p.expectKeyword(KwJoin); err != nil {
				return nil, err
			}
			joinType = JoinCross
		case KwJoin:
			_, _ = p.next()
			joinType = JoinInner
		case KwInner:
			_, _ = p.next()
			if err := p.expectKeyword(KwJoin); err != nil {
				return nil, err
			}
			joinType = JoinInner
		case KwLeft:
			_, _ = p.next()
			if err := p.expectKeyword(KwJoin); err != nil {
				return nil, err
			}
			joinType = JoinLeft
		case KwRight:
			_, _ = p.next()
			if err := p.expectKeyword(KwJoin); err != nil {
				return nil, err
			}
			joinType = JoinRight
		default:
			return left, nil
		}

		right, err := p.parseBaseFromItem()
		if err != nil {
			return nil, err
		}
		var on Expression
		if joinType != JoinCross {
			if err := p.expectKeyword(KwOn); err != nil {
				return nil, err
			}
			on, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		left = JoinFromItem{Left: left, Right: right, Type: joinType, On: on}
	}
}

func (p *Parser) parseBaseFromItem() (FromItem, error) {
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	alias := ""
	if ok, err := p.acceptKeyword(KwAs); err != nil {
		return nil, err
	} else if ok {
		alias, err = p.identifier()
		if err != nil {
			return nil, err
		}
	} else if tok, err := p.peek(); err != nil {
		return nil, err
	} else if tok.Kind == TokIdentifier {
		alias, err = p.identifier()
		if err != nil {
			return nil, err
		}
	}
	return TableFromItem{Name: name, Alias: alias}, nil
}

// parseExpression parses a full boolean expression: OR of ANDs of
// comparisons, per spec §4.4's "binary comparisons" plus AND/OR combination.
func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.acceptKeyword(KwOr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpression{Op: OpOr, Left: left, Right: right}
	}
}

func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		ok, err := p.acceptKeyword(KwAnd)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = BinaryExpression{Op: OpAnd, Left: left, Right: right}
	}
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	var op BinaryOp
	switch tok.Kind {
	case TokEqual:
		op = OpEqual
	case TokNotEqual:
		op = OpNotEqual
	case TokGreaterThan:
		op = OpGreaterThan
	case TokLessThan:
		op = OpLessThan
	default:
		return left, nil
	}
	_, _ = p.next()
	right, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return BinaryExpression{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parsePrimary() (Expression, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == TokLeftParen:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokRightParen); err != nil {
			return nil, err
		}
		return expr, nil
	case tok.Kind == TokNumber:
		return parseNumberLiteral(tok.Text)
	case tok.Kind == TokString:
		return LiteralExpression{Value: types.NewString(tok.Text)}, nil
	case tok.isKeyword(KwTrue):
		return LiteralExpression{Value: types.NewBoolean(true)}, nil
	case tok.isKeyword(KwFalse):
		return LiteralExpression{Value: types.NewBoolean(false)}, nil
	case tok.isKeyword(KwNull):
		return LiteralExpression{Value: types.NullValue}, nil
	case tok.Kind == TokIdentifier:
		return p.parseIdentifierExpression(tok.Text)
	default:
		return nil, errs.New(errs.Parser, "unexpected token in expression: %s", tok)
	}
}

func (p *Parser) parseIdentifierExpression(name string) (Expression, error) {
	if ok, err := p.acceptToken(TokLeftParen); err != nil {
		return nil, err
	} else if ok {
		var arg Expression
		if tok, err := p.peek(); err != nil {
			return nil, err
		} else if tok.Kind != TokRightParen {
			arg, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		if err := p.expect(TokRightParen); err != nil {
			return nil, err
		}
		return FunctionExpression{Name: name, Arg: arg}, nil
	}
	if ok, err := p.acceptToken(TokDot); err != nil {
		return nil, err
	} else if ok {
		field, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return FieldExpression{Name: name + "." + field}, nil
	}
	return FieldExpression{Name: name}, nil
}

func parseNumberLiteral(text string) (Expression, error) {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return LiteralExpression{Value: types.NewInteger(i)}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, errs.New(errs.Parser, "invalid numeric literal %q", text)
	}
	return LiteralExpression{Value: types.NewFloat(f)}, nil
}

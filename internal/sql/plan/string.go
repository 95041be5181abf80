package plan

import (
	"fmt"
	"strings"

	"github.com/tuplebase/tuplebase/internal/sql/parser"
)

// String renders a plan tree as indented lines, used by EXPLAIN and tests.
// It is not part of the wire protocol (out of scope), just a debugging aid.

func (n *ScanNode) String() string {
	if n.Filter != nil {
		return fmt.Sprintf("Scan(%s, filter)", tableLabel(n.Table, n.Alias))
	}
	return fmt.Sprintf("Scan(%s)", tableLabel(n.Table, n.Alias))
}

func tableLabel(table, alias string) string {
	if alias == "" {
		return table
	}
	return fmt.Sprintf("%s AS %s", table, alias)
}

func (n *FilterNode) String() string {
	return indentChild("Filter", n.Source)
}

func (n *ProjectionNode) String() string {
	return indentChild(fmt.Sprintf("Projection(%d cols)", len(n.Columns)), n.Source)
}

func (n *OrderByNode) String() string {
	return indentChild(fmt.Sprintf("OrderBy(%d keys)", len(n.Fields)), n.Source)
}

func (n *LimitNode) String() string { return indentChild("Limit", n.Source) }

func (n *OffsetNode) String() string { return indentChild("Offset", n.Source) }

func (n *JoinNode) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Join(%s)\n", joinTypeName(n.Type))
	b.WriteString(indent(n.Left.String()))
	b.WriteString("\n")
	b.WriteString(indent(n.Right.String()))
	return b.String()
}

func joinTypeName(t parser.JoinType) string {
	switch t {
	case parser.JoinCross:
		return "CROSS"
	case parser.JoinInner:
		return "INNER"
	case parser.JoinLeft:
		return "LEFT"
	case parser.JoinRight:
		return "RIGHT"
	default:
		return "?"
	}
}

func (n *AggregateNode) String() string {
	return indentChild(fmt.Sprintf("Aggregate(%d exprs)", len(n.Exprs)), n.Source)
}

func (n *InsertNode) String() string {
	return fmt.Sprintf("Insert(%s, %d rows)", n.Table, len(n.Values))
}

func (n *UpdateNode) String() string {
	return indentChild(fmt.Sprintf("Update(%s)", n.Table), n.Source)
}

func (n *DeleteNode) String() string {
	return indentChild(fmt.Sprintf("Delete(%s)", n.Table), n.Source)
}

func (n *CreateDatabaseNode) String() string { return fmt.Sprintf("CreateDatabase(%s)", n.Name) }
func (n *DropDatabaseNode) String() string   { return fmt.Sprintf("DropDatabase(%s)", n.Name) }
func (n *UseDatabaseNode) String() string    { return fmt.Sprintf("Use(%s)", n.Name) }
func (n *CreateTableNode) String() string    { return fmt.Sprintf("CreateTable(%s)", n.Table.Name) }
func (n *DropTableNode) String() string      { return fmt.Sprintf("DropTable(%s)", n.Name) }

func (n *ExplainNode) String() string {
	return indentChild("Explain", n.Inner)
}

func indentChild(label string, child Node) string {
	return label + "\n" + indent(child.String())
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

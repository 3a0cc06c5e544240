package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// SExpr renders a node as an s-expression, for example
// (binary "+" (int 1) (binary "*" (int 2) (int 3))).
// node may be a *Function, a Stmt or an Expr.
func SExpr(node any) string {
	var b strings.Builder
	writeNode(&b, node)
	return b.String()
}

func writeNode(b *strings.Builder, node any) {
	switch n := node.(type) {
	case *Function:
		fmt.Fprintf(b, "(fn %q ", n.Name)
		writeBlock(b, n.Body)
		b.WriteByte(')')
	case *IntLit:
		b.WriteString("(int " + strconv.FormatInt(n.Value, 10) + ")")
	case *Ident:
		fmt.Fprintf(b, "(ident %q)", n.Name)
	case *BinaryExpr:
		fmt.Fprintf(b, "(binary %q ", n.Op.String())
		writeNode(b, n.Left)
		b.WriteByte(' ')
		writeNode(b, n.Right)
		b.WriteByte(')')
	case *LetStmt:
		fmt.Fprintf(b, "(let %q ", n.Name)
		writeNode(b, n.Init)
		b.WriteByte(')')
	case *AssignStmt:
		fmt.Fprintf(b, "(assign %q ", n.Name)
		writeNode(b, n.Value)
		b.WriteByte(')')
	case *ExprStmt:
		b.WriteString("(expr ")
		writeNode(b, n.X)
		b.WriteByte(')')
	case *IfStmt:
		b.WriteString("(if ")
		writeNode(b, n.Cond)
		b.WriteByte(' ')
		writeBlock(b, n.Then)
		if n.Else != nil {
			b.WriteByte(' ')
			writeBlock(b, n.Else)
		}
		b.WriteByte(')')
	case *WhileStmt:
		b.WriteString("(while ")
		writeNode(b, n.Cond)
		b.WriteByte(' ')
		writeBlock(b, n.Body)
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "(unknown %T)", node)
	}
}

func writeBlock(b *strings.Builder, stmts []Stmt) {
	b.WriteString("(block")
	for _, s := range stmts {
		b.WriteByte(' ')
		writeNode(b, s)
	}
	b.WriteByte(')')
}

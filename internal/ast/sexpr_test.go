package ast

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestSExprExpressions(t *testing.T) {
	e := &BinaryExpr{
		Op:   OpAdd,
		Left: &IntLit{Value: 1},
		Right: &BinaryExpr{
			Op:    OpMul,
			Left:  &Ident{Name: "x"},
			Right: &IntLit{Value: 3},
		},
	}
	be.Equal(t, SExpr(e), `(binary "+" (int 1) (binary "*" (ident "x") (int 3)))`)
}

func TestSExprFunction(t *testing.T) {
	fn := &Function{
		Name: "main",
		Body: []Stmt{
			&LetStmt{Name: "x", Init: &IntLit{Value: 0}},
			&WhileStmt{
				Cond: &BinaryExpr{Op: OpLt, Left: &Ident{Name: "x"}, Right: &IntLit{Value: 5}},
				Body: []Stmt{
					&AssignStmt{Name: "x", Value: &BinaryExpr{Op: OpAdd, Left: &Ident{Name: "x"}, Right: &IntLit{Value: 1}}},
				},
			},
			&IfStmt{
				Cond: &Ident{Name: "x"},
				Then: []Stmt{&ExprStmt{X: &IntLit{Value: 42}}},
			},
			&IfStmt{
				Cond: &Ident{Name: "x"},
				Then: []Stmt{},
				Else: []Stmt{},
			},
		},
	}
	want := `(fn "main" (block` +
		` (let "x" (int 0))` +
		` (while (binary "<" (ident "x") (int 5)) (block (assign "x" (binary "+" (ident "x") (int 1)))))` +
		` (if (ident "x") (block (expr (int 42))))` +
		` (if (ident "x") (block) (block))))`
	be.Equal(t, SExpr(fn), want)
}

func TestBinOp(t *testing.T) {
	be.Equal(t, OpGe.String(), ">=")
	be.Equal(t, BinOp(99).String(), "?")
	be.True(t, OpEq.IsComparison())
	be.True(t, !OpDiv.IsComparison())
}

package ast

// Function is the single function a program consists of. It takes no
// parameters; its result is the value of the last top-level expression
// statement.
type Function struct {
	Name string
	Body []Stmt
}

type Stmt interface{ isStmt() }

// LetStmt introduces a variable in the function's flat variable table.
type LetStmt struct {
	Name string
	Init Expr
}

func (*LetStmt) isStmt() {}

// AssignStmt stores into a variable previously introduced by a LetStmt.
type AssignStmt struct {
	Name  string
	Value Expr
}

func (*AssignStmt) isStmt() {}

type ExprStmt struct{ X Expr }

func (*ExprStmt) isStmt() {}

// IfStmt: Else is nil when the else clause is absent.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (*IfStmt) isStmt() {}

type WhileStmt struct {
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) isStmt() {}

type Expr interface{ isExpr() }

type Ident struct{ Name string }

func (*Ident) isExpr() {}

type IntLit struct{ Value int64 }

func (*IntLit) isExpr() {}

type BinaryExpr struct {
	Op          BinOp
	Left, Right Expr
}

func (*BinaryExpr) isExpr() {}

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var binOpSymbols = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
}

// String returns the operator's source symbol, or "?" for values outside the enum.
func (op BinOp) String() string {
	if op >= 0 && int(op) < len(binOpSymbols) {
		return binOpSymbols[op]
	}
	return "?"
}

// IsComparison reports whether op yields a truth value rather than a number.
func (op BinOp) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

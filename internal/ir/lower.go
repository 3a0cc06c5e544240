package ir

import (
	"fmt"

	"github.com/tinyrange/minilang/internal/ast"
	"github.com/tinyrange/minilang/internal/types"
)

// BuildModule lowers fn and adds it to m.
func BuildModule(fn *ast.Function, m *Module) error {
	f, err := Lower(fn)
	if err != nil {
		return err
	}
	m.Funcs = append(m.Funcs, f)
	return nil
}

// Lower translates fn into a control-flow graph using the load/store model:
// every variable owns one slot, reads load from it and lets and assignments
// store to it.
// The function returns the value of its last top-level expression
// statement, or 0 if it has none.
func Lower(fn *ast.Function) (*Function, error) {
	f := NewFunction(fn.Name)
	l := &lowerer{f: f, slots: map[string]*Slot{}}
	cur := At(f.NewBlock("entry"))
	var last Value
	for _, s := range fn.Body {
		var v Value
		var err error
		cur, v, err = l.lowerStmt(cur, s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name, err)
		}
		if v != nil {
			last = v
		}
	}
	if !cur.Block.Terminated() {
		var ret Value = ConstInt(0)
		if last != nil {
			ret = l.widen(cur, last)
		}
		if err := f.Ret(cur, ret); err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name, err)
		}
	}
	if err := Verify(f); err != nil {
		return nil, err
	}
	return f, nil
}

type lowerer struct {
	f *Function
	// one flat table per function: if/while bodies do not open scopes
	slots map[string]*Slot
}

// lowerStmt lowers s at cur and returns where lowering continues. For an
// expression statement it also returns the expression's value.
func (l *lowerer) lowerStmt(cur Cursor, s ast.Stmt) (Cursor, Value, error) {
	switch s := s.(type) {
	case *ast.LetStmt:
		v, err := l.lowerExpr(cur, s.Init)
		if err != nil {
			return cur, nil, err
		}
		// a redeclaration stores to the existing slot, like the interpreter's flat table
		slot, ok := l.slots[s.Name]
		if !ok {
			slot = l.f.NewSlot(s.Name)
			l.slots[s.Name] = slot
		}
		l.f.Store(cur, slot, l.widen(cur, v))
		return cur, nil, nil
	case *ast.AssignStmt:
		v, err := l.lowerExpr(cur, s.Value)
		if err != nil {
			return cur, nil, err
		}
		slot, ok := l.slots[s.Name]
		if !ok {
			return cur, nil, fmt.Errorf("assignment to %s: %w", s.Name, ErrUndefinedVariable)
		}
		l.f.Store(cur, slot, l.widen(cur, v))
		return cur, nil, nil
	case *ast.ExprStmt:
		v, err := l.lowerExpr(cur, s.X)
		if err != nil {
			return cur, nil, err
		}
		return cur, v, nil
	case *ast.IfStmt:
		next, err := l.lowerIf(cur, s)
		return next, nil, err
	case *ast.WhileStmt:
		next, err := l.lowerWhile(cur, s)
		return next, nil, err
	}
	return cur, nil, fmt.Errorf("unsupported statement %T", s)
}

func (l *lowerer) lowerStmts(cur Cursor, stmts []ast.Stmt) (Cursor, error) {
	for _, s := range stmts {
		var err error
		if cur, _, err = l.lowerStmt(cur, s); err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// fallthroughTo branches from cur to dst unless the block already ends in
// its own terminator.
func (l *lowerer) fallthroughTo(cur Cursor, dst *BasicBlock) error {
	if cur.Block.Terminated() {
		return nil
	}
	return l.f.Br(cur, dst)
}

// lowerIf emits
//
//	cur:   br cond, then, else
//	then:  ...; br ifend
//	else:  ...; br ifend
//
// and continues in ifend.
func (l *lowerer) lowerIf(cur Cursor, s *ast.IfStmt) (Cursor, error) {
	cond, err := l.lowerExpr(cur, s.Cond)
	if err != nil {
		return cur, err
	}
	c := l.toBool(cur, cond)

	f := l.f
	thenB := f.NewBlock("then")
	elseB := f.NewBlock("else")
	mergeB := f.NewBlock("ifend")
	if err := f.CondBr(cur, c, thenB, elseB); err != nil {
		return cur, err
	}

	end, err := l.lowerStmts(At(thenB), s.Then)
	if err != nil {
		return end, err
	}
	if err := l.fallthroughTo(end, mergeB); err != nil {
		return end, err
	}

	end, err = l.lowerStmts(At(elseB), s.Else)
	if err != nil {
		return end, err
	}
	if err := l.fallthroughTo(end, mergeB); err != nil {
		return end, err
	}
	return At(mergeB), nil
}

// lowerWhile emits
//
//	cur:       br loop.cond
//	loop.cond: br cond, loop.body, loop.end
//	loop.body: ...; br loop.cond
//
// and continues in loop.end.
func (l *lowerer) lowerWhile(cur Cursor, s *ast.WhileStmt) (Cursor, error) {
	f := l.f
	condB := f.NewBlock("loop.cond")
	bodyB := f.NewBlock("loop.body")
	endB := f.NewBlock("loop.end")
	if err := f.Br(cur, condB); err != nil {
		return cur, err
	}

	head := At(condB)
	cond, err := l.lowerExpr(head, s.Cond)
	if err != nil {
		return head, err
	}
	if err := f.CondBr(head, l.toBool(head, cond), bodyB, endB); err != nil {
		return head, err
	}

	end, err := l.lowerStmts(At(bodyB), s.Body)
	if err != nil {
		return end, err
	}
	// back edge, from wherever the body finished (a nested if leaves us in its ifend)
	if err := l.fallthroughTo(end, condB); err != nil {
		return end, err
	}
	return At(endB), nil
}

// lowerExpr translates e bottom-up. Literals are immediates, identifiers
// are loads, comparisons yield i1 and arithmetic yields i64.
func (l *lowerer) lowerExpr(cur Cursor, e ast.Expr) (Value, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return ConstInt(e.Value), nil
	case *ast.Ident:
		slot, ok := l.slots[e.Name]
		if !ok {
			return nil, fmt.Errorf("use of %s: %w", e.Name, ErrUndefinedVariable)
		}
		return l.f.Load(cur, slot), nil
	case *ast.BinaryExpr:
		a, err := l.lowerExpr(cur, e.Left)
		if err != nil {
			return nil, err
		}
		b, err := l.lowerExpr(cur, e.Right)
		if err != nil {
			return nil, err
		}
		a, b = l.widen(cur, a), l.widen(cur, b)
		switch e.Op {
		case ast.OpAdd:
			return l.f.Arith(cur, OpAdd, a, b), nil
		case ast.OpSub:
			return l.f.Arith(cur, OpSub, a, b), nil
		case ast.OpMul:
			return l.f.Arith(cur, OpMul, a, b), nil
		case ast.OpDiv:
			return l.f.Arith(cur, OpSDiv, a, b), nil
		case ast.OpEq:
			return l.f.ICmp(cur, PredEQ, a, b), nil
		case ast.OpNe:
			return l.f.ICmp(cur, PredNE, a, b), nil
		case ast.OpLt:
			return l.f.ICmp(cur, PredSLT, a, b), nil
		case ast.OpLe:
			return l.f.ICmp(cur, PredSLE, a, b), nil
		case ast.OpGt:
			return l.f.ICmp(cur, PredSGT, a, b), nil
		case ast.OpGe:
			return l.f.ICmp(cur, PredSGE, a, b), nil
		}
		return nil, fmt.Errorf("%w %q", ErrUnsupportedOperator, e.Op.String())
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

// toBool derives a branch condition from v: an i1 is used as is, anything
// wider is compared against zero of its own width.
func (l *lowerer) toBool(cur Cursor, v Value) Value {
	if v.Type().IsBool() {
		return v
	}
	return l.f.ICmp(cur, PredNE, v, &Const{Typ: v.Type(), Val: 0})
}

// widen zero-extends an i1 to i64 where a full-width integer is required.
func (l *lowerer) widen(cur Cursor, v Value) Value {
	if !v.Type().IsBool() {
		return v
	}
	if c, ok := v.(*Const); ok {
		return &Const{Typ: types.I64(), Val: c.Val}
	}
	return l.f.ZExt(cur, v)
}

package interp

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinyrange/minilang/internal/ast"
)

var (
	// ErrUndefinedVariable reports a read of, or assignment to, a name no let introduced.
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrUnknownOperator   = errors.New("unknown operator")
	// ErrStepLimit is returned when Options.MaxSteps is exceeded.
	ErrStepLimit = errors.New("step limit exceeded")
)

// Options controls execution. A nil *Options means no limits.
type Options struct {
	// MaxSteps bounds the number of executed statements and loop tests.
	// Zero means unlimited.
	MaxSteps int
}

func (o *Options) normalize() Options {
	if o == nil {
		return Options{}
	}
	out := *o
	if out.MaxSteps < 0 {
		out.MaxSteps = 0
	}
	return out
}

type EntryKind int

const (
	EntryLet EntryKind = iota
	EntryAssign
	EntryExpr
)

// Entry is one observable effect: a let, an assignment or an evaluated
// expression statement.
type Entry struct {
	Kind  EntryKind
	Name  string // variable name, "expr" for expression statements
	Value int64
}

func (e Entry) String() string {
	switch e.Kind {
	case EntryLet:
		return fmt.Sprintf("let %s = %d", e.Name, e.Value)
	case EntryAssign:
		return fmt.Sprintf("%s = %d", e.Name, e.Value)
	default:
		return fmt.Sprintf("expr => %d", e.Value)
	}
}

type Result struct {
	Trace []Entry
	// Value is the function result: the value of the last top-level
	// expression statement, or 0 when there is none.
	Value int64
}

// Lines renders the trace one entry per line.
func (r *Result) Lines() []string {
	out := make([]string, len(r.Trace))
	for i, e := range r.Trace {
		out[i] = e.String()
	}
	return out
}

type machine struct {
	ctx   context.Context
	vars  map[string]int64
	trace []Entry
	steps int
	opt   Options
}

// ctxCheckEvery is how many steps run between cancellation checks.
const ctxCheckEvery = 256

// Run executes fn. Any runtime fault stops execution; the partial trace is
// discarded.
func Run(fn *ast.Function, opt *Options) (*Result, error) {
	return RunContext(context.Background(), fn, opt)
}

// RunContext is Run that also stops with ctx.Err() once ctx is done.
func RunContext(ctx context.Context, fn *ast.Function, opt *Options) (*Result, error) {
	m := &machine{ctx: ctx, vars: map[string]int64{}, opt: opt.normalize()}
	res := &Result{}
	for _, s := range fn.Body {
		v, isExpr, err := m.exec(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.Name, err)
		}
		if isExpr {
			res.Value = v
		}
	}
	res.Trace = m.trace
	return res, nil
}

func (m *machine) step() error {
	m.steps++
	if m.opt.MaxSteps > 0 && m.steps > m.opt.MaxSteps {
		return fmt.Errorf("%w (%d)", ErrStepLimit, m.opt.MaxSteps)
	}
	if m.steps%ctxCheckEvery == 0 {
		return m.ctx.Err()
	}
	return nil
}

func (m *machine) execAll(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if _, _, err := m.exec(s); err != nil {
			return err
		}
	}
	return nil
}

// exec runs one statement. For expression statements it also returns the
// value and isExpr=true.
func (m *machine) exec(s ast.Stmt) (v int64, isExpr bool, err error) {
	if err := m.step(); err != nil {
		return 0, false, err
	}
	switch s := s.(type) {
	case *ast.LetStmt:
		v, err := m.eval(s.Init)
		if err != nil {
			return 0, false, err
		}
		m.vars[s.Name] = v
		m.trace = append(m.trace, Entry{Kind: EntryLet, Name: s.Name, Value: v})
	case *ast.AssignStmt:
		v, err := m.eval(s.Value)
		if err != nil {
			return 0, false, err
		}
		if _, ok := m.vars[s.Name]; !ok {
			return 0, false, fmt.Errorf("assignment to %s: %w", s.Name, ErrUndefinedVariable)
		}
		m.vars[s.Name] = v
		m.trace = append(m.trace, Entry{Kind: EntryAssign, Name: s.Name, Value: v})
	case *ast.ExprStmt:
		v, err := m.eval(s.X)
		if err != nil {
			return 0, false, err
		}
		m.trace = append(m.trace, Entry{Kind: EntryExpr, Name: "expr", Value: v})
		return v, true, nil
	case *ast.IfStmt:
		c, err := m.eval(s.Cond)
		if err != nil {
			return 0, false, err
		}
		if c != 0 {
			err = m.execAll(s.Then)
		} else {
			err = m.execAll(s.Else)
		}
		if err != nil {
			return 0, false, err
		}
	case *ast.WhileStmt:
		for {
			c, err := m.eval(s.Cond)
			if err != nil {
				return 0, false, err
			}
			if c == 0 {
				break
			}
			if err := m.execAll(s.Body); err != nil {
				return 0, false, err
			}
			// the re-test counts so an empty body still consumes steps
			if err := m.step(); err != nil {
				return 0, false, err
			}
		}
	default:
		return 0, false, fmt.Errorf("unsupported statement %T", s)
	}
	return 0, false, nil
}

func (m *machine) eval(e ast.Expr) (int64, error) {
	switch e := e.(type) {
	case *ast.IntLit:
		return e.Value, nil
	case *ast.Ident:
		v, ok := m.vars[e.Name]
		if !ok {
			return 0, fmt.Errorf("use of %s: %w", e.Name, ErrUndefinedVariable)
		}
		return v, nil
	case *ast.BinaryExpr:
		a, err := m.eval(e.Left)
		if err != nil {
			return 0, err
		}
		b, err := m.eval(e.Right)
		if err != nil {
			return 0, err
		}
		return apply(e.Op, a, b)
	}
	return 0, fmt.Errorf("unsupported expression %T", e)
}

func apply(op ast.BinOp, a, b int64) (int64, error) {
	switch op {
	case ast.OpAdd:
		return a + b, nil
	case ast.OpSub:
		return a - b, nil
	case ast.OpMul:
		return a * b, nil
	case ast.OpDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		// Go truncates toward zero and wraps MinInt64 / -1
		return a / b, nil
	case ast.OpEq:
		return boolInt(a == b), nil
	case ast.OpNe:
		return boolInt(a != b), nil
	case ast.OpLt:
		return boolInt(a < b), nil
	case ast.OpLe:
		return boolInt(a <= b), nil
	case ast.OpGt:
		return boolInt(a > b), nil
	case ast.OpGe:
		return boolInt(a >= b), nil
	}
	return 0, fmt.Errorf("%w %d", ErrUnknownOperator, int(op))
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

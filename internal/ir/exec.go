package ir

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrStepLimit      = errors.New("step limit exceeded")
)

// ExecOptions controls Execute. A nil *ExecOptions means no limits.
type ExecOptions struct {
	// MaxSteps bounds the number of blocks entered. Zero means unlimited.
	MaxSteps int
}

func (o *ExecOptions) normalize() ExecOptions {
	if o == nil {
		return ExecOptions{}
	}
	out := *o
	if out.MaxSteps < 0 {
		out.MaxSteps = 0
	}
	return out
}

// ctxCheckEvery is how many blocks run between cancellation checks.
const ctxCheckEvery = 256

// Execute runs f directly on its CFG and returns the value it returns.
// It exists to check a lowering against the tree-walking interpreter;
// slots read before any store hold 0.
func Execute(f *Function, opt *ExecOptions) (int64, error) {
	return ExecuteContext(context.Background(), f, opt)
}

// ExecuteContext is Execute that also stops with ctx.Err() once ctx is done.
func ExecuteContext(ctx context.Context, f *Function, opt *ExecOptions) (int64, error) {
	o := opt.normalize()
	entry := f.Entry()
	if entry == nil {
		return 0, fmt.Errorf("%s: function has no entry block", f.Name)
	}
	slots := make([]int64, len(f.Slots))
	vals := map[*Instr]int64{}
	eval := func(v Value) int64 {
		switch v := v.(type) {
		case *Const:
			return v.Val
		case *Instr:
			return vals[v]
		}
		return 0
	}

	b := entry
	for steps := 1; ; steps++ {
		if o.MaxSteps > 0 && steps > o.MaxSteps {
			return 0, fmt.Errorf("%s: %w (%d)", f.Name, ErrStepLimit, o.MaxSteps)
		}
		if steps%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, fmt.Errorf("%s: %w", f.Name, err)
			}
		}
		for _, ins := range b.Instrs {
			switch ins.Op {
			case OpLoad:
				vals[ins] = slots[ins.Slot.ID]
			case OpStore:
				slots[ins.Slot.ID] = eval(ins.Args[0])
			case OpAdd:
				vals[ins] = eval(ins.Args[0]) + eval(ins.Args[1])
			case OpSub:
				vals[ins] = eval(ins.Args[0]) - eval(ins.Args[1])
			case OpMul:
				vals[ins] = eval(ins.Args[0]) * eval(ins.Args[1])
			case OpSDiv:
				d := eval(ins.Args[1])
				if d == 0 {
					return 0, fmt.Errorf("%s: block %s: %w", f.Name, b.Name, ErrDivisionByZero)
				}
				vals[ins] = eval(ins.Args[0]) / d
			case OpICmp:
				vals[ins] = compare(ins.Pred, eval(ins.Args[0]), eval(ins.Args[1]))
			case OpZExt:
				vals[ins] = eval(ins.Args[0]) & 1
			default:
				return 0, fmt.Errorf("%s: block %s: cannot execute %s", f.Name, b.Name, ins.Op)
			}
		}
		t := b.Term
		if t == nil {
			return 0, fmt.Errorf("%s: block %s: %w: missing terminator", f.Name, b.Name, ErrTerminator)
		}
		switch t.Kind {
		case TermBr:
			b = t.Targets[0]
		case TermCondBr:
			if eval(t.Cond) != 0 {
				b = t.Targets[0]
			} else {
				b = t.Targets[1]
			}
		case TermRet:
			return eval(t.Value), nil
		}
	}
}

func compare(p Pred, a, b int64) int64 {
	var r bool
	switch p {
	case PredEQ:
		r = a == b
	case PredNE:
		r = a != b
	case PredSLT:
		r = a < b
	case PredSLE:
		r = a <= b
	case PredSGT:
		r = a > b
	case PredSGE:
		r = a >= b
	}
	if r {
		return 1
	}
	return 0
}

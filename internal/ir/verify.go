package ir

import (
	"fmt"
)

// Verify checks the structural invariants of f: every block ends in exactly
// one terminator with nothing after it, branch targets belong to f, edges
// agree with terminators, and operand widths line up.
func Verify(f *Function) error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("%s: function has no entry block", f.Name)
	}
	owned := make(map[*BasicBlock]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		owned[b] = true
	}
	for _, b := range f.Blocks {
		if err := verifyBlock(b, owned); err != nil {
			return fmt.Errorf("%s: block %s: %w", f.Name, b.Name, err)
		}
	}
	return nil
}

func verifyBlock(b *BasicBlock, owned map[*BasicBlock]bool) error {
	if b.Term == nil {
		return fmt.Errorf("%w: missing terminator", ErrTerminator)
	}
	if b.late > 0 {
		return fmt.Errorf("%w: %d instruction(s) after terminator", ErrTerminator, b.late)
	}
	for _, ins := range b.Instrs {
		if err := verifyInstr(ins); err != nil {
			return err
		}
	}

	t := b.Term
	switch t.Kind {
	case TermBr:
		if len(t.Targets) != 1 {
			return fmt.Errorf("br needs 1 target, has %d", len(t.Targets))
		}
	case TermCondBr:
		if len(t.Targets) != 2 {
			return fmt.Errorf("conditional br needs 2 targets, has %d", len(t.Targets))
		}
		if t.Cond == nil || !t.Cond.Type().IsBool() {
			return fmt.Errorf("conditional br on non-i1 condition")
		}
	case TermRet:
		if len(t.Targets) != 0 {
			return fmt.Errorf("ret has branch targets")
		}
		if t.Value == nil || t.Value.Type().IsBool() {
			return fmt.Errorf("ret needs an i64 value")
		}
	default:
		return fmt.Errorf("unknown terminator kind %d", t.Kind)
	}

	if len(b.Succs) != len(t.Targets) {
		return fmt.Errorf("successor list does not match terminator")
	}
	for i, dst := range t.Targets {
		if !owned[dst] {
			return fmt.Errorf("branch to block %s outside the function", dst.Name)
		}
		if b.Succs[i] != dst || !hasBlock(dst.Preds, b) {
			return fmt.Errorf("edge to %s not recorded", dst.Name)
		}
	}
	return nil
}

func verifyInstr(ins *Instr) error {
	want := 0
	switch ins.Op {
	case OpLoad:
		if ins.Slot == nil {
			return fmt.Errorf("load without slot")
		}
	case OpStore:
		want = 1
		if ins.Slot == nil {
			return fmt.Errorf("store without slot")
		}
	case OpAdd, OpSub, OpMul, OpSDiv, OpICmp:
		want = 2
	case OpZExt:
		want = 1
	default:
		return fmt.Errorf("unknown op %s", ins.Op)
	}
	if len(ins.Args) != want {
		return fmt.Errorf("%s takes %d operand(s), has %d", ins.Op, want, len(ins.Args))
	}
	switch ins.Op {
	case OpStore:
		if ins.Args[0].Type() != ins.Slot.Typ {
			return fmt.Errorf("store of %s into %s slot", ins.Args[0].Type(), ins.Slot.Typ)
		}
	case OpAdd, OpSub, OpMul, OpSDiv, OpICmp:
		if ins.Args[0].Type() != ins.Args[1].Type() {
			return fmt.Errorf("%s on mismatched widths %s, %s", ins.Op, ins.Args[0].Type(), ins.Args[1].Type())
		}
	case OpZExt:
		if !ins.Args[0].Type().IsBool() {
			return fmt.Errorf("zext of %s", ins.Args[0].Type())
		}
	}
	return nil
}

func hasBlock(list []*BasicBlock, b *BasicBlock) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}

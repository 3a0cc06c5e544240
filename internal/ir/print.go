package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the module in an LLVM-flavoured text form.
func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; module %s\n", m.Name)
	for _, f := range m.Funcs {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	return b.String()
}

// String renders f. Result values are numbered %0, %1, ... in print order,
// slots are shown as allocas at the top of the entry block.
func (f *Function) String() string {
	p := &printer{names: map[*Instr]string{}}
	for _, bb := range f.Blocks {
		for _, ins := range bb.Instrs {
			if ins.HasResult() {
				p.names[ins] = "%" + strconv.Itoa(p.next)
				p.next++
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "define i64 @%s() {\n", f.Name)
	for i, bb := range f.Blocks {
		fmt.Fprintf(&b, "%s:", bb.Name)
		if len(bb.Preds) > 0 {
			var preds []string
			for _, pb := range bb.Preds {
				preds = append(preds, "%"+pb.Name)
			}
			fmt.Fprintf(&b, "  ; preds = %s", strings.Join(preds, ", "))
		}
		b.WriteByte('\n')
		if i == 0 {
			for _, s := range f.Slots {
				fmt.Fprintf(&b, "  %%%s = alloca %s\n", s.Name, s.Typ)
			}
		}
		for _, ins := range bb.Instrs {
			b.WriteString("  " + p.instr(ins) + "\n")
		}
		if bb.Term != nil {
			b.WriteString("  " + p.term(bb.Term) + "\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

type printer struct {
	names map[*Instr]string
	next  int
}

func (p *printer) ref(v Value) string {
	switch v := v.(type) {
	case *Const:
		return strconv.FormatInt(v.Val, 10)
	case *Instr:
		if n, ok := p.names[v]; ok {
			return n
		}
		return fmt.Sprintf("%%<detached %d>", v.ID)
	}
	return "<nil>"
}

func (p *printer) typed(v Value) string {
	return v.Type().String() + " " + p.ref(v)
}

func (p *printer) instr(ins *Instr) string {
	switch ins.Op {
	case OpStore:
		return fmt.Sprintf("store %s, ptr %%%s", p.typed(ins.Args[0]), ins.Slot.Name)
	case OpLoad:
		return fmt.Sprintf("%s = load %s, ptr %%%s", p.ref(ins), ins.Typ, ins.Slot.Name)
	case OpICmp:
		return fmt.Sprintf("%s = icmp %s %s, %s", p.ref(ins), ins.Pred, p.typed(ins.Args[0]), p.ref(ins.Args[1]))
	case OpZExt:
		return fmt.Sprintf("%s = zext %s to %s", p.ref(ins), p.typed(ins.Args[0]), ins.Typ)
	default:
		return fmt.Sprintf("%s = %s %s, %s", p.ref(ins), ins.Op, p.typed(ins.Args[0]), p.ref(ins.Args[1]))
	}
}

func (p *printer) term(t *Terminator) string {
	switch t.Kind {
	case TermBr:
		return "br label %" + t.Targets[0].Name
	case TermCondBr:
		return fmt.Sprintf("br %s, label %%%s, label %%%s", p.typed(t.Cond), t.Targets[0].Name, t.Targets[1].Name)
	case TermRet:
		return "ret " + p.typed(t.Value)
	}
	return fmt.Sprintf("<terminator %d>", t.Kind)
}

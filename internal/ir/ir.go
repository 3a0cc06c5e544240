package ir

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tinyrange/minilang/internal/types"
)

var (
	// ErrTerminator reports a broken terminator discipline: a block with no
	// terminator, a second terminator, or an instruction after one.
	ErrTerminator          = errors.New("terminator discipline violated")
	ErrUndefinedVariable   = errors.New("undefined variable")
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

type Module struct {
	Name  string
	Funcs []*Function
}

func NewModule(name string) *Module { return &Module{Name: name} }

// Function is a control-flow graph of basic blocks. Blocks[0] is the entry.
// Variables live in Slots: one per variable name, read with OpLoad and
// written with OpStore.
type Function struct {
	Name   string
	Blocks []*BasicBlock
	Slots  []*Slot

	nextID     ValueID
	blockNames map[string]int
}

func NewFunction(name string) *Function {
	return &Function{Name: name, blockNames: map[string]int{}}
}

func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NewBlock appends an empty block. Names are made unique by suffixing a
// counter: then, then1, then2...
func (f *Function) NewBlock(name string) *BasicBlock {
	n := f.blockNames[name]
	f.blockNames[name] = n + 1
	if n > 0 {
		name += strconv.Itoa(n)
	}
	b := &BasicBlock{Name: name}
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewSlot allocates a fresh i64 storage slot for the variable name.
func (f *Function) NewSlot(name string) *Slot {
	s := &Slot{ID: len(f.Slots), Name: name, Typ: types.I64()}
	f.Slots = append(f.Slots, s)
	return s
}

func (f *Function) addEdge(pred, succ *BasicBlock) {
	pred.Succs = append(pred.Succs, succ)
	succ.Preds = append(succ.Preds, pred)
}

type BasicBlock struct {
	Name   string
	Instrs []*Instr
	Term   *Terminator
	Preds  []*BasicBlock
	Succs  []*BasicBlock

	// late counts instructions appended after the terminator
	late int
}

// Terminated reports whether the block already ends in a branch or return.
func (b *BasicBlock) Terminated() bool { return b.Term != nil }

type ValueID int

// Value is an operand: an immediate *Const or the result of an *Instr.
type Value interface {
	Type() types.Type
	isValue()
}

type Const struct {
	Typ types.Type
	Val int64
}

func (*Const) isValue()            {}
func (c *Const) Type() types.Type { return c.Typ }

func ConstInt(v int64) *Const { return &Const{Typ: types.I64(), Val: v} }

// Slot is a mutable storage location, not a register: it may be stored to
// any number of times.
type Slot struct {
	ID   int
	Name string // source variable name
	Typ  types.Type
}

type Op int

const (
	OpLoad Op = iota
	OpStore
	OpAdd
	OpSub
	OpMul
	OpSDiv
	// OpICmp compares two integers of the same width and yields an i1
	OpICmp
	// OpZExt widens an i1 to i64
	OpZExt
)

var opNames = [...]string{
	OpLoad:  "load",
	OpStore: "store",
	OpAdd:   "add",
	OpSub:   "sub",
	OpMul:   "mul",
	OpSDiv:  "sdiv",
	OpICmp:  "icmp",
	OpZExt:  "zext",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

type Pred int

const (
	PredEQ Pred = iota
	PredNE
	PredSLT
	PredSLE
	PredSGT
	PredSGE
)

var predNames = [...]string{
	PredEQ:  "eq",
	PredNE:  "ne",
	PredSLT: "slt",
	PredSLE: "sle",
	PredSGT: "sgt",
	PredSGE: "sge",
}

func (p Pred) String() string {
	if p >= 0 && int(p) < len(predNames) {
		return predNames[p]
	}
	return fmt.Sprintf("pred(%d)", int(p))
}

// Instr is a straight-line instruction. Stores produce no value; every
// other op defines a value of type Typ.
type Instr struct {
	ID   ValueID
	Op   Op
	Pred Pred // OpICmp only
	Typ  types.Type
	Args []Value
	Slot *Slot // OpLoad, OpStore
}

func (*Instr) isValue()            {}
func (i *Instr) Type() types.Type { return i.Typ }

// HasResult reports whether the instruction defines a value.
func (i *Instr) HasResult() bool { return i.Op != OpStore }

type TermKind int

const (
	TermBr TermKind = iota
	TermCondBr
	TermRet
)

// Terminator ends a basic block. Br uses Targets[0]; CondBr branches to
// Targets[0] when Cond is true and Targets[1] otherwise; Ret returns Value.
type Terminator struct {
	Kind    TermKind
	Cond    Value
	Targets []*BasicBlock
	Value   Value
}

// Cursor is the insertion point for new instructions. Lowering threads it
// through every call instead of keeping a current block on the builder.
type Cursor struct {
	Block *BasicBlock
}

func At(b *BasicBlock) Cursor { return Cursor{Block: b} }

func (f *Function) emit(cur Cursor, ins *Instr) *Instr {
	ins.ID = f.nextID
	f.nextID++
	if cur.Block.Terminated() {
		cur.Block.late++
	}
	cur.Block.Instrs = append(cur.Block.Instrs, ins)
	return ins
}

func (f *Function) Load(cur Cursor, s *Slot) *Instr {
	return f.emit(cur, &Instr{Op: OpLoad, Typ: s.Typ, Slot: s})
}

func (f *Function) Store(cur Cursor, s *Slot, v Value) *Instr {
	return f.emit(cur, &Instr{Op: OpStore, Typ: v.Type(), Args: []Value{v}, Slot: s})
}

// Arith emits add/sub/mul/sdiv; the result has the operands' width.
func (f *Function) Arith(cur Cursor, op Op, a, b Value) *Instr {
	return f.emit(cur, &Instr{Op: op, Typ: a.Type(), Args: []Value{a, b}})
}

func (f *Function) ICmp(cur Cursor, p Pred, a, b Value) *Instr {
	return f.emit(cur, &Instr{Op: OpICmp, Pred: p, Typ: types.I1(), Args: []Value{a, b}})
}

func (f *Function) ZExt(cur Cursor, v Value) *Instr {
	return f.emit(cur, &Instr{Op: OpZExt, Typ: types.I64(), Args: []Value{v}})
}

func (f *Function) setTerm(b *BasicBlock, t *Terminator) error {
	if b.Terminated() {
		return fmt.Errorf("%w: block %s already terminated", ErrTerminator, b.Name)
	}
	b.Term = t
	for _, s := range t.Targets {
		f.addEdge(b, s)
	}
	return nil
}

func (f *Function) Br(cur Cursor, dst *BasicBlock) error {
	return f.setTerm(cur.Block, &Terminator{Kind: TermBr, Targets: []*BasicBlock{dst}})
}

func (f *Function) CondBr(cur Cursor, cond Value, then, els *BasicBlock) error {
	return f.setTerm(cur.Block, &Terminator{Kind: TermCondBr, Cond: cond, Targets: []*BasicBlock{then, els}})
}

func (f *Function) Ret(cur Cursor, v Value) error {
	return f.setTerm(cur.Block, &Terminator{Kind: TermRet, Value: v})
}

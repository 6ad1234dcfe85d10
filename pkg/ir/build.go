package ir

import (
	"fmt"
	"strings"
)

// block tracks one basic block's emission state: open (accepts
// instructions) or terminated (has a terminator, rejects further
// instructions). A block that is never reached after both arms of an
// enclosing if terminate is simply never started.
type block struct {
	label      string
	lines      []string
	terminated bool
}

// ErrBlockTerminated is returned by every emitting Func method when
// called against a block that already has a terminator -- no
// instruction may follow one.
var ErrBlockTerminated = fmt.Errorf("cannot emit into a terminated basic block")

// Func accumulates one function's QBE text body. It is built block by
// block; OpenBlock starts the next one and SetCurrent may reposition the
// insertion point (used by If/While lowering to resume filling a tail
// block that isn't the most recently created one).
type Func struct {
	Name   string
	CC     CallConv
	Params []*Type
	Ret    *Type

	blocks  []*block
	cur     *block
	tempNum int
	lblNum  int
	allocs  []string
}

func NewFunc(name string, cc CallConv, params []*Type, ret *Type) *Func {
	return &Func{Name: name, CC: cc, Params: params, Ret: ret}
}

// NewTemp mints a fresh SSA register name, unique within this function.
func (f *Func) NewTemp() Operand {
	f.tempNum++
	return TempOperand(fmt.Sprintf("t%d", f.tempNum))
}

// NewLabel mints a fresh block label, unique within this function, not
// yet attached to any block.
func (f *Func) NewLabel() string {
	f.lblNum++
	return fmt.Sprintf("L%d", f.lblNum)
}

// OpenBlock starts a new block with the given label and makes it the
// insertion point.
func (f *Func) OpenBlock(label string) {
	b := &block{label: label}
	f.blocks = append(f.blocks, b)
	f.cur = b
}

// CurrentTerminated reports whether the insertion point's block already
// has a terminator -- callers (If/While lowering) use this to decide
// whether a merge block is needed.
func (f *Func) CurrentTerminated() bool {
	return f.cur == nil || f.cur.terminated
}

// CurrentLabel returns the insertion point block's label.
func (f *Func) CurrentLabel() string {
	if f.cur == nil {
		return ""
	}
	return f.cur.label
}

// SetCurrent repositions the insertion point to a previously opened
// block, identified by label. If lowering deferred a jump into a tail
// block that is no longer the most recently opened one -- the case an
// if/else merge needs once both arms have been lowered -- this is how
// it gets back there.
func (f *Func) SetCurrent(label string) error {
	for _, b := range f.blocks {
		if b.label == label {
			f.cur = b
			return nil
		}
	}
	return fmt.Errorf("no such block: @%s", label)
}

func (f *Func) emit(line string) error {
	if f.cur == nil || f.cur.terminated {
		return ErrBlockTerminated
	}
	f.cur.lines = append(f.cur.lines, line)
	return nil
}

// AllocEntry reserves size bytes of 8-byte-aligned stack storage and
// returns a long-typed operand holding its address, the mechanism
// behind every local slot (auto-minted names and parameters).
// It always pins the allocation to the function's entry block
// regardless of the current insertion point: a slot allocated inside
// one arm of an if does not dominate the other arm or the merge block
// that reads it afterward, so all local slots are hoisted to entry up
// front, mem2reg-style.
func (f *Func) AllocEntry(size int) Operand {
	t := f.NewTemp()
	f.allocs = append(f.allocs, fmt.Sprintf("%s =l alloc8 %d", t.Text(), size))
	return t
}

// Load reads a value of the given base type from addr.
func (f *Func) Load(base Base, addr Operand) (Operand, error) {
	t := f.NewTemp()
	op := "loadl"
	if base == BW {
		op = "loaduw"
	}
	if err := f.emit(fmt.Sprintf("%s =%s %s %s", t.Text(), base, op, addr.Text())); err != nil {
		return Operand{}, err
	}
	return t, nil
}

// Store writes val, of the given base type, to addr.
func (f *Func) Store(base Base, val, addr Operand) error {
	op := "storel"
	if base == BW {
		op = "storew"
	}
	return f.emit(fmt.Sprintf("%s %s, %s", op, val.Text(), addr.Text()))
}

// BinOp emits a two-operand instruction (add, sub, mul, div, rem, and,
// or, xor, the signed comparisons, ...) producing a value of base.
func (f *Func) BinOp(qbeOp string, base Base, a, b Operand) (Operand, error) {
	t := f.NewTemp()
	if err := f.emit(fmt.Sprintf("%s =%s %s %s, %s", t.Text(), base, qbeOp, a.Text(), b.Text())); err != nil {
		return Operand{}, err
	}
	return t, nil
}

// UnOp emits a one-operand instruction (neg, extension/truncation casts,
// ...) producing a value of base.
func (f *Func) UnOp(qbeOp string, base Base, a Operand) (Operand, error) {
	t := f.NewTemp()
	if err := f.emit(fmt.Sprintf("%s =%s %s %s", t.Text(), base, qbeOp, a.Text())); err != nil {
		return Operand{}, err
	}
	return t, nil
}

// Call emits a function call through a pointer/global operand, passing
// args of argBases, and yields a value of retBase (or no value, if
// retBase is nil).
func (f *Func) Call(callee Operand, args []Operand, argBases []Base, retBase *Base) (Operand, error) {
	var sb strings.Builder
	var ret Operand
	if retBase != nil {
		ret = f.NewTemp()
		fmt.Fprintf(&sb, "%s =%s ", ret.Text(), *retBase)
	}
	fmt.Fprintf(&sb, "call %s(", callee.Text())
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %s", argBases[i], a.Text())
	}
	sb.WriteString(")")
	if err := f.emit(sb.String()); err != nil {
		return Operand{}, err
	}
	return ret, nil
}

// Jnz emits a conditional branch and terminates the current block.
func (f *Func) Jnz(cond Operand, thenLabel, elseLabel string) error {
	if err := f.emit(fmt.Sprintf("jnz %s, @%s, @%s", cond.Text(), thenLabel, elseLabel)); err != nil {
		return err
	}
	f.cur.terminated = true
	return nil
}

// Jmp emits an unconditional branch and terminates the current block.
func (f *Func) Jmp(label string) error {
	if err := f.emit(fmt.Sprintf("jmp @%s", label)); err != nil {
		return err
	}
	f.cur.terminated = true
	return nil
}

// Return emits a return, with or without a value, and terminates the
// current block.
func (f *Func) Return(v *Operand) error {
	line := "ret"
	if v != nil {
		line = "ret " + v.Text()
	}
	if err := f.emit(line); err != nil {
		return err
	}
	f.cur.terminated = true
	return nil
}

// Render produces this function's QBE IL text, in the "export function
// l $name(...) { @entry ... }" shape libqbe's parser expects.
func (f *Func) Render() string {
	var sb strings.Builder
	retBase := ""
	if f.Ret != nil {
		retBase = f.Ret.Base.String() + " "
	}
	fmt.Fprintf(&sb, "export function %s$%s(", retBase, f.Name)
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s %%a%d", p.Base, i)
	}
	sb.WriteString(") {\n")
	for i, b := range f.blocks {
		fmt.Fprintf(&sb, "@%s\n", b.label)
		if i == 0 {
			for _, line := range f.allocs {
				fmt.Fprintf(&sb, "\t%s\n", line)
			}
		}
		for _, line := range b.lines {
			fmt.Fprintf(&sb, "\t%s\n", line)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Package lower is the typed lowering / semantic engine: it translates
// the AST into the typed IR of package ir, resolving names, promoting
// and casting integers, checking function signatures, and building the
// control-flow blocks that if/while need.
package lower

import (
	"fmt"

	"github.com/nevakrien/small-lang/pkg/ast"
	"github.com/nevakrien/small-lang/pkg/ir"
)

// loopFrame is pushed per enclosing While so break/continue know which
// blocks to jump to.
type loopFrame struct {
	head string
	exit string
}

// Compiler holds the single-threaded, synchronous compilation session:
// the module's type arenas, the IR program being built, the two name
// environments, and the per-function dereference arena. Nothing here
// is safe for concurrent use, and nothing needs to be -- ordering is
// strictly program order.
type Compiler struct {
	Mod  *ir.Module
	Prog *ir.Program

	globals map[string]ir.Value
	locals  map[string]ir.Value

	curFunc     *ir.Func
	curRetType  *ir.Type
	derefArena  []*ir.Value
	loopStack   []loopFrame
	constLocals map[string]bool
}

func New(moduleName string) *Compiler {
	return &Compiler{
		Mod:     ir.NewModule(),
		Prog:    ir.NewProgram(moduleName),
		globals: make(map[string]ir.Value),
	}
}

// CompileProgram lowers every global in order. It stops at the first
// failing global -- a failure aborts that global but does not corrupt
// the module, so the caller may inspect Prog for whatever compiled
// successfully before the failure.
func (c *Compiler) CompileProgram(globals []*ast.Global) error {
	for _, g := range globals {
		if err := c.CompileGlobal(g); err != nil {
			return err
		}
	}
	return nil
}

// ---- global lowering ----

func (c *Compiler) CompileGlobal(g *ast.Global) error {
	switch g.Kind {
	case ast.GlobalFuncDec:
		d := g.Data.(ast.FuncDecData)
		c.declareFunc(d.IsC, d.Name, len(d.Args))
		return nil
	case ast.GlobalFunction:
		d := g.Data.(ast.FunctionData)
		return c.compileFunction(d)
	case ast.GlobalBasic:
		// Reserved for future constant-initializer use; there is no
		// module-level function context to lower an expression into
		// yet, so this is intentionally a no-op.
		return nil
	}
	return fmt.Errorf("invalid global node")
}

func (c *Compiler) declareFunc(isC bool, name string, argc int) *ir.Signature {
	cc := ir.CCFast
	if isC {
		cc = ir.CCC
	}
	params := make([]*ir.Type, argc)
	for i := range params {
		params[i] = c.Mod.DefaultIntType()
	}
	sig := &ir.Signature{Return: c.Mod.DefaultIntType(), CC: cc, Params: params}
	funcType := c.Mod.FuncType(sig)
	c.globals[name] = ir.Value{SSA: ir.GlobalOperand(name), Type: funcType}
	c.Prog.AddDecl(&ir.Decl{Name: name, CC: cc, Sig: sig})
	return sig
}

func (c *Compiler) compileFunction(d ast.FunctionData) error {
	sig := c.declareFunc(d.IsC, d.Name, len(d.Args))

	f := ir.NewFunc(d.Name, sig.CC, sig.Params, sig.Return)
	c.Prog.AddFunc(f)

	c.curFunc = f
	c.curRetType = sig.Return
	c.locals = make(map[string]ir.Value)
	c.derefArena = nil
	c.loopStack = nil
	c.constLocals = make(map[string]bool)

	f.OpenBlock("entry")
	for i, name := range d.Args {
		slot := f.AllocEntry(8)
		if err := f.Store(sig.Params[i].Base, ir.TempOperand(fmt.Sprintf("a%d", i)), slot); err != nil {
			return &GlobalError{FuncName: d.Name, Inner: err}
		}
		c.locals[name] = ir.Value{SSA: slot, Type: c.Mod.PointerTo(sig.Params[i])}
	}

	if err := c.CompileStmt(d.Body); err != nil {
		return &GlobalError{FuncName: d.Name, Inner: err}
	}
	if !f.CurrentTerminated() {
		return &GlobalError{FuncName: d.Name, Inner: fmt.Errorf("function body does not end in a return statement")}
	}

	c.curFunc = nil
	c.curRetType = nil
	return nil
}

// ---- statement lowering ----

func (c *Compiler) CompileStmt(s *ast.Stmt) error {
	switch s.Kind {
	case ast.StmtBasic:
		d := s.Data.(ast.BasicData)
		if d.IsConst {
			return c.compileConstBasic(s, d)
		}
		if _, err := c.CompileExpr(d.Expr); err != nil {
			return &StatementError{Stmt: s, Inner: err}
		}
		return nil

	case ast.StmtReturn:
		d := s.Data.(ast.ReturnData)
		v, err := c.CompileExpr(d.Expr)
		if err != nil {
			return &StatementError{Stmt: s, Inner: err}
		}
		casted, err := c.implicitCast(v, c.curRetType, s.Begin)
		if err != nil {
			return &StatementError{Stmt: s, Inner: err}
		}
		if err := c.curFunc.Return(&casted.SSA); err != nil {
			return &StatementError{Stmt: s, Inner: err}
		}
		return nil

	case ast.StmtBlock:
		d := s.Data.(ast.BlockData)
		for _, part := range d.Parts {
			if c.curFunc.CurrentTerminated() {
				break
			}
			if err := c.CompileStmt(part); err != nil {
				return err
			}
		}
		return nil

	case ast.StmtIf:
		return c.compileIf(s)

	case ast.StmtWhile:
		return c.compileWhile(s)

	case ast.StmtBreak:
		if len(c.loopStack) == 0 {
			return &StatementError{Stmt: s, Inner: &BadType{Context: "break", Pos: s.Begin, Expected: "inside a loop"}}
		}
		top := c.loopStack[len(c.loopStack)-1]
		if err := c.curFunc.Jmp(top.exit); err != nil {
			return &StatementError{Stmt: s, Inner: err}
		}
		return nil

	case ast.StmtContinue:
		if len(c.loopStack) == 0 {
			return &StatementError{Stmt: s, Inner: &BadType{Context: "continue", Pos: s.Begin, Expected: "inside a loop"}}
		}
		top := c.loopStack[len(c.loopStack)-1]
		if err := c.curFunc.Jmp(top.head); err != nil {
			return &StatementError{Stmt: s, Inner: err}
		}
		return nil
	}
	return fmt.Errorf("invalid statement node")
}

// compileConstBasic handles the "const" statement form: its Expr must
// be a bare-name assignment, and the bound name is recorded so a later
// plain assignment to it is rejected.
func (c *Compiler) compileConstBasic(s *ast.Stmt, d ast.BasicData) error {
	bin, ok := d.Expr.Data.(ast.BinOpData)
	if !ok || d.Expr.Kind != ast.ExprBinOp || bin.Op != ast.OpAssign || bin.LHS.Kind != ast.ExprVar {
		return &StatementError{Stmt: s, Inner: &BadType{Context: "const", Pos: d.Expr.Begin, Expected: "a bare-name assignment"}}
	}
	name := bin.LHS.Data.(ast.VarData).Name
	if _, err := c.CompileExpr(d.Expr); err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}
	c.constLocals[name] = true
	return nil
}

func (c *Compiler) compileIf(s *ast.Stmt) error {
	d := s.Data.(ast.IfData)

	condVal, err := c.CompileExpr(d.Cond)
	if err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}
	boolVal, err := c.tobool(condVal, d.Cond.Begin)
	if err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}

	thenLabel := c.curFunc.NewLabel()
	elseLabel := c.curFunc.NewLabel()
	if err := c.curFunc.Jnz(boolVal.SSA, thenLabel, elseLabel); err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}

	c.curFunc.OpenBlock(thenLabel)
	if err := c.CompileStmt(d.Then); err != nil {
		return err
	}
	thenTail := c.curFunc.CurrentLabel()
	thenTerminated := c.curFunc.CurrentTerminated()

	c.curFunc.OpenBlock(elseLabel)
	if d.Else != nil {
		if err := c.CompileStmt(d.Else); err != nil {
			return err
		}
	}
	elseTail := c.curFunc.CurrentLabel()
	elseTerminated := c.curFunc.CurrentTerminated()

	if thenTerminated && elseTerminated {
		// Both branches terminate: the code after this if is
		// unreachable through this control path and no merge block is
		// created.
		return nil
	}

	mergeLabel := c.curFunc.NewLabel()
	if !thenTerminated {
		if err := c.curFunc.SetCurrent(thenTail); err != nil {
			return err
		}
		if err := c.curFunc.Jmp(mergeLabel); err != nil {
			return err
		}
	}
	if !elseTerminated {
		if err := c.curFunc.SetCurrent(elseTail); err != nil {
			return err
		}
		if err := c.curFunc.Jmp(mergeLabel); err != nil {
			return err
		}
	}
	c.curFunc.OpenBlock(mergeLabel)
	return nil
}

func (c *Compiler) compileWhile(s *ast.Stmt) error {
	d := s.Data.(ast.WhileData)

	headLabel := c.curFunc.NewLabel()
	bodyLabel := c.curFunc.NewLabel()
	exitLabel := c.curFunc.NewLabel()

	if err := c.curFunc.Jmp(headLabel); err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}

	c.curFunc.OpenBlock(headLabel)
	condVal, err := c.CompileExpr(d.Cond)
	if err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}
	boolVal, err := c.tobool(condVal, d.Cond.Begin)
	if err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}
	if err := c.curFunc.Jnz(boolVal.SSA, bodyLabel, exitLabel); err != nil {
		return &StatementError{Stmt: s, Inner: err}
	}

	c.curFunc.OpenBlock(bodyLabel)
	c.loopStack = append(c.loopStack, loopFrame{head: headLabel, exit: exitLabel})
	err = c.CompileStmt(d.Body)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	if err != nil {
		return err
	}
	if !c.curFunc.CurrentTerminated() {
		if err := c.curFunc.Jmp(headLabel); err != nil {
			return err
		}
	}

	c.curFunc.OpenBlock(exitLabel)
	return nil
}

// ---- expression lowering ----

func (c *Compiler) CompileExpr(e *ast.Expr) (ir.Value, error) {
	switch e.Kind {
	case ast.ExprNum:
		d := e.Data.(ast.NumData)
		return ir.Value{SSA: ir.ConstOperand(int64(d.Value)), Type: c.Mod.DefaultIntType()}, nil

	case ast.ExprVar:
		return c.compileVar(e)

	case ast.ExprTypeCast:
		return c.compileTypeCast(e)

	case ast.ExprPreOp:
		return c.compilePreOp(e)

	case ast.ExprBinOp:
		return c.compileBinOp(e)

	case ast.ExprSubScript:
		return ir.Value{}, &BadType{Context: "subscript", Pos: e.Begin, Expected: "not yet supported"}

	case ast.ExprCall:
		return c.compileCall(e)
	}
	return ir.Value{}, fmt.Errorf("invalid expression node")
}

func (c *Compiler) compileVar(e *ast.Expr) (ir.Value, error) {
	d := e.Data.(ast.VarData)
	if slot, ok := c.locals[d.Name]; ok {
		loaded, err := c.curFunc.Load(slot.Type.Pointee.Base, slot.SSA)
		if err != nil {
			return ir.Value{}, err
		}
		addr := slot
		return ir.Value{SSA: loaded, Type: slot.Type.Pointee, Addr: &addr}, nil
	}
	if v, ok := c.globals[d.Name]; ok {
		return v, nil
	}
	return ir.Value{}, &MissingVar{Name: d.Name, Pos: e.Begin}
}

func (c *Compiler) compileTypeCast(e *ast.Expr) (ir.Value, error) {
	d := e.Data.(ast.TypeCastData)
	inner, err := c.CompileExpr(d.Inner)
	if err != nil {
		return ir.Value{}, err
	}
	target, ok := c.Mod.LookupTypeName(d.TypeName)
	if !ok {
		return ir.Value{}, &BadType{Context: "cast", Pos: e.Begin, Expected: "a known type name", Got: d.TypeName}
	}
	return c.explicitCast(inner, target, e.Begin)
}

func (c *Compiler) compilePreOp(e *ast.Expr) (ir.Value, error) {
	d := e.Data.(ast.PreOpData)

	switch d.Op {
	case ast.OpAddr:
		inner, err := c.CompileExpr(d.Inner)
		if err != nil {
			return ir.Value{}, err
		}
		if !inner.IsLValue() {
			return ir.Value{}, &BadType{Context: "address-of", Pos: e.Begin, Expected: "an lvalue", Got: inner.Type.String()}
		}
		return ir.Value{SSA: inner.Addr.SSA, Type: c.Mod.PointerTo(inner.Type)}, nil

	case ast.OpDeref:
		inner, err := c.CompileExpr(d.Inner)
		if err != nil {
			return ir.Value{}, err
		}
		if !inner.Type.IsPointer() {
			return ir.Value{}, &BadType{Context: "dereference", Pos: e.Begin, Expected: "a pointer", Got: inner.Type.String()}
		}
		loaded, err := c.curFunc.Load(inner.Type.Pointee.Base, inner.SSA)
		if err != nil {
			return ir.Value{}, err
		}
		// The address witness must outlive this expression's
		// evaluation; mint it into the per-function arena rather than
		// a Go stack local.
		wrapper := &ir.Value{SSA: inner.SSA, Type: inner.Type}
		c.derefArena = append(c.derefArena, wrapper)
		return ir.Value{SSA: loaded, Type: inner.Type.Pointee, Addr: wrapper}, nil

	case ast.OpNot:
		inner, err := c.CompileExpr(d.Inner)
		if err != nil {
			return ir.Value{}, err
		}
		return c.logicalNot(inner, e.Begin)

	case ast.OpPlus:
		inner, err := c.CompileExpr(d.Inner)
		if err != nil {
			return ir.Value{}, err
		}
		if !inner.Type.IsInteger() {
			return ir.Value{}, &BadType{Context: "unary +", Pos: e.Begin, Expected: "an integer", Got: inner.Type.String()}
		}
		return ir.Value{SSA: inner.SSA, Type: inner.Type}, nil

	case ast.OpNeg:
		inner, err := c.CompileExpr(d.Inner)
		if err != nil {
			return ir.Value{}, err
		}
		if !inner.Type.IsInteger() {
			return ir.Value{}, &BadType{Context: "unary -", Pos: e.Begin, Expected: "an integer", Got: inner.Type.String()}
		}
		op, err := c.curFunc.UnOp("neg", inner.Type.Base, inner.SSA)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.Value{SSA: op, Type: inner.Type}, nil

	case ast.OpInc, ast.OpDec:
		return c.compileIncDec(d, e.Begin)
	}
	return ir.Value{}, fmt.Errorf("invalid prefix operator")
}

func (c *Compiler) compileIncDec(d ast.PreOpData, pos int) (ir.Value, error) {
	inner, err := c.CompileExpr(d.Inner)
	if err != nil {
		return ir.Value{}, err
	}
	if !inner.IsLValue() || !inner.Type.IsInteger() {
		return ir.Value{}, &BadType{Context: "increment/decrement", Pos: pos, Expected: "an integer lvalue", Got: inner.Type.String()}
	}
	one := ir.ConstOperand(1)
	qbeOp := "add"
	if d.Op == ast.OpDec {
		qbeOp = "sub"
	}
	next, err := c.curFunc.BinOp(qbeOp, inner.Type.Base, inner.SSA, one)
	if err != nil {
		return ir.Value{}, err
	}
	if err := c.curFunc.Store(inner.Type.Base, next, inner.Addr.SSA); err != nil {
		return ir.Value{}, err
	}
	if d.Postfix {
		return ir.Value{SSA: inner.SSA, Type: inner.Type}, nil
	}
	return ir.Value{SSA: next, Type: inner.Type}, nil
}

func (c *Compiler) compileBinOp(e *ast.Expr) (ir.Value, error) {
	d := e.Data.(ast.BinOpData)

	if d.Op == ast.OpAssign {
		return c.compileAssign(e, d)
	}

	if d.Op == ast.OpAnd || d.Op == ast.OpOr {
		lhs, err := c.CompileExpr(d.LHS)
		if err != nil {
			return ir.Value{}, err
		}
		rhs, err := c.CompileExpr(d.RHS)
		if err != nil {
			return ir.Value{}, err
		}
		// Eager, not short-circuiting: both operands are always
		// evaluated before combining.
		lb, err := c.tobool(lhs, d.LHS.Begin)
		if err != nil {
			return ir.Value{}, err
		}
		rb, err := c.tobool(rhs, d.RHS.Begin)
		if err != nil {
			return ir.Value{}, err
		}
		qbeOp := "and"
		if d.Op == ast.OpOr {
			qbeOp = "or"
		}
		res, err := c.curFunc.BinOp(qbeOp, ir.BW, lb.SSA, rb.SSA)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.Value{SSA: res, Type: c.Mod.BoolType}, nil
	}

	lhs, err := c.CompileExpr(d.LHS)
	if err != nil {
		return ir.Value{}, err
	}
	rhs, err := c.CompileExpr(d.RHS)
	if err != nil {
		return ir.Value{}, err
	}
	if !lhs.Type.IsInteger() || !rhs.Type.IsInteger() {
		return ir.Value{}, &BadType{Context: "binary operator", Pos: e.Begin, Expected: "two integers", Got: fmt.Sprintf("%s, %s", lhs.Type, rhs.Type)}
	}
	lhs, rhs, base, err := c.promote(lhs, rhs)
	if err != nil {
		return ir.Value{}, err
	}

	if qbeOp, isArith := arithOps[d.Op]; isArith {
		res, err := c.curFunc.BinOp(qbeOp, base, lhs.SSA, rhs.SSA)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.Value{SSA: res, Type: lhs.Type}, nil
	}
	if cond, isCmp := cmpOps[d.Op]; isCmp {
		res, err := c.curFunc.BinOp(fmt.Sprintf("c%s%s", cond, base), ir.BW, lhs.SSA, rhs.SSA)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.Value{SSA: res, Type: c.Mod.BoolType}, nil
	}
	return ir.Value{}, fmt.Errorf("invalid binary operator")
}

var arithOps = map[ast.Operator]string{
	ast.OpAdd:    "add",
	ast.OpSub:    "sub",
	ast.OpMul:    "mul",
	ast.OpDiv:    "div",
	ast.OpRem:    "rem",
	ast.OpBitAnd: "and",
	ast.OpBitOr:  "or",
	ast.OpBitXor: "xor",
}

var cmpOps = map[ast.Operator]string{
	ast.OpEq:  "eq",
	ast.OpNeq: "ne",
	ast.OpLt:  "slt",
	ast.OpGt:  "sgt",
	ast.OpLte: "sle",
	ast.OpGte: "sge",
}

func (c *Compiler) compileAssign(e *ast.Expr, d ast.BinOpData) (ir.Value, error) {
	if d.LHS.Kind == ast.ExprVar {
		name := d.LHS.Data.(ast.VarData).Name
		if _, inLocals := c.locals[name]; !inLocals {
			if _, inGlobals := c.globals[name]; !inGlobals {
				return c.compileAutoMint(name, d.RHS)
			}
		}
		if c.constLocals[name] {
			return ir.Value{}, &BadType{Context: "assignment", Pos: e.Begin, Expected: "a non-const target", Got: fmt.Sprintf("%q was declared const", name)}
		}
	}

	lhs, err := c.CompileExpr(d.LHS)
	if err != nil {
		return ir.Value{}, err
	}
	if !lhs.IsLValue() {
		return ir.Value{}, &BadType{Context: "assignment", Pos: e.Begin, Expected: "an lvalue", Got: lhs.Type.String()}
	}
	rhs, err := c.CompileExpr(d.RHS)
	if err != nil {
		return ir.Value{}, err
	}
	casted, err := c.implicitCast(rhs, lhs.Type, d.RHS.Begin)
	if err != nil {
		return ir.Value{}, err
	}
	if err := c.curFunc.Store(casted.Type.Base, casted.SSA, lhs.Addr.SSA); err != nil {
		return ir.Value{}, err
	}
	return casted, nil
}

// compileAutoMint implements the sole variable-declaration mechanism:
// the first assignment to an undeclared bare name allocates a stack
// slot typed after the RHS and binds the name in locals. The slot
// itself is always allocated in the function's entry block, even when
// the mint happens inside a branch: a slot opened inside one arm of
// an if does not dominate the other arm or the merge block, and both
// may still read the name afterward.
func (c *Compiler) compileAutoMint(name string, rhsExpr *ast.Expr) (ir.Value, error) {
	rhs, err := c.CompileExpr(rhsExpr)
	if err != nil {
		return ir.Value{}, err
	}
	slot := c.curFunc.AllocEntry(8)
	if err := c.curFunc.Store(rhs.Type.Base, rhs.SSA, slot); err != nil {
		return ir.Value{}, err
	}
	c.locals[name] = ir.Value{SSA: slot, Type: c.Mod.PointerTo(rhs.Type)}
	return rhs, nil
}

func (c *Compiler) compileCall(e *ast.Expr) (ir.Value, error) {
	d := e.Data.(ast.CallData)
	callee, err := c.CompileExpr(d.Callee)
	if err != nil {
		return ir.Value{}, err
	}
	if !callee.Type.IsFunc() {
		return ir.Value{}, &NotAFunction{Pos: e.Begin, Got: callee.Type}
	}
	sig := callee.Type.Sig
	if len(d.Args) != len(sig.Params) {
		return ir.Value{}, &WrongArgCount{Pos: e.Begin, Want: len(sig.Params), Got: len(d.Args)}
	}

	argOps := make([]ir.Operand, len(d.Args))
	argBases := make([]ir.Base, len(d.Args))
	for i, argExpr := range d.Args {
		v, err := c.CompileExpr(argExpr)
		if err != nil {
			return ir.Value{}, err
		}
		if !v.Type.Equal(sig.Params[i]) {
			return ir.Value{}, &BadType{Context: "call argument", Pos: argExpr.Begin, Expected: sig.Params[i].String(), Got: v.Type.String()}
		}
		argOps[i] = v.SSA
		argBases[i] = v.Type.Base
	}

	var retBase *ir.Base
	if sig.Return != nil {
		b := sig.Return.Base
		retBase = &b
	}
	res, err := c.curFunc.Call(callee.SSA, argOps, argBases, retBase)
	if err != nil {
		return ir.Value{}, err
	}
	return ir.Value{SSA: res, Type: sig.Return}, nil
}

// ---- casts & promotion ----

// promote implements width promotion for integer binary operands:
// widen the narrower side to the wider via a signed cast.
func (c *Compiler) promote(a, b ir.Value) (ir.Value, ir.Value, ir.Base, error) {
	if a.Type.Width() == b.Type.Width() {
		return a, b, a.Type.Base, nil
	}
	if a.Type.Width() < b.Type.Width() {
		widened, err := c.implicitCast(a, b.Type, 0)
		return widened, b, b.Type.Base, err
	}
	widened, err := c.implicitCast(b, a.Type, 0)
	return a, widened, a.Type.Base, err
}

// implicitCast only ever widens: narrowing must go through an explicit
// "@type" cast.
func (c *Compiler) implicitCast(v ir.Value, target *ir.Type, pos int) (ir.Value, error) {
	if v.Type.Equal(target) {
		return v, nil
	}
	if !v.Type.IsInteger() || !target.IsInteger() {
		return ir.Value{}, &BadType{Context: "implicit cast", Pos: pos, Expected: target.String(), Got: v.Type.String()}
	}
	if v.Type.Width() > target.Width() {
		return ir.Value{}, &BadType{Context: "implicit cast", Pos: pos, Expected: target.String(), Got: v.Type.String()}
	}
	op, err := c.curFunc.UnOp("extsw", target.Base, v.SSA)
	if err != nil {
		return ir.Value{}, err
	}
	return ir.Value{SSA: op, Type: target}, nil
}

// explicitCast is a no-op between equal-width integer types, a signed
// cast widening bool to int, and a narrowing of int to bool --
// the only narrowing pair this type system has -- via a nonzero test.
// Anything else is a BadType failure.
func (c *Compiler) explicitCast(v ir.Value, target *ir.Type, pos int) (ir.Value, error) {
	if !v.Type.IsInteger() || !target.IsInteger() {
		return ir.Value{}, &BadType{Context: "explicit cast", Pos: pos, Expected: target.String(), Got: v.Type.String()}
	}
	if v.Type.Width() == target.Width() {
		return ir.Value{SSA: v.SSA, Type: target}, nil
	}
	if v.Type.Width() > target.Width() {
		return c.tobool(v, pos)
	}
	op, err := c.curFunc.UnOp("extsw", target.Base, v.SSA)
	if err != nil {
		return ir.Value{}, err
	}
	return ir.Value{SSA: op, Type: target}, nil
}

// tobool is the integer/pointer -> 1-bit conversion used by logical
// operators and if/while conditions: nonzero (or non-null) is true.
func (c *Compiler) tobool(v ir.Value, pos int) (ir.Value, error) {
	if v.Type.IsInteger() || v.Type.IsPointer() {
		zero := ir.ConstOperand(0)
		res, err := c.curFunc.BinOp("cne"+v.Type.Base.String(), ir.BW, v.SSA, zero)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.Value{SSA: res, Type: c.Mod.BoolType}, nil
	}
	return ir.Value{}, &CantBool{Pos: pos, Got: v.Type}
}

// logicalNot implements unary !: equal-to-zero on an integer, equal-to-
// null on a pointer -- the inverse test of tobool, not a delegation to it.
func (c *Compiler) logicalNot(v ir.Value, pos int) (ir.Value, error) {
	if v.Type.IsInteger() || v.Type.IsPointer() {
		zero := ir.ConstOperand(0)
		res, err := c.curFunc.BinOp("ceq"+v.Type.Base.String(), ir.BW, v.SSA, zero)
		if err != nil {
			return ir.Value{}, err
		}
		return ir.Value{SSA: res, Type: c.Mod.BoolType}, nil
	}
	return ir.Value{}, &CantBool{Pos: pos, Got: v.Type}
}

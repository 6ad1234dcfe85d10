// Package ast defines the tagged-union tree the parser builds and the
// lowering engine consumes. Every node is a closed sum type dispatched by
// exhaustive case analysis on its Kind field, and carries the half-open
// source slice it was parsed from for error context and IR block
// labeling.
package ast

// Operator is the closed enumeration of arithmetic, comparison, logical,
// bitwise, assignment, increment, member, and arrow operators, plus the
// Invalid sentinel used only during construction.
type Operator int

const (
	OpInvalid Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpBitAnd
	OpBitOr
	OpBitXor
	OpAnd
	OpOr
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLte
	OpGte
	OpAssign
	OpAddr  // prefix &
	OpDeref // prefix *
	OpNot   // prefix !
	OpPlus  // unary +
	OpNeg   // unary -
	OpInc   // ++, prefix or postfix
	OpDec   // --, prefix or postfix
	OpDot
	OpArrow
)

// BP holds the four binding powers an operator form carries; 0 means
// "not applicable in that position".
type BP struct {
	Prefix     int
	InfixLeft  int
	InfixRight int
	Postfix    int
}

// Table is the Pratt parser's binding-power table. A left-associative
// operator sets InfixRight to InfixLeft+1, which stops its own
// right-hand recursion the moment it meets another operator of the
// same precedence and hands control back to the left-folding outer
// loop. A right-associative operator instead sets InfixRight <=
// InfixLeft, letting that recursion swallow a further same-precedence
// operator on the right; only OpAssign has that shape.
var Table = map[Operator]BP{
	OpDot:    {InfixLeft: 20, InfixRight: 21},
	OpArrow:  {InfixLeft: 20, InfixRight: 21},
	OpAddr:   {Prefix: 16},
	OpDeref:  {Prefix: 16},
	OpPlus:   {Prefix: 16},
	OpNeg:    {Prefix: 16},
	OpNot:    {Prefix: 16},
	OpInc:    {Prefix: 16, Postfix: 15},
	OpDec:    {Prefix: 16, Postfix: 15},
	OpMul:    {InfixLeft: 14, InfixRight: 15},
	OpDiv:    {InfixLeft: 14, InfixRight: 15},
	OpRem:    {InfixLeft: 14, InfixRight: 15},
	OpAdd:    {InfixLeft: 13, InfixRight: 14},
	OpSub:    {InfixLeft: 13, InfixRight: 14},
	OpLt:     {InfixLeft: 11, InfixRight: 12},
	OpGt:     {InfixLeft: 11, InfixRight: 12},
	OpLte:    {InfixLeft: 11, InfixRight: 12},
	OpGte:    {InfixLeft: 11, InfixRight: 12},
	OpEq:     {InfixLeft: 10, InfixRight: 11},
	OpNeq:    {InfixLeft: 10, InfixRight: 11},
	OpBitAnd: {InfixLeft: 9, InfixRight: 10},
	OpBitXor: {InfixLeft: 8, InfixRight: 9},
	OpBitOr:  {InfixLeft: 7, InfixRight: 8},
	OpAnd:    {InfixLeft: 6, InfixRight: 7},
	OpOr:     {InfixLeft: 5, InfixRight: 6},
	OpAssign: {InfixLeft: 4, InfixRight: 3},
}

// CastBP is the binding power a "@T" cast's operand is parsed at.
const CastBP = 15

// CallBP and SubScriptBP are the postfix binding powers of call and
// subscript forms.
const CallBP = 16
const SubScriptBP = 16

// ExprKind discriminates the Expression variant stored in an Expr's Data
// field.
type ExprKind int

const (
	ExprInvalid ExprKind = iota
	ExprVar
	ExprNum
	ExprPreOp
	ExprTypeCast
	ExprBinOp
	ExprSubScript
	ExprCall
)

// Expr is one node of the expression tree. Data holds the variant payload
// named by Kind; child expressions are uniquely owned, no back-references.
type Expr struct {
	Kind  ExprKind
	Data  interface{}
	Begin int
	End   int
}

type VarData struct{ Name string }

type NumData struct {
	Value uint64
	Text  string
}

// PreOpData covers both prefix and postfix unary forms; Postfix
// distinguishes `++x` from `x++` for operators valid in both positions.
type PreOpData struct {
	Op      Operator
	Inner   *Expr
	Postfix bool
}

type TypeCastData struct {
	TypeName string
	Inner    *Expr
}

type BinOpData struct {
	Op  Operator
	LHS *Expr
	RHS *Expr
}

type SubScriptData struct {
	Array *Expr
	Index *Expr
}

type CallData struct {
	Callee *Expr
	Args   []*Expr
}

func NewVar(name string, begin, end int) *Expr {
	return &Expr{Kind: ExprVar, Data: VarData{Name: name}, Begin: begin, End: end}
}

func NewNum(value uint64, text string, begin, end int) *Expr {
	return &Expr{Kind: ExprNum, Data: NumData{Value: value, Text: text}, Begin: begin, End: end}
}

func NewPreOp(op Operator, inner *Expr, postfix bool, begin, end int) *Expr {
	return &Expr{Kind: ExprPreOp, Data: PreOpData{Op: op, Inner: inner, Postfix: postfix}, Begin: begin, End: end}
}

func NewTypeCast(typeName string, inner *Expr, begin, end int) *Expr {
	return &Expr{Kind: ExprTypeCast, Data: TypeCastData{TypeName: typeName, Inner: inner}, Begin: begin, End: end}
}

func NewBinOp(op Operator, lhs, rhs *Expr, begin, end int) *Expr {
	return &Expr{Kind: ExprBinOp, Data: BinOpData{Op: op, LHS: lhs, RHS: rhs}, Begin: begin, End: end}
}

func NewSubScript(array, index *Expr, begin, end int) *Expr {
	return &Expr{Kind: ExprSubScript, Data: SubScriptData{Array: array, Index: index}, Begin: begin, End: end}
}

func NewCall(callee *Expr, args []*Expr, begin, end int) *Expr {
	return &Expr{Kind: ExprCall, Data: CallData{Callee: callee, Args: args}, Begin: begin, End: end}
}

// StmtKind discriminates the Statement variant stored in a Stmt's Data
// field.
type StmtKind int

const (
	StmtInvalid StmtKind = iota
	StmtBasic
	StmtReturn
	StmtBlock
	StmtIf
	StmtWhile
	StmtBreak
	StmtContinue
)

type Stmt struct {
	Kind  StmtKind
	Data  interface{}
	Begin int
	End   int
}

// BasicData is an expression statement. IsConst marks one written with
// a leading "const" keyword: a supplemented form requiring Expr to be
// a bare-name assignment, whose target may never be plainly
// reassigned afterward.
type BasicData struct {
	Expr    *Expr
	IsConst bool
}

// ReturnData's Expr is always set: the parser has no bare `return;`
// form and requires an expression after `return`.
type ReturnData struct{ Expr *Expr }

type BlockData struct{ Parts []*Stmt }

// IfData stores the else branch in its own dedicated field: one draft of
// the original parser reused the then-block field for else by mistake,
// which is not the behavior implemented here.
type IfData struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt // nil when there is no else branch
}

type WhileData struct {
	Cond *Expr
	Body *Stmt
}

func NewBasic(expr *Expr, begin, end int) *Stmt {
	return &Stmt{Kind: StmtBasic, Data: BasicData{Expr: expr}, Begin: begin, End: end}
}

func NewConstBasic(expr *Expr, begin, end int) *Stmt {
	return &Stmt{Kind: StmtBasic, Data: BasicData{Expr: expr, IsConst: true}, Begin: begin, End: end}
}

func NewReturn(expr *Expr, begin, end int) *Stmt {
	return &Stmt{Kind: StmtReturn, Data: ReturnData{Expr: expr}, Begin: begin, End: end}
}

func NewBlock(parts []*Stmt, begin, end int) *Stmt {
	return &Stmt{Kind: StmtBlock, Data: BlockData{Parts: parts}, Begin: begin, End: end}
}

func NewIf(cond *Expr, then, els *Stmt, begin, end int) *Stmt {
	return &Stmt{Kind: StmtIf, Data: IfData{Cond: cond, Then: then, Else: els}, Begin: begin, End: end}
}

func NewWhile(cond *Expr, body *Stmt, begin, end int) *Stmt {
	return &Stmt{Kind: StmtWhile, Data: WhileData{Cond: cond, Body: body}, Begin: begin, End: end}
}

func NewBreak(begin, end int) *Stmt    { return &Stmt{Kind: StmtBreak, Begin: begin, End: end} }
func NewContinue(begin, end int) *Stmt { return &Stmt{Kind: StmtContinue, Begin: begin, End: end} }

// GlobalKind discriminates the Global variant stored in a Global's Data
// field.
type GlobalKind int

const (
	GlobalInvalid GlobalKind = iota
	GlobalFuncDec
	GlobalFunction
	GlobalBasic
)

type Global struct {
	Kind  GlobalKind
	Data  interface{}
	Begin int
	End   int
}

// FuncDecData is a forward declaration: `(c)fn name(args);`.
type FuncDecData struct {
	IsC  bool
	Name string
	Args []string
}

// FunctionData is a full definition: the declaration plus a body block.
type FunctionData struct {
	FuncDecData
	Body *Stmt
}

// GlobalBasicData is a top-level expression statement, reserved for
// future constant-initializer use.
type GlobalBasicData struct{ Expr *Expr }

func NewFuncDec(isC bool, name string, args []string, begin, end int) *Global {
	return &Global{Kind: GlobalFuncDec, Data: FuncDecData{IsC: isC, Name: name, Args: args}, Begin: begin, End: end}
}

func NewFunction(isC bool, name string, args []string, body *Stmt, begin, end int) *Global {
	return &Global{
		Kind:  GlobalFunction,
		Data:  FunctionData{FuncDecData: FuncDecData{IsC: isC, Name: name, Args: args}, Body: body},
		Begin: begin, End: end,
	}
}

func NewGlobalBasic(expr *Expr, begin, end int) *Global {
	return &Global{Kind: GlobalBasic, Data: GlobalBasicData{Expr: expr}, Begin: begin, End: end}
}

package parser

import (
	"testing"

	"github.com/nevakrien/small-lang/pkg/ast"
	"github.com/nevakrien/small-lang/pkg/lexer"
)

func parseExpr(t *testing.T, src string) *ast.Expr {
	t.Helper()
	p := New(lexer.New([]byte(src)))
	e, err := p.ParseExpression(0)
	if err != nil {
		t.Fatalf("ParseExpression(%q) failed: %v", src, err)
	}
	return e
}

// shape renders just enough of an expression tree to compare
// associativity without caring about byte offsets.
func shape(e *ast.Expr) string {
	switch e.Kind {
	case ast.ExprNum:
		return e.Data.(ast.NumData).Text
	case ast.ExprVar:
		return e.Data.(ast.VarData).Name
	case ast.ExprBinOp:
		d := e.Data.(ast.BinOpData)
		return "(" + shape(d.LHS) + opSym(d.Op) + shape(d.RHS) + ")"
	case ast.ExprPreOp:
		d := e.Data.(ast.PreOpData)
		if d.Postfix {
			return "(" + shape(d.Inner) + opSym(d.Op) + ")"
		}
		return "(" + opSym(d.Op) + shape(d.Inner) + ")"
	case ast.ExprTypeCast:
		d := e.Data.(ast.TypeCastData)
		return "(@" + d.TypeName + shape(d.Inner) + ")"
	case ast.ExprCall:
		d := e.Data.(ast.CallData)
		s := shape(d.Callee) + "("
		for i, a := range d.Args {
			if i > 0 {
				s += ","
			}
			s += shape(a)
		}
		return s + ")"
	case ast.ExprSubScript:
		d := e.Data.(ast.SubScriptData)
		return shape(d.Array) + "[" + shape(d.Index) + "]"
	}
	return "?"
}

func opSym(op ast.Operator) string {
	switch op {
	case ast.OpAddr:
		return "&"
	case ast.OpDeref:
		return "*"
	case ast.OpNot:
		return "!"
	case ast.OpNeg:
		return "-"
	}
	for sym, o := range map[string]ast.Operator{
		"+": ast.OpAdd, "-": ast.OpSub, "*": ast.OpMul, "/": ast.OpDiv, "%": ast.OpRem,
		"&": ast.OpBitAnd, "|": ast.OpBitOr, "^": ast.OpBitXor,
		"&&": ast.OpAnd, "||": ast.OpOr, "=": ast.OpAssign,
		"==": ast.OpEq, "!=": ast.OpNeq, "<": ast.OpLt, ">": ast.OpGt, "<=": ast.OpLte, ">=": ast.OpGte,
		"++": ast.OpInc, "--": ast.OpDec,
	} {
		if o == op {
			return sym
		}
	}
	return "?"
}

// TestPrattAssociativity checks the left/right grouping the binding-power
// table in package ast claims for a representative operator from each
// shape: left-associative arithmetic, precedence between levels, and
// the lone right-associative operator, assignment.
func TestPrattAssociativity(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"left-assoc add", "a+b+c", "((a+b)+c)"},
		{"mul binds tighter than add", "a+b*c", "(a+(b*c))"},
		{"mul binds tighter than add, other order", "a*b+c", "((a*b)+c)"},
		{"right-assoc assign", "a=b=c", "(a=(b=c))"},
		{"comparison binds tighter than bitand", "a&b<c", "(a&(b<c))"},
		{"logical and over or", "a||b&&c", "(a||(b&&c))"},
		{"parens override", "(a+b)*c", "((a+b)*c)"},
		{"unary minus binds tighter than mul", "-a*b", "((-a)*b)"},
		{"prefix deref then member-less field access chain", "*p+1", "((*p)+1)"},
		{"postfix inc binds tighter than add", "a++ + b", "((a++)+b)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(parseExpr(t, tt.src))
			if got != tt.want {
				t.Errorf("parse(%q) = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseCallAndSubscript(t *testing.T) {
	got := shape(parseExpr(t, "f(a,b+1)"))
	want := "f(a,(b+1))"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	got = shape(parseExpr(t, "arr[i+1]"))
	want = "arr[(i+1)]"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseCast(t *testing.T) {
	got := shape(parseExpr(t, "@bool x+1"))
	want := "((@boolx)+1)"
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseStatementConst(t *testing.T) {
	p := New(lexer.New([]byte("const x = 1;")))
	s, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement failed: %v", err)
	}
	if s.Kind != ast.StmtBasic {
		t.Fatalf("got Kind %v, want StmtBasic", s.Kind)
	}
	d := s.Data.(ast.BasicData)
	if !d.IsConst {
		t.Fatalf("expected IsConst on a const-prefixed statement")
	}
}

func TestParseIfElseNotSwapped(t *testing.T) {
	p := New(lexer.New([]byte("if (a) b=1; else c=2;")))
	s, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement failed: %v", err)
	}
	d := s.Data.(ast.IfData)
	if d.Then == nil || d.Else == nil {
		t.Fatalf("expected both Then and Else populated")
	}
	thenExpr := d.Then.Data.(ast.BasicData).Expr.Data.(ast.BinOpData)
	elseExpr := d.Else.Data.(ast.BasicData).Expr.Data.(ast.BinOpData)
	if thenExpr.LHS.Data.(ast.VarData).Name != "b" {
		t.Errorf("then branch assigns %q, want b", thenExpr.LHS.Data.(ast.VarData).Name)
	}
	if elseExpr.LHS.Data.(ast.VarData).Name != "c" {
		t.Errorf("else branch assigns %q, want c", elseExpr.LHS.Data.(ast.VarData).Name)
	}
}

func TestParseProgramFunctionDeclAndDefinition(t *testing.T) {
	p := New(lexer.New([]byte("cfn f(x); cfn f(x) { return x; }")))
	globals, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram failed: %v", err)
	}
	if len(globals) != 2 {
		t.Fatalf("got %d globals, want 2", len(globals))
	}
	if globals[0].Kind != ast.GlobalFuncDec {
		t.Errorf("globals[0].Kind = %v, want GlobalFuncDec", globals[0].Kind)
	}
	if globals[1].Kind != ast.GlobalFunction {
		t.Errorf("globals[1].Kind = %v, want GlobalFunction", globals[1].Kind)
	}
	fd := globals[1].Data.(ast.FunctionData)
	if !fd.IsC {
		t.Errorf("expected cfn to set IsC")
	}
}

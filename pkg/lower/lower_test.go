package lower

import (
	"strings"
	"testing"

	"github.com/nevakrien/small-lang/pkg/ast"
	"github.com/nevakrien/small-lang/pkg/lexer"
	"github.com/nevakrien/small-lang/pkg/parser"
)

func mustParse(t *testing.T, src string) []*ast.Global {
	t.Helper()
	p := parser.New(lexer.New([]byte(src)))
	globals, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return globals
}

func compile(t *testing.T, src string) (*Compiler, error) {
	t.Helper()
	c := New("test")
	err := c.CompileProgram(mustParse(t, src))
	return c, err
}

// scenarios are the canonical integer-returning programs also exercised
// end-to-end by cmd/smalltest; here they are only checked for successful
// lowering and module verification, not executed.
var scenarios = []string{
	`cfn main(){ a=5; pa=&a; *pa=0; return a; }`,
	`cfn main(){ a=7; p=&a; pp=&p; **pp=9; return a; }`,
	`cfn main(){ return (!1 && 0) || (1 && 1); }`,
	`cfn main(){ a=5; b=6; if (a>b) c=111; else c=222; return c; }`,
	`cfn inc(x){ return x+1; } cfn dec(x){ return x-1; } cfn main(){ f=inc; g=dec; p=&f; *p=g; return f(5); }`,
	`cfn main(){ return 1+2*3+4; }`,
}

func TestScenariosCompileAndVerify(t *testing.T) {
	for i, src := range scenarios {
		c, err := compile(t, src)
		if err != nil {
			t.Fatalf("scenario %d: compile failed: %v", i, err)
		}
		if err := c.Prog.Verify(); err != nil {
			t.Fatalf("scenario %d: verify failed: %v", i, err)
		}
	}
}

func TestAutoMintIsOneShot(t *testing.T) {
	c, err := compile(t, `cfn main(){ x=1; x=2; return x; }`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	rendered := c.Prog.Render()
	if got := strings.Count(rendered, "alloc8"); got != 1 {
		t.Errorf("got %d alloc8 instructions, want exactly 1 (one mint, one plain store)", got)
	}
}

// TestAllocsStayInEntryBlock guards the dominance requirement every
// local slot needs: regardless of which branch first mints a name,
// its alloc8 must land in @entry, ahead of every other block, so the
// slot dominates whichever branch or merge block reads it later.
func TestAllocsStayInEntryBlock(t *testing.T) {
	c, err := compile(t, `cfn main(){ a=5; b=6; if (a>b) c=111; else c=222; return c; }`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if err := c.Prog.Verify(); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	rendered := c.Prog.Render()
	entry := rendered[strings.Index(rendered, "@entry"):]
	if next := strings.Index(entry[1:], "@"); next >= 0 {
		entry = entry[:next+1]
	}
	if got := strings.Count(rendered, "alloc8"); got != strings.Count(entry, "alloc8") {
		t.Errorf("found an alloc8 outside @entry: %d total, %d inside @entry", got, strings.Count(entry, "alloc8"))
	}
	if strings.Count(entry, "alloc8") != 3 {
		t.Errorf("expected 3 entry-block allocs (a, b, c), got %d", strings.Count(entry, "alloc8"))
	}
}

func TestIfElseBothTerminateOmitsMergeBlock(t *testing.T) {
	c, err := compile(t, `cfn main(){ if (1) { return 1; } else { return 2; } }`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	rendered := c.Prog.Render()
	// entry, then, else: no fourth (merge) block should be emitted since
	// both arms return. Only block label lines are counted, not the jnz
	// branch targets that also spell "@L1"/"@L2".
	if got := strings.Count(rendered, "\n@L"); got != 2 {
		t.Errorf("got %d generated labels, want exactly 2 (then+else, no merge)", got)
	}
}

func TestIfWithoutElseCreatesMergeBlock(t *testing.T) {
	c, err := compile(t, `cfn main(){ x=0; if (1) { x=1; } return x; }`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if err := c.Prog.Verify(); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestConstLocksReassignment(t *testing.T) {
	_, err := compile(t, `cfn main(){ const x = 1; x = 2; return x; }`)
	if err == nil {
		t.Fatal("expected an error reassigning a const local, got none")
	}
	var badType *BadType
	var stmtErr *StatementError
	var globalErr *GlobalError
	if ge, ok := err.(*GlobalError); ok {
		globalErr = ge
		err = ge.Inner
	}
	_ = globalErr
	if se, ok := err.(*StatementError); ok {
		stmtErr = se
		err = se.Inner
	}
	_ = stmtErr
	if bt, ok := err.(*BadType); ok {
		badType = bt
	}
	if badType == nil {
		t.Fatalf("expected a *BadType error reassigning a const, got %T: %v", err, err)
	}
}

func TestAddressOfNonLvalueFails(t *testing.T) {
	_, err := compile(t, `cfn main(){ return *&5; }`)
	if err == nil {
		t.Fatal("expected address-of-literal to fail")
	}
}

func TestDerefOfNonPointerFails(t *testing.T) {
	_, err := compile(t, `cfn main(){ x=1; return *x; }`)
	if err == nil {
		t.Fatal("expected dereference of a non-pointer to fail")
	}
}

func TestMissingVarError(t *testing.T) {
	_, err := compile(t, `cfn main(){ return y; }`)
	if err == nil {
		t.Fatal("expected undeclared-name error")
	}
	inner := err
	for {
		u, ok := inner.(interface{ Unwrap() error })
		if !ok {
			break
		}
		inner = u.Unwrap()
	}
	if _, ok := inner.(*MissingVar); !ok {
		t.Fatalf("expected innermost error to be *MissingVar, got %T: %v", inner, inner)
	}
}

func TestWrongArgCountError(t *testing.T) {
	_, err := compile(t, `cfn f(a,b){ return a+b; } cfn main(){ return f(1); }`)
	if err == nil {
		t.Fatal("expected a wrong-argument-count error")
	}
}

func TestErrorWrappedOnceAtNearestStatement(t *testing.T) {
	// The failing expression lives inside a block inside the if's then
	// branch; the wrap should happen once, at that innermost statement,
	// not again at the enclosing if or block.
	_, err := compile(t, `cfn main(){ if (1) { return y; } return 0; }`)
	if err == nil {
		t.Fatal("expected an error")
	}
	ge, ok := err.(*GlobalError)
	if !ok {
		t.Fatalf("expected a *GlobalError at the top, got %T", err)
	}
	se, ok := ge.Inner.(*StatementError)
	if !ok {
		t.Fatalf("expected exactly one *StatementError wrapping, got %T", ge.Inner)
	}
	if _, ok := se.Inner.(*StatementError); ok {
		t.Fatalf("error was wrapped twice: %v", se)
	}
}

// TestLogicalNotComparesEqualToZero pins ! to equal-to-zero, not the
// not-equal-to-zero test tobool uses for implicit conditions -- the two
// are inverses and must emit distinct QBE comparisons.
func TestLogicalNotComparesEqualToZero(t *testing.T) {
	c, err := compile(t, `cfn main(){ return !5; }`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	rendered := c.Prog.Render()
	if !strings.Contains(rendered, "ceql") && !strings.Contains(rendered, "ceqw") {
		t.Errorf("expected ! to lower to an equal-to-zero comparison, got:\n%s", rendered)
	}
	if strings.Contains(rendered, "cnel") || strings.Contains(rendered, "cnew") {
		t.Errorf("! must not lower to a not-equal-to-zero comparison, got:\n%s", rendered)
	}
}

func TestWhileLowersHeadBodyExit(t *testing.T) {
	c, err := compile(t, `cfn main(){ i=0; while (i<10) { i=i+1; } return i; }`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if err := c.Prog.Verify(); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	rendered := c.Prog.Render()
	if !strings.Contains(rendered, "jnz") {
		t.Errorf("expected a conditional branch testing the loop condition")
	}
}

func TestBreakContinueInsideWhile(t *testing.T) {
	c, err := compile(t, `cfn main(){ i=0; while (1) { i=i+1; if (i>3) break; continue; } return i; }`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if err := c.Prog.Verify(); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestNarrowingRequiresExplicitCast(t *testing.T) {
	_, err := compile(t, `cfn main(){ x=1; y=@bool x; return y; }`)
	if err != nil {
		t.Fatalf("explicit narrowing cast should succeed: %v", err)
	}
}

func TestImplicitWideningInMixedExpression(t *testing.T) {
	_, err := compile(t, `cfn main(){ x=1; b=@bool x; return b-x; }`)
	// b is bool (1 bit), x is int (64 bit); combining them should widen
	// b implicitly rather than fail, since implicit casts only widen.
	if err != nil {
		t.Fatalf("implicit widening in a mixed-width expression should succeed: %v", err)
	}
}

package lower

import (
	"fmt"

	"github.com/nevakrien/small-lang/pkg/ast"
	"github.com/nevakrien/small-lang/pkg/ir"
)

// MissingVar is raised when a Var expression names nothing in locals or
// globals.
type MissingVar struct {
	Name string
	Pos  int
}

func (e *MissingVar) Error() string {
	return fmt.Sprintf("undeclared name %q", e.Name)
}

// NotAFunction is raised when a Call's callee does not carry a function
// signature.
type NotAFunction struct {
	Pos int
	Got *ir.Type
}

func (e *NotAFunction) Error() string {
	return fmt.Sprintf("called value has type %s, which is not a function", e.Got)
}

// CantBool is raised when a value cannot be converted to a boolean
// condition (tobool is defined only for integers and pointers).
type CantBool struct {
	Pos int
	Got *ir.Type
}

func (e *CantBool) Error() string {
	return fmt.Sprintf("value of type %s cannot be used as a condition", e.Got)
}

// WrongArgCount is raised when a Call passes a different number of
// arguments than its callee's signature declares.
type WrongArgCount struct {
	Pos  int
	Want int
	Got  int
}

func (e *WrongArgCount) Error() string {
	return fmt.Sprintf("expected %d argument(s), got %d", e.Want, e.Got)
}

// BadType covers every other type mismatch: failed casts, non-lvalue
// operands to '&', non-integer operands to arithmetic, narrowing
// implicit casts, unresolved type names, and the not-yet-implemented
// subscript form. Context names the producing AST construct so the
// message can cite the right thing.
type BadType struct {
	Context  string
	Pos      int
	Expected string
	Got      string
}

func (e *BadType) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("%s: type error (got %s)", e.Context, e.Got)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Context, e.Expected, e.Got)
}

// StatementError is the structural wrapper added once, at the nearest
// enclosing statement, around a failure that originated while lowering
// that statement's own expression(s). Errors already wrapped by a nested
// statement bubble through compound statements (Block/If/While)
// unchanged -- they are not wrapped a second time.
type StatementError struct {
	Stmt  *ast.Stmt
	Inner error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("in statement at byte %d: %s", e.Stmt.Begin, e.Inner)
}

func (e *StatementError) Unwrap() error { return e.Inner }

// GlobalError adds the affected function's name to a failure that
// escaped a Function global's body, so global-level messages include
// the affected function name.
type GlobalError struct {
	FuncName string
	Inner    error
}

func (e *GlobalError) Error() string {
	return fmt.Sprintf("in function %q: %s", e.FuncName, e.Inner)
}

func (e *GlobalError) Unwrap() error { return e.Inner }

package ir

import (
	"fmt"
	"strings"
)

// Decl records a function's name, calling convention and signature. One
// is emitted for every FuncDec global and for every Function definition,
// whose body is recorded separately as a Func.
type Decl struct {
	Name string
	CC   CallConv
	Sig  *Signature
}

// Program is the complete compiled module: every function definition
// plus every forward declaration collected during lowering, ready to be
// handed to a Backend.
type Program struct {
	Name  string
	Funcs []*Func
	Decls []*Decl
}

func NewProgram(name string) *Program {
	return &Program{Name: name}
}

func (p *Program) AddFunc(f *Func)   { p.Funcs = append(p.Funcs, f) }
func (p *Program) AddDecl(d *Decl)    { p.Decls = append(p.Decls, d) }

// Verify performs the structural checks this front end owns before
// handing off to the backend's own verifier: every defined function's
// every block must be terminated, and a definition must exist for
// "main".
func (p *Program) Verify() error {
	haveMain := false
	for _, f := range p.Funcs {
		if f.Name == "main" {
			haveMain = true
		}
		for _, b := range f.blocks {
			if !b.terminated {
				return fmt.Errorf("function %s: block @%s falls off the end without a terminator", f.Name, b.label)
			}
		}
	}
	if !haveMain {
		return fmt.Errorf("module %s has no definition for \"main\"", p.Name)
	}
	return nil
}

// Render produces the full QBE IL text for the module: every function
// definition in declaration order. Forward declarations with no body
// need no QBE text of their own -- QBE resolves calls to an undefined
// global purely by name, same as a C linker would.
func (p *Program) Render() string {
	var sb strings.Builder
	for _, f := range p.Funcs {
		sb.WriteString(f.Render())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Package backend drives the QBE-text IR produced by package ir
// through modernc.org/libqbe to produce assembly, then through the
// system "cc" to assemble, link, and -- for RunMain -- execute the
// result, standing in for an in-process JIT call.
package backend

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nevakrien/small-lang/pkg/ir"
	"modernc.org/libqbe"
)

// Target names the libqbe backend target; empty means "ask libqbe for
// the host default."
type Target struct {
	QBE string
}

// DefaultTarget asks libqbe for the host's own target string, the
// fallback used when no explicit target triple is given.
func DefaultTarget(goos, goarch string) string {
	return libqbe.DefaultTarget(goos, goarch)
}

// Assemble renders prog to QBE IL text and feeds it through libqbe,
// returning the generated assembly.
func Assemble(prog *ir.Program, target string) (*bytes.Buffer, error) {
	qbeIR := prog.Render()
	var asmBuf bytes.Buffer
	if err := libqbe.Main(target, prog.Name+".ssa", strings.NewReader(qbeIR), &asmBuf, nil); err != nil {
		return nil, fmt.Errorf("\n--- QBE compilation failed ---\ngenerated IR:\n%s\n\nlibqbe error: %w", qbeIR, err)
	}
	return &asmBuf, nil
}

// Build assembles prog and links it, via the system "cc", into a
// native executable at outPath. mainSymbol is the QBE-level name the
// program's own "main" function was rendered under; since the output
// binary needs its own C-level main, Build generates a small shim that
// calls mainSymbol and prints its 64-bit result to stdout, which
// RunMain below then parses back out -- the substitute for an
// in-process call that this dependency stack has no cgo/dlopen path
// for.
//
// Every build is tagged with a fresh UUID written into the shim as a
// comment, so two builds of the same source are still distinguishable
// temp artifacts on disk.
func Build(prog *ir.Program, target, outPath string) error {
	asm, err := Assemble(prog, target)
	if err != nil {
		return err
	}

	buildID := uuid.New().String()
	shim := fmt.Sprintf(`// build %s
#include <stdio.h>
extern long %s(void);
int main(void) {
	long result = %s();
	printf("%%ld\n", result);
	return 0;
}
`, buildID, mainSymbol, mainSymbol)

	asmFile, err := os.CreateTemp("", "small-main-*.s")
	if err != nil {
		return fmt.Errorf("failed to create temp file for generated assembly: %w", err)
	}
	defer os.Remove(asmFile.Name())
	if _, err := asmFile.Write(asm.Bytes()); err != nil {
		return fmt.Errorf("failed to write generated assembly: %w", err)
	}
	asmFile.Close()

	shimFile, err := os.CreateTemp("", "small-shim-*.c")
	if err != nil {
		return fmt.Errorf("failed to create temp file for the C shim: %w", err)
	}
	defer os.Remove(shimFile.Name())
	if _, err := shimFile.WriteString(shim); err != nil {
		return fmt.Errorf("failed to write the C shim: %w", err)
	}
	shimFile.Close()

	ccArgs := []string{"-no-pie", "-o", outPath, asmFile.Name(), shimFile.Name()}
	cmd := exec.Command("cc", ccArgs...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc command failed: %w\noutput:\n%s", err, string(output))
	}
	return nil
}

// mainSymbol is the QBE-level name the front end gives the
// user-written small-lang "main" function. It must not collide with
// the shim's own C main, which is why the front end never renders a
// function literally named "main" into the object file -- see
// RenameMain below.
const mainSymbol = "small_main"

// RenameMain is a light, mechanical IR pass: the lowering engine gives
// the user's main function the symbol name "main" (Verify checks for a
// definition under exactly that name), but before assembling we must
// rename it to mainSymbol so it does not collide with the shim's
// C-level main.
func RenameMain(prog *ir.Program) {
	for _, f := range prog.Funcs {
		if f.Name == "main" {
			f.Name = mainSymbol
		}
	}
}

// RunMain builds prog to a temporary executable, runs it, and parses
// its printed result back into an int64 -- the precise 64-bit return
// value of the compiled main, retrieved without truncation through a
// process exit code.
func RunMain(prog *ir.Program, target string) (int64, error) {
	exeFile, err := os.CreateTemp("", "small-exe-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file for the executable: %w", err)
	}
	exePath := exeFile.Name()
	exeFile.Close()
	os.Remove(exePath)
	defer os.Remove(exePath)

	RenameMain(prog)
	if err := Build(prog, target, exePath); err != nil {
		return 0, err
	}

	out, err := exec.Command(exePath).Output()
	if err != nil {
		return 0, fmt.Errorf("running compiled program failed: %w", err)
	}
	result, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("compiled program printed an unparseable result %q: %w", string(out), err)
	}
	return result, nil
}

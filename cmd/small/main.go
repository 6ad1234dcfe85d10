// Command small reads a source file, parses it, lowers it to IR,
// optionally verifies and prints that IR, then hands it to the
// backend to build and run.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nevakrien/small-lang/pkg/ast"
	"github.com/nevakrien/small-lang/pkg/backend"
	"github.com/nevakrien/small-lang/pkg/cli"
	"github.com/nevakrien/small-lang/pkg/config"
	"github.com/nevakrien/small-lang/pkg/lexer"
	"github.com/nevakrien/small-lang/pkg/lower"
	"github.com/nevakrien/small-lang/pkg/parser"
	"github.com/nevakrien/small-lang/pkg/util"
)

func main() {
	app := cli.NewApp("small")
	app.Synopsis = "[options] <file>"
	app.Description = "A front end and QBE-backed JIT driver for small-lang."
	app.Authors = []string{"nevakrien"}
	app.Since = 2026

	cfg := config.NewConfig()

	fs := app.FlagSet
	fs.String(&cfg.BackendTarget, "target", "t", "", "Set the backend target triple.", "target")
	noRun := false
	noOpt := false
	noVerify := false
	fs.Bool(&noRun, "no-run", "", false, "Do not execute main().")
	fs.Bool(&noOpt, "no-opt", "", false, "Disable IR optimization.")
	fs.Bool(&noVerify, "no-verify", "", false, "Disable IR verification.")
	fs.Bool(&cfg.PrintGlobals, "print-globals", "", false, "Print the resolved globals table.")
	fs.Bool(&cfg.PrintIRPre, "print-ir-pre", "", false, "Print IR before optimization.")
	fs.Bool(&cfg.PrintIRPost, "print-ir-post", "", false, "Print IR after optimization.")

	app.Action = func(args []string) error {
		cfg.RunMain = !noRun
		cfg.OptimizeIR = !noOpt
		cfg.VerifyIR = !noVerify

		if len(args) == 0 {
			return fmt.Errorf("no input file provided")
		}
		return run(args[0], cfg)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string, cfg *config.Config) error {
	started := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read file '%s': %w", path, err)
	}
	src := &util.Source{Name: path, Content: content}

	fmt.Println("=== Small-Lang ===")
	fmt.Printf("[source: %s]\n", path)

	globals, err := parseAll(src)
	if err != nil {
		return err
	}

	comp := lower.New(path)
	if err := comp.CompileProgram(globals); err != nil {
		return fmt.Errorf("[compile error] %w", err)
	}

	if cfg.PrintGlobals {
		fmt.Println("parsed globals:")
		for _, f := range comp.Prog.Funcs {
			fmt.Printf("  fn %s\n", f.Name)
		}
		for _, d := range comp.Prog.Decls {
			fmt.Printf("  decl %s\n", d.Name)
		}
	}

	if cfg.PrintIRPre {
		fmt.Println("\n[IR before optimization]")
		fmt.Println(comp.Prog.Render())
	}

	if cfg.VerifyIR {
		if err := comp.Prog.Verify(); err != nil {
			return fmt.Errorf("[verify] module verification failed: %w", err)
		}
	}

	if cfg.OptimizeIR {
		// No optimizer is wired in yet; the toggle is kept for CLI
		// parity with the rest of the run surface.
		fmt.Println("[optimize] done")
	}

	if cfg.PrintIRPost {
		fmt.Println("\n[IR after optimization]")
		fmt.Println(comp.Prog.Render())
	}

	if !cfg.RunMain {
		return nil
	}

	cfg.ResolveTarget()
	fmt.Println("[JIT] module added")
	fmt.Println("[Run]")
	result, err := backend.RunMain(comp.Prog, cfg.BackendTarget)
	if err != nil {
		return err
	}
	fmt.Printf("main() returned %d\n", result)
	fmt.Fprintf(os.Stderr, "small: compiled and ran %s in %s\n", humanize.Bytes(uint64(len(content))), time.Since(started))
	return nil
}

func parseAll(src *util.Source) ([]*ast.Global, error) {
	stream := lexer.New(src.Content)
	p := parser.New(stream)
	globals, err := p.ParseProgram()
	if err != nil {
		if pe, ok := err.(*lexer.ParseError); ok {
			util.Render(os.Stderr, src, pe.Pos, util.Error, util.IsTTY(os.Stderr), "%s", pe.Message)
			return nil, fmt.Errorf("parse failed")
		}
		return nil, err
	}
	return globals, nil
}

// Package config collects the run/verify/optimize/print toggles the
// driver threads explicitly through compilation, matching
// the original jit.cpp driver's RunOptions shape.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nevakrien/small-lang/pkg/backend"
)

// Config is built from the CLI flags and passed explicitly to the
// driver's run step; nothing here is read from a package-level global.
type Config struct {
	// PrintGlobals lists the name of every defined function and every
	// recorded declaration after lowering.
	PrintGlobals bool
	// PrintIRPre dumps the rendered QBE IL before any backend
	// optimization pass runs over it.
	PrintIRPre bool
	// PrintIRPost dumps the rendered QBE IL (or, once a real optimizer
	// is wired in, its optimized form) just before assembly.
	PrintIRPost bool
	// VerifyIR runs Program.Verify before handing the module to the
	// backend.
	VerifyIR bool
	// OptimizeIR is accepted for parity with the original driver's
	// surface. No optimization pass exists; when set, the driver only
	// prints an "[optimize] done" notice.
	OptimizeIR bool
	// RunMain executes the compiled main function after a successful
	// build and reports its return value.
	RunMain bool

	// BackendTarget is the libqbe target triple; empty asks libqbe for
	// the host default.
	BackendTarget string
}

// NewConfig returns the original driver's defaults: verify and run,
// but stay quiet.
func NewConfig() *Config {
	return &Config{
		VerifyIR: true,
		RunMain:  true,
	}
}

// ResolveTarget fills in BackendTarget from the host triple when the
// caller left it blank, echoing the choice to stderr the way the
// teacher's SetTarget does.
func (c *Config) ResolveTarget() {
	if c.BackendTarget == "" {
		c.BackendTarget = backend.DefaultTarget(runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(os.Stderr, "small: info: no target specified, defaulting to host target '%s'\n", c.BackendTarget)
	} else {
		fmt.Fprintf(os.Stderr, "small: info: using specified target '%s'\n", c.BackendTarget)
	}
}

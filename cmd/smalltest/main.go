// Command smalltest is a golden-file integration harness: it compiles
// every small-lang fixture under -dir, runs its main(), and compares
// the returned value against a recorded golden result. With
// -generate-golden it records the current result instead of checking
// it, the same two-mode shape cmd/gtest uses for the rest of this
// codebase's sibling language.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/nevakrien/small-lang/pkg/ast"
	"github.com/nevakrien/small-lang/pkg/backend"
	"github.com/nevakrien/small-lang/pkg/lexer"
	"github.com/nevakrien/small-lang/pkg/lower"
	"github.com/nevakrien/small-lang/pkg/parser"
)

const (
	cRed    = "\033[31m"
	cGreen  = "\033[32m"
	cYellow = "\033[33m"
	cBold   = "\033[1m"
	cNone   = "\033[0m"
)

// Golden is the recorded expectation for one fixture, keyed on the
// fixture's content hash so a golden file silently goes stale -- and
// gets flagged as a mismatch -- the moment its source changes without
// -generate-golden being rerun.
type Golden struct {
	Hash       string `json:"hash"`
	Result     int64  `json:"result,omitempty"`
	CompileErr string `json:"compile_error,omitempty"`
	RunErr     string `json:"run_error,omitempty"`
}

// FileResult is one fixture's outcome, used both for the live terminal
// summary and for the optional JSON report.
type FileResult struct {
	Path   string `json:"path"`
	Passed bool   `json:"passed"`
	Golden Golden `json:"golden"`
	Got    Golden `json:"got"`
	Diff   string `json:"diff,omitempty"`
}

func main() {
	dir := flag.String("dir", "testdata", "directory of .small fixtures")
	generateGolden := flag.Bool("generate-golden", false, "record results instead of checking them")
	target := flag.String("target", "", "backend target triple (empty: host default)")
	jobs := flag.Int("j", 4, "number of fixtures to run concurrently")
	verbose := flag.Bool("v", false, "print every fixture, not just failures")
	output := flag.String("output", "", "write a JSON report to this path")
	flag.Parse()

	files, err := findFixtures(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "smalltest: no .small fixtures found under %s\n", *dir)
		os.Exit(1)
	}
	sort.Strings(files)

	tasks := make(chan string, len(files))
	for _, f := range files {
		tasks <- f
	}
	close(tasks)

	resultsChan := make(chan *FileResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				resultsChan <- runFixture(path, *target, *generateGolden)
			}
		}()
	}
	wg.Wait()
	close(resultsChan)

	var results []*FileResult
	for r := range resultsChan {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	if *output != "" {
		if err := writeJSONReport(*output, results); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	failed := printSummary(results, *verbose)
	if failed > 0 {
		os.Exit(1)
	}
}

func findFixtures(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".small") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func goldenPath(path string) string {
	return strings.TrimSuffix(path, ".small") + ".golden.json"
}

func compileAndRun(path, target string) Golden {
	content, err := os.ReadFile(path)
	if err != nil {
		return Golden{CompileErr: err.Error()}
	}

	hash, err := hashFile(path)
	if err != nil {
		return Golden{CompileErr: err.Error()}
	}
	got := Golden{Hash: hash}

	globals, err := parseFixture(content)
	if err != nil {
		got.CompileErr = err.Error()
		return got
	}

	comp := lower.New(path)
	if err := comp.CompileProgram(globals); err != nil {
		got.CompileErr = err.Error()
		return got
	}

	if err := comp.Prog.Verify(); err != nil {
		got.CompileErr = err.Error()
		return got
	}

	result, err := backend.RunMain(comp.Prog, target)
	if err != nil {
		got.RunErr = err.Error()
		return got
	}
	got.Result = result
	return got
}

func parseFixture(content []byte) ([]*ast.Global, error) {
	stream := lexer.New(content)
	p := parser.New(stream)
	return p.ParseProgram()
}

func runFixture(path, target string, generate bool) *FileResult {
	got := compileAndRun(path, target)
	gp := goldenPath(path)

	if generate {
		if err := writeGolden(gp, got); err != nil {
			return &FileResult{Path: path, Passed: false, Got: got, Diff: err.Error()}
		}
		return &FileResult{Path: path, Passed: true, Golden: got, Got: got}
	}

	want, err := readGolden(gp)
	if err != nil {
		return &FileResult{Path: path, Passed: false, Got: got, Diff: fmt.Sprintf("no golden file (run with -generate-golden): %s", err)}
	}

	diff := cmp.Diff(want, got)
	return &FileResult{Path: path, Passed: diff == "", Golden: want, Got: got, Diff: diff}
}

func readGolden(path string) (Golden, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Golden{}, err
	}
	var g Golden
	if err := json.Unmarshal(data, &g); err != nil {
		return Golden{}, err
	}
	return g, nil
}

func writeGolden(path string, g Golden) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeJSONReport(path string, results []*FileResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printSummary(results []*FileResult, verbose bool) int {
	failed := 0
	for _, r := range results {
		if r.Passed {
			if verbose {
				fmt.Printf("%sPASS%s %s\n", cGreen, cNone, r.Path)
			}
			continue
		}
		failed++
		fmt.Printf("%sFAIL%s %s\n", cRed, cNone, r.Path)
		if r.Diff != "" {
			fmt.Printf("  %s%s%s\n", cYellow, r.Diff, cNone)
		}
	}

	fmt.Println()
	summaryColor := cGreen
	if failed > 0 {
		summaryColor = cRed
	}
	fmt.Printf("%s%s%d/%d passed%s\n", cBold, summaryColor, len(results)-failed, len(results), cNone)
	return failed
}

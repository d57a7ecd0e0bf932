//go:build stave

package main

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

const (
	binary   = "bin/annotext"
	mainPkg  = "./cmd/annotext"
	coverOut = "coverage.out"
	sample   = "testdata/sample.md"
)

// Default target builds the binary.
var Default = Build

var Aliases = map[string]any{
	"b":   Build,
	"t":   Test.Default,
	"l":   Lint.Default,
	"c":   Check,
	"fmt": Lint.Fmt,
}

type (
	Test  st.Namespace
	Lint  st.Namespace
	CI    st.Namespace
	Bench st.Namespace
)

// Build compiles bin/annotext with version information when sources changed.
func Build() error {
	stale, err := target.Dir(binary, "cmd/", "pkg/", "internal/", "go.mod", "go.sum")
	if err != nil {
		return err
	}
	if !stale {
		fmt.Println(binary, "is up to date")
		return nil
	}
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binary, mainPkg)
}

// Install installs annotext into $GOBIN.
func Install() error {
	return sh.RunV("go", "install", "-ldflags", ldflags(), mainPkg)
}

// Check formats, lints, and tests.
func Check() {
	st.SerialDeps(Lint.Fmt, Lint.Default, Test.Default)
}

// Smoke builds the binary and runs it against the sample document with a
// throwaway store.
func Smoke() error {
	st.Deps(Build)

	tmp, err := os.MkdirTemp("", "annotext-smoke")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	doc := filepath.Join(tmp, "sample.md")
	content, err := os.ReadFile(sample)
	if err != nil {
		return err
	}
	if err := os.WriteFile(doc, content, 0o644); err != nil {
		return err
	}

	run := func(args ...string) error {
		return sh.RunV(binary, append(args, "--color", "never")...)
	}
	for _, args := range [][]string{
		{"inspect", doc},
		{"mark", "add", doc, "--match", "the docs"},
		{"edit", doc, "--match", "Second", "--text", "Next"},
		{"mark", "list", doc},
		{"history", doc},
		{"restore", doc},
	} {
		if err := run(args...); err != nil {
			return fmt.Errorf("annotext %s: %w", strings.Join(args, " "), err)
		}
	}
	return nil
}

// Clean removes build and coverage output.
func Clean() error {
	for _, path := range []string{"bin", coverOut, "coverage.html"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}
	return nil
}

// Default runs the tests through gotestsum with the race detector and
// coverage.
func (Test) Default() error {
	procs := cmp.Or(os.Getenv("STAVE_NUM_PROCESSORS"), "4")
	return sh.RunV("go", "tool", "gotestsum",
		"-f", "pkgname-and-test-fails",
		"--", "-race", "-p", procs, "-parallel", procs,
		"-coverprofile="+coverOut, "-covermode=atomic",
		"./...",
	)
}

// Cover writes an HTML coverage report.
func (Test) Cover() error {
	st.Deps(Test.Default)
	return sh.RunV("go", "tool", "cover", "-html="+coverOut, "-o", "coverage.html")
}

// Default runs golangci-lint with fixes.
func (Lint) Default() error {
	return sh.RunV("golangci-lint", "run", "--fix", "./...")
}

// Fmt formats the code.
func (Lint) Fmt() error {
	return sh.RunV("gofmt", "-w", ".")
}

// Default runs the position and diff benchmarks.
func (Bench) Default() error {
	return sh.RunV("go", "test", "-run=^$", "-bench=.", "-benchmem", "./pkg/...")
}

// Gate runs every check CI requires.
func (CI) Gate() error {
	st.SerialDeps(CI.Fmt, CI.Lint, CI.Vet, Build, Test.Default, CI.Tidy)
	return nil
}

// Fmt fails when gofmt would change a file.
func (CI) Fmt() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("unformatted files:\n%s", out)
	}
	return nil
}

// Lint runs golangci-lint without fixes.
func (CI) Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet.
func (CI) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Tidy fails when go mod tidy changes go.mod or go.sum.
func (CI) Tidy() error {
	read := func() ([]byte, error) {
		mod, err := os.ReadFile("go.mod")
		if err != nil {
			return nil, err
		}
		sum, err := os.ReadFile("go.sum")
		return append(mod, sum...), err
	}

	before, err := read()
	if err != nil {
		return err
	}
	if err := sh.RunV("go", "mod", "tidy"); err != nil {
		return err
	}
	after, err := read()
	if err != nil {
		return err
	}
	if !bytes.Equal(before, after) {
		return errors.New("go.mod or go.sum is not tidy")
	}
	return nil
}

func git(args ...string) string {
	out, err := sh.Output("git", args...)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func ldflags() string {
	return fmt.Sprintf("-X main.version=%s -X main.commit=%s -X main.date=%s",
		cmp.Or(git("describe", "--tags", "--always", "--dirty"), "dev"),
		cmp.Or(git("rev-parse", "--short", "HEAD"), "none"),
		time.Now().UTC().Format(time.RFC3339))
}

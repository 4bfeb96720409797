// Command aurac compiles a single C89-subset source file to x86-64 SysV
// assembly text, running internal/compiler's in-process pipeline (spec.md
// §2) behind a cobra root command.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/onecoolx/aurac/internal/compiler"
	"github.com/onecoolx/aurac/internal/diag"
)

var (
	outputFile  string
	verbose     bool
	emitIR      bool
	emitTokens  bool
	emitAST     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aurac <file.c>",
		Short: "Compile a C89-subset source file to x86-64 SysV assembly",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output path (default: input with .s suffix, or stdout for -)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print a one-line summary (function and global counts, elapsed time) to stderr")
	cmd.Flags().BoolVar(&emitIR, "emit-ir", false, "dump the lowered IR instead of assembly and stop")
	cmd.Flags().BoolVar(&emitTokens, "emit-tokens", false, "dump the token stream and stop")
	cmd.Flags().BoolVar(&emitAST, "emit-ast", false, "print one line per parsed top-level declaration and stop")
	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	input := args[0]

	src, err := openInput(input)
	if err != nil {
		return errors.Wrapf(err, "aurac: %s", input)
	}
	defer src.Close()

	if emitTokens || emitAST {
		return runDebugEmit(cmd, input, src)
	}

	start := time.Now()
	result, bag, err := compiler.Compile(src, input)
	if bag != nil {
		reportDiagnostics(cmd, bag)
	}
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "aurac: %s: %d function(s), %d global(s) in %s\n",
			input, len(result.Module.Functions), len(result.Module.Globals), time.Since(start))
	}

	if emitIR {
		dumpIR(cmd, result)
		return nil
	}

	out, err := openOutput(input)
	if err != nil {
		return errors.Wrapf(err, "aurac: %s", input)
	}
	defer out.Close()

	if _, err := fmt.Fprint(out, result.Asm); err != nil {
		return errors.Wrap(err, "aurac: writing output")
	}
	return nil
}

func openInput(path string) (readCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdin}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func openOutput(inputPath string) (writeCloser, error) {
	path := outputFile
	if path == "" {
		path = defaultOutputPath(inputPath)
	}
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// defaultOutputPath maps the stdin input "-" to stdout ("-"); otherwise it
// replaces a trailing ".c" with ".s", or appends ".s" when the input has no
// such suffix — the single implicit output-naming rule spec.md §6 describes.
func defaultOutputPath(inputPath string) string {
	if inputPath == "-" {
		return "-"
	}
	if strings.HasSuffix(inputPath, ".c") {
		return strings.TrimSuffix(inputPath, ".c") + ".s"
	}
	return inputPath + ".s"
}

func reportDiagnostics(cmd *cobra.Command, bag *diag.Bag) {
	for _, d := range bag.Items() {
		fmt.Fprintln(cmd.ErrOrStderr(), d.String())
	}
}

type readCloser interface {
	Read(p []byte) (int, error)
	Close() error
}

type writeCloser interface {
	Write(p []byte) (int, error)
	Close() error
}

type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }

type nopWriteCloser struct{ *os.File }

func (nopWriteCloser) Close() error { return nil }

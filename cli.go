package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func showUsage(w io.Writer) {
	fmt.Fprintf(w, `bgc - semantic analysis and three-address code for bigraph programs

Usage:
    bgc <command> [arguments]

Commands:
    check <file>    Type-check a program and report diagnostics
    tac <file>      Check a program and print its three-address code
    symbols <file>  Print the symbol table built by the checker
    ast <file>      Print the program's AST in normalized form
    help            Show this help message

Examples:
    bgc check prog.bgc
    bgc tac -o prog.tac prog.bgc
    bgc tac -no-check prog.bgc
    bgc symbols -config bgc.yml prog.bgc

Programs are read in s-expression form; see test/*_test.md.
Use "bgc <command> -h" for more information about a command.
`)
}

// session carries what every command needs: output streams, the verbose
// switch and the loaded configuration.
type session struct {
	stdout, stderr io.Writer
	verbose        bool
	config         *Config
}

func (s *session) verbosef(format string, args ...any) {
	if s.verbose {
		fmt.Fprintf(s.stderr, format, args...)
	}
}

// newFlagSet builds a subcommand flag set with the shared -v and -config
// flags.
func newFlagSet(name, usage, summary string, stderr io.Writer) (*flag.FlagSet, *bool, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Show verbose progress on stderr")
	configPath := fs.String("config", "", "Config file (default: bgc.yml next to the input, if present)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bgc %s\n", usage)
		fmt.Fprintf(stderr, "%s\n\n", summary)
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	return fs, verbose, configPath
}

// parseArgs parses a subcommand's flags, requires exactly one file argument
// and loads the configuration. It returns a nil session after reporting any
// problem.
func parseArgs(fs *flag.FlagSet, args []string, verbose *bool, configPath *string, stdout, stderr io.Writer) (*session, string) {
	if err := fs.Parse(args); err != nil {
		return nil, ""
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		return nil, ""
	}
	filename := fs.Arg(0)

	var cfg *Config
	var err error
	if *configPath != "" {
		cfg, err = LoadConfig(*configPath)
	} else {
		cfg, err = FindConfig(filepath.Dir(filename))
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return nil, ""
	}

	s := &session{stdout: stdout, stderr: stderr, verbose: *verbose, config: cfg}
	if cfg.Path != "" {
		s.verbosef("Using configuration %s\n", cfg.Path)
	}
	return s, filename
}

// load reads and decodes a program file.
func (s *session) load(filename string) (*AST, *LiteralTable, bool) {
	s.verbosef("Reading %s...\n", filename)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(s.stderr, "Error reading file %s: %v\n", filename, err)
		return nil, nil, false
	}
	ast, lits, err := DecodeProgram(string(source))
	if err != nil {
		fmt.Fprintf(s.stderr, "Error decoding %s: %v\n", filename, err)
		return nil, nil, false
	}
	s.verbosef("Decoded %d nodes, %d literals\n", len(ast.Nodes)-1, lits.Len())
	return ast, lits, true
}

// check runs the type checker and prints its diagnostics to stderr.
func (s *session) check(filename string, ast *AST, lits *LiteralTable) (*SymbolTable, *Diagnostics) {
	s.verbosef("Checking %s...\n", filename)
	symbols, diags := CheckProgram(ast, lits, s.config.Builtins)
	if diags.HasErrors() {
		fmt.Fprintf(s.stderr, "Errors in %s:\n%s\n", filename, diags.String())
	}
	s.verbosef("%d symbols, %d diagnostics\n", symbols.Len(), diags.Len())
	return symbols, diags
}

func checkCommand(args []string, stdout, stderr io.Writer) int {
	fs, verbose, configPath := newFlagSet("check", "check [-v] [-config file] <file>",
		"Type-check a program and report diagnostics", stderr)
	s, filename := parseArgs(fs, args, verbose, configPath, stdout, stderr)
	if s == nil {
		return 1
	}

	ast, lits, ok := s.load(filename)
	if !ok {
		return 1
	}
	symbols, diags := s.check(filename, ast, lits)
	if s.config.PrintSymbols {
		fmt.Fprint(stdout, symbols.Dump())
	}
	if diags.HasErrors() {
		return 1
	}
	fmt.Fprintf(stdout, "%s: no errors found\n", filename)
	return 0
}

func tacCommand(args []string, stdout, stderr io.Writer) int {
	fs, verbose, configPath := newFlagSet("tac", "tac [-o output] [-v] [-config file] [-no-check] <file>",
		"Check a program and print its three-address code", stderr)
	output := fs.String("o", "", "Output file path (default: stdout)")
	noCheck := fs.Bool("no-check", false, "Skip type checking")
	s, filename := parseArgs(fs, args, verbose, configPath, stdout, stderr)
	if s == nil {
		return 1
	}

	ast, lits, ok := s.load(filename)
	if !ok {
		return 1
	}
	if !*noCheck {
		_, diags := s.check(filename, ast, lits)
		if diags.HasErrors() && s.config.FailOnDiagnostics {
			return 1
		}
	}

	s.verbosef("Generating code...\n")
	var buf bytes.Buffer
	if err := GenerateTo(&buf, ast, lits); err != nil {
		fmt.Fprintf(stderr, "Code generation failed: %v\n", err)
		return 1
	}

	if *output == "" {
		stdout.Write(buf.Bytes())
		return 0
	}
	if err := os.WriteFile(*output, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(stderr, "Error writing %s: %v\n", *output, err)
		return 1
	}
	fmt.Fprintf(stdout, "Generated %s (%d bytes)\n", *output, buf.Len())
	return 0
}

func symbolsCommand(args []string, stdout, stderr io.Writer) int {
	fs, verbose, configPath := newFlagSet("symbols", "symbols [-v] [-config file] <file>",
		"Print the symbol table built by the checker", stderr)
	s, filename := parseArgs(fs, args, verbose, configPath, stdout, stderr)
	if s == nil {
		return 1
	}

	ast, lits, ok := s.load(filename)
	if !ok {
		return 1
	}
	symbols, _ := s.check(filename, ast, lits)
	fmt.Fprint(stdout, symbols.Dump())
	return 0
}

func astCommand(args []string, stdout, stderr io.Writer) int {
	fs, verbose, configPath := newFlagSet("ast", "ast [-v] <file>",
		"Print the program's AST in normalized form", stderr)
	s, filename := parseArgs(fs, args, verbose, configPath, stdout, stderr)
	if s == nil {
		return 1
	}

	ast, lits, ok := s.load(filename)
	if !ok {
		return 1
	}
	fmt.Fprintln(stdout, ToSExpr(ast, lits, ast.Root))
	return 0
}

// run dispatches a command line (without the program name) and returns the
// process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		showUsage(stderr)
		return 1
	}

	command, rest := args[0], args[1:]
	switch command {
	case "check":
		return checkCommand(rest, stdout, stderr)
	case "tac":
		return tacCommand(rest, stdout, stderr)
	case "symbols":
		return symbolsCommand(rest, stdout, stderr)
	case "ast":
		return astCommand(rest, stdout, stderr)
	case "help", "-h", "--help":
		showUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", command)
		showUsage(stderr)
		return 1
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

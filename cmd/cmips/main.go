// Command cmips compiles a source file (or standard input) to MIPS assembly.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"cmips/pkg/codegen"
	"cmips/pkg/config"
	"cmips/pkg/diag"
	"cmips/pkg/lexer"
	"cmips/pkg/parser"
	"cmips/pkg/token"
)

const projectFile = "cmips.toml"

var (
	outFile    = flag.String("o", "", "place the output assembly into `file`")
	tokensFile = flag.String("tokens", "", "write the token stream to `file`")
	dumpAST    = flag.String("ast", "", "write the parse tree to `file` ('-' for stdout)")
	warnShadow = flag.Bool("Wshadow", false, "warn when a declaration shadows an outer binding")
	noDivZero  = flag.Bool("Wno-div-zero", false, "suppress the constant division-by-zero warning")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: cmips [options] [input.mc]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.NewConfig()
	if err := cfg.LoadProjectFile(projectFile); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	if *warnShadow {
		cfg.SetWarning(config.WarnShadow, true)
	}
	if *noDivZero {
		cfg.SetWarning(config.WarnDivZero, false)
	}
	if *outFile != "" {
		cfg.OutFile = *outFile
	}

	name, source, err := readSource()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	reporter := diag.NewReporter()
	reporter.AddSource(name, source)
	fail := func(err error) {
		if ce, ok := err.(*diag.Error); ok {
			reporter.Report(ce.Loc, diag.SeverityError, ce.Msg)
		} else {
			pterm.Error.Println(err)
		}
		os.Exit(1)
	}

	tokens, err := lexer.New(source, name).Tokenize()
	if err != nil {
		fail(err)
	}
	if *tokensFile != "" {
		if err := writeTokenTrace(*tokensFile, tokens); err != nil {
			fail(err)
		}
	}

	prog, err := parser.New(tokens).Parse()
	if err != nil {
		fail(err)
	}
	if *dumpAST != "" {
		if err := writeOutput(*dumpAST, prog.Dump()); err != nil {
			fail(err)
		}
	}

	asm, err := codegen.Compile(prog, cfg, reporter.Report)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	if err := os.WriteFile(cfg.OutFile, []byte(asm), 0o644); err != nil {
		fail(err)
	}
	pterm.Success.Printfln("wrote %s", cfg.OutFile)
}

func readSource() (string, string, error) {
	if flag.NArg() == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return "<stdin>", string(data), nil
	}
	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return path, string(data), nil
}

func writeTokenTrace(path string, tokens []token.Token) error {
	var sb strings.Builder
	for _, tok := range tokens {
		fmt.Fprintf(&sb, "%d:%d\t%s", tok.Loc.Line, tok.Loc.Column, tok.Type)
		if tok.Value != "" {
			fmt.Fprintf(&sb, "\t%q", tok.Value)
		}
		sb.WriteByte('\n')
	}
	return writeOutput(path, sb.String())
}

func writeOutput(path, content string) error {
	if path == "-" {
		_, err := os.Stdout.WriteString(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

package diag

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"cmips/pkg/token"
)

var (
	errorStyle = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	warnStyle  = pterm.NewStyle(pterm.FgYellow, pterm.Bold)
	caretStyle = pterm.NewStyle(pterm.FgGreen)
)

// Reporter prints diagnostics to stderr in the classic file:line:col form,
// with a caret-underlined source excerpt when the offending file is known.
type Reporter struct {
	sources map[string][]string
	Count   map[string]int
}

func NewReporter() *Reporter {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		pterm.DisableColor()
	}
	return &Reporter{sources: make(map[string][]string), Count: make(map[string]int)}
}

// AddSource registers file content so excerpts can be shown for it.
func (r *Reporter) AddSource(name, content string) {
	r.sources[name] = strings.Split(content, "\n")
}

// Report satisfies Handler.
func (r *Reporter) Report(loc token.Location, severity, message string) {
	r.Count[severity]++
	style := errorStyle
	if severity == SeverityWarning {
		style = warnStyle
	}
	fmt.Fprintf(os.Stderr, "%s: %s %s\n", loc, style.Sprint(severity+":"), message)
	r.printExcerpt(loc)
}

func (r *Reporter) printExcerpt(loc token.Location) {
	lines, ok := r.sources[loc.File]
	if !ok || loc.Line < 1 || loc.Line > len(lines) {
		return
	}
	line := strings.ReplaceAll(lines[loc.Line-1], "\t", "    ")
	fmt.Fprintf(os.Stderr, "  %s\n", line)

	width := 1
	if loc.EndLine == loc.Line && loc.EndColumn > loc.Column {
		width = loc.EndColumn - loc.Column + 1
	}
	pad := strings.Repeat(" ", loc.Column-1)
	marker := "^"
	if width > 1 {
		marker += strings.Repeat("~", width-1)
	}
	fmt.Fprintf(os.Stderr, "  %s%s\n", pad, caretStyle.Sprint(marker))
}

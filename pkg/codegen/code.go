package codegen

import (
	"fmt"
	"strings"
)

// Code is the append-only output fragment every emitter produces: a text
// section (instructions, tab-indented) and a data section (labels and
// directives). Fragments concatenate in emission order.
type Code struct {
	text []string
	data []string
}

// Ins appends a tab-indented instruction to the text section.
func (c *Code) Ins(format string, args ...any) {
	c.text = append(c.text, "\t"+fmt.Sprintf(format, args...))
}

// Label appends a label definition to the text section.
func (c *Code) Label(name string) {
	c.text = append(c.text, name+":")
}

// Raw appends an unindented line (directives, blank separators) to the text
// section.
func (c *Code) Raw(line string) {
	c.text = append(c.text, line)
}

// Data appends a line to the data section.
func (c *Code) Data(format string, args ...any) {
	c.data = append(c.data, fmt.Sprintf(format, args...))
}

// Append concatenates another fragment onto this one, section by section.
func (c *Code) Append(other Code) {
	c.text = append(c.text, other.text...)
	c.data = append(c.data, other.data...)
}

// Text renders the text section.
func (c *Code) Text() string {
	if len(c.text) == 0 {
		return ""
	}
	return strings.Join(c.text, "\n") + "\n"
}

// DataSection renders the data section.
func (c *Code) DataSection() string {
	if len(c.data) == 0 {
		return ""
	}
	return strings.Join(c.data, "\n") + "\n"
}

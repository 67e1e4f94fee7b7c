package token

import "fmt"

// Location is a source span: a file name plus inclusive start and end
// line/column coordinates. Lines and columns are 1-based.
type Location struct {
	File      string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

func At(file string, line, col, length int) Location {
	end := col + length - 1
	if length <= 0 {
		end = col
	}
	return Location{File: file, Line: line, Column: col, EndLine: line, EndColumn: end}
}

// Merge composes two spans by taking the minimum start and the maximum end.
// Zero-valued locations are ignored so synthesized nodes do not drag the
// span back to line 0.
func (l Location) Merge(other Location) Location {
	if l.Line == 0 {
		return other
	}
	if other.Line == 0 {
		return l
	}
	out := l
	if other.Line < out.Line || (other.Line == out.Line && other.Column < out.Column) {
		out.Line, out.Column = other.Line, other.Column
	}
	if other.EndLine > out.EndLine || (other.EndLine == out.EndLine && other.EndColumn > out.EndColumn) {
		out.EndLine, out.EndColumn = other.EndLine, other.EndColumn
	}
	return out
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Package debug produces readable dumps of document and visual trees.
package debug

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines, one line per tree node or node
// property.
type TreeWriter struct {
	sb     strings.Builder
	indent string
	lines  int
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{indent: "  "}
}

// SetIndent changes string used for a single level of depth.
func (tw *TreeWriter) SetIndent(indent string) {
	tw.indent = indent
}

func (tw *TreeWriter) String() string {
	return tw.sb.String()
}

// Lines returns number of lines written so far.
func (tw *TreeWriter) Lines() int {
	return tw.lines
}

// WriteTo writes accumulated dump to w.
func (tw *TreeWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, tw.sb.String())
	return int64(n), err
}

func (tw *TreeWriter) prefix(depth int) {
	tw.sb.WriteString(strings.Repeat(tw.indent, max(depth, 0)))
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.prefix(depth)
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
	tw.lines++
}

// TextBlock writes labeled text value, value is quoted so that whitespace
// and control characters stay visible.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.prefix(depth)
	tw.sb.WriteString(label)
	tw.sb.WriteString(": ")
	tw.sb.WriteString(encodeText(value))
	tw.sb.WriteByte('\n')
	tw.lines++
}

// encodeText quotes value escaping only non-graphic runes, printable text
// including non-breaking spaces is kept as is.
func encodeText(value string) string {
	return strconv.QuoteToGraphic(value)
}

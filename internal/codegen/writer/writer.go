// Package writer builds indented source text line by line.
package writer

import (
	"fmt"
	"strings"
)

// Writer accumulates generated text, prefixing every line with the current indentation
type Writer struct {
	sb      strings.Builder
	indent  string
	level   int
	atStart bool
}

// New creates a writer that indents with the given unit, e.g. "  " or "\t"
func New(indent string) *Writer {
	return &Writer{indent: indent, atStart: true}
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.level++
}

// Dedent decreases the indentation level; it stops at zero
func (w *Writer) Dedent() {
	if w.level > 0 {
		w.level--
	}
}

// Level returns the current indentation level
func (w *Writer) Level() int {
	return w.level
}

// Write appends s to the current line
func (w *Writer) Write(s string) {
	if s == "" {
		return
	}
	if w.atStart {
		w.sb.WriteString(strings.Repeat(w.indent, w.level))
		w.atStart = false
	}
	w.sb.WriteString(s)
}

// Writef appends a formatted string to the current line
func (w *Writer) Writef(format string, args ...any) {
	w.Write(fmt.Sprintf(format, args...))
}

// Line writes s and ends the line
func (w *Writer) Line(s string) {
	w.Write(s)
	w.Newline()
}

// Linef writes a formatted line
func (w *Writer) Linef(format string, args ...any) {
	w.Writef(format, args...)
	w.Newline()
}

// Newline ends the current line. Empty lines carry no indentation.
func (w *Writer) Newline() {
	w.sb.WriteByte('\n')
	w.atStart = true
}

// Blank separates sections with one empty line, never more
func (w *Writer) Blank() {
	s := w.sb.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if !w.atStart {
		w.Newline()
	}
	w.Newline()
}

// Block writes "header {", the indented body and the closing brace
func (w *Writer) Block(header string, body func()) {
	w.Line(header + " {")
	w.Indent()
	body()
	w.Dedent()
	w.Line("}")
}

// Comment writes each line of text as a // comment; blank text writes nothing
func (w *Writer) Comment(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			w.Line("//")
			continue
		}
		w.Line("// " + line)
	}
}

// String returns the text written so far
func (w *Writer) String() string {
	return w.sb.String()
}

// Reset discards all text and indentation
func (w *Writer) Reset() {
	w.sb.Reset()
	w.level = 0
	w.atStart = true
}

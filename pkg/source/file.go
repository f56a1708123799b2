package source

import (
	"fmt"
	"os"
	"sort"
)

// ReadFiles reads each of the named DSDL definition files from disk and
// wraps them as Files, or returns the first error encountered.
func ReadFiles(paths ...string) ([]File, error) {
	files := make([]File, len(paths))

	for i, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}

		files[i] = *NewFile(p, raw)
	}

	return files, nil
}

// File is a single DSDL definition file's text, held as runes so that a
// Span indexes consistently regardless of multi-byte UTF-8 sequences. The
// offset of every line start is precomputed once at construction so that
// later lookups (FindFirstEnclosingLine) don't rescan the whole file.
type File struct {
	path       string
	contents   []rune
	lineStarts []int
}

// NewFile wraps a file's path and raw bytes as a File.
func NewFile(path string, raw []byte) *File {
	contents := []rune(string(raw))

	starts := []int{0}

	for i, r := range contents {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}

	return &File{path, contents, starts}
}

// Path returns the path this file was read from.
func (f *File) Path() string { return f.path }

// Contents returns the file's full text.
func (f *File) Contents() []rune { return f.contents }

// Lines splits the file into its physical lines, excluding line-terminating
// `\n` runes, for a builder to process one statement at a time.
func (f *File) Lines() [][]rune {
	lines := make([][]rune, 0, len(f.lineStarts))

	for i, start := range f.lineStarts {
		end := len(f.contents)
		if i+1 < len(f.lineStarts) {
			end = f.lineStarts[i+1] - 1
		}

		lines = append(lines, f.contents[start:end])
	}

	return lines
}

// Line describes one physical line of a File: its 1-based number and the
// span of text it occupies.
type Line struct {
	text   []rune
	span   Span
	number int
}

// String returns this line's text.
func (l Line) String() string { return string(l.text[l.span.start:l.span.end]) }

// Number returns this line's 1-based line number.
func (l Line) Number() int { return l.number }

// FindFirstEnclosingLine returns the first physical line enclosing the
// start of span, via a binary search over the precomputed line-start
// offsets. A position beyond the end of the file resolves to the final
// line; a span crossing multiple lines is not guaranteed to be fully
// enclosed by the returned line.
func (f *File) FindFirstEnclosingLine(span Span) Line {
	num := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > span.start
	})
	if num == 0 {
		num = 1
	}

	idx := num - 1

	end := len(f.contents)
	if idx+1 < len(f.lineStarts) {
		end = f.lineStarts[idx+1] - 1
	}

	return Line{f.contents, Span{f.lineStarts[idx], end}, idx + 1}
}

// LineOf returns the 1-based line number on which the start of span falls.
func (f *File) LineOf(span Span) int { return f.FindFirstEnclosingLine(span).Number() }

// SyntaxError anchors a reported problem to a span of this file.
func (f *File) SyntaxError(span Span, msg string) *SyntaxError {
	return &SyntaxError{f, span, msg}
}

// SyntaxError is a lexical or grammatical error anchored to a span of the
// file it was raised against.
type SyntaxError struct {
	file *File
	span Span
	msg  string
}

// File returns the file this error was raised against.
func (e *SyntaxError) File() *File { return e.file }

// Span returns the span of text this error covers.
func (e *SyntaxError) Span() Span { return e.span }

// Message returns the human-readable message to report.
func (e *SyntaxError) Message() string { return e.msg }

// Line returns the 1-based line number this error is anchored on.
func (e *SyntaxError) Line() int { return e.file.LineOf(e.span) }

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.file.Path(), e.Line(), e.msg)
}

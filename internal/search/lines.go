package search

import (
	"bufio"
	"bytes"
	"io"
	"sort"
	"unicode/utf8"
)

// DefaultMaxLineSize bounds the length of a single line in line mode.
const DefaultMaxLineSize = 8 * 1024 * 1024

// ScanLinesWithTerminator is a bufio.SplitFunc returning each line together
// with its terminator. "\n", "\r" and "\r\n" each end a line.
func ScanLinesWithTerminator(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i+1], nil
		}
		// a lone \r at the end of the buffer may be half of \r\n
		if i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		if i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i+2], nil
		}
		return i + 1, data[:i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// trimTerminator strips a trailing line terminator.
func trimTerminator(line []byte) []byte {
	switch {
	case bytes.HasSuffix(line, []byte("\r\n")):
		return line[:len(line)-2]
	case bytes.HasSuffix(line, []byte("\n")), bytes.HasSuffix(line, []byte("\r")):
		return line[:len(line)-1]
	}
	return line
}

// Line is one line of decoded content.
type Line struct {
	Number int // 1-based
	Offset int // byte offset of the line start in the content
	Text   string
}

// LineReader iterates the lines of a reader without holding more than one
// line in memory.
type LineReader struct {
	sc     *bufio.Scanner
	line   Line
	offset int
}

// NewLineReader creates a LineReader; maxLineSize <= 0 uses
// DefaultMaxLineSize.
func NewLineReader(r io.Reader, maxLineSize int) *LineReader {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}
	initial := 64 * 1024
	if maxLineSize < initial {
		initial = maxLineSize
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initial), maxLineSize)
	sc.Split(ScanLinesWithTerminator)
	return &LineReader{sc: sc}
}

// Next advances to the next line.
func (lr *LineReader) Next() bool {
	if !lr.sc.Scan() {
		return false
	}
	token := lr.sc.Bytes()
	lr.line = Line{
		Number: lr.line.Number + 1,
		Offset: lr.offset,
		Text:   string(trimTerminator(token)),
	}
	lr.offset += len(token)
	return true
}

// Line returns the current line.
func (lr *LineReader) Line() Line { return lr.line }

// Err returns the first non-EOF error, bufio.ErrTooLong included.
func (lr *LineReader) Err() error { return lr.sc.Err() }

// LineIndex maps byte offsets of a text held in memory to line and column.
type LineIndex struct {
	text   string
	starts []int
	ends   []int // end of line content, excluding the terminator
}

// NewLineIndex builds the index for text.
func NewLineIndex(text string) *LineIndex {
	idx := &LineIndex{text: text, starts: []int{0}}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			idx.ends = append(idx.ends, i)
			idx.starts = append(idx.starts, i+1)
		case '\r':
			idx.ends = append(idx.ends, i)
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			idx.starts = append(idx.starts, i+1)
		}
	}
	idx.ends = append(idx.ends, len(text))
	// content ending with a terminator has no extra empty line
	if last := len(idx.starts) - 1; last > 0 && idx.starts[last] == len(text) {
		idx.starts = idx.starts[:last]
		idx.ends = idx.ends[:last]
	}
	return idx
}

// Count is the number of lines.
func (idx *LineIndex) Count() int {
	if idx.text == "" {
		return 0
	}
	return len(idx.starts)
}

// Position returns the 1-based line and column of a byte offset. The column
// counts characters, not bytes.
func (idx *LineIndex) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(idx.text) {
		offset = len(idx.text)
	}
	i := sort.Search(len(idx.starts), func(i int) bool { return idx.starts[i] > offset }) - 1
	return i + 1, utf8.RuneCountInString(idx.text[idx.starts[i]:offset]) + 1
}

// Line returns the n-th line (1-based) without its terminator.
func (idx *LineIndex) Line(n int) Line {
	if n < 1 || n > len(idx.starts) {
		return Line{}
	}
	start := idx.starts[n-1]
	return Line{Number: n, Offset: start, Text: idx.text[start:idx.ends[n-1]]}
}

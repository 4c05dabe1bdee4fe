package search

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/standardbeagle/lsr/internal/errors"
)

// Source supplies content to scan.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads a file from disk.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return f.Path }

func (f FileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.NewFileError("open", f.Path, err)
	}
	return file, nil
}

// StringSource serves in-memory content.
type StringSource struct {
	Label   string
	Content string
}

func (s StringSource) Name() string { return s.Label }

func (s StringSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Content)), nil
}

// FileSources wraps paths as sources.
func FileSources(paths []string) []Source {
	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = FileSource{Path: p}
	}
	return sources
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// isUTF8Name reports whether name selects the pass-through UTF-8 path.
func isUTF8Name(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// LookupEncoding resolves a WHATWG encoding label such as "latin1" or
// "shift_jis". The empty label means UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if isUTF8Name(name) {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// NewDecodingReader decodes r to UTF-8. A byte order mark selects the
// matching Unicode decoding and is dropped. UTF-8 input is passed through
// untouched, invalid sequences included, so offsets match the file bytes.
func NewDecodingReader(r io.Reader, encodingName string) (io.Reader, error) {
	if isUTF8Name(encodingName) {
		return transform.NewReader(r, unicode.BOMOverride(transform.Nop)), nil
	}
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// DecodeBytes decodes raw file content to UTF-8 text.
func DecodeBytes(raw []byte, encodingName string) (string, error) {
	r, err := NewDecodingReader(bytes.NewReader(raw), encodingName)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeText converts text back to the encoding raw was read with. A byte
// order mark present in raw is restored.
func EncodeText(text string, raw []byte, encodingName string) ([]byte, error) {
	var enc encoding.Encoding
	switch {
	case isUTF8Name(encodingName) && bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case isUTF8Name(encodingName) && bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case isUTF8Name(encodingName):
		if bytes.HasPrefix(raw, utf8BOM) {
			return append(append([]byte(nil), utf8BOM...), text...), nil
		}
		return []byte(text), nil
	default:
		var err error
		if enc, err = LookupEncoding(encodingName); err != nil {
			return nil, err
		}
	}
	out, err := enc.NewEncoder().String(text)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// ReadAsText reads the whole source as decoded text.
func ReadAsText(src Source, encodingName string) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	r, err := NewDecodingReader(rc, encodingName)
	if err != nil {
		return "", errors.NewFileError("decode", src.Name(), err).WithType(errors.ErrorTypeEncoding)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.NewFileError("read", src.Name(), err)
	}
	return string(data), nil
}

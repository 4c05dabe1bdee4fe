package files

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sniffLen is how much of a file is inspected for binary content.
const sniffLen = 512

// BinaryDetector tells text files from binary ones so searches skip images,
// archives and executables.
type BinaryDetector struct {
	binaryExtensions map[string]bool
}

// NewBinaryDetector creates a detector with the built-in extension table.
func NewBinaryDetector() *BinaryDetector {
	extensions := map[string]bool{
		// fonts
		".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
		// images
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
		".ico": true, ".webp": true, ".tiff": true, ".tif": true,
		".svg": false,
		// archives
		".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true,
		".7z": true, ".rar": true, ".jar": true, ".zst": true,
		// executables and objects
		".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true,
		".o": true, ".obj": true, ".bin": true, ".wasm": true,
		// media
		".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
		".flac": true, ".ogg": true, ".mkv": true,
		// office documents
		".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
		".ppt": true, ".pptx": true,
		// databases and bytecode
		".db": true, ".sqlite": true, ".sqlite3": true,
		".pyc": true, ".pyo": true, ".class": true, ".pickle": true, ".pkl": true,
	}
	return &BinaryDetector{binaryExtensions: extensions}
}

// IsBinaryByExtension checks the file name only.
func (bd *BinaryDetector) IsBinaryByExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	return bd.binaryExtensions[ext]
}

var magicNumbers = [][]byte{
	{0x1F, 0x8B},             // gzip
	{0x50, 0x4B, 0x03, 0x04}, // zip
	{0x50, 0x4B, 0x05, 0x06}, // empty zip
	{0x89, 0x50, 0x4E, 0x47}, // png
	{0xFF, 0xD8, 0xFF},       // jpeg
	{0x47, 0x49, 0x46, 0x38}, // gif
	{0x25, 0x50, 0x44, 0x46}, // pdf
	{0x7F, 0x45, 0x4C, 0x46}, // elf
	{0xCA, 0xFE, 0xBA, 0xBE}, // mach-o fat / java class
	{0x77, 0x4F, 0x46, 0x46}, // woff
	{0x77, 0x4F, 0x46, 0x32}, // woff2
}

// IsBinaryContent inspects the first bytes of a file. UTF-16 text with a
// byte order mark is text even though it is full of NUL bytes.
func (bd *BinaryDetector) IsBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}
	if bytes.HasPrefix(sample, []byte{0xFF, 0xFE}) || bytes.HasPrefix(sample, []byte{0xFE, 0xFF}) {
		return false
	}
	for _, magic := range magicNumbers {
		if bytes.HasPrefix(sample, magic) {
			return true
		}
	}

	nullBytes, nonPrintable := 0, 0
	for _, b := range sample {
		if b == 0 {
			nullBytes++
		}
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != '\f' && b != '\v' {
			nonPrintable++
		}
	}
	if nullBytes > len(sample)/100 {
		return true
	}
	return nonPrintable > len(sample)*30/100
}

// IsBinaryFile checks the extension, then sniffs the file head.
func (bd *BinaryDetector) IsBinaryFile(path string) (bool, error) {
	if bd.IsBinaryByExtension(path) {
		return true, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return bd.IsBinaryContent(buf[:n]), nil
}

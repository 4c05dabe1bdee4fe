package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/standardbeagle/lsr/internal/casing"
	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/errors"
	"github.com/standardbeagle/lsr/internal/pattern"
)

// ReplaceOptions configures a Replacer.
type ReplaceOptions struct {
	// PreserveCase re-cases each replacement to follow the matched text.
	PreserveCase bool
	Encoding     string
}

// Replacer rewrites matches of a compiled pattern.
//
// In regexp mode the replacement is a template: $1 and ${name} refer to
// capture groups, and when the template uses \1 style references those are
// converted first. Literal and basic modes insert the replacement verbatim.
type Replacer struct {
	pattern     *pattern.CompiledPattern
	replacement string
	template    string
	expand      bool
	opts        ReplaceOptions
}

// NewReplacer creates a replacer.
func NewReplacer(p *pattern.CompiledPattern, replacement string, opts ReplaceOptions) *Replacer {
	r := &Replacer{
		pattern:     p,
		replacement: replacement,
		template:    replacement,
		opts:        opts,
	}
	if p.MatchType == pattern.Regexp {
		r.expand = true
		if pattern.UsesBackreferenceSyntax(replacement) {
			r.template = ConvertBackreferences(replacement)
		}
	}
	return r
}

// ConvertBackreferences rewrites \N group references to ${N}. \\ becomes a
// backslash, \$ a literal dollar, \n and \t a newline and a tab; other
// escapes are kept as written. A dollar that does not start a $name or
// ${name} reference is doubled so regexp.Expand keeps it.
func ConvertBackreferences(template string) string {
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c == '$' {
			if i+1 < len(template) && (template[i+1] == '{' || isGroupNameByte(template[i+1])) {
				sb.WriteByte('$')
				continue
			}
			sb.WriteString("$$")
			continue
		}
		if c != '\\' || i+1 == len(template) {
			sb.WriteByte(c)
			continue
		}
		next := template[i+1]
		switch {
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(template) && template[j] >= '0' && template[j] <= '9' {
				j++
			}
			sb.WriteString("${" + template[i+1:j] + "}")
			i = j - 1
			continue
		case next == '\\':
			sb.WriteByte('\\')
		case next == '$':
			sb.WriteString("$$")
		case next == 'n':
			sb.WriteByte('\n')
		case next == 't':
			sb.WriteByte('\t')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(next)
		}
		i++
	}
	return sb.String()
}

func isGroupNameByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Replacement computes the text replacing m within text.
func (r *Replacer) Replacement(text string, m pattern.Match) string {
	out := r.replacement
	if r.expand && r.pattern.Regexp() != nil {
		out = string(r.pattern.Regexp().ExpandString(nil, r.template, text, m.Groups))
	}
	if r.opts.PreserveCase {
		out = casing.AdaptCase(out, text[m.Start:m.End])
	}
	return out
}

// ReplaceAll replaces every match in content and returns the new content
// and the number of replacements. Single-line patterns are applied line by
// line so results agree with the line mode scanner.
func (r *Replacer) ReplaceAll(content string) (string, int) {
	if r.pattern.Multiline {
		return r.replaceIn(content)
	}

	var sb strings.Builder
	count := 0
	idx := NewLineIndex(content)
	last := 0
	for n := 1; n <= idx.Count(); n++ {
		line := idx.Line(n)
		replaced, c := r.replaceIn(line.Text)
		if c == 0 {
			continue
		}
		sb.WriteString(content[last:line.Offset])
		sb.WriteString(replaced)
		last = line.Offset + len(line.Text)
		count += c
	}
	if count == 0 {
		return content, 0
	}
	sb.WriteString(content[last:])
	return sb.String(), count
}

func (r *Replacer) replaceIn(text string) (string, int) {
	var sb strings.Builder
	last := 0
	count := 0
	r.pattern.Each(text, func(m pattern.Match) bool {
		sb.WriteString(text[last:m.Start])
		sb.WriteString(r.Replacement(text, m))
		last = m.End
		count++
		return true
	})
	if count == 0 {
		return text, 0
	}
	sb.WriteString(text[last:])
	return sb.String(), count
}

// Preview renders a line oriented diff of a change.
func Preview(path, oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", path, path)
	oldLine, newLine := 1, 1
	inHunk := false
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		n := strings.Count(d.Text, "\n")
		if !strings.HasSuffix(d.Text, "\n") {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			oldLine += n
			newLine += n
			inHunk = false
			continue
		case diffmatchpatch.DiffDelete:
			if !inHunk {
				fmt.Fprintf(&sb, "@@ -%d +%d @@\n", oldLine, newLine)
				inHunk = true
			}
			for _, l := range strings.Split(text, "\n") {
				sb.WriteString("-" + l + "\n")
			}
			oldLine += n
		case diffmatchpatch.DiffInsert:
			if !inHunk {
				fmt.Fprintf(&sb, "@@ -%d +%d @@\n", oldLine, newLine)
				inHunk = true
			}
			for _, l := range strings.Split(text, "\n") {
				sb.WriteString("+" + l + "\n")
			}
			newLine += n
		}
	}
	return sb.String()
}

// FileChange describes the replacement done, or planned, in one file.
type FileChange struct {
	Path         string `json:"path"`
	Replacements int    `json:"replacements"`
	Diff         string `json:"diff,omitempty"`
	Applied      bool   `json:"applied"`
}

// Plan computes the change for one searched file without writing it.
func (r *Replacer) Plan(fr FileResult) (FileChange, string, []byte, error) {
	raw, err := os.ReadFile(fr.Path)
	if err != nil {
		return FileChange{}, "", nil, errors.NewFileError("read", fr.Path, err)
	}
	if actual := xxhash.Sum64(raw); fr.Fingerprint != 0 && actual != fr.Fingerprint {
		return FileChange{}, "", nil, errors.NewReplaceConflictError(fr.Path, fr.Fingerprint, actual)
	}
	content, err := DecodeBytes(raw, r.opts.Encoding)
	if err != nil {
		return FileChange{}, "", nil, errors.NewFileError("decode", fr.Path, err).WithType(errors.ErrorTypeEncoding)
	}
	updated, n := r.ReplaceAll(content)
	change := FileChange{Path: fr.Path, Replacements: n}
	if n > 0 {
		change.Diff = Preview(fr.Path, content, updated)
	}
	return change, updated, raw, nil
}

// Apply rewrites every file with matches. A file modified since it was
// searched is skipped with a ReplaceConflictError. Files are replaced
// atomically through a temporary file in the same directory.
func (r *Replacer) Apply(ctx context.Context, results []FileResult, dryRun bool) ([]FileChange, error) {
	var changes []FileChange
	var errs []error
	for _, fr := range results {
		if err := ctx.Err(); err != nil {
			return changes, err
		}
		if len(fr.Matches) == 0 || fr.Status != StatusCompleted {
			continue
		}
		change, updated, raw, err := r.Plan(fr)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if change.Replacements == 0 {
			continue
		}
		if !dryRun {
			encoded, err := EncodeText(updated, raw, r.opts.Encoding)
			if err != nil {
				errs = append(errs, errors.NewFileError("encode", fr.Path, err).WithType(errors.ErrorTypeEncoding))
				continue
			}
			if err := writeFileAtomic(fr.Path, encoded); err != nil {
				errs = append(errs, errors.NewFileError("write", fr.Path, err))
				continue
			}
			change.Applied = true
			debug.LogSearch("replaced %d occurrences in %s\n", change.Replacements, fr.Path)
		}
		changes = append(changes, change)
	}
	return changes, errors.NewMultiError(errs).ErrorOrNil()
}

func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lsr_replace_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

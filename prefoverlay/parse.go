package prefoverlay

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Kind identifies which of the statement forms an entry was declared with.
type Kind int

const (
	// KindUser is a user_pref statement, the form used in user.js files.
	KindUser Kind = iota

	// KindDefault is a pref statement, which the host treats as a default
	// value rather than a user choice.
	KindDefault

	// KindSticky is a sticky_pref statement.
	KindSticky
)

var kindNames = map[string]Kind{
	"user_pref":   KindUser,
	"pref":        KindDefault,
	"sticky_pref": KindSticky,
}

// FuncName returns the name of the statement that declares an entry of the
// receiving kind.
func (k Kind) FuncName() string {
	switch k {
	case KindDefault:
		return "pref"
	case KindSticky:
		return "sticky_pref"
	default:
		return "user_pref"
	}
}

func (k Kind) String() string {
	return k.FuncName()
}

// Entry is a single preference assignment read from a source file.
type Entry struct {
	Key   string
	Value cty.Value
	Kind  Kind

	// Index is the position of the entry among all of the entries produced
	// by the same Parser, across all files it has parsed. Later entries
	// have higher indices.
	Index int

	// Range covers the statement in its source file.
	Range hcl.Range
}

// File is the result of parsing a single preference source. A File is an
// Overlay that applies each of its entries in order.
type File struct {
	Filename string
	Entries  []Entry

	// Skipped is the number of lines that were not valid statements and were
	// therefore ignored. Each of them is also reported as a warning
	// diagnostic.
	Skipped int
}

var _ Overlay = (*File)(nil)

// ApplyOverlay implements Overlay.
func (f *File) ApplyOverlay(store Store) {
	for _, entry := range f.Entries {
		store.SetPref(entry.Key, entry.Value)
	}
}

// Parser reads preference files.
//
// Each line of a file is either blank, a comment, or a single statement
// of the following form, optionally followed by a comment:
//
//     user_pref("dotted.key", value);
//
// The statement name may also be "pref" or "sticky_pref". The value is
// true, false, a decimal integer in the signed 32-bit range, or a string in
// either double or single quotes. Strings may use the escape sequences \\,
// \", \', \n, \r, \t, \xHH and \uHHHH. Comments are either "//" line
// comments, "/* ... */" block comments (which may span multiple lines) or
// whole lines starting with "#".
//
// A Parser remembers the source of each file it has parsed, so that callers
// can use Files with hcl.NewDiagnosticTextWriter to render diagnostics with
// source snippets. A Parser is not safe for concurrent use.
type Parser struct {
	files     map[string]*hcl.File
	nextIndex int
	logger    hclog.Logger
}

// NewParser creates a new parser, ready to parse preference files.
func NewParser() *Parser {
	return &Parser{
		files:  map[string]*hcl.File{},
		logger: hclog.NewNullLogger(),
	}
}

// WithLogger sets the logger that the parser will report its progress to,
// returning the receiver for convenience. Passing nil disables logging.
func (p *Parser) WithLogger(logger hclog.Logger) *Parser {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	p.logger = logger
	return p
}

// Files returns the source of every file the parser has processed so far,
// keyed by filename.
func (p *Parser) Files() map[string]*hcl.File {
	return p.files
}

// ParseFile reads and parses the file with the given name.
//
// If the file cannot be read then the result is nil along with an error
// diagnostic. Otherwise the behavior is the same as for ParseSource.
func (p *Parser) ParseFile(filename string) (*File, hcl.Diagnostics) {
	src, err := os.ReadFile(filename)
	if err != nil {
		var diags hcl.Diagnostics
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Failed to read file",
			Detail:   fmt.Sprintf("The preference file %q could not be read: %s.", filename, err),
		})
		return nil, diags
	}
	return p.ParseSource(src, filename)
}

// ParseSource parses the given source buffer, using the given filename to
// describe it in diagnostics and entry ranges.
//
// Lines that are not valid statements are skipped, with a warning
// diagnostic for each one. Parsing always continues to the end of the
// source, so the returned File is never nil and the returned diagnostics
// never contain errors.
func (p *Parser) ParseSource(src []byte, filename string) (*File, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	p.files[filename] = &hcl.File{Bytes: src}
	ret := &File{Filename: filename}

	var s scanner
	lineStart := 0
	for lineNum := 1; lineStart <= len(src); lineNum++ {
		lineEnd := len(src)
		if nl := bytes.IndexByte(src[lineStart:], '\n'); nl != -1 {
			lineEnd = lineStart + nl
		}
		line := bytes.TrimSuffix(src[lineStart:lineEnd], []byte{'\r'})
		loc := lineLocation{filename: filename, line: lineNum, start: lineStart, text: line}

		s.reset(line)
		entry, problem := p.parseLine(&s, loc)
		switch {
		case problem != "":
			ret.Skipped++
			p.logger.Trace("skipping malformed preference line", "filename", filename, "line", lineNum, "problem", problem)
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "Malformed preference line",
				Detail:   fmt.Sprintf("Line %d is not a valid preference statement: %s. The line has been ignored.", lineNum, problem),
				Subject:  loc.rangeBetween(s.pos, len(line)).Ptr(),
			})
			// Whatever followed the error is unreliable, so we don't let a
			// "/*" after it hide the following lines.
			s.inComment = false
		case entry != nil:
			entry.Index = p.nextIndex
			p.nextIndex++
			ret.Entries = append(ret.Entries, *entry)
		}

		lineStart = lineEnd + 1
	}

	p.logger.Debug("parsed preference file", "filename", filename, "entries", len(ret.Entries), "skipped", ret.Skipped)
	return ret, diags
}

// parseLine returns a nil entry and an empty problem for lines that contain
// only whitespace and comments.
func (p *Parser) parseLine(s *scanner, loc lineLocation) (*Entry, string) {
	s.skipTrivia()
	if s.eof() || s.peek() == '#' {
		return nil, ""
	}

	start := s.pos
	name := s.ident()
	kind, ok := kindNames[name]
	if !ok {
		s.pos = start
		return nil, "expected user_pref, pref, or sticky_pref"
	}
	if problem := s.expect('(', "an opening parenthesis"); problem != "" {
		return nil, problem
	}
	key, problem := s.stringLit()
	if problem != "" {
		return nil, problem
	}
	if key == "" {
		return nil, "the preference key must not be empty"
	}
	if problem := s.expect(',', "a comma after the preference key"); problem != "" {
		return nil, problem
	}
	val, problem := s.value()
	if problem != "" {
		return nil, problem
	}
	if problem := s.expect(')', "a closing parenthesis"); problem != "" {
		return nil, problem
	}
	if problem := s.expect(';', "a semicolon"); problem != "" {
		return nil, problem
	}
	end := s.pos

	s.skipTrivia()
	if !s.eof() {
		return nil, "unexpected content after the statement"
	}

	return &Entry{
		Key:   key,
		Value: val,
		Kind:  kind,
		Range: loc.rangeBetween(start, end),
	}, ""
}

type lineLocation struct {
	filename string
	line     int
	start    int // byte offset of the start of the line in the whole file
	text     []byte
}

func (l lineLocation) pos(offset int) hcl.Pos {
	return hcl.Pos{
		Line:   l.line,
		Column: utf8.RuneCount(l.text[:offset]) + 1,
		Byte:   l.start + offset,
	}
}

func (l lineLocation) rangeBetween(from, to int) hcl.Range {
	if from > to {
		from = to
	}
	return hcl.Range{
		Filename: l.filename,
		Start:    l.pos(from),
		End:      l.pos(to),
	}
}

// Load parses each of the given files in order and merges their entries,
// with later files taking precedence over earlier ones.
//
// Files that cannot be read are reported as error diagnostics and do not
// contribute to the result, but all of the other files are still loaded.
func (p *Parser) Load(filenames ...string) (Prefs, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	overlays := make([]Overlay, 0, len(filenames))
	for _, filename := range filenames {
		f, moreDiags := p.ParseFile(filename)
		diags = append(diags, moreDiags...)
		if f != nil {
			overlays = append(overlays, f)
		}
	}
	return Merge(overlays...), diags
}

// Package parser extracts <file path="..."> blocks from a completion stream
// that arrives in arbitrary chunks.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"sitegen_server/internal/types"
)

const (
	openPrefix = "<file"
	closeTag   = "</file>"
)

var openingRe = regexp.MustCompile(`^<file\s+path\s*=\s*(?:"([^"]*)"|'([^']*)')\s*>$`)

// Parser is a resumable scanner over an accumulating buffer. Everything before
// cursor has been consumed and will never be emitted again.
type Parser struct {
	buf     []byte
	cursor  int
	records []types.FileRecord
	index   map[string]int
	issues  []types.Issue
	done    bool
}

// New returns an empty Parser.
func New() *Parser {
	return &Parser{index: make(map[string]int)}
}

// Feed appends chunk to the buffer and returns the records completed by it.
func (p *Parser) Feed(chunk string) []types.FileRecord {
	if p.done {
		return nil
	}
	p.buf = append(p.buf, chunk...)
	return p.scan()
}

// Finish marks the end of the stream. Any block still open is dropped and
// reported as a soft issue; the returned slice holds only issues raised now.
func (p *Parser) Finish() []types.Issue {
	if p.done {
		return nil
	}
	p.done = true
	rest := p.buf[p.cursor:]
	at := bytes.Index(rest, []byte(openPrefix))
	if at < 0 {
		return nil
	}
	tail := rest[at:]
	path := "unknown"
	if gt := bytes.IndexByte(tail, '>'); gt >= 0 {
		if m, ok := matchOpening(string(tail[:gt+1])); ok {
			path = m
		}
	}
	issue := types.Issue{
		Kind:     "truncated-block",
		Severity: types.SeverityLow,
		File:     path,
		Message:  fmt.Sprintf("stream ended inside a file block; dropped %d bytes", len(tail)),
	}
	p.issues = append(p.issues, issue)
	return []types.Issue{issue}
}

// Files returns every record emitted so far, in source order. A path seen more
// than once keeps its first position and its last content.
func (p *Parser) Files() []types.FileRecord {
	out := make([]types.FileRecord, len(p.records))
	copy(out, p.records)
	return out
}

// Issues returns the nested-marker and truncation issues seen so far.
func (p *Parser) Issues() []types.Issue {
	out := make([]types.Issue, len(p.issues))
	copy(out, p.issues)
	return out
}

// Raw is the full text fed so far.
func (p *Parser) Raw() string { return string(p.buf) }

// Pending is the number of buffered bytes not yet consumed.
func (p *Parser) Pending() int { return len(p.buf) - p.cursor }

func (p *Parser) scan() []types.FileRecord {
	var emitted []types.FileRecord
	for {
		rest := p.buf[p.cursor:]
		open := bytes.Index(rest, []byte(openPrefix))
		if open < 0 {
			p.cursor += safeAdvance(rest)
			return emitted
		}
		start := p.cursor + open
		gt := bytes.IndexByte(p.buf[start:], '>')
		if gt < 0 {
			p.cursor = start
			return emitted
		}
		path, ok := matchOpening(string(p.buf[start : start+gt+1]))
		if !ok {
			// "<filename>" or similar text, not a marker.
			p.cursor = start + len(openPrefix)
			continue
		}
		bodyStart := start + gt + 1
		body := p.buf[bodyStart:]
		closeAt := bytes.Index(body, []byte(closeTag))
		nested := nextOpening(body)
		if nested >= 0 && (closeAt < 0 || nested < closeAt) {
			p.issues = append(p.issues, types.Issue{
				Kind:     "nested-marker",
				Severity: types.SeverityMedium,
				File:     path,
				Message:  "file block opened inside another block; outer block discarded",
			})
			p.cursor = bodyStart + nested
			continue
		}
		if closeAt < 0 {
			p.cursor = start
			return emitted
		}
		rec := types.FileRecord{
			Path:    path,
			Content: strings.TrimSpace(string(body[:closeAt])),
		}
		p.record(rec)
		emitted = append(emitted, rec)
		p.cursor = bodyStart + closeAt + len(closeTag)
	}
}

func (p *Parser) record(rec types.FileRecord) {
	if i, ok := p.index[rec.Path]; ok {
		p.records[i].Content = rec.Content
		return
	}
	p.index[rec.Path] = len(p.records)
	p.records = append(p.records, rec)
}

// safeAdvance returns how far the cursor may move over rest without skipping a
// marker prefix that is cut off at the end of the buffer.
func safeAdvance(rest []byte) int {
	lt := bytes.LastIndexByte(rest, '<')
	if lt < 0 {
		return len(rest)
	}
	tail := rest[lt:]
	if len(tail) < len(openPrefix) && bytes.HasPrefix([]byte(openPrefix), tail) {
		return lt
	}
	return len(rest)
}

// nextOpening finds the next well-formed opening marker in body, or a cut-off
// one at the very end.
func nextOpening(body []byte) int {
	off := 0
	for {
		at := bytes.Index(body[off:], []byte(openPrefix))
		if at < 0 {
			return -1
		}
		start := off + at
		gt := bytes.IndexByte(body[start:], '>')
		if gt < 0 {
			return -1
		}
		if _, ok := matchOpening(string(body[start : start+gt+1])); ok {
			return start
		}
		off = start + len(openPrefix)
	}
}

func matchOpening(tag string) (string, bool) {
	m := openingRe.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	path := m[1]
	if path == "" {
		path = m[2]
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}
	return path, true
}

// Parse runs a complete buffer through a fresh Parser.
func Parse(text string) ([]types.FileRecord, []types.Issue) {
	p := New()
	p.Feed(text)
	p.Finish()
	return p.Files(), p.Issues()
}

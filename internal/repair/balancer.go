package repair

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"sitegen_server/internal/tree"
)

// StructuralFixer repairs the markup structure of one source file and
// describes each change. Implementations may be heuristic; a syntax-aware
// fixer can replace LineBalancer without touching the engine.
type StructuralFixer interface {
	Fix(path, content string) (string, []string)
}

// MarkupBalancer runs a StructuralFixer over every markup source file.
type MarkupBalancer struct {
	Fixer StructuralFixer
}

func (MarkupBalancer) Name() string { return "Markup Balancer" }

func (m MarkupBalancer) Apply(t *tree.Tree, env Env) Result {
	var res Result
	fixer := m.Fixer
	if fixer == nil {
		fixer = LineBalancer{}
	}
	for _, f := range t.Files() {
		if !isMarkupFile(f.Path) && !(path.Ext(f.Path) == ".js" && strings.HasPrefix(f.Path, "src/")) {
			continue
		}
		fixed, notes := fixer.Fix(f.Path, f.Content)
		if fixed == f.Content {
			continue
		}
		_ = t.SetContent(f.Path, fixed)
		for _, n := range notes {
			res.fix(m.Name(), f.Path, "%s", n)
		}
	}
	return res
}

// LineBalancer is a tag-stack heuristic over parenthesised markup blocks
// ("return (" and "=> ("). It drops closing tags that do not match the open
// tag, closes tags left open, self-closes void elements and wraps multiple
// roots in a fragment. Blocks it cannot read with confidence, such as
// ternaries at the top level or tags left open inside an expression, are
// left untouched.
type LineBalancer struct{}

var blockStartRe = regexp.MustCompile(`(?:\breturn|=>)\s*\(`)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

func (LineBalancer) Fix(_ string, content string) (string, []string) {
	var notes []string
	pos := 0
	for pos < len(content) {
		loc := blockStartRe.FindStringIndex(content[pos:])
		if loc == nil {
			break
		}
		open := pos + loc[1] - 1
		end := matchParen(content, open)
		if end < 0 {
			pos = open + 1
			continue
		}
		block := content[open+1 : end]
		fixed, blockNotes, ok := balanceBlock(block)
		if ok && fixed != block {
			content = content[:open+1] + fixed + content[end:]
			notes = append(notes, blockNotes...)
			end = open + 1 + len(fixed)
		}
		pos = end + 1
	}
	return content, notes
}

// matchParen returns the index of the ')' closing the '(' at open, or -1 when
// the parentheses do not balance or the close is not followed by something
// that can end an expression.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				rest := strings.TrimLeft(s[i+1:], " \t\r")
				if rest == "" || strings.ContainsRune(";)},:\n", rune(rest[0])) {
					return i
				}
				return -1
			}
		}
	}
	return -1
}

type tagTok struct {
	start, end int
	name       string
	closing    bool
	self       bool
}

type openTag struct {
	name  string
	depth int
}

// balanceBlock repairs the markup between a block's parentheses. ok is false
// when the block is not plain markup or cannot be repaired safely.
func balanceBlock(b string) (string, []string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(b), "<") {
		return b, nil, false
	}

	var (
		stack     []openTag
		toks      []tagTok
		drops     []int
		selfClose []int
		notes     []string
		topLevel  int
		depth     int
	)

	for i := 0; i < len(b); {
		c := b[i]
		inMarkup := len(stack) > 0 && stack[len(stack)-1].depth == depth

		if !inMarkup {
			if len(stack) == 0 && depth == 0 {
				if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
					i++
					continue
				}
				if c != '<' {
					return b, nil, false
				}
			}
			switch {
			case c == '"' || c == '\'' || c == '`':
				j := skipString(b, i)
				if j < 0 {
					return b, nil, false
				}
				i = j
				continue
			case strings.HasPrefix(b[i:], "//"):
				j := strings.IndexByte(b[i:], '\n')
				if j < 0 {
					i = len(b)
				} else {
					i += j
				}
				continue
			case strings.HasPrefix(b[i:], "/*"):
				j := strings.Index(b[i+2:], "*/")
				if j < 0 {
					return b, nil, false
				}
				i += j + 4
				continue
			case c == '{':
				depth++
				i++
				continue
			case c == '}':
				if depth == 0 || (len(stack) > 0 && stack[len(stack)-1].depth >= depth) {
					return b, nil, false
				}
				depth--
				i++
				continue
			case c != '<' || i+1 >= len(b) || !isTagStart(b[i+1]):
				i++
				continue
			}
		} else {
			switch {
			case c == '{':
				depth++
				i++
				continue
			case c == '}':
				return b, nil, false
			case c != '<' || i+1 >= len(b) || !isTagStart(b[i+1]):
				i++
				continue
			}
		}

		tok, ok := scanTag(b, i)
		if !ok {
			return b, nil, false
		}
		idx := len(toks)
		toks = append(toks, tok)
		i = tok.end
		atTop := len(stack) == 0 && depth == 0

		switch {
		case tok.self:
			if atTop {
				topLevel++
			}
		case !tok.closing && voidElements[tok.name]:
			if atTop {
				topLevel++
			}
			if next, ok := closerFollows(b, tok.end, tok.name); ok {
				i = next
			} else {
				selfClose = append(selfClose, idx)
				notes = append(notes, fmt.Sprintf("self-closed <%s>", tok.name))
			}
		case !tok.closing:
			if atTop {
				topLevel++
			}
			stack = append(stack, openTag{name: tok.name, depth: depth})
		default:
			if n := len(stack); n > 0 && stack[n-1].name == tok.name && stack[n-1].depth == depth {
				stack = stack[:n-1]
			} else {
				drops = append(drops, idx)
				notes = append(notes, fmt.Sprintf("removed unmatched </%s>", tok.name))
			}
		}
	}
	if depth != 0 {
		return b, nil, false
	}
	if len(drops) == 0 && len(selfClose) == 0 && len(stack) == 0 && topLevel <= 1 {
		return b, nil, true
	}

	type edit struct {
		pos, del int
		ins      string
	}
	var edits []edit
	for _, idx := range drops {
		s, e := lineSpan(b, toks[idx].start, toks[idx].end)
		edits = append(edits, edit{pos: s, del: e - s})
	}
	for _, idx := range selfClose {
		gt := toks[idx].end - 1
		ins := " /"
		if gt > 0 && b[gt-1] == ' ' {
			ins = "/"
		}
		edits = append(edits, edit{pos: gt, ins: ins})
	}
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].pos != edits[j].pos {
			return edits[i].pos > edits[j].pos
		}
		return edits[i].del > edits[j].del
	})
	out := b
	for _, e := range edits {
		out = out[:e.pos] + e.ins + out[e.pos+e.del:]
	}

	indent := blockIndent(out)
	var tail strings.Builder
	for k := len(stack) - 1; k >= 0; k-- {
		tail.WriteString("\n" + indent + strings.Repeat("  ", k) + "</" + stack[k].name + ">")
		notes = append(notes, fmt.Sprintf("closed <%s> left open", stack[k].name))
	}
	head := ""
	if topLevel > 1 {
		tail.WriteString("\n" + indent + "</>")
		head = "<>"
		if strings.HasPrefix(strings.TrimLeft(out, " \t\r"), "\n") {
			head = "\n" + indent + "<>"
		}
		notes = append(notes, fmt.Sprintf("wrapped %d root elements in a fragment", topLevel))
	}

	tailPos := len(out)
	if nl := strings.LastIndexByte(out, '\n'); nl >= 0 && strings.TrimSpace(out[nl:]) == "" {
		tailPos = nl
	}
	out = head + out[:tailPos] + tail.String() + out[tailPos:]
	return out, notes, true
}

func isTagStart(c byte) bool {
	return c == '/' || c == '>' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '.' || c == '-' || c == ':' || c == '_'
}

// scanTag reads the tag starting at the '<' at i.
func scanTag(b string, i int) (tagTok, bool) {
	j := i + 1
	closing := false
	if j < len(b) && b[j] == '/' {
		closing = true
		j++
	}
	ns := j
	for j < len(b) && isNameChar(b[j]) {
		j++
	}
	name := b[ns:j]

	braces := 0
	for j < len(b) {
		c := b[j]
		switch {
		case braces == 0 && (c == '"' || c == '\''):
			k := strings.IndexByte(b[j+1:], c)
			if k < 0 {
				return tagTok{}, false
			}
			j += k + 2
			continue
		case braces > 0 && (c == '"' || c == '\'' || c == '`'):
			k := skipString(b, j)
			if k < 0 {
				return tagTok{}, false
			}
			j = k
			continue
		case c == '{':
			braces++
		case c == '}':
			braces--
			if braces < 0 {
				return tagTok{}, false
			}
		case c == '<' && braces == 0:
			return tagTok{}, false
		case c == '>' && braces == 0:
			self := !closing && strings.HasSuffix(strings.TrimRight(b[i:j], " \t\r\n"), "/")
			return tagTok{start: i, end: j + 1, name: name, closing: closing, self: self}, true
		}
		j++
	}
	return tagTok{}, false
}

// skipString returns the index just past the string literal opening at i.
func skipString(b string, i int) int {
	q := b[i]
	for j := i + 1; j < len(b); j++ {
		switch b[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n':
			if q != '`' {
				return -1
			}
		}
	}
	return -1
}

// closerFollows reports whether </name> comes next (after whitespace) and
// returns the index just past it.
func closerFollows(b string, from int, name string) (int, bool) {
	rest := b[from:]
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	closer := "</" + name
	if !strings.HasPrefix(trimmed, closer) {
		return 0, false
	}
	after := strings.TrimLeft(trimmed[len(closer):], " \t")
	if !strings.HasPrefix(after, ">") {
		return 0, false
	}
	return len(b) - len(after) + 1, true
}

// lineSpan widens [s,e) to the whole line when nothing else is on it.
func lineSpan(b string, s, e int) (int, int) {
	ls := strings.LastIndexByte(b[:s], '\n') + 1
	le := strings.IndexByte(b[e:], '\n')
	lineEnd := len(b)
	if le >= 0 {
		lineEnd = e + le
	}
	if strings.TrimSpace(b[ls:s]) != "" || strings.TrimSpace(b[e:lineEnd]) != "" {
		return s, e
	}
	if le >= 0 {
		return ls, lineEnd + 1
	}
	return ls, lineEnd
}

// blockIndent is the indentation of the first non-blank line.
func blockIndent(b string) string {
	for _, line := range strings.Split(b, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return ""
}

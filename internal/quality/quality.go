// Package quality scores a finished tree. Scoring never mutates the tree and
// a report can be recomputed at any time.
package quality

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"regexp"
	"strings"

	"sitegen_server/internal/repair"
	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

// FileScore is one scored entry: a source file, or an expected project file
// that is missing.
type FileScore struct {
	Path   string        `json:"path"`
	Score  int           `json:"score"`
	Issues []types.Issue `json:"issues,omitempty"`
}

// Report is the scored view of a tree.
type Report struct {
	Score  int           `json:"score"`
	Grade  string        `json:"grade"`
	Issues []types.Issue `json:"issues"`
	Files  []FileScore   `json:"files"`
}

// Blocking returns the critical issues. Any of them blocks hand-off.
func (r Report) Blocking() []types.Issue {
	var out []types.Issue
	for _, is := range r.Issues {
		if is.Severity == types.SeverityCritical {
			out = append(out, is)
		}
	}
	return out
}

// Grade maps a score to a letter.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// NewFileScore deducts each issue's penalty from 100, floored at 0.
func NewFileScore(p string, issues []types.Issue) FileScore {
	score := 100
	for _, is := range issues {
		score -= is.Severity.Penalty()
	}
	if score < 0 {
		score = 0
	}
	return FileScore{Path: p, Score: score, Issues: issues}
}

// NewReport averages the entries into a project report.
func NewReport(files []FileScore) Report {
	r := Report{Files: files, Issues: []types.Issue{}}
	if len(files) == 0 {
		r.Score = 100
		r.Grade = Grade(100)
		return r
	}
	total := 0
	for _, f := range files {
		total += f.Score
		r.Issues = append(r.Issues, f.Issues...)
	}
	r.Score = int(math.Round(float64(total) / float64(len(files))))
	r.Grade = Grade(r.Score)
	return r
}

// Score scans every source file in t and adds project-level checks.
func Score(t *tree.Tree) Report {
	var files []FileScore
	boot, hasBoot := repair.Bootstrap(t)

	for _, f := range t.Files() {
		if !isSource(f.Path) {
			continue
		}
		files = append(files, NewFileScore(f.Path, CheckFile(f.Path, f.Content, hasBoot && f.Path == boot)))
	}
	for _, missing := range projectIssues(t) {
		files = append(files, NewFileScore(missing.File, []types.Issue{missing}))
	}
	return NewReport(files)
}

func isSource(p string) bool {
	if strings.HasPrefix(p, "node_modules/") || strings.HasSuffix(p, ".d.ts") {
		return false
	}
	switch path.Ext(p) {
	case ".js", ".jsx", ".ts", ".tsx":
		return true
	}
	return false
}

func projectIssues(t *tree.Tree) []types.Issue {
	var out []types.Issue
	critical := func(p, kind, msg string) {
		out = append(out, types.Issue{Kind: kind, Severity: types.SeverityCritical, File: p, Message: msg})
	}
	if _, ok := repair.Bootstrap(t); !ok {
		critical("src/main.jsx", "missing-entry", "no bootstrap entry point")
	}
	if _, ok := repair.CompositionRoot(t); !ok {
		critical("src/App.jsx", "missing-root", "no composition root")
	}
	if content, ok := t.Content("package.json"); !ok {
		critical("package.json", "missing-manifest", "no package manifest")
	} else if !json.Valid([]byte(content)) {
		critical("package.json", "invalid-manifest", "package manifest is not valid JSON")
	}
	if !t.Exists("index.html") {
		critical("index.html", "missing-html", "no HTML host page")
	}
	return out
}

var (
	exportRe          = regexp.MustCompile(`\bexport\b|\bmodule\.exports\b|\bexports\.\w`)
	defaultFuncRe     = regexp.MustCompile(`export\s+default\s+function\s+([A-Za-z_$][\w$]*)`)
	pascalRe          = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)
	inlineHandlerRe   = regexp.MustCompile(`\bon[A-Z]\w*=\{\s*(?:\([^)]*\)|\w+)\s*=>`)
	anyTypeRe         = regexp.MustCompile(`(?::\s*any\b|\bas\s+any\b|<any>)`)
	untypedPropsRe    = regexp.MustCompile(`function\s+[A-Z]\w*\s*\(\s*\{[^}]*\}\s*\)`)
	debugRe           = regexp.MustCompile(`\bconsole\.(?:log|debug|trace)\s*\(`)
	todoRe            = regexp.MustCompile(`\b(?:TODO|FIXME|XXX)\b`)
	imgRe             = regexp.MustCompile(`<img\b[^>]*>`)
	emptyInteractive  = regexp.MustCompile(`<(button|a)\b[^>]*>\s*</(?:button|a)>`)
	inputRe           = regexp.MustCompile(`<(?:input|textarea|select)\b[^>]*>`)
	labelledRe        = regexp.MustCompile(`\b(?:aria-label|aria-labelledby|id)=`)
	exemptInputTypeRe = regexp.MustCompile(`\btype=["'](?:hidden|submit|button|reset)["']`)
)

// CheckFile runs every per-file heuristic. isEntry exempts the bootstrap file
// from the export check.
func CheckFile(p, content string, isEntry bool) []types.Issue {
	var issues []types.Issue
	add := func(kind string, sev types.Severity, format string, args ...any) {
		issues = append(issues, types.Issue{Kind: kind, Severity: sev, File: p, Message: fmt.Sprintf(format, args...)})
	}
	ext := path.Ext(p)
	markup := ext == ".jsx" || ext == ".tsx"

	if !isEntry && !exportRe.MatchString(content) {
		add("missing-export", types.SeverityHigh, "file exports nothing")
	}

	if markup && isComponentPath(p) {
		base := strings.TrimSuffix(path.Base(p), ext)
		if !pascalRe.MatchString(base) {
			add("naming", types.SeverityLow, "component file %q is not PascalCase", base)
		} else if m := defaultFuncRe.FindStringSubmatch(content); m != nil && !pascalRe.MatchString(m[1]) {
			add("naming", types.SeverityLow, "component %q is not PascalCase", m[1])
		}
	}

	if n := len(inlineHandlerRe.FindAllString(content, -1)); n > 5 {
		add("inline-handlers", types.SeverityMedium, "%d inline event handlers", n)
	}

	if ext == ".ts" || ext == ".tsx" {
		if anyTypeRe.MatchString(content) {
			add("type-hints", types.SeverityLow, "uses the any type")
		}
		if untypedPropsRe.MatchString(content) {
			add("type-hints", types.SeverityLow, "component props are untyped")
		}
	}

	if !importsGrouped(content) {
		add("import-grouping", types.SeverityLow, "imports are not grouped at the top of the file")
	}

	if n := len(debugRe.FindAllString(content, -1)); n > 0 {
		add("debug-print", types.SeverityLow, "%d debug print(s)", n)
	}

	if marker, ok := repair.FindPlaceholder(content, nil); ok {
		add("incomplete", types.SeverityHigh, "incomplete work marker %q", marker)
	} else if m := todoRe.FindString(content); m != "" {
		add("incomplete", types.SeverityHigh, "incomplete work marker %q", m)
	}

	if markup {
		missingAlt := 0
		for _, tag := range imgRe.FindAllString(content, -1) {
			if !strings.Contains(tag, "alt=") {
				missingAlt++
			}
		}
		if missingAlt > 0 {
			add("missing-alt", types.SeverityMedium, "%d image(s) without alt text", missingAlt)
		}

		if n := len(emptyInteractive.FindAllString(content, -1)); n > 0 {
			add("empty-interactive", types.SeverityMedium, "%d empty button or link element(s)", n)
		}

		unlabeled := 0
		for _, tag := range inputRe.FindAllString(content, -1) {
			if !labelledRe.MatchString(tag) && !exemptInputTypeRe.MatchString(tag) {
				unlabeled++
			}
		}
		if unlabeled > 0 {
			add("unlabeled-input", types.SeverityLow, "%d input(s) without a label", unlabeled)
		}
	}
	return issues
}

func isComponentPath(p string) bool {
	return strings.Contains(p, "/components/") || strings.Contains(p, "/pages/")
}

// importsGrouped reports whether every import precedes the first line of code.
func importsGrouped(content string) bool {
	seenCode := false
	inImport := false
	inComment := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case inComment:
			if strings.Contains(trimmed, "*/") {
				inComment = false
			}
			continue
		case inImport:
			if strings.Contains(trimmed, "from ") || strings.HasSuffix(trimmed, ";") {
				inImport = false
			}
			continue
		case trimmed == "" || strings.HasPrefix(trimmed, "//"):
			continue
		case strings.HasPrefix(trimmed, "/*"):
			inComment = !strings.Contains(trimmed, "*/")
			continue
		case strings.HasPrefix(trimmed, "'use ") || strings.HasPrefix(trimmed, `"use `):
			continue
		case strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "import{"):
			if seenCode {
				return false
			}
			if !strings.Contains(trimmed, "from ") && strings.Contains(trimmed, "{") && !strings.Contains(trimmed, "}") {
				inImport = true
			}
			continue
		}
		seenCode = true
	}
	return true
}

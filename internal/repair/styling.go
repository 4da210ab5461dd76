package repair

import (
	"path"
	"regexp"
	"strings"

	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

var tailwindDirectives = []string{"@tailwind base;", "@tailwind components;", "@tailwind utilities;"}

var (
	tailwindV4ImportRe = regexp.MustCompile(`(?m)^\s*@import\s+["']tailwindcss["'];?\s*\n?`)
	contentArrayRe     = regexp.MustCompile(`content\s*:\s*\[[^\]]*\]`)
	configOpenRe       = regexp.MustCompile(`(?:export\s+default|module\.exports\s*=)\s*\{`)
	cssImportLineRe    = regexp.MustCompile(`(?m)^\s*@import\b[^\n]*\n`)
)

const contentGlobs = `content: ['./index.html', './src/**/*.{js,jsx,ts,tsx}']`

// StylingFixer wires utility-class styling end to end: directives in the
// stylesheet, source globs in the Tailwind config and the stylesheet import in
// the bootstrap entry.
type StylingFixer struct{}

func (StylingFixer) Name() string { return "Styling Fixer" }

func (s StylingFixer) Apply(t *tree.Tree, env Env) Result {
	var res Result
	name := s.Name()

	sheet, ok := StylesheetEntry(t)
	if !ok {
		res.issue("missing-stylesheet", types.SeverityMedium, "", "no stylesheet entry to wire")
	} else {
		css, _ := t.Content(sheet)
		if fixed, changed := ensureDirectives(css); changed {
			_ = t.SetContent(sheet, fixed)
			res.fix(name, sheet, "added Tailwind directives")
		}
	}

	if cfg, ok := firstExisting(t, tailwindConfigCandidates); ok {
		content, _ := t.Content(cfg)
		if fixed, changed := ensureContentGlobs(content); changed {
			_ = t.SetContent(cfg, fixed)
			res.fix(name, cfg, "set Tailwind content globs")
		} else if !contentArrayRe.MatchString(content) {
			res.issue("tailwind-config", types.SeverityMedium, cfg, "could not locate config object to add content globs")
		}
	}

	if boot, okBoot := Bootstrap(t); okBoot && ok {
		content, _ := t.Content(boot)
		if !importsFile(t, boot, content, sheet) {
			stmt := "import '" + relativeSpec(path.Dir(boot), sheet) + "';\n"
			_ = t.SetContent(boot, insertAfterImports(content, stmt))
			res.fix(name, boot, "imported stylesheet %s", sheet)
		}
	}
	return res
}

// ensureDirectives returns css with all three Tailwind directives, placed
// after any leading @import rules.
func ensureDirectives(css string) (string, bool) {
	changed := false
	if tailwindV4ImportRe.MatchString(css) {
		css = tailwindV4ImportRe.ReplaceAllString(css, "")
		changed = true
	}
	var missing []string
	for _, d := range tailwindDirectives {
		if !strings.Contains(css, d) {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return css, changed
	}
	block := strings.Join(missing, "\n") + "\n"
	at := 0
	for {
		loc := cssImportLineRe.FindStringIndex(css[at:])
		if loc == nil || loc[0] != 0 {
			break
		}
		at += loc[1]
	}
	if at == 0 {
		if css != "" {
			block += "\n"
		}
		return block + css, true
	}
	return css[:at] + block + css[at:], true
}

func ensureContentGlobs(cfg string) (string, bool) {
	if loc := contentArrayRe.FindStringIndex(cfg); loc != nil {
		arr := cfg[loc[0]:loc[1]]
		if strings.Contains(arr, "./index.html") && strings.Contains(arr, "./src/**/*.{js,jsx,ts,tsx}") {
			return cfg, false
		}
		return cfg[:loc[0]] + contentGlobs + cfg[loc[1]:], true
	}
	loc := configOpenRe.FindStringIndex(cfg)
	if loc == nil {
		return cfg, false
	}
	return cfg[:loc[1]] + "\n  " + contentGlobs + "," + cfg[loc[1]:], true
}

func importsFile(t *tree.Tree, importer, content, target string) bool {
	for _, imp := range parseImports(content) {
		if resolved, ok := resolveImport(t, importer, imp.spec); ok && resolved == target {
			return true
		}
	}
	return false
}

// insertAfterImports places stmt after the last top-level import line.
func insertAfterImports(content, stmt string) string {
	locs := staticImportRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return stmt + content
	}
	end := locs[len(locs)-1][1]
	nl := strings.IndexByte(content[end:], '\n')
	if nl < 0 {
		return content + "\n" + stmt
	}
	end += nl + 1
	return content[:end] + stmt + content[end:]
}

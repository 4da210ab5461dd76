package repair

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"sitegen_server/internal/tree"
)

var (
	compositionRootCandidates = []string{"src/App.jsx", "src/App.tsx", "src/App.js", "src/App.ts"}
	bootstrapCandidates       = []string{"src/main.jsx", "src/main.tsx", "src/main.js", "src/main.ts", "src/index.jsx", "src/index.tsx", "src/index.js"}
	stylesheetCandidates      = []string{"src/index.css", "src/styles/index.css", "src/styles/globals.css", "src/globals.css", "src/App.css"}
	tailwindConfigCandidates  = []string{"tailwind.config.js", "tailwind.config.cjs", "tailwind.config.mjs", "tailwind.config.ts"}
	postcssConfigCandidates   = []string{"postcss.config.js", "postcss.config.cjs", "postcss.config.mjs"}
	viteConfigCandidates      = []string{"vite.config.js", "vite.config.ts", "vite.config.mjs"}

	sourceExts = []string{".jsx", ".tsx", ".js", ".ts"}
)

// firstExisting returns the first candidate that is a file in t.
func firstExisting(t *tree.Tree, candidates []string) (string, bool) {
	for _, c := range candidates {
		if t.Exists(c) {
			return c, true
		}
	}
	return "", false
}

// CompositionRoot returns the path of the composition root, if any.
func CompositionRoot(t *tree.Tree) (string, bool) { return firstExisting(t, compositionRootCandidates) }

// Bootstrap returns the path of the bootstrap entry, if any.
func Bootstrap(t *tree.Tree) (string, bool) { return firstExisting(t, bootstrapCandidates) }

// StylesheetEntry is the stylesheet the bootstrap file imports, or the first
// conventional stylesheet present.
func StylesheetEntry(t *tree.Tree) (string, bool) {
	if boot, ok := Bootstrap(t); ok {
		content, _ := t.Content(boot)
		for _, imp := range parseImports(content) {
			if strings.HasSuffix(imp.spec, ".css") && isRelative(imp.spec) {
				target := path.Join(path.Dir(boot), imp.spec)
				if t.Exists(target) {
					return target, true
				}
			}
		}
	}
	return firstExisting(t, stylesheetCandidates)
}

func isSourceFile(p string) bool {
	ext := path.Ext(p)
	for _, e := range sourceExts {
		if ext == e {
			return true
		}
	}
	return false
}

func isMarkupFile(p string) bool {
	ext := path.Ext(p)
	return ext == ".jsx" || ext == ".tsx"
}

func isConfigFile(p string) bool {
	base := path.Base(p)
	return strings.Contains(base, ".config.") || !strings.Contains(p, "/")
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

type importRef struct {
	spec string
	// start/end are the byte offsets of spec inside the source.
	start, end int
}

var (
	staticImportRe  = regexp.MustCompile(`(?m)^[ \t]*(?:import|export)\s+(?:[\w*{}\s,$]+?\s+from\s+)?['"]([^'"\n]+)['"]`)
	dynamicImportRe = regexp.MustCompile(`\bimport\(\s*['"]([^'"\n]+)['"]\s*\)`)
)

// parseImports lists module specifiers of static and dynamic imports in source order.
func parseImports(src string) []importRef {
	var refs []importRef
	for _, re := range []*regexp.Regexp{staticImportRe, dynamicImportRe} {
		for _, m := range re.FindAllStringSubmatchIndex(src, -1) {
			refs = append(refs, importRef{spec: src[m[2]:m[3]], start: m[2], end: m[3]})
		}
	}
	// Sort by position; the two regexps interleave.
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && refs[j].start < refs[j-1].start; j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}
	return refs
}

// resolveImport finds the file a relative specifier from importer points at.
func resolveImport(t *tree.Tree, importer, spec string) (string, bool) {
	if !isRelative(spec) {
		return "", false
	}
	base := path.Join(path.Dir(importer), spec)
	if t.Exists(base) {
		return base, true
	}
	for _, ext := range sourceExts {
		if t.Exists(base + ext) {
			return base + ext, true
		}
	}
	for _, ext := range sourceExts {
		if idx := base + "/index" + ext; t.Exists(idx) {
			return idx, true
		}
	}
	return "", false
}

// relativeSpec renders target as an import specifier relative to fromDir.
func relativeSpec(fromDir, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

// packageName extracts the npm package from a bare specifier
// ("@scope/pkg/sub" -> "@scope/pkg", "pkg/sub" -> "pkg").
func packageName(spec string) string {
	if spec == "" || isRelative(spec) || strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "@/") {
		return ""
	}
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func baseName(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

package repair

import (
	"path"
	"regexp"
	"strings"

	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

// placeholderSignatures match text a model leaves behind instead of a real
// implementation. The policy's forbidden patterns are checked as well.
var placeholderSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?i)under\s+construction`),
	regexp.MustCompile(`(?i)coming\s+soon`),
	regexp.MustCompile(`(?i)lorem\s+ipsum`),
	regexp.MustCompile(`(?i)todo:?\s*implement`),
	regexp.MustCompile(`(?i)implement\s+(?:this|me)\b`),
	regexp.MustCompile(`(?i)(?:your|add)\s+(?:content|text|code)\s+here`),
	regexp.MustCompile(`(?i)placeholder\s+(?:component|content|text|section)`),
	regexp.MustCompile(`(?i)rest\s+of\s+(?:the\s+)?(?:component|code|file)`),
	regexp.MustCompile(`(?m)^\s*(?://|/\*)\s*\.\.\.`),
	regexp.MustCompile(`\{/\*\s*\.\.\.\s*\*/\}`),
}

// PlaceholderRegenerator replaces stub files with complete templates and
// creates modules the composition root or pages import but nobody generated.
type PlaceholderRegenerator struct{}

func (PlaceholderRegenerator) Name() string { return "Placeholder Regenerator" }

// FindPlaceholder returns the first placeholder signature or forbidden
// pattern found in content.
func FindPlaceholder(content string, forbidden []string) (string, bool) {
	lower := strings.ToLower(content)
	for _, f := range forbidden {
		if f != "" && strings.Contains(lower, strings.ToLower(f)) {
			return f, true
		}
	}
	for _, re := range placeholderSignatures {
		if m := re.FindString(content); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

func (p PlaceholderRegenerator) Apply(t *tree.Tree, env Env) Result {
	var res Result
	name := p.Name()

	root, _ := CompositionRoot(t)
	boot, _ := Bootstrap(t)
	sheet, _ := StylesheetEntry(t)

	for _, f := range t.Files() {
		match, found := FindPlaceholder(f.Content, env.Policy.ForbiddenPatterns)
		if !found {
			continue
		}
		var regenerated string
		switch {
		case f.Path == root:
			regenerated = RenderCompositionRoot(env)
		case f.Path == boot:
			d := baseData("", env)
			d.Stylesheet = "./index.css"
			if sheet != "" {
				d.Stylesheet = relativeSpec(path.Dir(boot), sheet)
			}
			if path.Ext(boot) == ".tsx" {
				d.NonNull = "!"
			}
			regenerated = render(bootstrapTmpl, d)
		case f.Path == "index.html":
			d := baseData("", env)
			d.Bootstrap = boot
			if boot == "" {
				d.Bootstrap = "src/main" + env.Policy.Ext()
			}
			regenerated = render(indexHTMLTmpl, d)
		case f.Path == sheet:
			regenerated = render(stylesheetTmpl, baseData("", env))
		case strings.HasPrefix(f.Path, "src/") && isSourceFile(f.Path) && !isConfigFile(f.Path):
			regenerated = RenderComponent(f.Path, env)
		default:
			res.issue("placeholder", types.SeverityMedium, f.Path, "contains %q but has no template to regenerate from", match)
			continue
		}
		if err := t.SetContent(f.Path, regenerated); err != nil {
			res.issue("placeholder", types.SeverityMedium, f.Path, "could not regenerate: %v", err)
			continue
		}
		res.fix(name, f.Path, "regenerated %s content (matched %q)", PurposeOf(f.Path), match)
	}

	importers := []string{}
	if root != "" {
		importers = append(importers, root)
	}
	for _, pth := range t.Paths() {
		if strings.HasPrefix(pth, "src/pages/") && isSourceFile(pth) {
			importers = append(importers, pth)
		}
	}
	for _, importer := range importers {
		content, _ := t.Content(importer)
		for _, imp := range parseImports(content) {
			spec, ok := relativeForm(importer, imp.spec)
			if !ok {
				continue
			}
			if _, ok := resolveImport(t, importer, spec); ok {
				continue
			}
			target := path.Join(path.Dir(importer), spec)
			ext := path.Ext(target)
			if ext != "" && !isSourceFile(target) {
				res.issue("missing-asset", types.SeverityLow, importer, "imports missing asset %s", imp.spec)
				continue
			}
			if ext == "" {
				target += env.Policy.Ext()
			}
			if _, err := t.Upsert(target, RenderComponent(target, env)); err != nil {
				res.issue("dangling-import", types.SeverityHigh, importer, "cannot synthesise %s: %v", target, err)
				continue
			}
			res.fix(name, target, "synthesised missing module imported by %s", importer)
		}
	}
	return res
}

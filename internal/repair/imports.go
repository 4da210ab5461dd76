package repair

import (
	"path"
	"strings"

	"sitegen_server/internal/tree"
)

// ImportNormalizer rewrites root-anchored imports in the bootstrap and
// composition root files to relative ones and spells out the extension of
// the file each import resolves to.
type ImportNormalizer struct{}

func (ImportNormalizer) Name() string { return "Import Normalizer" }

func (n ImportNormalizer) Apply(t *tree.Tree, env Env) Result {
	var res Result
	var targets []string
	if p, ok := Bootstrap(t); ok {
		targets = append(targets, p)
	}
	if p, ok := CompositionRoot(t); ok {
		targets = append(targets, p)
	}

	for _, file := range targets {
		content, _ := t.Content(file)
		refs := parseImports(content)
		var sb strings.Builder
		last := 0
		changed := false
		for _, ref := range refs {
			spec, ok := normalizeSpec(t, file, ref.spec)
			if !ok || spec == ref.spec {
				continue
			}
			sb.WriteString(content[last:ref.start])
			sb.WriteString(spec)
			last = ref.end
			changed = true
			res.fix(n.Name(), file, "import %q -> %q", ref.spec, spec)
		}
		if !changed {
			continue
		}
		sb.WriteString(content[last:])
		_ = t.SetContent(file, sb.String())
	}
	return res
}

// relativeForm maps a root-anchored specifier (/src/x, src/x, @/x) to one
// relative to importer. Package specifiers report false.
func relativeForm(importer, spec string) (string, bool) {
	dir := path.Dir(importer)
	switch {
	case strings.HasPrefix(spec, "/src/"):
		return relativeSpec(dir, strings.TrimPrefix(spec, "/")), true
	case strings.HasPrefix(spec, "src/"):
		return relativeSpec(dir, spec), true
	case strings.HasPrefix(spec, "@/"):
		return relativeSpec(dir, "src/"+strings.TrimPrefix(spec, "@/")), true
	}
	return spec, isRelative(spec)
}

// normalizeSpec returns the rewritten specifier for an import in importer.
func normalizeSpec(t *tree.Tree, importer, spec string) (string, bool) {
	spec, ok := relativeForm(importer, spec)
	if !ok {
		return "", false
	}

	if path.Ext(spec) != "" {
		return spec, true
	}
	resolved, ok := resolveImport(t, importer, spec)
	if !ok {
		return spec, true
	}
	// Directory imports resolve through index files; leave those alone.
	if strings.HasSuffix(strings.TrimSuffix(resolved, path.Ext(resolved)), "/index") &&
		!strings.HasSuffix(spec, "/index") {
		return spec, true
	}
	return spec + path.Ext(resolved), true
}

package repair

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

const (
	manifestPath = "package.json"
	npmrcPath    = ".npmrc"
	peerRelax    = "legacy-peer-deps=true"
)

// compatTable pins packages the model commonly reaches for but the policy
// does not list. Policy versions take precedence over this table.
var compatTable = map[string]string{
	"react":                "^18.2.0",
	"react-dom":            "^18.2.0",
	"react-router-dom":     "^6.22.0",
	"framer-motion":        "^11.0.0",
	"lucide-react":         "^0.344.0",
	"react-icons":          "^5.0.1",
	"@heroicons/react":     "^2.1.1",
	"@headlessui/react":    "^1.7.18",
	"clsx":                 "^2.1.0",
	"vite":                 "^5.1.0",
	"@vitejs/plugin-react": "^4.2.1",
	"tailwindcss":          "^3.4.1",
	"postcss":              "^8.4.35",
	"autoprefixer":         "^10.4.17",
}

var defaultScripts = map[string]string{
	"dev":     "vite",
	"build":   "vite build",
	"preview": "vite preview",
}

// DependencyReconciler makes the manifest agree with the policy and with what
// the source files import.
type DependencyReconciler struct{}

func (DependencyReconciler) Name() string { return "Dependency Reconciler" }

type manifest struct {
	raw     map[string]json.RawMessage
	deps    map[string]string
	devDeps map[string]string
	scripts map[string]string
}

func (d DependencyReconciler) Apply(t *tree.Tree, env Env) Result {
	var res Result
	name := d.Name()

	m, created, ok := loadManifest(t)
	if !ok {
		res.issue("invalid-manifest", types.SeverityHigh, manifestPath, "package.json is not valid JSON, rebuilt from scratch")
		res.fix(name, manifestPath, "replaced unparseable manifest")
	} else if created {
		res.fix(name, manifestPath, "created missing manifest")
	}
	if _, has := m.raw["name"]; !has {
		m.raw["name"] = mustJSON(projectSlug(env))
	}
	if _, has := m.raw["type"]; !has {
		m.raw["type"] = mustJSON("module")
	}
	if _, has := m.raw["private"]; !has {
		m.raw["private"] = mustJSON(true)
	}
	for script, cmd := range defaultScripts {
		if _, has := m.scripts[script]; !has {
			m.scripts[script] = cmd
			res.fix(name, manifestPath, "added %q script", script)
		}
	}

	want := func(pkg string, dev bool, why string) {
		if m.has(pkg) {
			return
		}
		version := compatVersion(pkg, env)
		if version == "" {
			return
		}
		if dev {
			m.devDeps[pkg] = version
		} else {
			m.deps[pkg] = version
		}
		res.fix(name, manifestPath, "added %s@%s (%s)", pkg, version, why)
	}

	for _, lib := range env.Policy.Libraries {
		if lib.Required {
			want(lib.Name, lib.Dev, "required by policy")
		}
	}
	for _, pkg := range importedPackages(t) {
		lib, allowed := env.Policy.Library(pkg)
		switch {
		case allowed:
			want(pkg, lib.Dev, "imported by source")
		case !m.has(pkg):
			res.issue("unlisted-import", types.SeverityMedium, manifestPath, "%s is imported but neither allowed nor listed", pkg)
		}
	}
	for _, pkg := range env.Plan.DependencyNames() {
		lib, allowed := env.Policy.Library(pkg)
		if allowed {
			want(pkg, lib.Dev, "planned")
		}
	}

	for _, section := range []map[string]string{m.deps, m.devDeps} {
		for _, pkg := range sortedKeys(section) {
			target := compatVersion(pkg, env)
			if target == "" || !versionConflicts(section[pkg], target) {
				continue
			}
			res.fix(name, manifestPath, "pinned %s %q -> %q", pkg, section[pkg], target)
			section[pkg] = target
		}
	}

	if len(res.Fixes) > 0 || created || !ok {
		if err := m.write(t); err != nil {
			res.issue("manifest-write", types.SeverityHigh, manifestPath, "could not write manifest: %v", err)
		}
	}

	npmrc, _ := t.Content(npmrcPath)
	if !strings.Contains(npmrc, peerRelax) {
		if npmrc != "" && !strings.HasSuffix(npmrc, "\n") {
			npmrc += "\n"
		}
		if _, err := t.Upsert(npmrcPath, npmrc+peerRelax+"\n"); err == nil {
			res.fix(name, npmrcPath, "relaxed peer dependency resolution")
		}
	}
	return res
}

func loadManifest(t *tree.Tree) (m *manifest, created, ok bool) {
	m = &manifest{
		raw:     map[string]json.RawMessage{},
		deps:    map[string]string{},
		devDeps: map[string]string{},
		scripts: map[string]string{},
	}
	content, exists := t.Content(manifestPath)
	if !exists || strings.TrimSpace(content) == "" {
		return m, true, true
	}
	if err := json.Unmarshal([]byte(content), &m.raw); err != nil {
		m.raw = map[string]json.RawMessage{}
		return m, false, false
	}
	// A section with the wrong shape is dropped and rebuilt.
	for key, dst := range map[string]map[string]string{"dependencies": m.deps, "devDependencies": m.devDeps, "scripts": m.scripts} {
		if raw, has := m.raw[key]; has {
			var section map[string]string
			if json.Unmarshal(raw, &section) == nil {
				for k, v := range section {
					dst[k] = v
				}
			}
		}
	}
	return m, false, true
}

func (m *manifest) has(pkg string) bool {
	_, a := m.deps[pkg]
	_, b := m.devDeps[pkg]
	return a || b
}

func (m *manifest) write(t *tree.Tree) error {
	m.raw["dependencies"] = mustJSON(m.deps)
	m.raw["devDependencies"] = mustJSON(m.devDeps)
	m.raw["scripts"] = mustJSON(m.scripts)
	out, err := json.MarshalIndent(m.raw, "", "  ")
	if err != nil {
		return err
	}
	_, err = t.Upsert(manifestPath, string(out)+"\n")
	return err
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func compatVersion(pkg string, env Env) string {
	if lib, ok := env.Policy.Library(pkg); ok && lib.Version != "" {
		return lib.Version
	}
	return compatTable[pkg]
}

var versionNumRe = regexp.MustCompile(`(\d+)(?:\.(\d+))?`)

// versionConflicts reports whether have must be replaced by want: unpinned
// ranges always conflict, otherwise the major versions (or minors under 0.x)
// must agree. Specifiers we cannot read, like git URLs, are left alone.
func versionConflicts(have, want string) bool {
	h := strings.TrimSpace(have)
	switch strings.ToLower(h) {
	case "", "*", "latest", "x", "next":
		return true
	}
	if strings.Contains(h, ":") || strings.Contains(h, "/") {
		return false
	}
	hm, hmin, ok1 := majorMinor(h)
	wm, wmin, ok2 := majorMinor(want)
	if !ok1 || !ok2 {
		return false
	}
	if hm != wm {
		return true
	}
	return hm == 0 && hmin != wmin
}

func majorMinor(v string) (major, minor int, ok bool) {
	m := versionNumRe.FindStringSubmatch(v)
	if m == nil {
		return 0, 0, false
	}
	major, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minor, _ = strconv.Atoi(m[2])
	}
	return major, minor, true
}

// importedPackages lists bare packages imported by any source file.
func importedPackages(t *tree.Tree) []string {
	seen := map[string]bool{}
	for _, f := range t.Files() {
		if !isSourceFile(f.Path) {
			continue
		}
		for _, imp := range parseImports(f.Content) {
			if pkg := packageName(imp.spec); pkg != "" {
				seen[pkg] = true
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func projectSlug(env Env) string {
	name := env.Plan.Personalization().DisplayName(env.Plan.Kind() + "-site")
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
			dash = false
		} else if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(sb.String(), "-")
	if slug == "" {
		return "generated-site"
	}
	return slug
}

package repair

import (
	"path"
	"strings"

	"sitegen_server/internal/tree"
	"sitegen_server/internal/types"
)

// ScaffoldCompleter creates any standard project file the model skipped:
// the HTML host page, bootstrap entry, stylesheet, build configs and the
// composition root.
type ScaffoldCompleter struct{}

func (ScaffoldCompleter) Name() string { return "Scaffold Completer" }

func (s ScaffoldCompleter) Apply(t *tree.Tree, env Env) Result {
	var res Result
	name := s.Name()
	ext := env.Policy.Ext()

	create := func(p, content, what string) {
		if _, err := t.Upsert(p, content); err != nil {
			res.issue("scaffold-write", types.SeverityHigh, p, "could not create %s: %v", what, err)
			return
		}
		res.fix(name, p, "created missing %s", what)
	}

	sheet, hasSheet := StylesheetEntry(t)
	if !hasSheet {
		sheet = "src/index.css"
		d := baseData("", env)
		create(sheet, render(stylesheetTmpl, d), "stylesheet")
	}

	boot, hasBoot := Bootstrap(t)
	if !hasBoot {
		boot = "src/main" + ext
		d := baseData("", env)
		d.Stylesheet = relativeSpec(path.Dir(boot), sheet)
		if ext == ".tsx" {
			d.NonNull = "!"
		}
		create(boot, render(bootstrapTmpl, d), "bootstrap entry")
	}

	if !t.Exists("index.html") {
		d := baseData("", env)
		d.Bootstrap = boot
		create("index.html", render(indexHTMLTmpl, d), "HTML host page")
	}

	if _, ok := firstExisting(t, tailwindConfigCandidates); !ok {
		create("tailwind.config.js", render(tailwindTmpl, baseData("", env)), "Tailwind config")
	}
	if _, ok := firstExisting(t, postcssConfigCandidates); !ok {
		create("postcss.config.js", postcssConfig, "PostCSS config")
	}
	if _, ok := firstExisting(t, viteConfigCandidates); !ok {
		create("vite.config.js", viteConfig, "Vite config")
	}

	if _, ok := CompositionRoot(t); !ok {
		create("src/App"+ext, RenderCompositionRoot(env), "composition root")
	}
	return res
}

// RenderCompositionRoot writes an App that mounts the planned navigation,
// footer and pages. Imports are extensionless; files that do not exist yet are
// synthesised by the placeholder pass.
func RenderCompositionRoot(env Env) string {
	d := baseData("App", env)
	d.Imports = nil

	var sections []string
	for _, c := range env.Plan.Components() {
		switch PurposeOf("src/components/" + c) {
		case PurposeNav:
			if d.Nav == "" {
				d.Nav = c
				d.Imports = append(d.Imports, importLine{Name: c, Spec: "./components/" + c})
			}
		case PurposeFooter:
			if d.Footer == "" {
				d.Footer = c
				d.Imports = append(d.Imports, importLine{Name: c, Spec: "./components/" + c})
			}
		default:
			sections = append(sections, c)
		}
	}

	pages := env.Plan.Pages()
	for _, page := range pages {
		d.Imports = append(d.Imports, importLine{Name: page, Spec: "./pages/" + page})
		d.Routes = append(d.Routes, route{Path: routePath(page), Name: page})
	}
	if len(pages) == 0 {
		for _, c := range sections {
			d.Imports = append(d.Imports, importLine{Name: c, Spec: "./components/" + c})
			d.Sections = append(d.Sections, c)
		}
	}

	out := render(appTmpl, d)
	// A plan without pages and routes has no use for the router imports.
	if len(d.Routes) == 0 {
		out = strings.Replace(out, "import { BrowserRouter, Routes, Route } from 'react-router-dom';\n", "import { BrowserRouter } from 'react-router-dom';\n", 1)
	}
	return out
}

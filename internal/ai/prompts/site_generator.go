// Package prompts builds the per-stage prompts sent to the completion endpoint.
package prompts

import (
	"fmt"
	"strings"

	"sitegen_server/internal/plan"
	"sitegen_server/internal/policy"
)

const fileFormat = `Respond with one or more files, each wrapped exactly like this:

<file path="relative/path/to/File.jsx">
...full file content...
</file>

Only include code inside the file markers, no extra explanation. Your output will be parsed and saved as project files.`

// SystemPrompt is the system message for a completion mode.
func SystemPrompt(mode string) string {
	switch mode {
	case "plan":
		return "You are a senior front-end architect. You answer only with the requested JSON object."
	case "":
		return "You are a helpful AI assistant that generates code based on user prompts and specific formatting instructions."
	default:
		return "You are a full-stack site generator AI. You write complete, production-ready files and never leave placeholders."
	}
}

// policyBlock renders the rules every stage prompt shares.
func policyBlock(p plan.ProjectPlan, pol policy.GenerationPolicy) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "1.  **Frontend Framework**: %s, plain %s files\n", pol.Framework, strings.ToUpper(pol.Language))
	fmt.Fprintf(&sb, "2.  **Styling**: TailwindCSS, consistent color theme:\n")
	fmt.Fprintf(&sb, "    *   Primary: %s\n    *   Accent: %s\n    *   Background: %s\n    *   Font: %s\n",
		pol.Theme.Primary, pol.Theme.Accent, pol.Theme.Background, pol.Theme.Font)
	fmt.Fprintf(&sb, "3.  **Allowed libraries** (do not import anything else): %s\n", strings.Join(pol.LibraryNames(), ", "))
	sb.WriteString("4.  **Rules**:\n")
	for _, rule := range pol.StructuralRules {
		fmt.Fprintf(&sb, "    *   %s\n", rule)
	}
	if len(pol.ForbiddenPatterns) > 0 {
		quoted := make([]string, 0, len(pol.ForbiddenPatterns))
		for _, f := range pol.ForbiddenPatterns {
			quoted = append(quoted, fmt.Sprintf("%q", f))
		}
		fmt.Fprintf(&sb, "5.  **Never output**: %s\n", strings.Join(quoted, ", "))
	}
	pers := p.Personalization()
	if pers.BusinessName != "" || pers.Email != "" || pers.Phone != "" || pers.Location != "" {
		sb.WriteString("6.  **Use these real details** wherever names or contact info appear:\n")
		if pers.BusinessName != "" {
			fmt.Fprintf(&sb, "    *   Name: %s\n", pers.BusinessName)
		}
		if pers.Email != "" {
			fmt.Fprintf(&sb, "    *   Email: %s\n", pers.Email)
		}
		if pers.Phone != "" {
			fmt.Fprintf(&sb, "    *   Phone: %s\n", pers.Phone)
		}
		if pers.Location != "" {
			fmt.Fprintf(&sb, "    *   Location: %s\n", pers.Location)
		}
	}
	return sb.String()
}

func header(p plan.ProjectPlan) string {
	return fmt.Sprintf(`A user has submitted the following project description:

---
"%s"
---

Project kind: %s
Components: %s
Pages: %s
`, p.RawRequest(), p.Kind(), strings.Join(p.Components(), ", "), strings.Join(p.Pages(), ", "))
}

// StructurePrompt asks for the build scaffold: manifest, configs, entry files.
func StructurePrompt(p plan.ProjectPlan, pol policy.GenerationPolicy) string {
	ext := pol.Ext()
	var deps []string
	for _, name := range p.DependencyNames() {
		deps = append(deps, fmt.Sprintf("%s@%s", name, p.Dependencies()[name]))
	}
	return fmt.Sprintf(`%s
Please create the **project scaffold only** following these rules:

%s
Files to create:
    *   `+"`package.json`"+`: scripts dev/build/preview; dependencies %s; devDependencies vite, @vitejs/plugin-react, tailwindcss, postcss, autoprefixer
    *   `+"`index.html`"+`: a single <div id="root"></div> and a module script to /src/main%s
    *   `+"`vite.config.js`"+`, `+"`tailwind.config.js`"+` (content globs ./index.html and ./src/**/*.{js,jsx,ts,tsx}), `+"`postcss.config.js`"+`
    *   `+"`src/main%s`"+`: renders <App /> into #root and imports ./index.css
    *   `+"`src/index.css`"+`: the three @tailwind directives plus base font styles

Do not create components or pages yet.

%s`, header(p), policyBlock(p, pol), strings.Join(deps, ", "), ext, ext, fileFormat)
}

// ComponentPrompt asks for exactly one reusable component.
func ComponentPrompt(p plan.ProjectPlan, pol policy.GenerationPolicy, name string) string {
	path := fmt.Sprintf("src/components/%s%s", name, pol.Ext())
	return fmt.Sprintf(`%s
Write the **%s** component following these rules:

%s
Create exactly one file: `+"`%s`"+`. It must `+"`export default function %s`"+`.
It may import other components from ./ using these names only: %s.

%s`, header(p), name, policyBlock(p, pol), path, name, strings.Join(p.Components(), ", "), fileFormat)
}

// PagePrompt asks for exactly one routed page composed from the planned components.
func PagePrompt(p plan.ProjectPlan, pol policy.GenerationPolicy, name string) string {
	path := fmt.Sprintf("src/pages/%s%s", name, pol.Ext())
	return fmt.Sprintf(`%s
Write the **%s** page following these rules:

%s
Create exactly one file: `+"`%s`"+`. It must `+"`export default function %s`"+`.
Compose it from components imported from ../components/ (available: %s). Do not include the Navbar or Footer; the App layout renders them.

%s`, header(p), name, policyBlock(p, pol), path, name, strings.Join(p.Components(), ", "), fileFormat)
}

// RootPrompt asks for the composition root wiring pages into routes.
func RootPrompt(p plan.ProjectPlan, pol policy.GenerationPolicy, existing []string) string {
	path := fmt.Sprintf("src/App%s", pol.Ext())
	return fmt.Sprintf(`%s
Write the **composition root** following these rules:

%s
Create exactly one file: `+"`%s`"+` that wraps routes and layout with react-router-dom (BrowserRouter, Routes, Route).
Render the navigation component above and the footer below the routes. The "Home" page is the "/" route; every other page is "/<lowercase name>".
Only import files that exist. Existing files:
%s

%s`, header(p), policyBlock(p, pol), path, "    *   "+strings.Join(existing, "\n    *   "), fileFormat)
}

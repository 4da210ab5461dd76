package repair

import (
	"path"
	"strings"
	"text/template"

	"sitegen_server/internal/plan"
)

// Purpose selects which template a regenerated file is rendered from.
type Purpose string

const (
	PurposeNav     Purpose = "nav"
	PurposeFooter  Purpose = "footer"
	PurposeHero    Purpose = "hero"
	PurposeForm    Purpose = "form"
	PurposeSection Purpose = "section"
	PurposePage    Purpose = "page"
	PurposeGeneric Purpose = "generic"
)

var sectionWords = []string{
	"feature", "service", "testimonial", "review", "pricing", "plan", "team",
	"menu", "gallery", "about", "faq", "project", "portfolio", "work", "stat",
	"product", "skill", "experience", "schedule", "speaker", "post", "blog",
}

// PurposeOf guesses a file's role from its path and component name.
func PurposeOf(p string) Purpose {
	name := strings.ToLower(baseName(p))
	dir := path.Dir(p)
	switch {
	case strings.Contains(dir, "pages") || strings.Contains(dir, "views") || strings.Contains(dir, "routes"):
		return PurposePage
	case strings.Contains(name, "nav") || name == "header" || name == "topbar":
		return PurposeNav
	case strings.Contains(name, "footer"):
		return PurposeFooter
	case strings.Contains(name, "hero") || strings.Contains(name, "banner"):
		return PurposeHero
	case strings.Contains(name, "contact") || strings.Contains(name, "form") || strings.Contains(name, "newsletter") ||
		strings.Contains(name, "signup") || strings.Contains(name, "booking") || strings.Contains(name, "reservation"):
		return PurposeForm
	}
	for _, w := range sectionWords {
		if strings.Contains(name, w) {
			return PurposeSection
		}
	}
	return PurposeGeneric
}

type link struct{ Label, Href string }

type card struct{ Title, Text string }

type importLine struct{ Name, Spec string }

type route struct{ Path, Name string }

type templateData struct {
	Name     string
	Title    string
	Anchor   string
	Business string
	Tagline  string
	Email    string
	Phone    string
	Location string
	Links    []link
	Items    []card

	// composition root and bootstrap
	Imports    []importLine
	Routes     []route
	Sections   []string
	Nav        string
	Footer     string
	Stylesheet string
	Bootstrap  string
	NonNull    string

	Primary    string
	Accent     string
	Background string
	Font       string
}

func newTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Delims("[[", "]]").Parse(text))
}

var templates = map[Purpose]*template.Template{
	PurposeNav: newTemplate("nav", `export default function [[.Name]]() {
  return (
    <header className="sticky top-0 z-50 border-b border-gray-100 bg-white/90 backdrop-blur">
      <nav className="mx-auto flex max-w-6xl items-center justify-between px-6 py-4">
        <a href="/" className="text-xl font-bold text-gray-900">[[.Business]]</a>
        <ul className="flex gap-6 text-sm font-medium text-gray-600">
[[- range .Links]]
          <li><a href="[[.Href]]" className="hover:text-gray-900">[[.Label]]</a></li>
[[- end]]
        </ul>
      </nav>
    </header>
  );
}
`),
	PurposeFooter: newTemplate("footer", `export default function [[.Name]]() {
  const year = new Date().getFullYear();
  return (
    <footer className="bg-gray-900 text-gray-300">
      <div className="mx-auto grid max-w-6xl gap-6 px-6 py-10 md:grid-cols-2">
        <div>
          <p className="text-lg font-semibold text-white">[[.Business]]</p>
          <p className="mt-2 text-sm">[[.Tagline]]</p>
        </div>
        <div className="space-y-1 text-sm md:text-right">
[[- if .Email]]
          <p><a href="mailto:[[.Email]]" className="hover:text-white">[[.Email]]</a></p>
[[- end]]
[[- if .Phone]]
          <p>[[.Phone]]</p>
[[- end]]
[[- if .Location]]
          <p>[[.Location]]</p>
[[- end]]
        </div>
      </div>
      <p className="pb-6 text-center text-xs text-gray-500">&copy; {year} [[.Business]]. All rights reserved.</p>
    </footer>
  );
}
`),
	PurposeHero: newTemplate("hero", `export default function [[.Name]]() {
  return (
    <section className="bg-gradient-to-br from-blue-50 to-white">
      <div className="mx-auto max-w-6xl px-6 py-24 text-center">
        <h1 className="text-4xl font-bold tracking-tight text-gray-900 md:text-6xl">[[.Business]]</h1>
        <p className="mx-auto mt-6 max-w-2xl text-lg text-gray-600">[[.Tagline]]</p>
        <div className="mt-10 flex justify-center gap-4">
          <a href="#contact" className="rounded-lg bg-blue-600 px-6 py-3 font-medium text-white hover:bg-blue-700">Get in touch</a>
          <a href="#about" className="rounded-lg border border-gray-300 px-6 py-3 font-medium text-gray-700 hover:bg-gray-50">Learn more</a>
        </div>
      </div>
    </section>
  );
}
`),
	PurposeForm: newTemplate("form", `import { useState } from 'react';

export default function [[.Name]]() {
  const [form, setForm] = useState({ name: '', email: '', message: '' });
  const [sent, setSent] = useState(false);

  const update = (e) => setForm({ ...form, [e.target.name]: e.target.value });
  const submit = (e) => {
    e.preventDefault();
    setSent(true);
  };

  return (
    <section id="contact" className="mx-auto max-w-xl px-6 py-20">
      <h2 className="text-3xl font-bold text-gray-900">[[.Title]]</h2>
      <p className="mt-2 text-gray-600">Send [[.Business]] a message and we will reply shortly.</p>
      {sent ? (
        <p className="mt-8 rounded-lg bg-green-50 p-4 text-green-700">Thank you. Your message has been sent.</p>
      ) : (
        <form onSubmit={submit} className="mt-8 space-y-4">
          <input name="name" value={form.name} onChange={update} required placeholder="Name" aria-label="Name" className="w-full rounded-lg border border-gray-300 px-4 py-2" />
          <input name="email" type="email" value={form.email} onChange={update} required placeholder="Email" aria-label="Email" className="w-full rounded-lg border border-gray-300 px-4 py-2" />
          <textarea name="message" rows={5} value={form.message} onChange={update} required placeholder="Message" aria-label="Message" className="w-full rounded-lg border border-gray-300 px-4 py-2" />
          <button type="submit" className="w-full rounded-lg bg-blue-600 px-6 py-3 font-medium text-white hover:bg-blue-700">Send</button>
        </form>
      )}
    </section>
  );
}
`),
	PurposeSection: newTemplate("section", `const items = [
[[- range .Items]]
  { title: '[[.Title]]', text: '[[.Text]]' },
[[- end]]
];

export default function [[.Name]]() {
  return (
    <section id="[[.Anchor]]" className="mx-auto max-w-6xl px-6 py-20">
      <h2 className="text-center text-3xl font-bold text-gray-900">[[.Title]]</h2>
      <div className="mt-12 grid gap-8 md:grid-cols-3">
        {items.map((item) => (
          <div key={item.title} className="rounded-xl border border-gray-100 p-6 shadow-sm">
            <h3 className="text-lg font-semibold text-gray-900">{item.title}</h3>
            <p className="mt-2 text-gray-600">{item.text}</p>
          </div>
        ))}
      </div>
    </section>
  );
}
`),
	PurposePage: newTemplate("page", `export default function [[.Name]]() {
  return (
    <main className="min-h-screen">
      <section className="mx-auto max-w-4xl px-6 py-20">
        <h1 className="text-4xl font-bold text-gray-900">[[.Title]]</h1>
        <p className="mt-6 text-lg text-gray-600">[[.Tagline]]</p>
      </section>
    </main>
  );
}
`),
	PurposeGeneric: newTemplate("generic", `export default function [[.Name]]() {
  return (
    <div className="mx-auto max-w-6xl px-6 py-12">
      <h2 className="text-2xl font-semibold text-gray-900">[[.Title]]</h2>
      <p className="mt-4 text-gray-600">[[.Tagline]]</p>
    </div>
  );
}
`),
}

var (
	bootstrapTmpl = newTemplate("bootstrap", `import React from 'react';
import ReactDOM from 'react-dom/client';
import App from './App';
import '[[.Stylesheet]]';

ReactDOM.createRoot(document.getElementById('root')[[.NonNull]]).render(
  <React.StrictMode>
    <App />
  </React.StrictMode>
);
`)

	appTmpl = newTemplate("app", `import { BrowserRouter, Routes, Route } from 'react-router-dom';
[[- range .Imports]]
import [[.Name]] from '[[.Spec]]';
[[- end]]

export default function App() {
  return (
    <BrowserRouter>
      <div className="flex min-h-screen flex-col bg-white text-gray-900">
[[- if .Nav]]
        <[[.Nav]] />
[[- end]]
        <main className="flex-1">
[[- if .Routes]]
          <Routes>
[[- range .Routes]]
            <Route path="[[.Path]]" element={<[[.Name]] />} />
[[- end]]
          </Routes>
[[- else]]
[[- range .Sections]]
          <[[.]] />
[[- end]]
[[- end]]
        </main>
[[- if .Footer]]
        <[[.Footer]] />
[[- end]]
      </div>
    </BrowserRouter>
  );
}
`)

	indexHTMLTmpl = newTemplate("index.html", `<!doctype html>
<html lang="en">
  <head>
    <meta charset="UTF-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1.0" />
    <title>[[.Business]]</title>
  </head>
  <body>
    <div id="root"></div>
    <script type="module" src="/[[.Bootstrap]]"></script>
  </body>
</html>
`)

	stylesheetTmpl = newTemplate("index.css", `@tailwind base;
@tailwind components;
@tailwind utilities;

body {
  font-family: '[[.Font]]', system-ui, sans-serif;
  background-color: [[.Background]];
}
`)

	tailwindTmpl = newTemplate("tailwind.config.js", `/** @type {import('tailwindcss').Config} */
export default {
  content: ['./index.html', './src/**/*.{js,jsx,ts,tsx}'],
  theme: {
    extend: {
      colors: {
        primary: '[[.Primary]]',
        accent: '[[.Accent]]',
      },
    },
  },
  plugins: [],
};
`)
)

const postcssConfig = `export default {
  plugins: {
    tailwindcss: {},
    autoprefixer: {},
  },
};
`

const viteConfig = `import { defineConfig } from 'vite';
import react from '@vitejs/plugin-react';

export default defineConfig({
  plugins: [react()],
});
`

func render(t *template.Template, data templateData) string {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		// Templates are static and data is plain strings.
		panic(err)
	}
	return sb.String()
}

// sanitize keeps user text from breaking out of JSX text or JS string literals.
var sanitizer = strings.NewReplacer("{", "", "}", "", "<", "", ">", "", "`", "", `"`, "", "'", "’", "\\", "")

func sanitize(s string) string { return strings.TrimSpace(sanitizer.Replace(s)) }

// baseData fills the fields every template shares from the plan and policy.
func baseData(name string, env Env) templateData {
	pers := env.Plan.Personalization()
	business := sanitize(pers.DisplayName(defaultBusiness(env.Plan.Kind())))
	d := templateData{
		Name:       name,
		Title:      plan.Title(name),
		Anchor:     strings.ToLower(strings.ReplaceAll(plan.Title(name), " ", "-")),
		Business:   business,
		Tagline:    sanitize(tagline(env.Plan.Kind(), business)),
		Email:      sanitize(pers.Email),
		Phone:      sanitize(pers.Phone),
		Location:   sanitize(pers.Location),
		Primary:    env.Policy.Theme.Primary,
		Accent:     env.Policy.Theme.Accent,
		Background: env.Policy.Theme.Background,
		Font:       env.Policy.Theme.Font,
	}
	for _, page := range env.Plan.Pages() {
		d.Links = append(d.Links, link{Label: plan.Title(page), Href: routePath(page)})
	}
	if len(d.Links) == 0 {
		d.Links = []link{{Label: "About", Href: "#about"}, {Label: "Contact", Href: "#contact"}}
	}
	return d
}

// RenderComponent produces a complete, personalised file for a component or
// page at p.
func RenderComponent(p string, env Env) string {
	name := plan.ComponentName(baseName(p))
	purpose := PurposeOf(p)
	d := baseData(name, env)
	switch purpose {
	case PurposePage:
		if strings.EqualFold(name, "Home") || strings.EqualFold(name, "Index") {
			d.Title = d.Business
		}
		d.Tagline = sanitize(pageIntro(name, d.Business, env.Plan.Kind()))
	case PurposeSection:
		d.Items = sectionItems(name, d.Business)
	}
	return render(templates[purpose], d)
}

func routePath(page string) string {
	if strings.EqualFold(page, "Home") || strings.EqualFold(page, "Index") {
		return "/"
	}
	return "/" + strings.ToLower(strings.ReplaceAll(plan.Title(page), " ", "-"))
}

func defaultBusiness(kind string) string {
	switch kind {
	case plan.KindPortfolio:
		return "My Portfolio"
	case plan.KindRestaurant:
		return "The Kitchen"
	case plan.KindEcommerce:
		return "The Shop"
	case plan.KindBlog:
		return "The Journal"
	default:
		return "Our Studio"
	}
}

func tagline(kind, business string) string {
	switch kind {
	case plan.KindPortfolio:
		return "Selected work and the craft behind it."
	case plan.KindRestaurant:
		return "Seasonal food and a warm table at " + business + "."
	case plan.KindEcommerce:
		return "Thoughtfully made products, shipped to your door."
	case plan.KindBlog:
		return "Stories, notes and ideas from " + business + "."
	case plan.KindSaaS:
		return "The simplest way to get your work done."
	case plan.KindAgency:
		return "Design and engineering for ambitious teams."
	case plan.KindEvent:
		return "Join us for a day of talks and conversations."
	default:
		return business + " helps you do more with less effort."
	}
}

func pageIntro(page, business, kind string) string {
	switch strings.ToLower(page) {
	case "home", "index":
		return tagline(kind, business)
	case "about":
		return "Learn who we are and what drives " + business + "."
	case "contact":
		return "Reach out to " + business + " and we will get back to you soon."
	case "services":
		return "Everything " + business + " can do for you."
	case "menu":
		return "Our current menu, prepared fresh every day."
	case "blog":
		return "The latest posts from " + business + "."
	default:
		return plan.Title(page) + " at " + business + "."
	}
}

func sectionItems(name, business string) []card {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "testimonial") || strings.Contains(lower, "review"):
		return []card{
			{"Alex M.", "Working with " + business + " was a genuine pleasure."},
			{"Priya S.", "Fast, thoughtful and easy to reach."},
			{"Jordan K.", "The results exceeded what we hoped for."},
		}
	case strings.Contains(lower, "pricing") || strings.Contains(lower, "plan"):
		return []card{
			{"Starter", "Everything you need to get going."},
			{"Pro", "More capacity and priority support."},
			{"Enterprise", "Custom terms for larger teams."},
		}
	case strings.Contains(lower, "team"):
		return []card{
			{"Founder", "Sets the direction for " + business + "."},
			{"Lead Designer", "Shapes how everything looks and feels."},
			{"Engineer", "Builds and runs the product."},
		}
	case strings.Contains(lower, "menu"):
		return []card{
			{"Starters", "Small plates made to share."},
			{"Mains", "Hearty dishes built on local produce."},
			{"Desserts", "A sweet finish to every meal."},
		}
	case strings.Contains(lower, "faq"):
		return []card{
			{"How do I get started?", "Send us a message and we will guide you."},
			{"How long does it take?", "Most requests are handled within a week."},
			{"Can I change my order?", "Yes, just let us know."},
		}
	case strings.Contains(lower, "project") || strings.Contains(lower, "portfolio") || strings.Contains(lower, "gallery") || strings.Contains(lower, "work"):
		return []card{
			{"Brand Refresh", "A new identity for a growing company."},
			{"Mobile App", "A focused app for everyday tasks."},
			{"Marketing Site", "A fast site that converts."},
		}
	default:
		return []card{
			{"Quality", business + " holds every detail to a high standard."},
			{"Support", "Real people ready to help when you need it."},
			{"Value", "Clear pricing with no surprises."},
		}
	}
}

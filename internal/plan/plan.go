// Package plan derives the immutable ProjectPlan every generation stage reads.
package plan

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sitegen_server/internal/policy"
)

// Personalization holds user-identifying details pulled from the request so
// templates can speak about the user's business rather than a generic one.
type Personalization struct {
	BusinessName string `json:"businessName,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Location     string `json:"location,omitempty"`
}

// DisplayName is the business name or fallback when none was found.
func (p Personalization) DisplayName(fallback string) string {
	if p.BusinessName != "" {
		return p.BusinessName
	}
	return fallback
}

// ProjectPlan is created once per request and never modified. Accessors return
// copies so later stages cannot mutate it through shared slices or maps.
type ProjectPlan struct {
	kind         string
	components   []string
	pages        []string
	dependencies map[string]string
	rawRequest   string
	personal     Personalization
}

// New builds a plan from explicit parts. Names are normalised to PascalCase and
// de-duplicated.
func New(kind string, components, pages []string, deps map[string]string, request string) ProjectPlan {
	p := ProjectPlan{
		kind:         kind,
		components:   normalizeNames(components),
		pages:        normalizeNames(pages),
		dependencies: make(map[string]string, len(deps)),
		rawRequest:   request,
		personal:     ExtractPersonalization(request),
	}
	for k, v := range deps {
		p.dependencies[k] = v
	}
	if p.kind == "" {
		p.kind = KindLanding
	}
	return p
}

func (p ProjectPlan) Kind() string       { return p.kind }
func (p ProjectPlan) RawRequest() string { return p.rawRequest }

func (p ProjectPlan) Personalization() Personalization { return p.personal }

func (p ProjectPlan) Components() []string { return append([]string(nil), p.components...) }

func (p ProjectPlan) Pages() []string { return append([]string(nil), p.pages...) }

func (p ProjectPlan) Dependencies() map[string]string {
	out := make(map[string]string, len(p.dependencies))
	for k, v := range p.dependencies {
		out[k] = v
	}
	return out
}

// DependencyNames returns the dependency names sorted.
func (p ProjectPlan) DependencyNames() []string {
	names := make([]string, 0, len(p.dependencies))
	for k := range p.dependencies {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// HasComponent reports whether name is a planned component.
func (p ProjectPlan) HasComponent(name string) bool {
	for _, c := range p.components {
		if c == name {
			return true
		}
	}
	return false
}

type planJSON struct {
	ProjectKind     string            `json:"projectKind"`
	Components      []string          `json:"components"`
	Pages           []string          `json:"pages"`
	Dependencies    map[string]string `json:"dependencies"`
	RawRequest      string            `json:"rawRequest"`
	Personalization Personalization   `json:"personalization"`
}

func (p ProjectPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(planJSON{
		ProjectKind:     p.kind,
		Components:      p.Components(),
		Pages:           p.Pages(),
		Dependencies:    p.Dependencies(),
		RawRequest:      p.rawRequest,
		Personalization: p.personal,
	})
}

// Draft is the plan shape an LLM is asked to return. Any field may be empty.
type Draft struct {
	ProjectKind  string            `json:"projectKind"`
	Components   []string          `json:"components"`
	Pages        []string          `json:"pages"`
	Dependencies map[string]string `json:"dependencies"`
}

// FromDraft merges a model-drafted plan over the heuristic one. Draft
// dependencies are only kept when the policy allows the library.
func FromDraft(request string, d Draft, pol policy.GenerationPolicy) ProjectPlan {
	base := Build(request, pol)
	kind := base.kind
	if k := strings.ToLower(strings.TrimSpace(d.ProjectKind)); k != "" {
		kind = k
	}
	components := base.components
	if len(d.Components) > 0 {
		components = d.Components
	}
	pages := base.pages
	if len(d.Pages) > 0 {
		pages = d.Pages
	}
	deps := base.Dependencies()
	for name := range d.Dependencies {
		if lib, ok := pol.Library(name); ok && !lib.Dev {
			deps[name] = lib.Version
		}
	}
	return New(kind, components, pages, deps, request)
}

// ComponentName turns free text ("contact form", "product-grid") into a
// PascalCase identifier ("ContactForm", "ProductGrid").
func ComponentName(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	caser := cases.Title(language.English, cases.NoLower)
	var sb strings.Builder
	for _, w := range words {
		sb.WriteString(caser.String(w))
	}
	name := sb.String()
	if name != "" && unicode.IsDigit(rune(name[0])) {
		name = "C" + name
	}
	return name
}

// Title renders a PascalCase name as words ("ContactForm" -> "Contact Form").
func Title(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func normalizeNames(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		n := ComponentName(raw)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

package policy

import (
	"fmt"
	"log"
	"strings"

	"github.com/BurntSushi/toml"
)

// Library is a package the generated project may depend on.
type Library struct {
	Name    string `toml:"name" json:"name"`
	Version string `toml:"version" json:"version"`
	Dev     bool   `toml:"dev" json:"dev,omitempty"`
	// Required libraries are injected into the manifest even when unused.
	Required bool `toml:"required" json:"required,omitempty"`
}

// GenerationPolicy is the fixed rule set every stage prompt and repair pass reads.
type GenerationPolicy struct {
	Framework         string    `toml:"framework" json:"framework"`
	Language          string    `toml:"language" json:"language"` // "jsx" or "tsx"
	Libraries         []Library `toml:"libraries" json:"libraries"`
	ForbiddenPatterns []string  `toml:"forbidden_patterns" json:"forbiddenPatterns"`
	StructuralRules   []string  `toml:"structural_rules" json:"structuralRules"`
	Theme             Theme     `toml:"theme" json:"theme"`
}

// Theme is the colour palette handed to the model.
type Theme struct {
	Primary    string `toml:"primary" json:"primary"`
	Accent     string `toml:"accent" json:"accent"`
	Background string `toml:"background" json:"background"`
	Font       string `toml:"font" json:"font"`
}

// Default returns the built-in policy: React + Vite + Tailwind in plain JSX.
func Default() GenerationPolicy {
	return GenerationPolicy{
		Framework: "React + Vite",
		Language:  "jsx",
		Libraries: []Library{
			{Name: "react", Version: "^18.2.0", Required: true},
			{Name: "react-dom", Version: "^18.2.0", Required: true},
			{Name: "react-router-dom", Version: "^6.22.0", Required: true},
			{Name: "framer-motion", Version: "^11.0.0"},
			{Name: "lucide-react", Version: "^0.344.0"},
			{Name: "vite", Version: "^5.1.0", Dev: true, Required: true},
			{Name: "@vitejs/plugin-react", Version: "^4.2.1", Dev: true, Required: true},
			{Name: "tailwindcss", Version: "^3.4.1", Dev: true, Required: true},
			{Name: "postcss", Version: "^8.4.35", Dev: true, Required: true},
			{Name: "autoprefixer", Version: "^10.4.17", Dev: true, Required: true},
		},
		ForbiddenPatterns: []string{
			"data:image/",
			";base64,",
			"under construction",
			"coming soon",
			"lorem ipsum",
		},
		StructuralRules: []string{
			"Every component returns exactly one root element; wrap siblings in a fragment <>...</>.",
			"Every component file ends with an `export default` of the component.",
			"Use Tailwind utility classes for all styling; do not write inline style objects.",
			"Images use remote https URLs with a descriptive alt attribute; never inline encoded image data.",
			"Import local modules with relative paths.",
		},
		Theme: Theme{
			Primary:    "#1A73E8",
			Accent:     "#FF6F61",
			Background: "#F9FAFB",
			Font:       "Inter, sans-serif",
		},
	}
}

// LoadFile reads a TOML policy file and overlays it on Default. Unset fields keep
// their defaults; a non-empty list replaces the default list.
func LoadFile(path string) (GenerationPolicy, error) {
	p := Default()
	var override GenerationPolicy
	meta, err := toml.DecodeFile(path, &override)
	if err != nil {
		return GenerationPolicy{}, fmt.Errorf("failed to decode policy file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		log.Printf("WARN: policy file %s has unknown keys: %v", path, undecoded)
	}

	if override.Framework != "" {
		p.Framework = override.Framework
	}
	if override.Language != "" {
		lang := strings.ToLower(override.Language)
		if lang != "jsx" && lang != "tsx" {
			return GenerationPolicy{}, fmt.Errorf("policy language must be jsx or tsx, got %q", override.Language)
		}
		p.Language = lang
	}
	if len(override.Libraries) > 0 {
		p.Libraries = override.Libraries
	}
	if len(override.ForbiddenPatterns) > 0 {
		p.ForbiddenPatterns = override.ForbiddenPatterns
	}
	if len(override.StructuralRules) > 0 {
		p.StructuralRules = override.StructuralRules
	}
	if override.Theme.Primary != "" {
		p.Theme.Primary = override.Theme.Primary
	}
	if override.Theme.Accent != "" {
		p.Theme.Accent = override.Theme.Accent
	}
	if override.Theme.Background != "" {
		p.Theme.Background = override.Theme.Background
	}
	if override.Theme.Font != "" {
		p.Theme.Font = override.Theme.Font
	}
	return p, nil
}

// Library looks up a library by name.
func (p GenerationPolicy) Library(name string) (Library, bool) {
	for _, l := range p.Libraries {
		if l.Name == name {
			return l, true
		}
	}
	return Library{}, false
}

// LibraryNames lists the allowed runtime (non-dev) libraries.
func (p GenerationPolicy) LibraryNames() []string {
	var names []string
	for _, l := range p.Libraries {
		if !l.Dev {
			names = append(names, l.Name)
		}
	}
	return names
}

// Ext is the source extension for components ("jsx" -> ".jsx").
func (p GenerationPolicy) Ext() string {
	if p.Language == "tsx" {
		return ".tsx"
	}
	return ".jsx"
}

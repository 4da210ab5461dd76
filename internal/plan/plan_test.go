package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen_server/internal/policy"
)

func TestBuildDetectsKindAndPersonalization(t *testing.T) {
	req := `Build a portfolio website for Jane Doe, a wedding photographer in Berlin. Contact jane@doe.studio or +49 30 1234 5678.`
	p := Build(req, policy.Default())

	assert.Equal(t, KindPortfolio, p.Kind())
	assert.Contains(t, p.Components(), "Hero")
	assert.Contains(t, p.Pages(), "Projects")

	pers := p.Personalization()
	assert.Equal(t, "Jane Doe", pers.BusinessName)
	assert.Equal(t, "jane@doe.studio", pers.Email)
	assert.Equal(t, "+49 30 1234 5678", pers.Phone)
	assert.Equal(t, "Berlin", pers.Location)
	assert.Equal(t, req, p.RawRequest())
}

func TestBuildDefaultsToLanding(t *testing.T) {
	p := Build("make me something nice", policy.Default())
	assert.Equal(t, KindLanding, p.Kind())
	assert.Equal(t, []string{"Home", "About", "Contact"}, p.Pages())
	assert.Equal(t, "^18.2.0", p.Dependencies()["react"])
	assert.NotContains(t, p.Dependencies(), "vite")
}

func TestBuildExplicitPagesAndSections(t *testing.T) {
	p := Build(`A bakery site called Sweet Crumbs with a testimonials and opening hours sections. Pages: menu, catering and contact.`, policy.Default())

	assert.Equal(t, KindRestaurant, p.Kind())
	assert.Equal(t, []string{"Home", "Menu", "Catering", "Contact"}, p.Pages())
	comps := p.Components()
	assert.Contains(t, comps, "Testimonials")
	assert.Contains(t, comps, "OpeningHours")
	assert.Equal(t, "Footer", comps[len(comps)-1])
	assert.Equal(t, "Sweet Crumbs", p.Personalization().BusinessName)
}

func TestLocationSkipsTechWords(t *testing.T) {
	pers := ExtractPersonalization("a landing page in React for a gym in Lisbon")
	assert.Equal(t, "Lisbon", pers.Location)
}

func TestPlanIsImmutable(t *testing.T) {
	p := New("landing", []string{"header", "footer"}, []string{"home"}, map[string]string{"react": "^18.2.0"}, "req")

	comps := p.Components()
	comps[0] = "Mutated"
	deps := p.Dependencies()
	deps["evil"] = "1.0.0"

	assert.Equal(t, []string{"Header", "Footer"}, p.Components())
	assert.NotContains(t, p.Dependencies(), "evil")
}

func TestFromDraftFiltersDependencies(t *testing.T) {
	d := Draft{
		ProjectKind:  "SaaS",
		Components:   []string{"nav bar", "pricing table", "Nav Bar"},
		Dependencies: map[string]string{"lucide-react": "*", "left-pad": "1.0.0", "vite": "^5"},
	}
	p := FromDraft("an invoicing startup", d, policy.Default())

	assert.Equal(t, "saas", p.Kind())
	assert.Equal(t, []string{"NavBar", "PricingTable"}, p.Components())
	assert.Equal(t, "^0.344.0", p.Dependencies()["lucide-react"])
	assert.NotContains(t, p.Dependencies(), "left-pad")
	assert.NotContains(t, p.Dependencies(), "vite")
	assert.NotEmpty(t, p.Pages())
}

func TestComponentNameAndTitle(t *testing.T) {
	assert.Equal(t, "ContactForm", ComponentName("contact form"))
	assert.Equal(t, "ProductGrid", ComponentName("product-grid"))
	assert.Equal(t, "ProductGrid", ComponentName("ProductGrid"))
	assert.Equal(t, "C404", ComponentName("404"))
	assert.Equal(t, "Contact Form", Title("ContactForm"))
}

func TestMarshalJSON(t *testing.T) {
	p := New("blog", []string{"Header"}, []string{"Home"}, nil, "r")
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "blog", decoded["projectKind"])
	assert.Equal(t, []any{"Header"}, decoded["components"])
}

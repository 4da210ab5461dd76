package plan

import (
	"regexp"
	"strings"

	"sitegen_server/internal/policy"
)

const (
	KindLanding    = "landing"
	KindPortfolio  = "portfolio"
	KindRestaurant = "restaurant"
	KindEcommerce  = "ecommerce"
	KindBlog       = "blog"
	KindSaaS       = "saas"
	KindAgency     = "agency"
	KindEvent      = "event"
)

type kindProfile struct {
	kind       string
	keywords   []string
	components []string
	pages      []string
}

// Checked in order; ties go to the earlier profile.
var kindProfiles = []kindProfile{
	{
		kind:       KindPortfolio,
		keywords:   []string{"portfolio", "photographer", "designer", "resume", "cv", "artist", "freelancer"},
		components: []string{"Navbar", "Hero", "Projects", "Skills", "Contact", "Footer"},
		pages:      []string{"Home", "About", "Projects", "Contact"},
	},
	{
		kind:       KindRestaurant,
		keywords:   []string{"restaurant", "cafe", "café", "bakery", "coffee", "bistro", "menu", "pizza", "bar", "diner"},
		components: []string{"Navbar", "Hero", "MenuSection", "Gallery", "Reservation", "Footer"},
		pages:      []string{"Home", "Menu", "About", "Contact"},
	},
	{
		kind:       KindEcommerce,
		keywords:   []string{"shop", "store", "ecommerce", "e-commerce", "products", "boutique", "marketplace"},
		components: []string{"Navbar", "Hero", "ProductGrid", "ProductCard", "Cart", "Footer"},
		pages:      []string{"Home", "Shop", "Cart", "Contact"},
	},
	{
		kind:       KindBlog,
		keywords:   []string{"blog", "articles", "magazine", "news", "journal", "posts"},
		components: []string{"Navbar", "PostList", "PostCard", "Sidebar", "Footer"},
		pages:      []string{"Home", "Blog", "About"},
	},
	{
		kind:       KindSaaS,
		keywords:   []string{"saas", "startup", "software", "platform", "subscription", "dashboard"},
		components: []string{"Navbar", "Hero", "Features", "Pricing", "Testimonials", "Footer"},
		pages:      []string{"Home", "Pricing", "About", "Contact"},
	},
	{
		kind:       KindAgency,
		keywords:   []string{"agency", "consulting", "consultancy", "marketing", "studio", "firm"},
		components: []string{"Navbar", "Hero", "Services", "Team", "Testimonials", "Footer"},
		pages:      []string{"Home", "Services", "About", "Contact"},
	},
	{
		kind:       KindEvent,
		keywords:   []string{"event", "wedding", "conference", "festival", "meetup", "concert"},
		components: []string{"Navbar", "Hero", "Schedule", "Speakers", "Registration", "Footer"},
		pages:      []string{"Home", "Schedule", "Register"},
	},
}

var landingProfile = kindProfile{
	kind:       KindLanding,
	components: []string{"Navbar", "Hero", "Features", "Testimonials", "Contact", "Footer"},
	pages:      []string{"Home", "About", "Contact"},
}

var (
	pagesRe    = regexp.MustCompile(`(?i)\bpages?\s*(?::|like|such as|including)\s*([^.;\n]+)`)
	sectionsRe = regexp.MustCompile(`(?i)\bwith\s+(?:an?\s+|the\s+)?([a-z][a-z ,/&-]*?)\s+sections?\b`)
	listSplit  = regexp.MustCompile(`\s*(?:,|/|&|\band\b)\s*`)
)

// Build derives a plan from the request text alone.
func Build(request string, pol policy.GenerationPolicy) ProjectPlan {
	profile := detectProfile(request)

	components := append([]string(nil), profile.components...)
	pages := append([]string(nil), profile.pages...)

	if m := sectionsRe.FindStringSubmatch(request); m != nil {
		extra := splitList(m[1])
		// Keep Footer last so layout order stays natural.
		if n := len(components); n > 0 && components[n-1] == "Footer" {
			components = append(append(components[:n-1:n-1], extra...), "Footer")
		} else {
			components = append(components, extra...)
		}
	}
	if m := pagesRe.FindStringSubmatch(request); m != nil {
		if explicit := splitList(m[1]); len(explicit) > 0 {
			pages = append([]string{"Home"}, explicit...)
		}
	}

	deps := make(map[string]string)
	for _, lib := range pol.Libraries {
		if !lib.Dev {
			deps[lib.Name] = lib.Version
		}
	}
	return New(profile.kind, components, pages, deps, request)
}

func detectProfile(request string) kindProfile {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(request), func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\n' || r == '\t' || r == ':' || r == ';' || r == '"' || r == '\''
	}) {
		words[w] = true
	}
	best, bestHits := landingProfile, 0
	for _, p := range kindProfiles {
		hits := 0
		for _, k := range p.keywords {
			if words[k] {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = p, hits
		}
	}
	return best
}

func splitList(s string) []string {
	var out []string
	for _, part := range listSplit.Split(s, -1) {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(strings.TrimPrefix(part, "a "), "an ")
		if part == "" || len(part) > 40 {
			continue
		}
		out = append(out, part)
	}
	return out
}

var (
	quotedNameRe = regexp.MustCompile(`["“]([^"”\n]{2,60})["”]`)
	calledRe     = regexp.MustCompile(`\b(?:[Cc]alled|[Nn]amed)\s+([A-Z][\w&'’-]*(?:\s+[A-Z][\w&'’-]*){0,4})`)
	forNameRe    = regexp.MustCompile(`\bfor\s+(?:my\s+|our\s+)?([A-Z][\w&'’-]*(?:\s+[A-Z][\w&'’-]*){0,4})`)
	emailRe      = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]*\w`)
	phoneRe      = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
	locationRe   = regexp.MustCompile(`\b(?:in|based in|located in)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)`)
)

// techWords are capitalised words that follow "in" without naming a place.
var techWords = map[string]bool{
	"react": true, "tailwind": true, "typescript": true, "javascript": true,
	"english": true, "spanish": true, "french": true, "german": true,
	"dark": true, "light": true, "blue": true, "green": true, "red": true,
}

// ExtractPersonalization pulls a business name, contact details, and location
// out of free text. Missing details stay empty.
func ExtractPersonalization(request string) Personalization {
	var p Personalization
	for _, re := range []*regexp.Regexp{quotedNameRe, calledRe, forNameRe} {
		if m := re.FindStringSubmatch(request); m != nil {
			p.BusinessName = strings.TrimSpace(m[1])
			break
		}
	}
	p.Email = emailRe.FindString(request)
	if m := phoneRe.FindString(request); m != "" {
		p.Phone = strings.TrimSpace(m)
	}
	for _, m := range locationRe.FindAllStringSubmatch(request, -1) {
		if !techWords[strings.ToLower(m[1])] {
			p.Location = m[1]
			break
		}
	}
	return p
}

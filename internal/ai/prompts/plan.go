package prompts

import (
	"fmt"
	"strings"
)

// PlanPrompt asks for a JSON project plan restricted to the allowed libraries.
func PlanPrompt(request string, allowed []string) string {
	prompt := `
		A user wants a website generated from this description:
		---
		%s
		---

		Decide the project structure. Respond ONLY with a JSON object of this shape:
		` + "```json" + `
		{
			"projectKind": "landing | portfolio | restaurant | ecommerce | blog | saas | agency | event",
			"components": ["Navbar", "Hero", "Footer"],
			"pages": ["Home", "About", "Contact"],
			"dependencies": {"framer-motion": "^11.0.0"}
		}
		` + "```" + `

		Components are reusable sections in PascalCase. Pages are routes in PascalCase, "Home" first.
		Dependencies may only be chosen from: %s.
		Keep it small: at most 8 components and 5 pages.
	`
	return fmt.Sprintf(prompt, request, strings.Join(allowed, ", "))
}

package repair

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tagRe = regexp.MustCompile(`<(/?)([A-Za-z][\w.-]*)[^<>]*?(/?)>`)

// tagCounts returns open and close counts per tag name, ignoring self-closing tags.
func tagCounts(s string) (map[string]int, map[string]int) {
	opens, closes := map[string]int{}, map[string]int{}
	for _, m := range tagRe.FindAllStringSubmatch(s, -1) {
		switch {
		case m[3] == "/":
		case m[1] == "/":
			closes[m[2]]++
		default:
			opens[m[2]]++
		}
	}
	return opens, closes
}

func visibleText(s string) string {
	return strings.Join(strings.Fields(tagRe.ReplaceAllString(s, " ")), " ")
}

func TestLineBalancerRoundTrip(t *testing.T) {
	cases := map[string]string{
		"missing closer": brokenCard,
		"stray closer": `export default function About() {
  return (
    <section>
      <p>Hi</p>
      </span>
    </section>
  );
}
`,
		"closer never written": `const Hero = () => (
  <header>
    <h1>Welcome</h1>
);
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			fixed, notes := LineBalancer{}.Fix("src/components/X.jsx", src)
			require.NotEqual(t, src, fixed)
			assert.NotEmpty(t, notes)

			opens, closes := tagCounts(fixed)
			assert.Equal(t, opens, closes)
			assert.Equal(t, visibleText(src), visibleText(fixed))

			again, more := LineBalancer{}.Fix("src/components/X.jsx", fixed)
			assert.Equal(t, fixed, again)
			assert.Empty(t, more)
		})
	}
}

func TestLineBalancerClosesInnermostFirst(t *testing.T) {
	fixed, _ := LineBalancer{}.Fix("src/components/Card.jsx", brokenCard)
	assert.Contains(t, fixed, "<span>more</span>\n      </p>\n    </div>\n  );")
}

func TestLineBalancerSelfClosesVoidElements(t *testing.T) {
	src := `export default function Contact() {
  return (
    <form>
      <input type="email">
      <br>
    </form>
  );
}
`
	fixed, notes := LineBalancer{}.Fix("src/components/Contact.jsx", src)
	assert.Contains(t, fixed, `<input type="email" />`)
	assert.Contains(t, fixed, `<br />`)
	assert.Equal(t, []string{"self-closed <input>", "self-closed <br>"}, notes)
}

func TestLineBalancerKeepsExplicitVoidCloser(t *testing.T) {
	src := "const Gap = () => (\n  <div>\n    <br></br>\n  </div>\n);\n"
	fixed, notes := LineBalancer{}.Fix("src/components/Gap.jsx", src)
	assert.Equal(t, src, fixed)
	assert.Empty(t, notes)
}

func TestLineBalancerWrapsMultipleRoots(t *testing.T) {
	src := "export default function Intro() {\n  return (\n    <h1>A</h1>\n    <p>B</p>\n  );\n}\n"
	fixed, notes := LineBalancer{}.Fix("src/components/Intro.jsx", src)
	assert.Equal(t, "export default function Intro() {\n  return (\n    <>\n    <h1>A</h1>\n    <p>B</p>\n    </>\n  );\n}\n", fixed)
	assert.Equal(t, []string{"wrapped 2 root elements in a fragment"}, notes)
}

// Known false negatives: these are broken but left alone rather than guessed at.
func TestLineBalancerLeavesUncertainBlocks(t *testing.T) {
	cases := map[string]string{
		"top-level ternary": "const View = ({ ok }) => (\n  ok ? <div>yes : <span>no</span>\n);\n",
		"tag open inside expression": "export default function List({ items }) {\n  return (\n    <ul>\n      {items.map(i => <li>{i})}\n    </ul>\n  );\n}\n",
		"not markup": "function total(a, b) {\n  return (a + b);\n}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			fixed, notes := LineBalancer{}.Fix("src/x.jsx", src)
			assert.Equal(t, src, fixed)
			assert.Empty(t, notes)
		})
	}
}

func TestLineBalancerIgnoresTagsInStrings(t *testing.T) {
	src := "const Note = () => (\n  <p>\n    {\"<b> is bold\"}\n  </p>\n);\n"
	fixed, notes := LineBalancer{}.Fix("src/components/Note.jsx", src)
	assert.Equal(t, src, fixed)
	assert.Empty(t, notes)
}

type upperFixer struct{}

func (upperFixer) Fix(path, content string) (string, []string) {
	return strings.ToUpper(content), []string{"shouted"}
}

func TestMarkupBalancerUsesInjectedFixer(t *testing.T) {
	tr := buildTree(t, map[string]string{
		"src/components/A.jsx": "a",
		"src/utils/format.js":  "b",
		"vite.config.js":       "c",
		"src/index.css":        "d",
	})
	res := MarkupBalancer{Fixer: upperFixer{}}.Apply(tr, testEnv())

	assert.Equal(t, "A", content(t, tr, "src/components/A.jsx"))
	assert.Equal(t, "B", content(t, tr, "src/utils/format.js"))
	assert.Equal(t, "c", content(t, tr, "vite.config.js"))
	assert.Equal(t, "d", content(t, tr, "src/index.css"))
	require.Len(t, res.Fixes, 2)
	assert.Equal(t, "Markup Balancer", res.Fixes[0].Pass)
	assert.Equal(t, "shouted", res.Fixes[0].Description)
}

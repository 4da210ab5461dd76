package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraftVariants(t *testing.T) {
	cases := map[string]string{
		"plain":   `{"projectKind":"blog","components":["Header"],"pages":["Home"]}`,
		"fenced":  "```json\n{\"projectKind\":\"blog\",\"components\":[\"Header\"],\"pages\":[\"Home\"]}\n```",
		"wrapped": `{"plan":{"projectKind":"blog","components":["Header"],"pages":["Home"]}}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := ParseDraft(in)
			require.NoError(t, err)
			assert.Equal(t, "blog", d.ProjectKind)
			assert.Equal(t, []string{"Header"}, d.Components)
			assert.Equal(t, []string{"Home"}, d.Pages)
		})
	}
}

func TestParseDraftRejectsEmpty(t *testing.T) {
	_, err := ParseDraft(`{"unrelated": true}`)
	assert.Error(t, err)
	_, err = ParseDraft("not json at all")
	assert.Error(t, err)
}

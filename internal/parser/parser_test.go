package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitegen_server/internal/types"
)

func sampleStream(n int) (string, []types.FileRecord) {
	var sb strings.Builder
	var want []types.FileRecord
	sb.WriteString("Here is your project.\n")
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("src/components/Part%d.jsx", i)
		content := fmt.Sprintf("export default function Part%d() {\n  return <div>%d</div>;\n}", i, i)
		fmt.Fprintf(&sb, "<file path=\"%s\">\n%s\n</file>\n", path, content)
		want = append(want, types.FileRecord{Path: path, Content: content})
	}
	sb.WriteString("Done.")
	return sb.String(), want
}

func TestFeedCompleteAcrossChunkings(t *testing.T) {
	stream, want := sampleStream(5)
	for _, size := range []int{1, 2, 3, 7, 16, 64, len(stream)} {
		t.Run(fmt.Sprintf("chunk=%d", size), func(t *testing.T) {
			p := New()
			var got []types.FileRecord
			for i := 0; i < len(stream); i += size {
				end := i + size
				if end > len(stream) {
					end = len(stream)
				}
				got = append(got, p.Feed(stream[i:end])...)
			}
			assert.Empty(t, p.Finish())
			assert.Equal(t, want, got)
			assert.Equal(t, want, p.Files())
		})
	}
}

func TestTruncatedOpeningIsHeldBack(t *testing.T) {
	p := New()
	got := p.Feed(`<file path="a.jsx">A</file><file path="b.jsx">partial content`)
	require.Len(t, got, 1)
	assert.Equal(t, "a.jsx", got[0].Path)
	assert.Positive(t, p.Pending())

	issues := p.Finish()
	require.Len(t, issues, 1)
	assert.Equal(t, "truncated-block", issues[0].Kind)
	assert.Equal(t, "b.jsx", issues[0].File)
	assert.Len(t, p.Files(), 1)
}

func TestCutOffMarkerPrefixIsNotSkipped(t *testing.T) {
	p := New()
	assert.Empty(t, p.Feed("intro text <fi"))
	got := p.Feed(`le path="x.css">body{}</file>`)
	require.Len(t, got, 1)
	assert.Equal(t, "x.css", got[0].Path)
	assert.Equal(t, "body{}", got[0].Content)
}

func TestNoReemitOnLaterFeeds(t *testing.T) {
	p := New()
	require.Len(t, p.Feed(`<file path="a">1</file>`), 1)
	assert.Empty(t, p.Feed(" trailing"))
	assert.Empty(t, p.Feed(""))
	assert.Len(t, p.Files(), 1)
}

func TestNestedMarkerFailsClosed(t *testing.T) {
	stream := `<file path="outer.jsx">broken <file path="inner.jsx">inner</file>`
	files, issues := Parse(stream)
	require.Len(t, files, 1)
	assert.Equal(t, "inner.jsx", files[0].Path)
	assert.Equal(t, "inner", files[0].Content)
	require.Len(t, issues, 1)
	assert.Equal(t, "nested-marker", issues[0].Kind)
	assert.Equal(t, "outer.jsx", issues[0].File)
}

func TestDuplicatePathsLastWins(t *testing.T) {
	stream := `<file path="a">one</file><file path="b">B</file><file path='a'>two</file>`
	p := New()
	emitted := p.Feed(stream)
	assert.Len(t, emitted, 3)
	assert.Equal(t, []types.FileRecord{
		{Path: "a", Content: "two"},
		{Path: "b", Content: "B"},
	}, p.Files())
}

func TestNonMarkerTextIsIgnored(t *testing.T) {
	files, issues := Parse("see <filename> and <file>nothing</file> then <file path=\"ok\">yes</file>")
	require.Len(t, files, 1)
	assert.Equal(t, "ok", files[0].Path)
	assert.Empty(t, issues)
}

func TestFeedAfterFinishIsNoop(t *testing.T) {
	p := New()
	p.Finish()
	assert.Nil(t, p.Feed(`<file path="a">x</file>`))
	assert.Equal(t, "", p.Raw())
}

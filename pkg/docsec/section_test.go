package docsec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_SimpleTree(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Intro"},
		{text: "Some intro text."},
		{styleID: "Heading2", text: "Background"},
		{text: "Background text."},
		{styleID: "Heading1", text: "Conclusion"},
	})

	d, err := Parse("doc1", "f.docx", "/tmp/f.docx", "alice", data)
	require.NoError(t, err)

	roots := d.Roots()
	require.Len(t, roots, 2)
	require.Equal(t, "Intro", roots[0].Heading)
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "Background", roots[0].Children[0].Heading)
	require.Equal(t, "Intro > Background", roots[0].Children[0].Path)
	require.Equal(t, "Conclusion", roots[1].Heading)

	intro, ok := d.FindSection("doc1_section_0")
	require.True(t, ok)
	require.Equal(t, "Intro", intro.Heading)
}

func TestParse_HeadingOver6IsContent(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Top"},
		{styleID: "Heading7", text: "Not a real heading"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)
	require.Len(t, d.Roots(), 1)
	require.Contains(t, d.ContentText(d.Roots()[0]), "Not a real heading")
}

func TestParse_LeadingContentBeforeAnyHeadingIsDiscarded(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{text: "orphan text"},
		{styleID: "Heading1", text: "First"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)
	require.Len(t, d.Roots(), 1)
	require.Equal(t, "", d.ContentText(d.Roots()[0]))
}

func TestParse_EmptyHeadingTextStable(t *testing.T) {
	data := buildTestDocx([]testParagraph{{styleID: "Heading1", text: ""}})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)
	require.Len(t, d.Roots(), 1)
	require.Equal(t, "", d.Roots()[0].Heading)
	require.NotEmpty(t, d.Roots()[0].Hash)
}

func TestParse_HashStableAcrossReload(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Stable"},
		{text: "v1"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)
	hash1 := d.Roots()[0].Hash

	data2 := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Stable"},
		{text: "v2, edited"},
	})
	require.NoError(t, d.Reparse(data2))
	require.Equal(t, hash1, d.Roots()[0].Hash)
}

func TestParse_EmptySectionFilter(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "A"},
		{text: "x"},
		{styleID: "Heading1", text: "B"},
		{styleID: "Heading1", text: "C"},
		{text: "   "},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)
	require.False(t, d.IsSectionEmpty(d.Roots()[0]))
	require.True(t, d.IsSectionEmpty(d.Roots()[1]))
	require.True(t, d.IsSectionEmpty(d.Roots()[2])) // whitespace-only counts as empty
}

func TestOutline(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "A"},
		{styleID: "Heading2", text: "A.1"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)
	out := Outline(d.Roots())
	require.Contains(t, out, "- A\n")
	require.Contains(t, out, "  - A.1\n")
}

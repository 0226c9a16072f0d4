package docsec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommit_ReplaceRemovesOwnedSpanOnly(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Intro"},
		{text: "old line one"},
		{text: "old line two"},
		{styleID: "Heading1", text: "Outro"},
		{text: "untouched"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)

	sec, ok := d.FindSectionByPath("Intro")
	require.True(t, ok)

	_, err = Commit(d, sec.ID, "new content", ModeReplace, DefaultFormatting())
	require.NoError(t, err)

	roots := d.Roots()
	require.Len(t, roots, 2)
	require.Equal(t, "Intro", roots[0].Heading)
	require.Equal(t, "Outro", roots[1].Heading)
	require.Equal(t, "new content", strings.TrimSpace(d.ContentText(roots[0])))
	require.Equal(t, "untouched", strings.TrimSpace(d.ContentText(roots[1])))
}

func TestCommit_AppendPreservesExistingContent(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Intro"},
		{text: "existing line"},
		{styleID: "Heading1", text: "Outro"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)

	sec, ok := d.FindSectionByPath("Intro")
	require.True(t, ok)

	_, err = Commit(d, sec.ID, "appended content", ModeAppend, DefaultFormatting())
	require.NoError(t, err)

	roots := d.Roots()
	text := d.ContentText(roots[0])
	require.Contains(t, text, "existing line")
	require.Contains(t, text, "appended content")
}

func TestCommit_SuppressesDuplicateHeadingLine(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Background"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)

	sec, ok := d.FindSectionByPath("Background")
	require.True(t, ok)

	_, err = Commit(d, sec.ID, "# Background\nActual body text.", ModeReplace, DefaultFormatting())
	require.NoError(t, err)

	text := d.ContentText(d.Roots()[0])
	require.NotContains(t, text, "Background\n")
	require.Contains(t, text, "Actual body text.")
}

func TestCommit_UnknownSectionIDErrors(t *testing.T) {
	data := buildTestDocx([]testParagraph{{styleID: "Heading1", text: "A"}})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)

	_, err = Commit(d, "doc1_section_999", "x", ModeReplace, DefaultFormatting())
	require.Error(t, err)
	var notFound *SectionNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCommit_InvalidModeErrors(t *testing.T) {
	data := buildTestDocx([]testParagraph{{styleID: "Heading1", text: "A"}})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)
	sec := d.Roots()[0]

	_, err = Commit(d, sec.ID, "x", Mode("BOGUS"), DefaultFormatting())
	require.Error(t, err)
	var invalid *InvalidModeError
	require.ErrorAs(t, err, &invalid)
}

func TestCommit_ReworkOnNestedSectionLeavesChildIntact(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "Top"},
		{text: "top body"},
		{styleID: "Heading2", text: "Child"},
		{text: "child body"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)

	top, ok := d.FindSectionByPath("Top")
	require.True(t, ok)

	_, err = Commit(d, top.ID, "rewritten top", ModeRework, DefaultFormatting())
	require.NoError(t, err)

	roots := d.Roots()
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	require.Equal(t, "Child", roots[0].Children[0].Heading)
	require.Equal(t, "child body", strings.TrimSpace(d.ContentText(roots[0].Children[0])))
	require.Equal(t, "rewritten top", strings.TrimSpace(d.ContentText(roots[0])))
}

func TestCommit_HashStableWhenSiblingContentChanges(t *testing.T) {
	data := buildTestDocx([]testParagraph{
		{styleID: "Heading1", text: "A"},
		{text: "a body"},
		{styleID: "Heading1", text: "B"},
		{text: "b body"},
	})
	d, err := Parse("doc1", "f.docx", "", "a", data)
	require.NoError(t, err)

	secB, ok := d.FindSectionByPath("B")
	require.True(t, ok)
	hashBBefore := secB.Hash

	secA, ok := d.FindSectionByPath("A")
	require.True(t, ok)
	_, err = Commit(d, secA.ID, "new a body", ModeReplace, DefaultFormatting())
	require.NoError(t, err)

	secBAfter, ok := d.FindSectionByPath("B")
	require.True(t, ok)
	require.Equal(t, hashBBefore, secBAfter.Hash)
}

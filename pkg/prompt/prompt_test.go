package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild_Deterministic(t *testing.T) {
	in := Input{
		SectionName: "Background",
		ParentPath:  "Intro",
		Mode:        ModeReplace,
	}
	a := Build(in)
	b := Build(in)
	require.Equal(t, a, b)
}

func TestBuild_RootLevelParentContext(t *testing.T) {
	out := Build(Input{SectionName: "Intro", Mode: ModeReplace})
	require.Contains(t, out, "Parent context: Root level")
}

func TestBuild_ParentContentIncludesMarkerAndAlignmentInstructions(t *testing.T) {
	out := Build(Input{
		SectionName:      "Child",
		ParentPath:       "Parent",
		Mode:             ModeReplace,
		ParentHasContent: true,
		ParentContent:    "parent body text",
	})
	require.Contains(t, out, "PARENT SECTION CONTENT")
	require.Contains(t, out, "parent body text")
	require.Contains(t, out, "Expand upon the parent section above.")
	require.Contains(t, out, "Do not contradict the parent.")
}

func TestBuild_NoParentContentOmitsBlock(t *testing.T) {
	out := Build(Input{SectionName: "Child", Mode: ModeReplace, ParentHasContent: false})
	require.NotContains(t, out, "PARENT SECTION CONTENT")
}

func TestBuild_SiblingsInstructDistinctness(t *testing.T) {
	out := Build(Input{
		SectionName:   "A",
		Mode:          ModeReplace,
		SiblingTitles: []string{"B", "C"},
	})
	require.Contains(t, out, "Sibling sections (stay distinct from these): B, C")
}

func TestBuild_ReworkIncludesCurrentContentAndRewriteInstruction(t *testing.T) {
	out := Build(Input{SectionName: "A", Mode: ModeRework, CurrentContent: "old text"})
	require.Contains(t, out, "old text")
	require.Contains(t, out, "Rewrite and enhance")
}

func TestBuild_AppendIncludesExtendInstruction(t *testing.T) {
	out := Build(Input{SectionName: "A", Mode: ModeAppend, CurrentContent: "old text"})
	require.Contains(t, out, "old text")
	require.Contains(t, out, "Extend the above")
}

func TestBuild_KnowledgeCollections(t *testing.T) {
	out := Build(Input{
		SectionName:          "A",
		Mode:                 ModeReplace,
		KnowledgeCollections: []string{"col1", "col2"},
	})
	require.Contains(t, out, "col1, col2")
}

func TestBuild_OutlineIncludedWhenPresent(t *testing.T) {
	out := Build(Input{SectionName: "A", Mode: ModeReplace, DocumentOutline: "- A\n  - B\n"})
	require.Contains(t, out, "Document outline:")
	require.Contains(t, out, "- A\n")
}

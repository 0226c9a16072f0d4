// Package prompt implements the Prompt Builder (C4): a pure function
// assembling a single user-role prompt string from a section's ancestry,
// siblings, mode, and optional context, per spec.md §4.4. Given the same
// Input it always produces byte-identical output.
package prompt

import (
	"fmt"
	"strings"
)

// Mode mirrors the Commit Engine's mode, kept independent here so this
// package has no dependency on pkg/docsec.
type Mode string

const (
	ModeReplace Mode = "REPLACE"
	ModeRework  Mode = "REWORK"
	ModeAppend  Mode = "APPEND"
)

// Input carries every input named in spec.md §4.4's construction order.
// The parent-content block is always introduced by the fixed
// parentContentMarker line; Input has no field to change it.
type Input struct {
	SectionName     string
	ParentPath      string // "" means root level
	Mode            Mode
	DocumentOutline string // rendered outline, already formatted; "" to omit

	ParentHasContent bool
	ParentContent    string

	SiblingTitles []string

	CurrentContent string // used by REWORK/APPEND

	KnowledgeCollections []string
	Comments             []string
}

const masterTemplate = "Section: {section_name}\nParent context: {parent_context}\nOperation mode: {operation_mode}\n"

// parentContentMarker is the literal string scenario 6 of spec.md §8
// stubs against; emitted unconditionally ahead of the parent content block
// so a stub LLM can detect it.
const parentContentMarker = "PARENT SECTION CONTENT"

// Build renders the prompt for in according to the fixed construction
// order of spec.md §4.4. It performs no I/O and is side-effect free.
func Build(in Input) string {
	var b strings.Builder

	// 1. template placeholder substitution
	parentContext := in.ParentPath
	if parentContext == "" {
		parentContext = "Root level"
	}
	tmpl := masterTemplate
	tmpl = strings.ReplaceAll(tmpl, "{section_name}", in.SectionName)
	tmpl = strings.ReplaceAll(tmpl, "{parent_context}", parentContext)
	tmpl = strings.ReplaceAll(tmpl, "{operation_mode}", strings.ToUpper(string(in.Mode)))
	b.WriteString(tmpl)

	// 2. document outline
	if in.DocumentOutline != "" {
		b.WriteString("\nDocument outline:\n")
		b.WriteString(in.DocumentOutline)
	}

	// 3. parent content + fixed alignment instructions
	if in.ParentHasContent && strings.TrimSpace(in.ParentContent) != "" {
		b.WriteString("\n" + parentContentMarker + ":\n")
		b.WriteString(in.ParentContent)
		b.WriteString("\n\n")
		for _, instr := range parentAlignmentInstructions {
			b.WriteString("- ")
			b.WriteString(instr)
			b.WriteString("\n")
		}
	}

	// 4. sibling titles
	if len(in.SiblingTitles) > 0 {
		b.WriteString("\nSibling sections (stay distinct from these): ")
		b.WriteString(strings.Join(in.SiblingTitles, ", "))
		b.WriteString("\n")
	}

	// 5. mode-specific instructions
	b.WriteString("\n")
	switch in.Mode {
	case ModeReplace:
		b.WriteString("Write this section from scratch.\n")
	case ModeRework:
		b.WriteString("Current content:\n")
		b.WriteString(in.CurrentContent)
		b.WriteString("\nRewrite and enhance the above.\n")
	case ModeAppend:
		b.WriteString("Current content:\n")
		b.WriteString(in.CurrentContent)
		b.WriteString("\nExtend the above with additional content.\n")
	default:
		b.WriteString(fmt.Sprintf("Unrecognized mode %q; write this section from scratch.\n", in.Mode))
	}

	// 6. knowledge-collection guidance
	if len(in.KnowledgeCollections) > 0 {
		b.WriteString("\nGround your answer in the attached knowledge collections: ")
		b.WriteString(strings.Join(in.KnowledgeCollections, ", "))
		b.WriteString("\n")
	}

	if len(in.Comments) > 0 {
		b.WriteString("\nReviewer comments:\n")
		for _, c := range in.Comments {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}

	return b.String()
}

var parentAlignmentInstructions = []string{
	"Expand upon the parent section above.",
	"Reuse the parent's terminology.",
	"Reference concepts introduced by the parent.",
	"Be a logical subdivision of the parent.",
	"Do not contradict the parent.",
}

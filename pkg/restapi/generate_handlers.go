package restapi

import (
	"net/http"
	"strings"

	"github.com/sectionforge/sectionforge/pkg/apperr"
	"github.com/sectionforge/sectionforge/pkg/docsec"
	"github.com/sectionforge/sectionforge/pkg/prompt"
	"github.com/sectionforge/sectionforge/pkg/telemetry"
)

type generateRequest struct {
	DocumentID  string   `json:"document_id"`
	SectionID   string   `json:"section_id"`
	Mode        string   `json:"mode"`
	Model       string   `json:"model"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Collections []string `json:"collections,omitempty"`
}

type generateResponse struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
}

// handleGenerate implements single-section generation: build the prompt,
// call the configured LLM, commit the result, and mark the section
// edited — the synchronous one-section counterpart of the Job Scheduler's
// per-section step in pkg/scheduler.
func (h *handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := validateLLMParams(req.Temperature, req.MaxTokens); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.deps.Sections.Get(req.DocumentID)
	if err != nil {
		writeError(w, err)
		return
	}
	sec, ok := doc.FindSection(req.SectionID)
	if !ok {
		writeError(w, apperr.NotFound("section not found: %s", req.SectionID))
		return
	}

	mode := docsec.Mode(strings.ToUpper(req.Mode))

	var parentPath string
	var parentHasContent bool
	var parentContent string
	var siblingTitles []string
	if sec.Parent != nil {
		parentPath = sec.Parent.Path
		if existing := doc.ContentText(sec.Parent); strings.TrimSpace(existing) != "" {
			parentHasContent = true
			parentContent = existing
		}
		for _, sib := range sec.Parent.Children {
			if sib.ID != sec.ID {
				siblingTitles = append(siblingTitles, sib.Heading)
			}
		}
	}

	promptStr := prompt.Build(prompt.Input{
		SectionName:          sec.Heading,
		ParentPath:           parentPath,
		Mode:                 prompt.Mode(mode),
		DocumentOutline:      docsec.Outline(doc.Roots()),
		ParentHasContent:     parentHasContent,
		ParentContent:        parentContent,
		SiblingTitles:        siblingTitles,
		CurrentContent:       doc.ContentText(sec),
		KnowledgeCollections: req.Collections,
	})

	client, _, err := h.llmClientFor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := client.Complete(r.Context(), promptStr, req.Model, req.Temperature, req.MaxTokens, req.Collections)
	if err != nil {
		h.deps.Telemetry.Record(telemetry.AuditEvent{Kind: telemetry.KindSectionFailed, DocumentID: req.DocumentID, SectionID: req.SectionID, Detail: string(mode)})
		writeError(w, err)
		return
	}

	committed, err := docsec.Commit(doc, req.SectionID, resp.Content, mode, docsec.DefaultFormatting())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.deps.Sections.MarkEdited(req.DocumentID, committed.Hash, committed.Path); err != nil {
		writeError(w, err)
		return
	}
	_ = h.deps.Sections.Save(req.DocumentID)

	h.deps.Telemetry.Record(telemetry.AuditEvent{Kind: telemetry.KindSectionGenerated, DocumentID: req.DocumentID, SectionID: req.SectionID, Detail: string(mode)})
	writeJSON(w, http.StatusOK, generateResponse{Content: resp.Content, TokensUsed: resp.TokensUsed})
}

// handleReview is the out-of-scope collaborator hook named in spec.md
// §6.1; this service carries no review subsystem.
func (h *handler) handleReview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "review is an out-of-scope collaborator hook"})
}

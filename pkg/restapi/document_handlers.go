package restapi

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sectionforge/sectionforge/pkg/apperr"
	"github.com/sectionforge/sectionforge/pkg/auth"
	"github.com/sectionforge/sectionforge/pkg/docsec"
)

func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())

	if err := r.ParseMultipartForm(h.deps.MaxUploadBytes); err != nil {
		writeError(w, apperr.Validation("parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Validation("missing file field: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperr.Internal(err, "read upload"))
		return
	}

	docID := uuid.NewString()
	storedName := docID + "_" + filepath.Base(header.Filename)
	storedPath := filepath.Join(h.deps.UploadDir, storedName)

	if err := os.MkdirAll(h.deps.UploadDir, 0o755); err != nil {
		writeError(w, apperr.Internal(err, "create upload dir"))
		return
	}
	if err := os.WriteFile(storedPath, data, 0o644); err != nil {
		writeError(w, apperr.Internal(err, "store upload"))
		return
	}

	doc, err := docsec.Parse(docID, header.Filename, storedPath, p.ID, data)
	if err != nil {
		writeError(w, apperr.Validation("parse document: %v", err))
		return
	}

	h.deps.Sections.Put(doc)
	writeJSON(w, http.StatusCreated, toDocumentDTO(doc))
}

func (h *handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	doc, err := h.deps.Sections.Get(docID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(doc))
}

func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	docs := h.deps.Sections.List(p.ID)

	out := make([]documentDTO, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentDTO(d))
	}
	writeJSON(w, http.StatusOK, out)
}

type commitRequest struct {
	SectionID string `json:"section_id"`
	Content   string `json:"content"`
	Mode      string `json:"mode"`
}

func (h *handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")

	var req commitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.deps.Sections.Get(docID)
	if err != nil {
		writeError(w, err)
		return
	}

	sec, err := docsec.Commit(doc, req.SectionID, req.Content, docsec.Mode(strings.ToUpper(req.Mode)), docsec.DefaultFormatting())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.deps.Sections.MarkEdited(docID, sec.Hash, sec.Path); err != nil {
		writeError(w, err)
		return
	}
	_ = h.deps.Sections.Save(docID) // best-effort; save failures do not fail the commit

	writeJSON(w, http.StatusOK, toSectionDTO(doc, sec))
}

func (h *handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	doc, err := h.deps.Sections.Get(docID)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := doc.Bytes()
	if err != nil {
		writeError(w, apperr.Internal(err, "serialize document"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Write(data)
}

func (h *handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")

	doc, err := h.deps.Sections.Get(docID)
	if err != nil {
		writeError(w, err)
		return
	}
	path := doc.Path

	if err := h.deps.Sections.Delete(docID); err != nil {
		writeError(w, err)
		return
	}
	if path != "" {
		_ = os.Remove(path) // best-effort
	}

	writeJSON(w, http.StatusNoContent, nil)
}

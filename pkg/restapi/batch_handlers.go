package restapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sectionforge/sectionforge/pkg/docsec"
)

type batchStartRequest struct {
	DocumentID   string   `json:"document_id"`
	SectionIDs   []string `json:"section_ids"`
	Mode         string   `json:"mode"`
	Model        string   `json:"model"`
	Temperature  float64  `json:"temperature"`
	MaxTokens    int      `json:"max_tokens"`
	Collections  []string `json:"collections,omitempty"`
	EmptyOnly    bool     `json:"empty_only"`
	SubscriberID string   `json:"subscriber_id"`
}

type batchStartResponse struct {
	JobID string `json:"job_id"`
	Total int    `json:"total"`
}

func (h *handler) handleBatchStart(w http.ResponseWriter, r *http.Request) {
	var req batchStartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := validateLLMParams(req.Temperature, req.MaxTokens); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.deps.Scheduler.CreateJob(
		req.DocumentID, req.SectionIDs, docsec.Mode(strings.ToUpper(req.Mode)),
		req.Model, req.Temperature, req.MaxTokens, req.Collections,
		req.EmptyOnly, req.SubscriberID, docsec.DefaultFormatting(),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	client, _, err := h.llmClientFor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.deps.Scheduler.Start(job.ID, client); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, batchStartResponse{JobID: job.ID, Total: len(job.Targets)})
}

func (h *handler) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job")
	snap, err := h.deps.Scheduler.Status(jobID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) handleBatchPause(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job")
	if err := h.deps.Scheduler.Pause(jobID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "pause requested"})
}

func (h *handler) handleBatchResume(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job")
	if err := h.deps.Scheduler.Resume(jobID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "resume requested"})
}

func (h *handler) handleBatchCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job")
	if err := h.deps.Scheduler.Cancel(jobID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancel requested"})
}

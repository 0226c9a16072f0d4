// Package scheduler implements the Job Scheduler (C6): single-threaded
// cooperative per-job execution of batch generation, with pause/resume/
// cancel and progress events, per spec.md §4.6. Grounded on the teacher's
// pkg/task.State shape (explicit state enum with terminal/pending
// predicates) and a2a/server.go's map-of-jobs-behind-a-mutex with one
// goroutine per unit of work.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sectionforge/sectionforge/pkg/apperr"
	"github.com/sectionforge/sectionforge/pkg/docsec"
	"github.com/sectionforge/sectionforge/pkg/llmclient"
	"github.com/sectionforge/sectionforge/pkg/prompt"
	"github.com/sectionforge/sectionforge/pkg/sectionstore"
	"github.com/sectionforge/sectionforge/pkg/streamhub"
	"github.com/sectionforge/sectionforge/pkg/telemetry"
)

// DefaultInterSectionDelay bounds the upstream request rate during a
// batch, per spec.md §4.6 step 6.
const DefaultInterSectionDelay = 500 * time.Millisecond

// LLMClient is the subset of llmclient.Client the scheduler depends on,
// narrowed to an interface so tests can stub the upstream call.
type LLMClient interface {
	Complete(ctx context.Context, prompt string, model string, temperature float64, maxTokens int, collections []string) (*llmclient.Response, error)
}

// Scheduler owns every job's lifecycle. It is the single writer of the
// job table, per spec.md §9's redesign note.
type Scheduler struct {
	mu   sync.RWMutex
	jobs map[string]*Job

	store *sectionstore.Store
	hub   *streamhub.Hub
	wg    sync.WaitGroup

	// InterSectionDelay overrides DefaultInterSectionDelay; tests set
	// this to near-zero to avoid slow suites.
	InterSectionDelay time.Duration

	// Telemetry receives job/section audit events, per SPEC_FULL.md
	// §4.11. Nil is a valid no-op sink.
	Telemetry telemetry.Sink
}

// New builds a Scheduler bound to store (for section resolution and
// commits) and hub (for progress events).
func New(store *sectionstore.Store, hub *streamhub.Hub) *Scheduler {
	return &Scheduler{
		jobs:              make(map[string]*Job),
		store:             store,
		hub:               hub,
		InterSectionDelay: DefaultInterSectionDelay,
	}
}

func (s *Scheduler) record(kind telemetry.Kind, j *Job, sectionID string) {
	if s.Telemetry == nil {
		return
	}
	s.Telemetry.Record(telemetry.AuditEvent{
		Kind:       kind,
		DocumentID: j.DocumentID,
		JobID:      j.ID,
		SectionID:  sectionID,
		At:         time.Now(),
		Detail:     string(j.Mode),
	})
}

// CreateJob resolves sectionIDs against the document's current tree,
// applies the empty_only filter at creation time (spec.md §4.6), and
// registers a new PENDING job. It does not start execution.
func (s *Scheduler) CreateJob(docID string, sectionIDs []string, mode docsec.Mode, model string, temperature float64, maxTokens int, collections []string, emptyOnly bool, subscriberID string, fmtting docsec.Formatting) (*Job, error) {
	doc, err := s.store.Get(docID)
	if err != nil {
		return nil, err
	}

	targets := sectionIDs
	if emptyOnly {
		targets = targets[:0:0]
		for _, id := range sectionIDs {
			sec, ok := doc.FindSection(id)
			if !ok {
				return nil, apperr.NotFound("section not found: %s", id)
			}
			if doc.IsSectionEmpty(sec) {
				targets = append(targets, id)
			}
		}
	} else {
		for _, id := range sectionIDs {
			if _, ok := doc.FindSection(id); !ok {
				return nil, apperr.NotFound("section not found: %s", id)
			}
		}
	}

	j := newJob(uuid.NewString(), docID, targets, mode, model, temperature, maxTokens, collections, emptyOnly, subscriberID, fmtting)

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()

	return j, nil
}

// Start transitions a PENDING job to RUNNING and begins its goroutine.
func (s *Scheduler) Start(jobID string, llm LLMClient) error {
	j, err := s.get(jobID)
	if err != nil {
		return err
	}
	if j.currentStatus() != StatePending {
		return apperr.Validation("job %s is not pending", jobID)
	}

	j.mu.Lock()
	j.status = StateRunning
	j.startedAt = time.Now()
	j.mu.Unlock()

	s.emit(j, "job_started", nil)
	s.record(telemetry.KindJobStarted, j, "")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(j, llm)
	}()
	return nil
}

// Pause requests a pause, effective at the next section boundary. Valid
// only from RUNNING.
func (s *Scheduler) Pause(jobID string) error {
	j, err := s.get(jobID)
	if err != nil {
		return err
	}
	if j.currentStatus() != StateRunning {
		return apperr.Validation("job %s is not running", jobID)
	}
	select {
	case j.pauseSignal <- struct{}{}:
	default:
	}
	return nil
}

// Resume requests a resume from PAUSED. Valid only from PAUSED.
func (s *Scheduler) Resume(jobID string) error {
	j, err := s.get(jobID)
	if err != nil {
		return err
	}
	if j.currentStatus() != StatePaused {
		return apperr.Validation("job %s is not paused", jobID)
	}
	select {
	case j.resumeSignal <- struct{}{}:
	default:
	}
	return nil
}

// Cancel requests cancellation, terminating the job before its next
// section begins. Valid from RUNNING or PAUSED.
func (s *Scheduler) Cancel(jobID string) error {
	j, err := s.get(jobID)
	if err != nil {
		return err
	}
	status := j.currentStatus()
	if status != StateRunning && status != StatePaused {
		return apperr.Validation("job %s cannot be cancelled from %s", jobID, status)
	}
	j.cancelOnce.Do(func() { close(j.cancelCh) })
	return nil
}

// Status returns a point-in-time snapshot of a job.
func (s *Scheduler) Status(jobID string) (Snapshot, error) {
	j, err := s.get(jobID)
	if err != nil {
		return Snapshot{}, err
	}
	return j.snapshot(), nil
}

// Wait blocks until every job goroutine this Scheduler started has
// returned. A paused job's goroutine returns only after resume or cancel.
// The service shell's shutdown does not call it.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) get(jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, apperr.NotFound("job not found: %s", jobID)
	}
	return j, nil
}

func (s *Scheduler) delay() time.Duration {
	if s.InterSectionDelay > 0 {
		return s.InterSectionDelay
	}
	return DefaultInterSectionDelay
}

// run is the job's cooperative loop: one section at a time, checking for
// pause/cancel at every boundary, never holding the inter-section delay
// while a pause is pending.
func (s *Scheduler) run(j *Job, llm LLMClient) {
	defer func() {
		if r := recover(); r != nil {
			s.finishFailed(j, fmt.Errorf("scheduler panic: %v", r))
		}
	}()
	for {
		select {
		case <-j.cancelCh:
			s.finishCancelled(j)
			return
		case <-j.pauseSignal:
			if s.awaitResume(j) {
				return
			}
		default:
		}

		j.mu.Lock()
		cursor := j.cursor
		total := len(j.Targets)
		j.mu.Unlock()

		if cursor >= total {
			s.finishCompleted(j)
			return
		}

		sectionID := j.Targets[cursor]
		s.emit(j, "section_started", &streamhub.SectionPayload{SectionID: sectionID})

		result := s.runSection(context.Background(), j, llm, sectionID)

		j.mu.Lock()
		j.cursor++
		if result.Success {
			j.completed++
		} else {
			j.failed++
		}
		j.results = append(j.results, result)
		j.mu.Unlock()

		if result.Success {
			s.emit(j, "section_completed", resultPayload(result))
			s.record(telemetry.KindSectionGenerated, j, sectionID)
		} else {
			s.emit(j, "section_failed", resultPayload(result))
			s.record(telemetry.KindSectionFailed, j, sectionID)
		}

		select {
		case <-time.After(s.delay()):
		case <-j.cancelCh:
			s.finishCancelled(j)
			return
		case <-j.pauseSignal:
			if s.awaitResume(j) {
				return
			}
		}
	}
}

// awaitResume transitions the job to PAUSED and blocks until resume or
// cancel. It returns true if the caller should stop the run loop
// (cancelled while paused).
func (s *Scheduler) awaitResume(j *Job) bool {
	j.setStatus(StatePaused)
	s.emit(j, "job_paused", nil)
	select {
	case <-j.resumeSignal:
		j.setStatus(StateRunning)
		s.emit(j, "job_resumed", nil)
		return false
	case <-j.cancelCh:
		s.finishCancelled(j)
		return true
	}
}

func (s *Scheduler) finishCancelled(j *Job) {
	j.mu.Lock()
	j.status = StateCancelled
	j.endedAt = time.Now()
	j.mu.Unlock()
	s.emit(j, "job_cancelled", nil)
	s.record(telemetry.KindJobCancelled, j, "")
}

func (s *Scheduler) finishCompleted(j *Job) {
	j.mu.Lock()
	j.status = StateCompleted
	j.endedAt = time.Now()
	j.mu.Unlock()
	s.emit(j, "job_completed", nil)
	s.record(telemetry.KindJobCompleted, j, "")
}

func (s *Scheduler) finishFailed(j *Job, err error) {
	j.mu.Lock()
	j.status = StateFailed
	j.errMessage = err.Error()
	j.endedAt = time.Now()
	j.mu.Unlock()
	s.emit(j, "job_failed", nil)
	s.record(telemetry.KindJobFailed, j, "")
}

func resultPayload(r Result) *streamhub.SectionPayload {
	return &streamhub.SectionPayload{
		SectionID:    r.SectionID,
		SectionTitle: r.SectionTitle,
		Content:      r.Content,
		TokensUsed:   r.TokensUsed,
		Error:        r.Error,
	}
}

func (s *Scheduler) emit(j *Job, eventType string, section *streamhub.SectionPayload) {
	if j.SubscriberID == "" {
		return
	}
	snap := j.snapshot()
	s.hub.Send(j.SubscriberID, streamhub.Event{
		Type:      eventType,
		JobID:     j.ID,
		Status:    string(snap.Status),
		Cursor:    snap.Cursor,
		Completed: snap.Completed,
		Failed:    snap.Failed,
		Total:     snap.Total,
		Section:   section,
	})
}

// runSection performs the per-section step of spec.md §4.6: resolve,
// build context, prompt, complete, commit, record.
func (s *Scheduler) runSection(ctx context.Context, j *Job, llm LLMClient, sectionID string) Result {
	doc, err := s.store.Get(j.DocumentID)
	if err != nil {
		return Result{SectionID: sectionID, Success: false, Error: err.Error()}
	}
	sec, ok := doc.FindSection(sectionID)
	if !ok {
		return Result{SectionID: sectionID, Success: false, Error: fmt.Sprintf("section not found: %s", sectionID)}
	}

	var parentPath string
	var parentHasContent bool
	var parentContent string
	var siblingTitles []string

	if sec.Parent != nil {
		parentPath = sec.Parent.Path
		j.mu.Lock()
		genContent, generatedInJob := j.genResults[sec.Parent.ID]
		j.mu.Unlock()
		if generatedInJob && strings.TrimSpace(genContent) != "" {
			parentHasContent = true
			parentContent = genContent
		} else if existing := doc.ContentText(sec.Parent); strings.TrimSpace(existing) != "" {
			parentHasContent = true
			parentContent = existing
		}
		for _, sib := range sec.Parent.Children {
			if sib.ID != sec.ID {
				siblingTitles = append(siblingTitles, sib.Heading)
			}
		}
	}

	currentContent := doc.ContentText(sec)

	promptStr := prompt.Build(prompt.Input{
		SectionName:          sec.Heading,
		ParentPath:           parentPath,
		Mode:                 prompt.Mode(j.Mode),
		DocumentOutline:      docsec.Outline(doc.Roots()),
		ParentHasContent:     parentHasContent,
		ParentContent:        parentContent,
		SiblingTitles:        siblingTitles,
		CurrentContent:       currentContent,
		KnowledgeCollections: j.Collections,
	})

	resp, err := llm.Complete(ctx, promptStr, j.Model, j.Temperature, j.MaxTokens, j.Collections)
	if err != nil {
		return Result{SectionID: sectionID, SectionTitle: sec.Heading, Success: false, Error: err.Error()}
	}

	committed, err := docsec.Commit(doc, sectionID, resp.Content, j.Mode, j.Formatting)
	if err != nil {
		return Result{SectionID: sectionID, SectionTitle: sec.Heading, Success: false, Error: err.Error()}
	}

	if err := s.store.MarkEdited(j.DocumentID, committed.Hash, committed.Path); err != nil {
		return Result{SectionID: sectionID, SectionTitle: sec.Heading, Success: false, Error: err.Error()}
	}
	_ = s.store.Save(j.DocumentID) // best-effort; save failures do not fail generation

	j.mu.Lock()
	j.genResults[sectionID] = resp.Content
	j.mu.Unlock()

	return Result{SectionID: sectionID, SectionTitle: sec.Heading, Success: true, Content: resp.Content, TokensUsed: resp.TokensUsed}
}

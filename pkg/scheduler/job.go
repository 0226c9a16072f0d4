package scheduler

import (
	"sync"
	"time"

	"github.com/sectionforge/sectionforge/pkg/docsec"
)

// State is a job's position in the state machine of spec.md §4.6.
type State string

const (
	StatePending   State = "PENDING"
	StateRunning   State = "RUNNING"
	StatePaused    State = "PAUSED"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// IsPending reports whether the job has not yet started.
func (s State) IsPending() bool {
	return s == StatePending
}

// Result is the Generation Result of spec.md §3: success implies Content
// is populated, failure implies Error is.
type Result struct {
	SectionID    string `json:"section_id"`
	SectionTitle string `json:"section_title"`
	Success      bool   `json:"success"`
	Content      string `json:"content,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Job is a generation job per spec.md §3, run by the Scheduler one
// section at a time in Targets order.
type Job struct {
	ID           string
	DocumentID   string
	Targets      []string // section ids, in processing order
	Mode         docsec.Mode
	Model        string
	Temperature  float64
	MaxTokens    int
	Collections  []string
	EmptyOnly    bool
	SubscriberID string
	Formatting   docsec.Formatting

	mu         sync.Mutex
	status     State
	cursor     int
	completed  int
	failed     int
	results    []Result
	errMessage string
	startedAt  time.Time
	endedAt    time.Time

	// genResults holds content generated earlier in this same job, keyed
	// by section id — preferred over on-disk content when building a
	// child's parent-context (spec.md §4.6 step 2).
	genResults map[string]string

	cancelOnce   sync.Once
	cancelCh     chan struct{}
	pauseSignal  chan struct{}
	resumeSignal chan struct{}
}

func newJob(id, docID string, targets []string, mode docsec.Mode, model string, temperature float64, maxTokens int, collections []string, emptyOnly bool, subscriberID string, fmtting docsec.Formatting) *Job {
	return &Job{
		ID:           id,
		DocumentID:   docID,
		Targets:      targets,
		Mode:         mode,
		Model:        model,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		Collections:  collections,
		EmptyOnly:    emptyOnly,
		SubscriberID: subscriberID,
		Formatting:   fmtting,
		status:       StatePending,
		genResults:   make(map[string]string),
		cancelCh:     make(chan struct{}),
		pauseSignal:  make(chan struct{}, 1),
		resumeSignal: make(chan struct{}, 1),
	}
}

// Snapshot is a point-in-time, lock-free copy of a job's observable state.
type Snapshot struct {
	ID        string   `json:"id"`
	Status    State    `json:"status"`
	Cursor    int      `json:"cursor"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
	Total     int      `json:"total"`
	Results   []Result `json:"results"`
	Error     string   `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

func (j *Job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	results := make([]Result, len(j.results))
	copy(results, j.results)
	return Snapshot{
		ID:        j.ID,
		Status:    j.status,
		Cursor:    j.cursor,
		Completed: j.completed,
		Failed:    j.failed,
		Total:     len(j.Targets),
		Results:   results,
		Error:     j.errMessage,
		StartedAt: j.startedAt,
		EndedAt:   j.endedAt,
	}
}

func (j *Job) setStatus(s State) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *Job) currentStatus() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

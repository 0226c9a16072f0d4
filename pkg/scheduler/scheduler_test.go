package scheduler

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sectionforge/sectionforge/pkg/apperr"
	"github.com/sectionforge/sectionforge/pkg/docsec"
	"github.com/sectionforge/sectionforge/pkg/llmclient"
	"github.com/sectionforge/sectionforge/pkg/sectionstore"
	"github.com/sectionforge/sectionforge/pkg/streamhub"
	"github.com/stretchr/testify/require"
)

// stubLLM lets each test script exactly how the upstream responds per call.
type stubLLM struct {
	complete func(prompt string) (*llmclient.Response, error)
}

func (s *stubLLM) Complete(ctx context.Context, prompt string, model string, temperature float64, maxTokens int, collections []string) (*llmclient.Response, error) {
	return s.complete(prompt)
}

func newTestScheduler(t *testing.T, doc *docsec.Document) (*Scheduler, *streamhub.Hub) {
	t.Helper()
	store := sectionstore.New()
	store.Put(doc)
	hub := streamhub.New()
	sched := New(store, hub)
	sched.InterSectionDelay = time.Millisecond
	return sched, hub
}

func buildDoc(t *testing.T, docID string, xmlBody string) *docsec.Document {
	t.Helper()
	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>` + xmlBody + `
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	d, err := docsec.Parse(docID, "f.docx", "", "owner", buf.Bytes())
	require.NoError(t, err)
	return d
}

func heading(level int, text string) string {
	return fmt.Sprintf(`<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr><w:r><w:t>%s</w:t></w:r></w:p>`, level, text)
}

func para(text string) string {
	return fmt.Sprintf(`<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, text)
}

func TestScheduler_BatchEmptyOnlyFilter(t *testing.T) {
	doc := buildDoc(t, "doc1",
		heading(1, "A")+para("x")+
			heading(1, "B")+
			heading(1, "C")+para("   "))
	sched, hub := newTestScheduler(t, doc)

	a, _ := doc.FindSectionByPath("A")
	b, _ := doc.FindSectionByPath("B")
	c, _ := doc.FindSectionByPath("C")

	events := hub.Attach("client1")

	job, err := sched.CreateJob("doc1", []string{a.ID, b.ID, c.ID}, docsec.ModeReplace, "m", 0.5, 500, nil, true, "client1", docsec.DefaultFormatting())
	require.NoError(t, err)
	require.Equal(t, 2, len(job.Targets)) // A skipped

	llm := &stubLLM{complete: func(p string) (*llmclient.Response, error) {
		return &llmclient.Response{Content: "generated"}, nil
	}}
	require.NoError(t, sched.Start(job.ID, llm))

	waitTerminal(t, sched, job.ID)

	snap, err := sched.Status(job.ID)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, snap.Status)
	require.Equal(t, 2, snap.Completed)
	require.Equal(t, 0, snap.Failed)

	var types []string
	drainEvents(events, func(ev streamhub.Event) { types = append(types, ev.Type) })
	require.Equal(t, 2, countType(types, "section_completed"))
	require.Contains(t, types, "job_completed")
}

func TestScheduler_CancelMidBatch(t *testing.T) {
	doc := buildDoc(t, "doc1", heading(1, "A")+heading(1, "B")+heading(1, "C"))
	sched, hub := newTestScheduler(t, doc)
	sched.InterSectionDelay = 50 * time.Millisecond

	a, _ := doc.FindSectionByPath("A")
	b, _ := doc.FindSectionByPath("B")
	c, _ := doc.FindSectionByPath("C")

	events := hub.Attach("client1")

	job, err := sched.CreateJob("doc1", []string{a.ID, b.ID, c.ID}, docsec.ModeReplace, "m", 0.5, 500, nil, false, "client1", docsec.DefaultFormatting())
	require.NoError(t, err)

	llm := &stubLLM{complete: func(p string) (*llmclient.Response, error) {
		return &llmclient.Response{Content: "generated"}, nil
	}}
	require.NoError(t, sched.Start(job.ID, llm))

	waitForEvent(t, events, "section_completed")
	require.NoError(t, sched.Cancel(job.ID))

	waitTerminal(t, sched, job.ID)
	snap, err := sched.Status(job.ID)
	require.NoError(t, err)
	require.Equal(t, StateCancelled, snap.Status)
	require.Equal(t, 1, snap.Completed)
	require.Equal(t, 0, snap.Failed)
}

func TestScheduler_LLM5xxMidBatch(t *testing.T) {
	doc := buildDoc(t, "doc1", heading(1, "A")+heading(1, "B")+heading(1, "C"))
	sched, _ := newTestScheduler(t, doc)

	a, _ := doc.FindSectionByPath("A")
	b, _ := doc.FindSectionByPath("B")
	c, _ := doc.FindSectionByPath("C")

	job, err := sched.CreateJob("doc1", []string{a.ID, b.ID, c.ID}, docsec.ModeReplace, "m", 0.5, 500, nil, false, "", docsec.DefaultFormatting())
	require.NoError(t, err)

	llm := &stubLLM{complete: func(p string) (*llmclient.Response, error) {
		if strings.Contains(p, "Section: B") {
			return nil, apperr.Upstream(503, "service unavailable")
		}
		return &llmclient.Response{Content: "generated"}, nil
	}}
	require.NoError(t, sched.Start(job.ID, llm))

	waitTerminal(t, sched, job.ID)
	snap, err := sched.Status(job.ID)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, snap.Status)
	require.Equal(t, 2, snap.Completed)
	require.Equal(t, 1, snap.Failed)
}

func TestScheduler_ParentContextPropagation(t *testing.T) {
	doc := buildDoc(t, "doc1", heading(1, "P")+heading(2, "C"))
	sched, _ := newTestScheduler(t, doc)

	p, _ := doc.FindSectionByPath("P")
	c, _ := doc.FindSectionByPath("P > C")

	job, err := sched.CreateJob("doc1", []string{p.ID, c.ID}, docsec.ModeReplace, "m", 0.5, 500, nil, false, "", docsec.DefaultFormatting())
	require.NoError(t, err)

	llm := &stubLLM{complete: func(prompt string) (*llmclient.Response, error) {
		if strings.Contains(prompt, "PARENT SECTION CONTENT") {
			return &llmclient.Response{Content: "child-uses-parent"}, nil
		}
		return &llmclient.Response{Content: "parent-text"}, nil
	}}
	require.NoError(t, sched.Start(job.ID, llm))

	waitTerminal(t, sched, job.ID)
	snap, err := sched.Status(job.ID)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Completed)
	require.Equal(t, "parent-text", snap.Results[0].Content)
	require.Equal(t, "child-uses-parent", snap.Results[1].Content)
}

func TestScheduler_PauseResume(t *testing.T) {
	doc := buildDoc(t, "doc1", heading(1, "A")+heading(1, "B")+heading(1, "C")+heading(1, "D"))
	sched, _ := newTestScheduler(t, doc)
	sched.InterSectionDelay = 30 * time.Millisecond

	var ids []string
	for _, h := range []string{"A", "B", "C", "D"} {
		sec, ok := doc.FindSectionByPath(h)
		require.True(t, ok)
		ids = append(ids, sec.ID)
	}

	hub := streamhub.New()
	store := sectionstore.New()
	store.Put(doc)
	sched = New(store, hub)
	sched.InterSectionDelay = 30 * time.Millisecond
	events := hub.Attach("client1")

	job, err := sched.CreateJob("doc1", ids, docsec.ModeReplace, "m", 0.5, 500, nil, false, "client1", docsec.DefaultFormatting())
	require.NoError(t, err)

	llm := &stubLLM{complete: func(p string) (*llmclient.Response, error) {
		return &llmclient.Response{Content: "generated"}, nil
	}}
	require.NoError(t, sched.Start(job.ID, llm))

	waitForEvent(t, events, "section_completed")
	require.NoError(t, sched.Pause(job.ID))

	require.Eventually(t, func() bool {
		snap, _ := sched.Status(job.ID)
		return snap.Status == StatePaused
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sched.Resume(job.ID))

	waitTerminal(t, sched, job.ID)
	snap, err := sched.Status(job.ID)
	require.NoError(t, err)
	require.Equal(t, StateCompleted, snap.Status)
	require.Equal(t, 4, snap.Completed)
	require.Equal(t, 0, snap.Failed)
}

func waitTerminal(t *testing.T, sched *Scheduler, jobID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap, err := sched.Status(jobID)
		require.NoError(t, err)
		return snap.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)
}

func waitForEvent(t *testing.T, events <-chan streamhub.Event, eventType string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == eventType {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %q", eventType)
		}
	}
}

func drainEvents(events <-chan streamhub.Event, fn func(streamhub.Event)) {
	for {
		select {
		case ev := <-events:
			fn(ev)
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

func countType(types []string, want string) int {
	n := 0
	for _, t := range types {
		if t == want {
			n++
		}
	}
	return n
}

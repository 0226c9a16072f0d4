// Package sectionstore implements the Section Store (C3): an in-memory
// document_id -> Document index with an atomically persisted edit-state
// sidecar per document, per spec.md §4.3.
package sectionstore

import (
	"os"
	"sync"
	"time"

	"github.com/sectionforge/sectionforge/pkg/apperr"
	"github.com/sectionforge/sectionforge/pkg/docsec"
)

// saveRetries is the "up to three attempts" save-retry budget of
// spec.md §4.7 for the file-in-use condition.
const saveRetries = 3

// Store holds every parsed Document, keyed by document id. Mutations for a
// given document are serialized by the Document's own write lock; the
// Store's own mutex only protects the top-level map.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*docsec.Document
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: make(map[string]*docsec.Document)}
}

// Put inserts a parsed document, replacing any existing entry for the same
// id. Re-inserting a document under the same id with identical bytes is a
// no-op from the caller's perspective (the new tree is equivalent).
func (s *Store) Put(doc *docsec.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

// Get fetches a document by id.
func (s *Store) Get(docID string) (*docsec.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[docID]
	if !ok {
		return nil, apperr.NotFound("document not found: %s", docID)
	}
	return d, nil
}

// List returns every document owned by owner, in no particular order.
func (s *Store) List(owner string) []*docsec.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*docsec.Document
	for _, d := range s.docs {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	return out
}

// Delete removes a document and its sidecar file from the store.
func (s *Store) Delete(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[docID]
	if !ok {
		return apperr.NotFound("document not found: %s", docID)
	}
	delete(s.docs, docID)
	if path := sidecarPath(d.Path); path != "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return apperr.Internal(err, "remove sidecar for %s", docID)
		}
	}
	return nil
}

// FindSection performs the document's id-index lookup, surfaced as a typed
// not-found error for direct use by REST handlers.
func (s *Store) FindSection(docID, sectionID string) (*docsec.Section, error) {
	d, err := s.Get(docID)
	if err != nil {
		return nil, err
	}
	sec, ok := d.FindSection(sectionID)
	if !ok {
		return nil, apperr.NotFound("section not found: %s", sectionID)
	}
	return sec, nil
}

// FindSectionByPath re-binds a selection to the current tree after a
// reload, per spec.md §4.3.
func (s *Store) FindSectionByPath(docID, path string) (*docsec.Section, error) {
	d, err := s.Get(docID)
	if err != nil {
		return nil, err
	}
	sec, ok := d.FindSectionByPath(path)
	if !ok {
		return nil, apperr.NotFound("section not found at path: %s", path)
	}
	return sec, nil
}

// MarkEdited updates a section's edit-state entry and atomically persists
// the sidecar file, per spec.md §4.3's write-temp-then-rename policy.
func (s *Store) MarkEdited(docID, sectionHash, sectionPath string) error {
	d, err := s.Get(docID)
	if err != nil {
		return err
	}
	d.MarkEdited(sectionHash, sectionPath)
	return s.persistSidecar(d)
}

// Reload re-parses a document from its current on-disk bytes, rebuilding
// the section tree while preserving edit-state (keyed by hash).
func (s *Store) Reload(docID string) error {
	d, err := s.Get(docID)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return apperr.Internal(err, "read document %s", docID)
	}
	return d.Reparse(data)
}

// LoadSidecar reads a persisted edit-state sidecar (if present) and
// restores it onto the document, intended to be called once right after
// Put during upload/startup recovery.
func (s *Store) LoadSidecar(doc *docsec.Document) error {
	path := sidecarPath(doc.Path)
	if path == "" {
		return nil
	}
	m, err := readSidecar(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Internal(err, "read edit-state sidecar for %s", doc.ID)
	}
	doc.RestoreEditState(m)
	return nil
}

// Save persists a document's current in-memory bytes to its storage path
// (auto-save after commit, per spec.md §4.7), making up to saveRetries
// write attempts in all to ride out a transient file-in-use condition.
// A document with no storage path (e.g. one only ever used in-memory in
// tests) is a no-op.
func (s *Store) Save(docID string) error {
	d, err := s.Get(docID)
	if err != nil {
		return err
	}
	if d.Path == "" {
		return nil
	}

	data, err := d.Bytes()
	if err != nil {
		return apperr.Internal(err, "serialize document %s", docID)
	}

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		if lastErr = os.WriteFile(d.Path, data, 0o644); lastErr == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return apperr.Internal(lastErr, "save document %s after %d attempts", docID, saveRetries)
}

func (s *Store) persistSidecar(d *docsec.Document) error {
	path := sidecarPath(d.Path)
	if path == "" {
		return nil
	}
	if err := writeSidecar(path, d.EditState()); err != nil {
		return apperr.Internal(err, "persist edit-state sidecar for %s", d.ID)
	}
	return nil
}

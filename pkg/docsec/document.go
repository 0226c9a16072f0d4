package docsec

import (
	"fmt"
	"sync"
	"time"
)

// Document is the in-memory representation of an uploaded .docx file, its
// parsed section tree, and its edit-state map, per spec.md §3.
type Document struct {
	ID        string
	Filename  string
	Path      string // on-disk storage path
	Owner     string
	UploadedAt time.Time

	mu    sync.RWMutex
	pkg   *ooxmlPackage
	roots []*Section
	index map[string]*Section
	byHash map[string]*Section
	edit  map[string]*EditStateEntry // keyed by section_hash
}

// EditStateEntry tracks whether a section has been machine-edited, per
// spec.md §3.
type EditStateEntry struct {
	Edited       bool      `json:"edited"`
	LastModified time.Time `json:"last_modified"`
	SectionPath  string    `json:"section_path"`
}

// Parse builds a Document from raw .docx bytes. The section tree is
// materialized once and cached on the Document; callers must call Reparse
// after any out-of-band mutation of the underlying bytes.
func Parse(id, filename, path, owner string, data []byte) (*Document, error) {
	pkg, err := openPackage(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	d := &Document{
		ID:         id,
		Filename:   filename,
		Path:       path,
		Owner:      owner,
		UploadedAt: time.Now(),
		pkg:        pkg,
		edit:       make(map[string]*EditStateEntry),
	}
	d.roots, d.index, d.byHash = buildSectionTree(pkg, id)
	return d, nil
}

// Reparse re-reads the document's current bytes and rebuilds the section
// tree in place, preserving edit-state (keyed by hash, which survives a
// reload provided paths are unchanged), per spec.md §4.3's reload operation.
func (d *Document) Reparse(data []byte) error {
	pkg, err := openPackage(data)
	if err != nil {
		return fmt.Errorf("reparse %s: %w", d.Filename, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pkg = pkg
	d.roots, d.index, d.byHash = buildSectionTree(pkg, d.ID)
	return nil
}

// Roots returns the top-level sections, for read-only traversal. Callers
// must hold no assumption about pointer stability across commits.
func (d *Document) Roots() []*Section {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.roots
}

// FindSection looks a section up by section_id in the document's id index
// (a map rebuilt whenever the section tree is rebuilt), per spec.md §4.3.
func (d *Document) FindSection(sectionID string) (*Section, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.index[sectionID]
	return s, ok
}

// FindSectionByPath re-binds a selection by full path after a reload.
func (d *Document) FindSectionByPath(path string) (*Section, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := FindByPath(d.roots, path)
	return s, s != nil
}

// ContentText returns a section's current raw text, used to build the
// Prompt Builder's parent-context and current-content inputs. The
// empty_only job filter uses IsSectionEmpty instead.
func (d *Document) ContentText(s *Section) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return s.contentText(d.pkg.body)
}

// IsSectionEmpty reports whether s currently has only whitespace content.
func (d *Document) IsSectionEmpty(s *Section) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return s.IsEmpty(d.pkg.body)
}

// Comments returns the best-effort comment extraction for this document.
func (d *Document) Comments() []Comment {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pkg.comments
}

// EditState returns a snapshot of the edit-state map.
func (d *Document) EditState() map[string]*EditStateEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]*EditStateEntry, len(d.edit))
	for k, v := range d.edit {
		cp := *v
		out[k] = &cp
	}
	return out
}

// MarkEdited updates (or creates) the edit-state entry for a section hash.
func (d *Document) MarkEdited(hash, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.edit[hash] = &EditStateEntry{Edited: true, LastModified: time.Now(), SectionPath: path}
}

// RestoreEditState reinstates a previously persisted edit-state map (used
// when loading the sidecar file alongside a document).
func (d *Document) RestoreEditState(m map[string]*EditStateEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.edit = m
}

// Bytes re-serializes the current in-memory package to .docx bytes.
func (d *Document) Bytes() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pkg.bytes()
}

// withWriteLock runs fn with the document's write lock held, giving the
// Commit Engine exclusive access to mutate pkg/roots/index for this
// document while readers are blocked — the "one writer per document id"
// policy from spec.md §5.
func (d *Document) withWriteLock(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn()
}

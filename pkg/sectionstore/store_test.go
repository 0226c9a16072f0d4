package sectionstore

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sectionforge/sectionforge/pkg/apperr"
	"github.com/sectionforge/sectionforge/pkg/docsec"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	s := New()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(docPath, minimalDocx(t), 0o644))

	d, err := docsec.Parse("doc1", "report.docx", docPath, "alice", minimalDocx(t))
	require.NoError(t, err)
	s.Put(d)

	got, err := s.Get("doc1")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Owner)

	list := s.List("alice")
	require.Len(t, list, 1)

	require.NoError(t, s.Delete("doc1"))
	_, err = s.Get("doc1")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestStore_MarkEditedPersistsSidecar(t *testing.T) {
	s := New()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "report.docx")
	data := minimalDocx(t)
	require.NoError(t, os.WriteFile(docPath, data, 0o644))

	d, err := docsec.Parse("doc1", "report.docx", docPath, "alice", data)
	require.NoError(t, err)
	s.Put(d)

	sec := d.Roots()[0]
	require.NoError(t, s.MarkEdited("doc1", sec.Hash, sec.Path))

	sidecar := sidecarPath(docPath)
	require.FileExists(t, sidecar)

	m, err := readSidecar(sidecar)
	require.NoError(t, err)
	entry, ok := m[sec.Hash]
	require.True(t, ok)
	require.True(t, entry.Edited)
	require.Equal(t, sec.Path, entry.SectionPath)
}

func TestStore_LoadSidecarRestoresEditState(t *testing.T) {
	s := New()
	dir := t.TempDir()
	docPath := filepath.Join(dir, "report.docx")
	data := minimalDocx(t)
	require.NoError(t, os.WriteFile(docPath, data, 0o644))

	d, err := docsec.Parse("doc1", "report.docx", docPath, "alice", data)
	require.NoError(t, err)
	sec := d.Roots()[0]
	require.NoError(t, writeSidecar(sidecarPath(docPath), map[string]*docsec.EditStateEntry{
		sec.Hash: {Edited: true, SectionPath: sec.Path},
	}))

	require.NoError(t, s.LoadSidecar(d))
	st := d.EditState()
	entry, ok := st[sec.Hash]
	require.True(t, ok)
	require.True(t, entry.Edited)
}

func TestStore_FindSectionNotFound(t *testing.T) {
	s := New()
	data := minimalDocx(t)
	d, err := docsec.Parse("doc1", "r.docx", "", "a", data)
	require.NoError(t, err)
	s.Put(d)

	_, err = s.FindSection("doc1", "doc1_section_999")
	require.Error(t, err)

	_, err = s.FindSection("missing-doc", "x")
	require.Error(t, err)
}

// minimalDocx builds the smallest valid .docx zip carrying one
// Heading1-styled paragraph, independent of the docsec package's own
// internal XML node helpers (sectionstore only depends on docsec's public
// surface).
func minimalDocx(t *testing.T) []byte {
	t.Helper()
	const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
      <w:r><w:t>Intro</w:t></w:r>
    </w:p>
    <w:p><w:r><w:t>body text</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

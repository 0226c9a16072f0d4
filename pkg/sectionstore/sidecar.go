package sectionstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/sectionforge/sectionforge/pkg/docsec"
)

// sidecarPath derives the `.<stem>_tracking.json` path next to a document's
// stored bytes, per spec.md §6.4. An empty docPath (e.g. in tests that
// never touch disk) yields no sidecar.
func sidecarPath(docPath string) string {
	if docPath == "" {
		return ""
	}
	dir, file := filepath.Split(docPath)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, "."+stem+"_tracking.json")
}

// writeSidecar persists m to path atomically: write to a temp file in the
// same directory, then rename over the destination.
func writeSidecar(path string, m map[string]*docsec.EditStateEntry) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tracking-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// readSidecar loads a previously persisted edit-state map.
func readSidecar(path string) (map[string]*docsec.EditStateEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]*docsec.EditStateEntry
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

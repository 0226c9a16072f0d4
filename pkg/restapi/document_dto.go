package restapi

import (
	"time"

	"github.com/sectionforge/sectionforge/pkg/docsec"
)

// sectionDTO is the JSON shape of a Section, walked without the Parent
// back-reference to avoid a cycle.
type sectionDTO struct {
	ID       string       `json:"id"`
	Hash     string       `json:"hash"`
	Level    int          `json:"level"`
	Heading  string       `json:"heading"`
	Path     string       `json:"path"`
	Empty    bool         `json:"empty"`
	Children []sectionDTO `json:"children,omitempty"`
}

func toSectionDTO(doc *docsec.Document, s *docsec.Section) sectionDTO {
	dto := sectionDTO{
		ID:      s.ID,
		Hash:    s.Hash,
		Level:   s.Level,
		Heading: s.Heading,
		Path:    s.Path,
		Empty:   doc.IsSectionEmpty(s),
	}
	for _, c := range s.Children {
		dto.Children = append(dto.Children, toSectionDTO(doc, c))
	}
	return dto
}

type documentDTO struct {
	ID         string       `json:"id"`
	Filename   string       `json:"filename"`
	Owner      string       `json:"owner"`
	UploadedAt time.Time    `json:"uploaded_at"`
	Sections   []sectionDTO `json:"sections"`
}

func toDocumentDTO(doc *docsec.Document) documentDTO {
	dto := documentDTO{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Owner:      doc.Owner,
		UploadedAt: doc.UploadedAt,
	}
	for _, root := range doc.Roots() {
		dto.Sections = append(dto.Sections, toSectionDTO(doc, root))
	}
	return dto
}

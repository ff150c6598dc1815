package domain

import "time"

// DocumentRecord is the stored form of an ingested document.
// Its chunk list is held separately by the metadata store and is
// removed together with the record.
type DocumentRecord struct {
	// DocID is the source-relative path, globally unique.
	DocID string `json:"-"`

	// Content is the full text that was chunked.
	Content string `json:"content"`

	// DocumentType is an optional classification tag (e.g. "upload").
	DocumentType string `json:"documentType,omitempty"`

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time `json:"createdAt"`

	// LastModified is when the document was last re-ingested.
	LastModified time.Time `json:"lastModified"`
}

// DocumentTypeUpload tags documents ingested through file upload.
const DocumentTypeUpload = "upload"

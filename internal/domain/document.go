package domain

import "time"

// Document lifecycle statuses.
const (
	DocumentActive   = "active"
	DocumentArchived = "archived"
	DocumentDeleted  = "deleted"
)

// Document is a versioned artifact under review management. Reviews
// reference documents but never own them.
type Document struct {
	ID             string
	Title          string
	DocType        string // e.g. "api_reference", "user_guide", "runbook"
	SourceRef      string // external location of the artifact
	CurrentVersion int
	Status         string // "active", "archived", "deleted"
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateDocumentRequest holds parameters for registering a document.
type CreateDocumentRequest struct {
	Title     string
	DocType   string
	SourceRef string
}

// Validate checks that the request is well-formed.
func (r *CreateDocumentRequest) Validate() error {
	if r.Title == "" {
		return ErrValidation("document title is required")
	}
	if r.DocType == "" {
		return ErrValidation("document type is required")
	}
	return nil
}

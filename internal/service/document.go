package service

import (
	"context"

	"docflow/internal/domain"
)

// DocumentService manages the documents that reviews reference.
type DocumentService struct {
	repo  domain.DocumentRepository
	audit domain.AuditRepository
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(repo domain.DocumentRepository, audit domain.AuditRepository) *DocumentService {
	return &DocumentService{repo: repo, audit: audit}
}

// Create validates and registers a new document.
func (s *DocumentService) Create(ctx context.Context, req domain.CreateDocumentRequest) (*domain.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.repo.Create(ctx, &domain.Document{
		Title:     req.Title,
		DocType:   req.DocType,
		SourceRef: req.SourceRef,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "document_created", doc.ID, map[string]interface{}{
		"title":    doc.Title,
		"doc_type": doc.DocType,
	})
	return doc, nil
}

// GetByID returns a document by ID.
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a paginated list of documents.
func (s *DocumentService) List(ctx context.Context, page domain.PageRequest) ([]domain.Document, int64, error) {
	return s.repo.List(ctx, page)
}

// Update modifies a document's metadata and version.
func (s *DocumentService) Update(ctx context.Context, d *domain.Document) (*domain.Document, error) {
	if d.ID == "" {
		return nil, domain.ErrValidation("document id is required")
	}
	updated, err := s.repo.Update(ctx, d)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "document_updated", updated.ID, map[string]interface{}{
		"current_version": updated.CurrentVersion,
	})
	return updated, nil
}

// Archive moves a document out of active management. Its reviews are kept.
func (s *DocumentService) Archive(ctx context.Context, id string) error {
	if err := s.repo.SetStatus(ctx, id, domain.DocumentArchived); err != nil {
		return err
	}
	s.logAudit(ctx, "document_archived", id, nil)
	return nil
}

func (s *DocumentService) logAudit(ctx context.Context, action, documentID string, newValues map[string]interface{}) {
	entry := &domain.AuditEntry{
		Action:       action,
		ResourceType: "document",
		ResourceID:   documentID,
		NewValues:    newValues,
	}
	if actor, ok := domain.ActorFromContext(ctx); ok {
		entry.ActorID = &actor.UserID
	}
	_ = s.audit.Insert(ctx, entry)
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docflow/internal/domain"
)

// Document is the API representation of a document.
type Document struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	DocType        string    `json:"doc_type"`
	SourceRef      string    `json:"source_ref,omitempty"`
	CurrentVersion int       `json:"current_version"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func documentToAPI(d *domain.Document) Document {
	return Document{
		ID:             d.ID,
		Title:          d.Title,
		DocType:        d.DocType,
		SourceRef:      d.SourceRef,
		CurrentVersion: d.CurrentVersion,
		Status:         d.Status,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type createDocumentRequest struct {
	Title     string `json:"title"`
	DocType   string `json:"doc_type"`
	SourceRef string `json:"source_ref,omitempty"`
}

// CreateDocument handles POST /documents.
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body createDocumentRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	doc, err := h.documents.Create(r.Context(), domain.CreateDocumentRequest{
		Title:     body.Title,
		DocType:   body.DocType,
		SourceRef: body.SourceRef,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentToAPI(doc))
}

// ListDocuments handles GET /documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	docs, total, err := h.documents.List(r.Context(), page)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]Document, len(docs))
	for i := range docs {
		out[i] = documentToAPI(&docs[i])
	}
	writeJSON(w, http.StatusOK, listResponse(out, page, total))
}

// GetDocument handles GET /documents/{documentID}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.GetByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToAPI(doc))
}

type updateDocumentRequest struct {
	Title          *string `json:"title,omitempty"`
	SourceRef      *string `json:"source_ref,omitempty"`
	CurrentVersion *int    `json:"current_version,omitempty"`
}

// UpdateDocument handles PATCH /documents/{documentID}.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var body updateDocumentRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	doc, err := h.documents.GetByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if body.Title != nil {
		doc.Title = *body.Title
	}
	if body.SourceRef != nil {
		doc.SourceRef = *body.SourceRef
	}
	if body.CurrentVersion != nil {
		doc.CurrentVersion = *body.CurrentVersion
	}

	updated, err := h.documents.Update(r.Context(), doc)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToAPI(updated))
}

// ArchiveDocument handles POST /documents/{documentID}/archive.
func (h *Handler) ArchiveDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documents.Archive(r.Context(), chi.URLParam(r, "documentID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

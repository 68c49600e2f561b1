package outwork

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
)

// ============================================================================
// Request DTOs
// ============================================================================

// InitiateDocumentUploadRequest represents a request to attach a document to a move
type InitiateDocumentUploadRequest struct {
	MoveID      uuid.UUID  `json:"move_id" binding:"required"`
	ReceiptID   *uuid.UUID `json:"receipt_id"`
	Kind        string     `json:"kind" binding:"required,oneof=challan qc_report photo other"`
	FileName    string     `json:"file_name" binding:"required,min=1,max=255"`
	FileSize    int64      `json:"file_size" binding:"required,gt=0"`
	ContentType string     `json:"content_type" binding:"required"`
}

// DocumentListFilter represents filter options for a move's document list
type DocumentListFilter struct {
	Kind           string `form:"kind" binding:"omitempty,oneof=challan qc_report photo other"`
	IncludeDeleted bool   `form:"include_deleted"`
}

// ============================================================================
// Response DTOs
// ============================================================================

// InitiateDocumentUploadResponse represents the response from initiating an upload
type InitiateDocumentUploadResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	UploadURL  string    `json:"upload_url"`
	StorageKey string    `json:"storage_key"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DocumentResponse represents a move document in API responses
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	MoveID      uuid.UUID  `json:"move_id"`
	ReceiptID   *uuid.UUID `json:"receipt_id,omitempty"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	ContentType string     `json:"content_type"`
	StorageKey  string     `json:"storage_key"`
	UploadedBy  *uuid.UUID `json:"uploaded_by,omitempty"`
	URL         string     `json:"url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int        `json:"version"`
}

// ============================================================================
// Conversion Functions
// ============================================================================

// ToDocumentResponse converts a domain MoveDocument to DocumentResponse
func ToDocumentResponse(d *outwork.MoveDocument) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		MoveID:      d.MoveID,
		ReceiptID:   d.ReceiptID,
		Kind:        string(d.Kind),
		Status:      string(d.Status),
		FileName:    d.FileName,
		FileSize:    d.FileSize,
		ContentType: d.ContentType,
		StorageKey:  d.StorageKey,
		UploadedBy:  d.UploadedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Version:     d.Version,
	}
}

// ToDocumentResponses converts a slice of domain MoveDocuments to DocumentResponses
func ToDocumentResponses(documents []outwork.MoveDocument) []DocumentResponse {
	responses := make([]DocumentResponse, len(documents))
	for i, d := range documents {
		responses[i] = ToDocumentResponse(&d)
	}
	return responses
}

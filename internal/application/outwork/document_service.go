package outwork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/shared"
)

// AllowedDocumentContentTypes defines the whitelist of allowed content types
// for move documents. Challans and QC sheets arrive as scans, photos, or
// PDFs; executables and scripts are never legitimate here.
var AllowedDocumentContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
	"text/plain":      true,
	"text/csv":        true,
}

// ObjectStorageService defines the interface for object storage operations.
// Implemented by the infrastructure layer (S3 or the in-memory stub).
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	// Returns the upload URL and expiration time
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	// Returns the download URL and expiration time
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// DocumentServiceConfig holds configuration for the document service
type DocumentServiceConfig struct {
	// UploadURLExpiry is the duration for which upload URLs are valid
	UploadURLExpiry time.Duration
	// DownloadURLExpiry is the duration for which download URLs are valid
	DownloadURLExpiry time.Duration
	// MaxDocumentsPerMove is the maximum number of documents per move
	MaxDocumentsPerMove int
}

// DefaultDocumentServiceConfig returns the default configuration
func DefaultDocumentServiceConfig() DocumentServiceConfig {
	return DocumentServiceConfig{
		UploadURLExpiry:     15 * time.Minute,
		DownloadURLExpiry:   1 * time.Hour,
		MaxDocumentsPerMove: 20,
	}
}

// DocumentService handles move document operations
type DocumentService struct {
	documentRepo   outwork.MoveDocumentRepository
	moveRepo       outwork.MoveRepository
	receiptRepo    outwork.ReceiptRepository
	storageService ObjectStorageService
	config         DocumentServiceConfig
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documentRepo outwork.MoveDocumentRepository,
	moveRepo outwork.MoveRepository,
	receiptRepo outwork.ReceiptRepository,
	storageService ObjectStorageService,
) *DocumentService {
	return &DocumentService{
		documentRepo:   documentRepo,
		moveRepo:       moveRepo,
		receiptRepo:    receiptRepo,
		storageService: storageService,
		config:         DefaultDocumentServiceConfig(),
	}
}

// SetConfig sets the service configuration
func (s *DocumentService) SetConfig(config DocumentServiceConfig) {
	s.config = config
}

// InitiateUpload creates a pending document record and returns a presigned upload URL
func (s *DocumentService) InitiateUpload(
	ctx context.Context,
	req InitiateDocumentUploadRequest,
	uploadedBy *uuid.UUID,
) (*InitiateDocumentUploadResponse, error) {
	// Validate move exists and is not voided
	move, err := s.moveRepo.FindByID(ctx, req.MoveID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("MOVE_NOT_FOUND", "Move not found")
		}
		return nil, err
	}
	if move.IsVoided() {
		return nil, shared.NewDomainError(outwork.ErrCodeMoveVoided,
			"Cannot attach documents to a voided move")
	}

	// Check document limit
	existing, err := s.documentRepo.FindByMove(ctx, req.MoveID)
	if err != nil {
		return nil, err
	}
	active := 0
	for i := range existing {
		if !existing[i].IsDeleted() {
			active++
		}
	}
	if active >= s.config.MaxDocumentsPerMove {
		return nil, shared.NewDomainError("DOCUMENT_LIMIT_EXCEEDED",
			fmt.Sprintf("Maximum %d documents per move allowed", s.config.MaxDocumentsPerMove))
	}

	// Validate content type against whitelist
	if !isAllowedDocumentContentType(req.ContentType) {
		return nil, shared.NewDomainError("DISALLOWED_CONTENT_TYPE",
			fmt.Sprintf("Content type '%s' is not allowed. Allowed types: images, PDF, and text files.", req.ContentType))
	}

	// Validate the receipt reference belongs to this move
	if req.ReceiptID != nil {
		receipt, err := s.receiptRepo.FindByID(ctx, *req.ReceiptID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("RECEIPT_NOT_FOUND", "Receipt not found")
			}
			return nil, err
		}
		if receipt.MoveID != req.MoveID {
			return nil, shared.NewDomainError("INVALID_RECEIPT",
				"Receipt does not belong to this move")
		}
	}

	// Generate storage key
	storageKey := s.generateStorageKey(req.MoveID, req.FileName)

	// Create the document entity
	document, err := outwork.NewMoveDocument(
		req.MoveID,
		outwork.DocumentKind(req.Kind),
		req.FileName,
		req.FileSize,
		req.ContentType,
		storageKey,
		uploadedBy,
	)
	if err != nil {
		return nil, err
	}
	if req.ReceiptID != nil {
		if err := document.AttachToReceipt(*req.ReceiptID); err != nil {
			return nil, err
		}
	}

	// Save the document in pending status
	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}

	// Generate presigned upload URL
	uploadURL, expiresAt, err := s.storageService.GenerateUploadURL(
		ctx,
		storageKey,
		req.ContentType,
		s.config.UploadURLExpiry,
	)
	if err != nil {
		// Clean up the document record if URL generation fails
		_ = s.documentRepo.Delete(ctx, document.ID)
		return nil, shared.NewDomainError("UPLOAD_URL_FAILED", "Failed to generate upload URL")
	}

	return &InitiateDocumentUploadResponse{
		DocumentID: document.ID,
		UploadURL:  uploadURL,
		StorageKey: storageKey,
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmUpload verifies the upload landed in storage and activates the document
func (s *DocumentService) ConfirmUpload(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// Verify the file exists in storage
	exists, err := s.storageService.ObjectExists(ctx, document.StorageKey)
	if err != nil {
		return nil, shared.NewDomainError("STORAGE_CHECK_FAILED", "Failed to verify upload")
	}
	if !exists {
		return nil, shared.NewDomainError("UPLOAD_NOT_FOUND",
			"File not found in storage. Please upload the file first.")
	}

	// Confirm the document (changes status from pending to active)
	if err := document.Confirm(); err != nil {
		return nil, err
	}

	if err := s.documentRepo.Save(ctx, document); err != nil {
		return nil, err
	}

	response := ToDocumentResponse(document)
	s.enrichWithURL(ctx, &response, document)

	return &response, nil
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, documentID uuid.UUID) (*DocumentResponse, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	response := ToDocumentResponse(document)
	s.enrichWithURL(ctx, &response, document)

	return &response, nil
}

// GetByMove retrieves the documents attached to a move
func (s *DocumentService) GetByMove(ctx context.Context, moveID uuid.UUID, filter DocumentListFilter) ([]DocumentResponse, error) {
	// Validate move exists
	if _, err := s.moveRepo.FindByID(ctx, moveID); err != nil {
		return nil, err
	}

	documents, err := s.documentRepo.FindByMove(ctx, moveID)
	if err != nil {
		return nil, err
	}

	// Moves carry a handful of documents at most, so filtering in memory
	// beats another indexed column
	matched := make([]outwork.MoveDocument, 0, len(documents))
	for i := range documents {
		d := &documents[i]
		if d.IsDeleted() && !filter.IncludeDeleted {
			continue
		}
		if filter.Kind != "" && string(d.Kind) != filter.Kind {
			continue
		}
		matched = append(matched, *d)
	}

	responses := ToDocumentResponses(matched)
	for i := range matched {
		s.enrichWithURL(ctx, &responses[i], &matched[i])
	}

	return responses, nil
}

// GetDownloadURL generates a presigned download URL for an active document
func (s *DocumentService) GetDownloadURL(ctx context.Context, documentID uuid.UUID) (string, time.Time, error) {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return "", time.Time{}, err
	}

	if !document.IsActive() {
		return "", time.Time{}, shared.NewDomainError("DOCUMENT_NOT_ACTIVE",
			"Document is not available for download")
	}

	return s.storageService.GenerateDownloadURL(ctx, document.StorageKey, s.config.DownloadURLExpiry)
}

// Delete marks a document as deleted (soft delete)
func (s *DocumentService) Delete(ctx context.Context, documentID uuid.UUID) error {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}

	if err := document.Delete(); err != nil {
		return err
	}

	return s.documentRepo.Save(ctx, document)
}

// PermanentDelete permanently deletes a document and its storage object
func (s *DocumentService) PermanentDelete(ctx context.Context, documentID uuid.UUID) error {
	document, err := s.documentRepo.FindByID(ctx, documentID)
	if err != nil {
		return err
	}

	// Delete from storage (log error but continue - storage object might already be deleted)
	if err := s.storageService.DeleteObject(ctx, document.StorageKey); err != nil {
		slog.WarnContext(ctx, "failed to delete document from storage",
			"document_id", document.ID,
			"storage_key", document.StorageKey,
			"error", err)
	}

	return s.documentRepo.Delete(ctx, documentID)
}

// ============================================================================
// Helper Methods
// ============================================================================

// generateStorageKey generates a unique storage key for a file
func (s *DocumentService) generateStorageKey(moveID uuid.UUID, fileName string) string {
	ext := filepath.Ext(fileName)
	uniqueID := uuid.New().String()
	// Format: moves/{moveID}/documents/{uniqueID}{ext}
	return fmt.Sprintf("moves/%s/documents/%s%s", moveID.String(), uniqueID, ext)
}

// enrichWithURL adds a download URL to a document response
func (s *DocumentService) enrichWithURL(ctx context.Context, response *DocumentResponse, document *outwork.MoveDocument) {
	if !document.IsActive() {
		return
	}

	url, _, err := s.storageService.GenerateDownloadURL(
		ctx,
		document.StorageKey,
		s.config.DownloadURLExpiry,
	)
	if err == nil {
		response.URL = url
	}
}

// isAllowedDocumentContentType checks if a content type is in the whitelist
func isAllowedDocumentContentType(contentType string) bool {
	return AllowedDocumentContentTypes[strings.ToLower(contentType)]
}

package outwork

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
)

// MaxDocumentFileSize is the maximum allowed file size (25MB)
const MaxDocumentFileSize = 25 * 1024 * 1024

// DocumentKind represents the kind of document attached to a move
type DocumentKind string

const (
	DocumentKindChallan  DocumentKind = "challan"
	DocumentKindQCReport DocumentKind = "qc_report"
	DocumentKindPhoto    DocumentKind = "photo"
	DocumentKindOther    DocumentKind = "other"
)

// IsValid checks if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindChallan, DocumentKindQCReport, DocumentKindPhoto, DocumentKindOther:
		return true
	default:
		return false
	}
}

// DocumentStatus represents the status of a move document
type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "pending"
	DocumentStatusActive  DocumentStatus = "active"
	DocumentStatusDeleted DocumentStatus = "deleted"
)

// IsValid checks if the document status is valid
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusActive, DocumentStatusDeleted:
		return true
	default:
		return false
	}
}

// MoveDocument represents a scanned paper trail attached to an outwork move,
// typically the dispatch challan, the partner's return challan, or a QC sheet.
// The file itself lives in object storage; this entity holds the key.
type MoveDocument struct {
	shared.BaseAggregateRoot
	MoveID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"move_id"`
	ReceiptID   *uuid.UUID     `gorm:"type:uuid;index" json:"receipt_id,omitempty"`
	Kind        DocumentKind   `gorm:"type:varchar(20);not null" json:"kind"`
	Status      DocumentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	FileName    string         `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize    int64          `gorm:"not null" json:"file_size"`
	ContentType string         `gorm:"type:varchar(100);not null" json:"content_type"`
	StorageKey  string         `gorm:"type:varchar(500);not null" json:"storage_key"`
	UploadedBy  *uuid.UUID     `gorm:"type:uuid" json:"uploaded_by,omitempty"`
}

// TableName returns the table name for GORM
func (MoveDocument) TableName() string {
	return "outwork_move_documents"
}

// NewMoveDocument creates a new move document in pending status.
// Confirm must be called once the file has actually landed in storage.
func NewMoveDocument(
	moveID uuid.UUID,
	kind DocumentKind,
	fileName string,
	fileSize int64,
	contentType string,
	storageKey string,
	uploadedBy *uuid.UUID,
) (*MoveDocument, error) {
	if moveID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MOVE", "Move ID cannot be empty")
	}
	if err := validateDocumentKind(kind); err != nil {
		return nil, err
	}
	if err := validateDocumentFileName(fileName); err != nil {
		return nil, err
	}
	if err := validateDocumentFileSize(fileSize); err != nil {
		return nil, err
	}
	if err := validateDocumentContentType(contentType); err != nil {
		return nil, err
	}
	if err := validateDocumentStorageKey(storageKey); err != nil {
		return nil, err
	}

	doc := &MoveDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MoveID:            moveID,
		Kind:              kind,
		Status:            DocumentStatusPending,
		FileName:          fileName,
		FileSize:          fileSize,
		ContentType:       contentType,
		StorageKey:        storageKey,
		UploadedBy:        uploadedBy,
	}

	doc.AddDomainEvent(NewMoveDocumentUploadedEvent(doc))

	return doc, nil
}

// AttachToReceipt links the document to a specific receipt on the move
func (d *MoveDocument) AttachToReceipt(receiptID uuid.UUID) error {
	if d.Status == DocumentStatusDeleted {
		return shared.NewDomainError("CANNOT_UPDATE_DELETED", "Cannot update a deleted document")
	}
	if receiptID == uuid.Nil {
		return shared.NewDomainError("INVALID_RECEIPT", "Receipt ID cannot be empty")
	}

	d.ReceiptID = &receiptID
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// Confirm confirms the upload and activates the document.
// This should be called after the file is successfully uploaded to storage.
func (d *MoveDocument) Confirm() error {
	if d.Status == DocumentStatusActive {
		return shared.NewDomainError("ALREADY_CONFIRMED", "Document is already confirmed")
	}
	if d.Status == DocumentStatusDeleted {
		return shared.NewDomainError("CANNOT_CONFIRM_DELETED", "Cannot confirm a deleted document")
	}

	d.Status = DocumentStatusActive
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// Delete marks the document as deleted (soft delete)
func (d *MoveDocument) Delete() error {
	if d.Status == DocumentStatusDeleted {
		return shared.NewDomainError("ALREADY_DELETED", "Document is already deleted")
	}

	d.Status = DocumentStatusDeleted
	d.UpdatedAt = time.Now()
	d.IncrementVersion()

	return nil
}

// IsPending returns true if the document is pending confirmation
func (d *MoveDocument) IsPending() bool {
	return d.Status == DocumentStatusPending
}

// IsActive returns true if the document is active
func (d *MoveDocument) IsActive() bool {
	return d.Status == DocumentStatusActive
}

// IsDeleted returns true if the document is deleted
func (d *MoveDocument) IsDeleted() bool {
	return d.Status == DocumentStatusDeleted
}

// validation functions

func validateDocumentKind(k DocumentKind) error {
	if !k.IsValid() {
		return shared.NewDomainError("INVALID_DOCUMENT_KIND", "Invalid document kind")
	}
	return nil
}

func validateDocumentFileName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewDomainError("INVALID_FILE_NAME", "File name contains invalid characters")
		}
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	return nil
}

func validateDocumentFileSize(size int64) error {
	if size <= 0 {
		return shared.NewDomainError("INVALID_FILE_SIZE", "File size must be greater than 0")
	}
	if size > MaxDocumentFileSize {
		return shared.NewDomainError("FILE_TOO_LARGE", "File size cannot exceed 25MB")
	}
	return nil
}

func validateDocumentContentType(contentType string) error {
	if contentType == "" {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type cannot be empty")
	}
	if len(contentType) > 100 {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type cannot exceed 100 characters")
	}
	if !strings.Contains(contentType, "/") {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type must be in type/subtype format")
	}
	if strings.HasPrefix(contentType, "/") || strings.HasSuffix(contentType, "/") {
		return shared.NewDomainError("INVALID_CONTENT_TYPE", "Content type must be in type/subtype format")
	}
	return nil
}

func validateDocumentStorageKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot exceed 500 characters")
	}
	if strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot contain path traversal sequences")
	}
	if strings.HasPrefix(key, "/") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key must be a relative path")
	}
	return nil
}

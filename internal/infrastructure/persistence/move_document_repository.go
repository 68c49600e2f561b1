package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMoveDocumentRepository implements MoveDocumentRepository using GORM
type GormMoveDocumentRepository struct {
	db *gorm.DB
}

// NewGormMoveDocumentRepository creates a new GormMoveDocumentRepository
func NewGormMoveDocumentRepository(db *gorm.DB) *GormMoveDocumentRepository {
	return &GormMoveDocumentRepository{db: db}
}

// FindByID finds a move document by its ID
func (r *GormMoveDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*outwork.MoveDocument, error) {
	var doc outwork.MoveDocument
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindByMove finds all documents attached to a move, oldest first
func (r *GormMoveDocumentRepository) FindByMove(ctx context.Context, moveID uuid.UUID) ([]outwork.MoveDocument, error) {
	var docs []outwork.MoveDocument
	if err := r.db.WithContext(ctx).
		Where("move_id = ?", moveID).
		Order("created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// Save creates or updates a move document
func (r *GormMoveDocumentRepository) Save(ctx context.Context, doc *outwork.MoveDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// Delete removes a document row permanently. Soft deletion is a status
// change on the document itself; this is only for the purge path.
func (r *GormMoveDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&outwork.MoveDocument{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormMoveDocumentRepository implements MoveDocumentRepository
var _ outwork.MoveDocumentRepository = (*GormMoveDocumentRepository)(nil)

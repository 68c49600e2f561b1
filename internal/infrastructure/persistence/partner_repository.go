package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/partner"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByID finds a partner by its ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	var p partner.Partner
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByCode finds a partner by its code
func (r *GormPartnerRepository) FindByCode(ctx context.Context, code string) (*partner.Partner, error) {
	var p partner.Partner
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindAll finds all partners matching the filter
func (r *GormPartnerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Partner, error) {
	var partners []partner.Partner
	query := r.applyFilter(r.db.WithContext(ctx).Model(&partner.Partner{}), filter)

	if err := query.Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// FindByStatus finds partners by status
func (r *GormPartnerRepository) FindByStatus(ctx context.Context, status partner.PartnerStatus, filter shared.Filter) ([]partner.Partner, error) {
	var partners []partner.Partner
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&partner.Partner{}).
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// FindActive finds all active partners
func (r *GormPartnerRepository) FindActive(ctx context.Context, filter shared.Filter) ([]partner.Partner, error) {
	return r.FindByStatus(ctx, partner.PartnerStatusActive, filter)
}

// FindByProcess finds partners approved for the given process type.
// Processes is a JSONB array of process names, so this is a containment query.
func (r *GormPartnerRepository) FindByProcess(ctx context.Context, process valueobject.ProcessType, filter shared.Filter) ([]partner.Partner, error) {
	var partners []partner.Partner
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&partner.Partner{}).
			Where("processes @> ?", `["`+process.String()+`"]`),
		filter,
	)

	if err := query.Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// FindByIDs finds multiple partners by their IDs
func (r *GormPartnerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Partner, error) {
	if len(ids) == 0 {
		return []partner.Partner{}, nil
	}

	var partners []partner.Partner
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&partners).Error; err != nil {
		return nil, err
	}
	return partners, nil
}

// Save creates or updates a partner
func (r *GormPartnerRepository) Save(ctx context.Context, p *partner.Partner) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete deletes a partner
func (r *GormPartnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&partner.Partner{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts partners matching the filter
func (r *GormPartnerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&partner.Partner{})
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a partner with the given code exists
func (r *GormPartnerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&partner.Partner{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormPartnerRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	if filter.OrderBy != "" {
		sortField := ValidateSortField(filter.OrderBy, PartnerSortFields, "code")
		sortOrder := ValidateSortOrder(filter.OrderDir)
		query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))
	} else {
		// Default ordering
		query = query.Order("code ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormPartnerRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ? OR contact_name ILIKE ? OR phone ILIKE ?",
			searchPattern, searchPattern, searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "process":
			if process, ok := value.(string); ok {
				query = query.Where("processes @> ?", `["`+process+`"]`)
			}
		case "requires_return_qc":
			query = query.Where("requires_return_qc = ?", value)
		}
	}

	return query
}

// Ensure GormPartnerRepository implements PartnerRepository
var _ partner.PartnerRepository = (*GormPartnerRepository)(nil)

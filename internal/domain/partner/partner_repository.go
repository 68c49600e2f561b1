package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
)

// PartnerRepository defines the interface for partner persistence
type PartnerRepository interface {
	// FindByID finds a partner by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)

	// FindByCode finds a partner by its code
	FindByCode(ctx context.Context, code string) (*Partner, error)

	// FindAll finds all partners matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Partner, error)

	// FindByStatus finds partners by status
	FindByStatus(ctx context.Context, status PartnerStatus, filter shared.Filter) ([]Partner, error)

	// FindActive finds all active partners
	FindActive(ctx context.Context, filter shared.Filter) ([]Partner, error)

	// FindByProcess finds partners approved for the given process type
	FindByProcess(ctx context.Context, process valueobject.ProcessType, filter shared.Filter) ([]Partner, error)

	// FindByIDs finds multiple partners by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Partner, error)

	// Save creates or updates a partner
	Save(ctx context.Context, p *Partner) error

	// Delete deletes a partner
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts partners matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByCode checks if a partner with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

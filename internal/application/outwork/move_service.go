package outwork

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopfloor/backend/internal/domain/outwork"
	"github.com/shopfloor/backend/internal/domain/partner"
	"github.com/shopfloor/backend/internal/domain/shared"
	"github.com/shopfloor/backend/internal/domain/shared/valueobject"
	"github.com/shopfloor/backend/internal/infrastructure/telemetry"
)

// maxRecordAttempts bounds the reload-and-retry loop for receipt recording.
// A conflict means another clerk's receipt landed between our read and our
// write; the retry re-reads the ledger and re-runs the conservation check
// against the new totals.
const maxRecordAttempts = 3

// MoveService handles outwork move and receipt operations
type MoveService struct {
	moveRepo        outwork.MoveRepository
	receiptRepo     outwork.ReceiptRepository
	partnerRepo     partner.PartnerRepository
	receiptService  *outwork.ReceiptService
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewMoveService creates a new MoveService
func NewMoveService(
	moveRepo outwork.MoveRepository,
	receiptRepo outwork.ReceiptRepository,
	partnerRepo partner.PartnerRepository,
) *MoveService {
	return &MoveService{
		moveRepo:       moveRepo,
		receiptRepo:    receiptRepo,
		partnerRepo:    partnerRepo,
		receiptService: outwork.NewReceiptService(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *MoveService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *MoveService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateMove dispatches material to a processing partner.
// The expected return date is prefilled from the partner's contracted lead
// time when the request leaves it blank.
func (s *MoveService) CreateMove(ctx context.Context, req CreateMoveRequest) (*MoveResponse, error) {
	// Label the dispatch path for the profiler, sliced by process type.
	// The binding validation has already bounded req.ProcessType.
	var response *MoveResponse
	var operationErr error
	labels := telemetry.OutworkOperationLabels(telemetry.OperationCreateMove, req.ProcessType)
	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		response, operationErr = s.createMove(c, req)
	})
	return response, operationErr
}

func (s *MoveService) createMove(ctx context.Context, req CreateMoveRequest) (*MoveResponse, error) {
	// Validate partner exists and can take the work
	p, err := s.partnerRepo.FindByID(ctx, req.PartnerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PARTNER_NOT_FOUND", "Partner not found")
		}
		return nil, err
	}
	if !p.IsActive() {
		return nil, shared.NewDomainError(outwork.ErrCodePartnerInactive,
			"Partner "+p.Code+" is deactivated and cannot take new moves")
	}

	processType := valueobject.ProcessType(req.ProcessType)
	if !p.Supports(processType) {
		return nil, shared.NewDomainError(outwork.ErrCodeInvalidProcessType,
			"Partner "+p.Code+" is not approved for "+processType.String())
	}

	// Prefill the expected return date from the contracted lead time
	expectedReturn := req.ExpectedReturnDate
	if expectedReturn == nil && p.LeadTimeDays > 0 {
		d := req.DispatchDate.AddDate(0, 0, p.LeadTimeDays)
		expectedReturn = &d
	}

	// Create the move
	move, err := outwork.NewMove(
		req.WorkOrderID,
		req.PartnerID,
		processType,
		req.QuantitySent,
		req.DispatchDate,
		expectedReturn,
	)
	if err != nil {
		return nil, err
	}

	if req.ChallanNo != "" {
		move.WithChallanNo(req.ChallanNo)
	}
	if req.Remarks != "" {
		move.WithRemarks(req.Remarks)
	}

	// Save the move
	if err := s.moveRepo.Save(ctx, move); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, move)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordMoveCreated(ctx, move.ProcessType.String())
	}

	response := ToMoveResponse(move)
	return &response, nil
}

// VoidMove voids a mistaken dispatch entry. Only moves with an empty receipt
// ledger can be voided; once material has come back the entry is part of the
// factory record and corrections go through new moves.
func (s *MoveService) VoidMove(ctx context.Context, moveID uuid.UUID, req VoidMoveRequest) (*MoveResponse, error) {
	move, err := s.moveRepo.FindByID(ctx, moveID)
	if err != nil {
		return nil, err
	}

	receiptCount, err := s.receiptRepo.CountByMove(ctx, moveID)
	if err != nil {
		return nil, err
	}
	if receiptCount > 0 {
		return nil, shared.NewDomainError(outwork.ErrCodeMoveHasReceipts,
			"Move has recorded receipts and cannot be voided; record remaining material or dispatch a correcting move")
	}

	if err := move.Void(req.Reason); err != nil {
		return nil, err
	}

	// The optimistic check fails if a receipt landed after our ledger read;
	// the caller retries and then sees MOVE_HAS_RECEIPTS.
	if err := s.moveRepo.SaveWithLock(ctx, move); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, move)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordMoveVoided(ctx, move.ProcessType.String())
	}

	response := ToMoveResponse(move)
	return &response, nil
}

// RecordReceipt records returned material against a move. The conservation
// check runs against a fresh read of the ledger and the write carries the
// move's version, so two clerks recording at once cannot oversubscribe the
// move: the loser's write fails, and the retry re-checks against the new
// total.
func (s *MoveService) RecordReceipt(ctx context.Context, moveID uuid.UUID, req RecordReceiptRequest) (*RecordReceiptResponse, error) {
	// Label the receipt path for the profiler; under load the conservation
	// checks and retries dominate its cost
	var response *RecordReceiptResponse
	var operationErr error
	labels := telemetry.OutworkOperationLabels(telemetry.OperationRecordReceipt, "")
	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		response, operationErr = s.recordReceipt(c, moveID, req)
	})
	return response, operationErr
}

func (s *MoveService) recordReceipt(ctx context.Context, moveID uuid.UUID, req RecordReceiptRequest) (*RecordReceiptResponse, error) {
	var conflictErr error

	for attempt := 0; attempt < maxRecordAttempts; attempt++ {
		move, err := s.moveRepo.FindByID(ctx, moveID)
		if err != nil {
			return nil, err
		}

		p, err := s.partnerRepo.FindByID(ctx, move.PartnerID)
		if err != nil {
			return nil, err
		}

		ledger, err := s.receiptRepo.FindByMove(ctx, moveID)
		if err != nil {
			return nil, err
		}

		result, err := s.receiptService.Record(outwork.RecordReceiptCommand{
			Move:             move,
			ExistingReceipts: ledger,
			QuantityReceived: req.QuantityReceived,
			ReceivedDate:     req.ReceivedDate,
			QCOutcome:        outwork.QCOutcome(req.QCOutcome),
			QCRequired:       p.RequiresReturnQC,
			ChallanNo:        req.ChallanNo,
			Remarks:          req.Remarks,
			RecordedBy:       req.RecordedBy,
		})
		if err != nil {
			var domainErr *shared.DomainError
			if s.businessMetrics != nil && errors.As(err, &domainErr) && domainErr.Code == outwork.ErrCodeOverReceipt {
				s.businessMetrics.RecordOverReceiptRejected(ctx, move.ProcessType.String())
			}
			return nil, err
		}

		err = s.moveRepo.SaveWithReceipt(ctx, move, result.Receipt)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			conflictErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publishDomainEvents(ctx, move)

		if s.businessMetrics != nil {
			accepted, rejected := piecesByOutcome(result.Receipt)
			s.businessMetrics.RecordReceiptRecorded(ctx, move.ProcessType.String(), accepted, rejected)
		}

		return &RecordReceiptResponse{
			Receipt:       ToReceiptResponse(result.Receipt),
			Move:          ToReconciledMoveResponse(result.View, move),
			StatusChanged: result.StatusChanged,
			PriorStatus:   string(result.PriorStatus),
		}, nil
	}

	return nil, conflictErr
}

// GetMove retrieves a move with its ledger-derived view. The stored status
// is cross-checked against the derivation on every read; disagreement is an
// invariant violation and is returned as an error rather than papered over.
func (s *MoveService) GetMove(ctx context.Context, moveID uuid.UUID) (*ReconciledMoveResponse, error) {
	move, err := s.moveRepo.FindByID(ctx, moveID)
	if err != nil {
		return nil, err
	}

	ledger, err := s.receiptRepo.FindByMove(ctx, moveID)
	if err != nil {
		return nil, err
	}

	view, err := outwork.Reconcile(move, ledger, time.Now())
	if err != nil {
		return nil, err
	}
	if err := view.CheckStoredStatus(move.Status); err != nil {
		if s.businessMetrics != nil {
			s.businessMetrics.RecordReconcileMismatch(ctx, move.ProcessType.String())
		}
		return nil, err
	}

	response := ToReconciledMoveResponse(view, move)
	return &response, nil
}

// ListMoves retrieves a list of moves with filtering and pagination
func (s *MoveService) ListMoves(ctx context.Context, filter MoveListFilter) ([]MoveListResponse, int64, error) {
	domainFilter := s.buildMoveFilter(filter)

	moves, err := s.moveRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.moveRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToMoveListResponses(moves), total, nil
}

// ListMovesByWorkOrder retrieves all moves dispatched against a work order
func (s *MoveService) ListMovesByWorkOrder(ctx context.Context, workOrderID uuid.UUID, filter MoveListFilter) ([]MoveListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	sharedFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "dispatch_date",
		OrderDir: "desc",
	}

	moves, err := s.moveRepo.FindByWorkOrder(ctx, workOrderID, sharedFilter)
	if err != nil {
		return nil, err
	}

	return ToMoveListResponses(moves), nil
}

// ListOverdue retrieves the reconciled views of all moves overdue as of now,
// most overdue first. This is the floor chase list.
func (s *MoveService) ListOverdue(ctx context.Context, filter MoveListFilter) ([]ReconciledMoveResponse, int64, error) {
	now := time.Now()
	domainFilter := s.buildMoveFilter(filter)
	domainFilter.OverdueAsOf = &now

	moves, err := s.moveRepo.FindOverdue(ctx, now, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.moveRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	if len(moves) == 0 {
		return []ReconciledMoveResponse{}, total, nil
	}

	moveIDs := make([]uuid.UUID, len(moves))
	for i := range moves {
		moveIDs[i] = moves[i].ID
	}
	receiptsByMove, err := s.receiptRepo.FindByMoves(ctx, moveIDs)
	if err != nil {
		return nil, 0, err
	}

	views, err := outwork.ReconcileAll(moves, receiptsByMove, now)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ReconciledMoveResponse, len(views))
	for i := range views {
		responses[i] = ToReconciledMoveResponse(&views[i], &moves[i])
	}
	return responses, total, nil
}

// ListReceipts retrieves the full receipt ledger of a move, oldest first
func (s *MoveService) ListReceipts(ctx context.Context, moveID uuid.UUID) ([]ReceiptResponse, error) {
	// Verify move exists
	if _, err := s.moveRepo.FindByID(ctx, moveID); err != nil {
		return nil, err
	}

	receipts, err := s.receiptRepo.FindByMove(ctx, moveID)
	if err != nil {
		return nil, err
	}

	return ToReceiptResponses(receipts), nil
}

// ListReceiptsByDateRange retrieves receipts recorded in a date range.
// This backs the daily gate register.
func (s *MoveService) ListReceiptsByDateRange(ctx context.Context, filter ReceiptListFilter) ([]ReceiptResponse, error) {
	if filter.To.Before(filter.From) {
		return nil, shared.NewDomainError("INVALID_DATE_RANGE", "End of range precedes its start")
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	sharedFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "received_date",
		OrderDir: "asc",
	}

	receipts, err := s.receiptRepo.FindByDateRange(ctx, filter.From, filter.To, sharedFilter)
	if err != nil {
		return nil, err
	}

	return ToReceiptResponses(receipts), nil
}

// VerifyMove cross-checks a move three ways: the stored status column, the
// SQL-summed receipt ledger, and the in-memory reconciliation. Any
// disagreement is reported, not repaired.
func (s *MoveService) VerifyMove(ctx context.Context, moveID uuid.UUID) (*MoveVerificationResponse, error) {
	move, err := s.moveRepo.FindByID(ctx, moveID)
	if err != nil {
		return nil, err
	}

	ledgerSum, err := s.receiptRepo.SumQuantityByMove(ctx, moveID)
	if err != nil {
		return nil, err
	}

	ledger, err := s.receiptRepo.FindByMove(ctx, moveID)
	if err != nil {
		return nil, err
	}

	resp := &MoveVerificationResponse{
		MoveID:       move.ID,
		StoredStatus: string(move.Status),
		LedgerSum:    ledgerSum,
	}

	view, err := outwork.Reconcile(move, ledger, time.Now())
	if err != nil {
		resp.Detail = err.Error()
		if s.businessMetrics != nil {
			s.businessMetrics.RecordReconcileMismatch(ctx, move.ProcessType.String())
		}
		return resp, nil
	}

	resp.DerivedStatus = string(view.Status)
	resp.ReconciledTotal = view.QuantityReceived
	resp.Consistent = resp.LedgerSum == resp.ReconciledTotal && resp.StoredStatus == resp.DerivedStatus
	if !resp.Consistent {
		resp.Detail = "stored row and receipt ledger disagree"
		if s.businessMetrics != nil {
			s.businessMetrics.RecordReconcileMismatch(ctx, move.ProcessType.String())
		}
	}
	return resp, nil
}

// buildMoveFilter converts the API filter into the repository filter
func (s *MoveService) buildMoveFilter(filter MoveListFilter) outwork.MoveFilter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "dispatch_date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := outwork.MoveFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		WorkOrderID:   filter.WorkOrderID,
		PartnerID:     filter.PartnerID,
		IncludeVoided: filter.IncludeVoided,
		DispatchFrom:  filter.DispatchFrom,
		DispatchTo:    filter.DispatchTo,
	}

	if filter.Process != "" {
		processType := valueobject.ProcessType(filter.Process)
		domainFilter.ProcessType = &processType
	}
	if filter.Status != "" {
		status := outwork.MoveStatus(filter.Status)
		domainFilter.Status = &status
	}
	if filter.Overdue {
		now := time.Now()
		domainFilter.OverdueAsOf = &now
	}

	return domainFilter
}

// piecesByOutcome splits a receipt's quantity into accepted and rejected piece
// counts for the metrics counters. Pending inspections count as neither until
// an outcome is recorded; receipts without a QC mandate count as accepted.
func piecesByOutcome(receipt *outwork.Receipt) (accepted, rejected int64) {
	qty := int64(receipt.QuantityReceived)
	switch receipt.QCOutcome {
	case outwork.QCOutcomeFail:
		return 0, qty
	case outwork.QCOutcomePending:
		return 0, 0
	default:
		return qty, 0
	}
}

// publishDomainEvents publishes all domain events from the move
func (s *MoveService) publishDomainEvents(ctx context.Context, move *outwork.Move) {
	if s.eventPublisher == nil {
		return
	}
	events := move.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	// Clear events after publishing
	move.ClearDomainEvents()
}

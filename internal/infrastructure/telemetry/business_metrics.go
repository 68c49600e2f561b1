// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the outwork engine.
// It tracks move dispatch, receipt activity, and the health of the
// open move book (open and overdue counts per process).
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	moveCreatedTotal         *Counter
	moveVoidedTotal          *Counter
	receiptRecordedTotal     *Counter
	piecesAcceptedTotal      *Counter
	piecesRejectedTotal      *Counter
	overReceiptRejectedTotal *Counter
	reconcileMismatchTotal   *Counter

	// Gauge metrics (point-in-time values)
	openMoves    *Gauge
	overdueMoves *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	outworkProvider OutworkMetricsProvider
}

// OutworkMetricsProvider provides move book data for periodic metrics collection.
// This interface allows the telemetry layer to query ledger state without
// depending on the outwork domain directly.
type OutworkMetricsProvider interface {
	// GetOpenMoveCountByProcess returns the number of non-voided moves that
	// still await pieces, grouped by process type
	GetOpenMoveCountByProcess(ctx context.Context) (map[string]int64, error)

	// GetOverdueMoveCountByProcess returns the number of open moves past their
	// expected return date, grouped by process type
	GetOverdueMoveCountByProcess(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	OutworkProvider OutworkMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		outworkProvider: cfg.OutworkProvider,
	}

	// Initialize counter metrics
	var err error

	// Move lifecycle metrics
	bm.moveCreatedTotal, err = NewCounter(
		cfg.Meter,
		"shopfloor_outwork_move_created_total",
		"Total number of outwork moves dispatched",
		"{moves}",
	)
	if err != nil {
		return nil, err
	}

	bm.moveVoidedTotal, err = NewCounter(
		cfg.Meter,
		"shopfloor_outwork_move_voided_total",
		"Total number of outwork moves voided",
		"{moves}",
	)
	if err != nil {
		return nil, err
	}

	// Receipt metrics
	bm.receiptRecordedTotal, err = NewCounter(
		cfg.Meter,
		"shopfloor_outwork_receipt_recorded_total",
		"Total number of receipts recorded against moves",
		"{receipts}",
	)
	if err != nil {
		return nil, err
	}

	bm.piecesAcceptedTotal, err = NewCounter(
		cfg.Meter,
		"shopfloor_outwork_pieces_accepted_total",
		"Total pieces received back and passed QC",
		"{pieces}",
	)
	if err != nil {
		return nil, err
	}

	bm.piecesRejectedTotal, err = NewCounter(
		cfg.Meter,
		"shopfloor_outwork_pieces_rejected_total",
		"Total pieces received back and failed QC",
		"{pieces}",
	)
	if err != nil {
		return nil, err
	}

	bm.overReceiptRejectedTotal, err = NewCounter(
		cfg.Meter,
		"shopfloor_outwork_over_receipt_rejected_total",
		"Total receipt attempts rejected for exceeding the outstanding quantity",
		"{attempts}",
	)
	if err != nil {
		return nil, err
	}

	bm.reconcileMismatchTotal, err = NewCounter(
		cfg.Meter,
		"shopfloor_outwork_reconcile_mismatch_total",
		"Total moves whose stored totals disagreed with their receipt ledger",
		"{moves}",
	)
	if err != nil {
		return nil, err
	}

	// Move book gauge metrics
	bm.openMoves, err = NewGauge(
		cfg.Meter,
		"shopfloor_outwork_open_moves",
		"Current number of moves still awaiting pieces",
		"{moves}",
	)
	if err != nil {
		return nil, err
	}

	bm.overdueMoves, err = NewGauge(
		cfg.Meter,
		"shopfloor_outwork_overdue_moves",
		"Current number of open moves past their expected return date",
		"{moves}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Move Metrics
// =============================================================================

// RecordMoveCreated records a move dispatch event.
// This should be called from the application layer when a move is created.
func (bm *BusinessMetrics) RecordMoveCreated(ctx context.Context, processType string) {
	bm.moveCreatedTotal.Inc(ctx,
		AttrProcessType.String(processType),
	)
}

// RecordMoveVoided records a move void event.
func (bm *BusinessMetrics) RecordMoveVoided(ctx context.Context, processType string) {
	bm.moveVoidedTotal.Inc(ctx,
		AttrProcessType.String(processType),
	)
}

// =============================================================================
// Receipt Metrics
// =============================================================================

// RecordReceiptRecorded records a receipt along with its accepted and rejected
// piece counts. Counts of zero are skipped so the piece counters only carry
// real movement.
func (bm *BusinessMetrics) RecordReceiptRecorded(ctx context.Context, processType string, acceptedPieces, rejectedPieces int64) {
	bm.receiptRecordedTotal.Inc(ctx,
		AttrProcessType.String(processType),
	)
	if acceptedPieces > 0 {
		bm.piecesAcceptedTotal.Add(ctx, acceptedPieces,
			AttrProcessType.String(processType),
		)
	}
	if rejectedPieces > 0 {
		bm.piecesRejectedTotal.Add(ctx, rejectedPieces,
			AttrProcessType.String(processType),
		)
	}
}

// RecordOverReceiptRejected records a receipt attempt that was refused because
// it would have exceeded the move's outstanding quantity.
func (bm *BusinessMetrics) RecordOverReceiptRejected(ctx context.Context, processType string) {
	bm.overReceiptRejectedTotal.Inc(ctx,
		AttrProcessType.String(processType),
	)
}

// RecordReconcileMismatch records a move whose stored totals disagreed with
// the sum of its receipt ledger.
func (bm *BusinessMetrics) RecordReconcileMismatch(ctx context.Context, processType string) {
	bm.reconcileMismatchTotal.Inc(ctx,
		AttrProcessType.String(processType),
	)
}

// =============================================================================
// Move Book Gauges
// =============================================================================

// RecordOpenMoves records the current open move count for a process.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOpenMoves(ctx context.Context, processType string, count int64) {
	bm.openMoves.Record(ctx, count,
		AttrProcessType.String(processType),
	)
}

// RecordOverdueMoves records the current overdue move count for a process.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOverdueMoves(ctx context.Context, processType string, count int64) {
	bm.overdueMoves.Record(ctx, count,
		AttrProcessType.String(processType),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects move book metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectMoveBookMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectMoveBookMetrics(ctx)
		}
	}
}

// collectMoveBookMetrics collects the open and overdue move gauges.
func (bm *BusinessMetrics) collectMoveBookMetrics(ctx context.Context) {
	if bm.outworkProvider == nil {
		bm.logger.Debug("No outwork provider configured, skipping move book metrics collection")
		return
	}

	openByProcess, err := bm.outworkProvider.GetOpenMoveCountByProcess(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get open move counts", zap.Error(err))
	} else {
		for processType, count := range openByProcess {
			bm.RecordOpenMoves(ctx, processType, count)
		}
	}

	overdueByProcess, err := bm.outworkProvider.GetOverdueMoveCountByProcess(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get overdue move counts", zap.Error(err))
	} else {
		for processType, count := range overdueByProcess {
			bm.RecordOverdueMoves(ctx, processType, count)
		}
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

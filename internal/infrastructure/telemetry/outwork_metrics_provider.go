// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GormOutworkMetricsProvider implements OutworkMetricsProvider using GORM.
// It queries the outwork_moves table directly for aggregated counts.
type GormOutworkMetricsProvider struct {
	db *gorm.DB
}

// NewGormOutworkMetricsProvider creates a new GormOutworkMetricsProvider.
func NewGormOutworkMetricsProvider(db *gorm.DB) *GormOutworkMetricsProvider {
	return &GormOutworkMetricsProvider{db: db}
}

// GetOpenMoveCountByProcess returns the number of non-voided moves that still
// await pieces, grouped by process type.
func (p *GormOutworkMetricsProvider) GetOpenMoveCountByProcess(ctx context.Context) (map[string]int64, error) {
	type result struct {
		ProcessType string `gorm:"column:process_type"`
		OpenCount   int64  `gorm:"column:open_count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("outwork_moves").
		Select("process_type, COUNT(*) as open_count").
		Where("voided_at IS NULL AND status <> ?", "received_full").
		Group("process_type").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.ProcessType] = r.OpenCount
	}

	return m, nil
}

// GetOverdueMoveCountByProcess returns the number of open moves whose expected
// return date fell strictly before today, grouped by process type. Moves
// without a turnaround commitment are never overdue.
func (p *GormOutworkMetricsProvider) GetOverdueMoveCountByProcess(ctx context.Context) (map[string]int64, error) {
	type result struct {
		ProcessType  string `gorm:"column:process_type"`
		OverdueCount int64  `gorm:"column:overdue_count"`
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var results []result
	err := p.db.WithContext(ctx).
		Table("outwork_moves").
		Select("process_type, COUNT(*) as overdue_count").
		Where("voided_at IS NULL AND status <> ?", "received_full").
		Where("expected_return_date IS NOT NULL AND expected_return_date < ?", today).
		Group("process_type").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[string]int64, len(results))
	for _, r := range results {
		m[r.ProcessType] = r.OverdueCount
	}

	return m, nil
}

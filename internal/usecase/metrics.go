package usecase

import "context"

// MetricsSummary represents aggregated boarding session insights.
type MetricsSummary struct {
	TotalSessions   int64   `json:"total_sessions"`
	BoardedSessions int64   `json:"boarded_sessions"`
	BoardRate       float64 `json:"board_rate"`
}

// GetMetricsSummary aggregates boarding metrics from persisted records.
func (uc *BoardingUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalSessions:   aggregation.TotalCount,
		BoardedSessions: aggregation.BoardedCount,
	}
	if aggregation.TotalCount > 0 {
		summary.BoardRate = float64(aggregation.BoardedCount) / float64(aggregation.TotalCount)
	}
	return summary, nil
}

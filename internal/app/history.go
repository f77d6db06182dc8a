package app

import (
	"context"
	"fmt"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"
)

// HistoryService reads stored scans. It needs only the repository, so it works
// without exchange credentials.
type HistoryService struct {
	repo ports.ScanRepository
}

// NewHistoryService creates a read-only view over the scan history.
func NewHistoryService(repo ports.ScanRepository) (*HistoryService, error) {
	if repo == nil {
		return nil, fmt.Errorf("scan history is not configured: %w", ports.ErrConfigurationError)
	}
	return &HistoryService{repo: repo}, nil
}

// History returns the most recent stored scans, newest first.
func (s *HistoryService) History(ctx context.Context, limit int) ([]*ports.ScanRecord, error) {
	return s.repo.RecentScans(ctx, limit)
}

// ScanOpportunities returns the ranked opportunities stored for a past scan.
func (s *HistoryService) ScanOpportunities(ctx context.Context, scanID int64) ([]domain.Opportunity, error) {
	return s.repo.FindOpportunities(ctx, scanID)
}

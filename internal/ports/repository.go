package ports

import (
	"context"
	"time"

	"opportunityScanner/internal/domain"
)

// ScanRecord is a stored scan header.
type ScanRecord struct {
	ID               int64
	ScannedAt        time.Time
	ScannedPairs     int
	OpportunityCount int
	FallbackCount    int
	TopSymbol        string // Empty when no opportunities were found
	TopScore         int
}

// ScanRepository stores scan results on behalf of callers. The scanner itself never persists.
type ScanRepository interface {
	// SaveScan stores a scan result and returns its assigned ID.
	SaveScan(ctx context.Context, result *domain.ScanResult, scannedAt time.Time) (int64, error)
	// RecentScans retrieves the most recent scans, newest first.
	RecentScans(ctx context.Context, limit int) ([]*ScanRecord, error)
	// FindOpportunities retrieves the ranked opportunities stored for a scan.
	// Returns an empty slice if the scan has none or does not exist.
	FindOpportunities(ctx context.Context, scanID int64) ([]domain.Opportunity, error)
}

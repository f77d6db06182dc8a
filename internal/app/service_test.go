package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"
)

// Mock implementations
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockScanner struct {
	result *domain.ScanResult
	err    error
}

func (m *mockScanner) Scan(ctx context.Context) (*domain.ScanResult, error) {
	return m.result, m.err
}

type mockRepo struct {
	saved     []*domain.ScanResult
	savedAt   []time.Time
	saveErr   error
	records   []*ports.ScanRecord
	opps      map[int64][]domain.Opportunity
	lastLimit int
}

func (m *mockRepo) SaveScan(ctx context.Context, result *domain.ScanResult, scannedAt time.Time) (int64, error) {
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.saved = append(m.saved, result)
	m.savedAt = append(m.savedAt, scannedAt)
	return int64(len(m.saved)), nil
}

func (m *mockRepo) RecentScans(ctx context.Context, limit int) ([]*ports.ScanRecord, error) {
	m.lastLimit = limit
	return m.records, nil
}

func (m *mockRepo) FindOpportunities(ctx context.Context, scanID int64) ([]domain.Opportunity, error) {
	return m.opps[scanID], nil
}

type scanCall struct {
	status   domain.ScanStatus
	duration time.Duration
}

type mockMetrics struct {
	scans     []scanCall
	written   []string
	writeErr  error
	klineRecs int
}

func (m *mockMetrics) RecordScan(status domain.ScanStatus, result *domain.ScanResult, duration time.Duration) {
	m.scans = append(m.scans, scanCall{status: status, duration: duration})
}

func (m *mockMetrics) RecordKlineFetch(outcome domain.KlineFetchOutcome) { m.klineRecs++ }

func (m *mockMetrics) WriteTextfile(path string) error {
	m.written = append(m.written, path)
	return m.writeErr
}

// stepClock advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func sampleResult() *domain.ScanResult {
	return &domain.ScanResult{
		Opportunities: []domain.Opportunity{{Symbol: "SOL_USDT", Score: 82}},
		ScannedPairs:  120,
	}
}

func TestNewScanService(t *testing.T) {
	tests := []struct {
		name    string
		logger  ports.Logger
		scanner Scanner
		metrics ports.ScanMetrics
		cfg     ServiceConfig
		wantErr bool
	}{
		{name: "valid", logger: &mockLogger{}, scanner: &mockScanner{}},
		{name: "missing logger", scanner: &mockScanner{}, wantErr: true},
		{name: "missing scanner", logger: &mockLogger{}, wantErr: true},
		{name: "textfile with capable metrics", logger: &mockLogger{}, scanner: &mockScanner{}, metrics: &mockMetrics{}, cfg: ServiceConfig{MetricsTextfile: "x.prom"}},
		{name: "textfile without capable metrics", logger: &mockLogger{}, scanner: &mockScanner{}, cfg: ServiceConfig{MetricsTextfile: "x.prom"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewScanService(tt.logger, tt.scanner, nil, tt.metrics, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestScanService_Run(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	logger := &mockLogger{}
	repo := &mockRepo{}
	metrics := &mockMetrics{}
	svc, err := NewScanService(logger, &mockScanner{result: sampleResult()}, repo, metrics,
		ServiceConfig{MetricsTextfile: "scanner.prom", Clock: stepClock(start, 2*time.Second)})
	require.NoError(t, err)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), res)

	require.Len(t, repo.saved, 1)
	assert.Equal(t, start, repo.savedAt[0])
	require.Len(t, metrics.scans, 1)
	assert.Equal(t, domain.ScanStatusOK, metrics.scans[0].status)
	assert.Equal(t, 2*time.Second, metrics.scans[0].duration)
	assert.Equal(t, []string{"scanner.prom"}, metrics.written)
	assert.Contains(t, logger.infoMsgs, "Market scan complete")
	assert.Empty(t, logger.errorMsgs)
}

func TestScanService_Run_EmptyResult(t *testing.T) {
	metrics := &mockMetrics{}
	empty := &domain.ScanResult{Opportunities: []domain.Opportunity{}, ScannedPairs: 40}
	svc, err := NewScanService(&mockLogger{}, &mockScanner{result: empty}, nil, metrics, ServiceConfig{})
	require.NoError(t, err)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, res.ScannedPairs)
	require.Len(t, metrics.scans, 1)
	assert.Equal(t, domain.ScanStatusEmpty, metrics.scans[0].status)
	assert.Empty(t, metrics.written, "textfile export disabled")
}

func TestScanService_Run_ScannerError(t *testing.T) {
	scanErr := fmt.Errorf("fetch ticker universe: %w", ports.ErrScanUnavailable)
	logger := &mockLogger{}
	repo := &mockRepo{}
	metrics := &mockMetrics{}
	svc, err := NewScanService(logger, &mockScanner{err: scanErr}, repo, metrics, ServiceConfig{MetricsTextfile: "scanner.prom"})
	require.NoError(t, err)

	res, err := svc.Run(context.Background())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ports.ErrScanUnavailable)
	assert.Empty(t, repo.saved)
	require.Len(t, metrics.scans, 1)
	assert.Equal(t, domain.ScanStatusUnavailable, metrics.scans[0].status)
	assert.Equal(t, []string{"scanner.prom"}, metrics.written, "failed scans are exported too")
	assert.Contains(t, logger.errorMsgs, "Market scan could not run")
}

func TestScanService_Run_SideEffectFailuresAreLogged(t *testing.T) {
	logger := &mockLogger{}
	repo := &mockRepo{saveErr: errors.New("disk full")}
	metrics := &mockMetrics{writeErr: errors.New("read-only")}
	svc, err := NewScanService(logger, &mockScanner{result: sampleResult()}, repo, metrics, ServiceConfig{MetricsTextfile: "scanner.prom"})
	require.NoError(t, err)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, []string{"Failed to save scan history", "Failed to export metrics"}, logger.errorMsgs)
}

func TestHistoryService(t *testing.T) {
	repo := &mockRepo{
		records: []*ports.ScanRecord{{ID: 2, TopSymbol: "SOL_USDT"}, {ID: 1}},
		opps:    map[int64][]domain.Opportunity{2: {{Symbol: "SOL_USDT", Score: 82}}},
	}
	svc, err := NewHistoryService(repo)
	require.NoError(t, err)

	records, err := svc.History(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 7, repo.lastLimit)

	opps, err := svc.ScanOpportunities(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "SOL_USDT", opps[0].Symbol)
}

func TestNewHistoryService_RequiresRepository(t *testing.T) {
	svc, err := NewHistoryService(nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
	assert.Nil(t, svc)
}

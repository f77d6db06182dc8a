package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"opportunityScanner/internal/domain"
	"opportunityScanner/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.ScanRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/scanner.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite serializes writers; one connection avoids "database is locked" churn
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scanned_at TIMESTAMP NOT NULL,
		scanned_pairs INTEGER NOT NULL,
		opportunity_count INTEGER NOT NULL,
		fallback_count INTEGER NOT NULL DEFAULT 0,
		top_symbol TEXT NOT NULL DEFAULT '',
		top_score INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS opportunities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id INTEGER NOT NULL REFERENCES scans (id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		score INTEGER NOT NULL,
		price REAL NOT NULL,
		volume_24h REAL NOT NULL,
		price_change_pct REAL NOT NULL,
		signals TEXT NOT NULL -- JSON array of signal strings
	);
	CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans (scanned_at);
	CREATE INDEX IF NOT EXISTS idx_opportunities_scan_rank ON opportunities (scan_id, rank);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Debug(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveScan stores a scan header and its ranked opportunities in one transaction.
func (r *Repository) SaveScan(ctx context.Context, result *domain.ScanResult, scannedAt time.Time) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("cannot save nil scan result: %w", ports.ErrInvalidRequest)
	}

	const insertScan = `
	INSERT INTO scans (scanned_at, scanned_pairs, opportunity_count, fallback_count, top_symbol, top_score)
	VALUES (?, ?, ?, ?, ?, ?)`
	const insertOpportunity = `
	INSERT INTO opportunities (scan_id, rank, symbol, score, price, volume_24h, price_change_pct, signals)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var topSymbol string
	var topScore int
	if len(result.Opportunities) > 0 {
		topSymbol = result.Opportunities[0].Symbol
		topScore = result.Opportunities[0].Score
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin scan transaction: %w: %w", ports.ErrQueryFailed, err)
	}
	defer tx.Rollback() // No-op after commit

	res, err := tx.ExecContext(ctx, insertScan,
		scannedAt.UTC(), result.ScannedPairs, len(result.Opportunities), result.FallbackCount, topSymbol, topScore)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan: %w: %w", ports.ErrQueryFailed, err)
	}
	scanID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for scan: %w", err)
	}

	for i, opp := range result.Opportunities {
		signals, err := json.Marshal(opp.Signals)
		if err != nil {
			return 0, fmt.Errorf("failed to encode signals for %s: %w", opp.Symbol, err)
		}
		if _, err := tx.ExecContext(ctx, insertOpportunity,
			scanID, i+1, opp.Symbol, opp.Score, opp.Price, opp.Volume24h, opp.PriceChangePct, string(signals)); err != nil {
			return 0, fmt.Errorf("failed to insert opportunity %s: %w: %w", opp.Symbol, ports.ErrQueryFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scan: %w: %w", ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Scan saved", map[string]interface{}{"scanID": scanID, "opportunities": len(result.Opportunities)})
	return scanID, nil
}

// RecentScans retrieves the most recent scans, newest first.
func (r *Repository) RecentScans(ctx context.Context, limit int) ([]*ports.ScanRecord, error) {
	const query = `
	SELECT id, scanned_at, scanned_pairs, opportunity_count, fallback_count, top_symbol, top_score
	FROM scans
	ORDER BY scanned_at DESC, id DESC LIMIT ?`

	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scans: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	records := make([]*ports.ScanRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan rows: %w", err)
	}
	return records, nil
}

// FindOpportunities retrieves the ranked opportunities stored for a scan.
func (r *Repository) FindOpportunities(ctx context.Context, scanID int64) ([]domain.Opportunity, error) {
	const query = `
	SELECT symbol, score, price, volume_24h, price_change_pct, signals
	FROM opportunities
	WHERE scan_id = ? ORDER BY rank ASC`

	rows, err := r.db.QueryContext(ctx, query, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities for scan %d: %w: %w", scanID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	opportunities := make([]domain.Opportunity, 0)
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity for scan %d: %w", scanID, err)
		}
		opportunities = append(opportunities, opp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunity rows: %w", err)
	}
	return opportunities, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*ports.ScanRecord, error) {
	rec := &ports.ScanRecord{}
	err := s.Scan(&rec.ID, &rec.ScannedAt, &rec.ScannedPairs, &rec.OpportunityCount,
		&rec.FallbackCount, &rec.TopSymbol, &rec.TopScore)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func scanOpportunity(s scanner) (domain.Opportunity, error) {
	var opp domain.Opportunity
	var signals string
	err := s.Scan(&opp.Symbol, &opp.Score, &opp.Price, &opp.Volume24h, &opp.PriceChangePct, &signals)
	if err != nil {
		return domain.Opportunity{}, err
	}
	if err := json.Unmarshal([]byte(signals), &opp.Signals); err != nil {
		return domain.Opportunity{}, fmt.Errorf("invalid signals for %s: %w", opp.Symbol, err)
	}
	return opp, nil
}

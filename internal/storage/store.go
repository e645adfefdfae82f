package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store materializes the warehouse into SQLite: fact and dimension tables
// plus one table per mart, each at its documented grain.
type Store struct {
	db *sql.DB
}

// BuildRun records one pipeline execution.
type BuildRun struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	FullRebuild  bool
	FactsBuilt   int
	SourceLatest *time.Time
	Error        string
}

// Open opens (or creates) the warehouse database and migrates its schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS fact_orders (
			order_id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			order_status TEXT NOT NULL,
			customer_city TEXT,
			customer_state TEXT,
			purchased_at DATETIME NOT NULL,
			approved_at DATETIME,
			delivered_at DATETIME,
			delivery_days INTEGER,
			delivery_delay_days INTEGER,
			is_delivered INTEGER NOT NULL,
			is_on_time_delivery INTEGER NOT NULL,
			is_late_delivery INTEGER NOT NULL,
			item_count INTEGER NOT NULL,
			items_value REAL NOT NULL,
			freight_value REAL NOT NULL,
			total_order_value REAL NOT NULL,
			payment_value REAL NOT NULL,
			payment_method_count INTEGER NOT NULL,
			max_installments INTEGER NOT NULL,
			review_score INTEGER,
			review_sentiment TEXT,
			has_payment_mismatch INTEGER NOT NULL,
			has_data_quality_issue INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dim_customer (
			customer_id TEXT PRIMARY KEY,
			customer_unique_id TEXT,
			customer_city TEXT,
			customer_state TEXT,
			total_orders INTEGER NOT NULL,
			delivered_orders INTEGER NOT NULL,
			canceled_orders INTEGER NOT NULL,
			total_revenue REAL NOT NULL,
			first_order_at DATETIME,
			last_order_at DATETIME,
			avg_review_score REAL,
			customer_segment TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dim_product (
			product_id TEXT PRIMARY KEY,
			category TEXT,
			category_english TEXT,
			weight_grams INTEGER,
			items_sold INTEGER NOT NULL,
			revenue REAL NOT NULL,
			revenue_tier TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dim_seller (
			seller_id TEXT PRIMARY KEY,
			seller_city TEXT,
			seller_state TEXT,
			items_sold INTEGER NOT NULL,
			orders_served INTEGER NOT NULL,
			revenue REAL NOT NULL,
			performance_tier TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS dim_date (
			date DATETIME PRIMARY KEY,
			year INTEGER NOT NULL,
			quarter INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			is_weekend INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS build_runs (
			id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			full_rebuild INTEGER NOT NULL,
			facts_built INTEGER NOT NULL,
			source_latest DATETIME,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_fact_customer ON fact_orders(customer_id);
		CREATE INDEX IF NOT EXISTS idx_fact_purchased ON fact_orders(purchased_at);
		CREATE INDEX IF NOT EXISTS idx_dim_customer_state ON dim_customer(customer_state);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.migrateMarts()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the handle for read-only consumers (quality checks).
func (s *Store) DB() *sql.DB {
	return s.db
}

// RecordRun appends one build-run record.
func (s *Store) RecordRun(run BuildRun) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO build_runs (id, started_at, finished_at, full_rebuild, facts_built, source_latest, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.FullRebuild, run.FactsBuilt, run.SourceLatest, run.Error)
	return err
}

// LastRun returns the most recent build run, or nil when none exist.
func (s *Store) LastRun() (*BuildRun, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, finished_at, full_rebuild, facts_built, source_latest, error
		FROM build_runs ORDER BY started_at DESC LIMIT 1
	`)

	var run BuildRun
	var latest sql.NullTime
	err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.FullRebuild, &run.FactsBuilt, &latest, &run.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if latest.Valid {
		run.SourceLatest = &latest.Time
	}
	return &run, nil
}

// TableCounts returns row counts for every warehouse table.
func (s *Store) TableCounts() (map[string]int, error) {
	tables := []string{
		"fact_orders", "dim_customer", "dim_product", "dim_seller", "dim_date",
		"mart_cohort_retention", "mart_churn_risk", "mart_executive_kpi",
		"mart_geo_performance", "mart_category_performance", "mart_unit_economics",
	}
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// replaceAll deletes every row of table and re-inserts inside one
// transaction; marts and dimensions are full rebuilds, not upserts.
func (s *Store) replaceAll(table, insertSQL string, n int, bind func(i int) []any) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.Exec(bind(i)...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", table, i, err)
		}
	}
	return tx.Commit()
}

/*
Package sqlite provides the SQLite-backed implementation of the charging
store contracts.

PURPOSE:
  Implements ChargeStore, JobSiteStore, WorkerStore and TransportConfigStore
  over a single SQLite database. The same patterns apply to PostgreSQL; only
  minor SQL dialect differences.

KEY TABLES:
  charges:           Cost records; personnel payload as a JSON column
  job_sites:         Site records (dates, status)
  workers:           Worker records (rate, vehicle flag)
  transport_config:  Singleton transport-fee configuration
  overhead_registry: Singleton monthly overhead registry

ID ORDERING:
  charges.id is INTEGER PRIMARY KEY AUTOINCREMENT. SQLite assigns these
  monotonically, which is load-bearing: ownership precedence between
  personnel charges is defined by this ordering.

UNIQUENESS SAFETY NET:
  uq_charges_allocated_fee enforces at most one allocated charge per
  (site, date, kind) at the storage boundary. The allocators' read-then-create
  checks are an optimization; this constraint closes their race window. A
  constraint rejection surfaces as charging.ErrDuplicateAllocatedFee.

WAL MODE:
  The database is opened with WAL for better concurrency: readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/costs.db")  // ":memory:" for tests
  defer store.Close()

SEE ALSO:
  - charging/store.go: Interface definitions
  - charging/store/memory.go: In-memory implementation for engine tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/batiflow/cost-engine/charging"
)

// Store implements all charging store interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Job sites
	CREATE TABLE IF NOT EXISTS job_sites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		start_date TEXT,
		end_date TEXT
	);

	-- Workers
	CREATE TABLE IF NOT EXISTS workers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		hourly_rate TEXT NOT NULL DEFAULT '0',
		has_vehicle INTEGER NOT NULL DEFAULT 0
	);

	-- Charges
	-- id is AUTOINCREMENT on purpose: ownership precedence between personnel
	-- charges is defined by this monotonic ordering.
	CREATE TABLE IF NOT EXISTS charges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id INTEGER NOT NULL REFERENCES job_sites(id),
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		description TEXT,
		personnel_json TEXT,
		fee_date TEXT,
		fee_kind TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_charges_site
		ON charges(site_id);
	CREATE INDEX IF NOT EXISTS idx_charges_category
		ON charges(category);

	-- CRITICAL: at most one allocated charge per (site, date, kind).
	-- fee_date and fee_kind are only set on allocator-created charges.
	-- COALESCE keeps a NULL kind from slipping past the constraint.
	CREATE UNIQUE INDEX IF NOT EXISTS uq_charges_allocated_fee
		ON charges(site_id, fee_date, COALESCE(fee_kind, ''))
		WHERE fee_date IS NOT NULL;

	-- Transport fee configuration (single row, id = 1)
	CREATE TABLE IF NOT EXISTS transport_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		truck TEXT NOT NULL DEFAULT '0',
		insurance TEXT NOT NULL DEFAULT '0',
		fuel TEXT NOT NULL DEFAULT '0',
		custom_json TEXT NOT NULL DEFAULT '[]',
		updated_at TEXT NOT NULL
	);

	-- Monthly overhead registry (single row, id = 1)
	CREATE TABLE IF NOT EXISTS overhead_registry (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		financial_fees TEXT NOT NULL DEFAULT '0',
		loan TEXT NOT NULL DEFAULT '0',
		accounting TEXT NOT NULL DEFAULT '0',
		rent TEXT NOT NULL DEFAULT '0',
		general_expenses TEXT NOT NULL DEFAULT '0',
		social_charges TEXT NOT NULL DEFAULT '0',
		custom_json TEXT NOT NULL DEFAULT '[]',
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CHARGE STORE
// =============================================================================

const chargeColumns = `id, site_id, category, name, amount, description, personnel_json, fee_date, fee_kind, created_at`

func (s *Store) ListCharges(ctx context.Context, siteID charging.SiteID) ([]charging.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE site_id = ? ORDER BY id`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCharges(rows)
}

func (s *Store) ListPersonnelCharges(ctx context.Context) ([]charging.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE category = ? ORDER BY id`,
		string(charging.CategoryPersonnel))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCharges(rows)
}

func (s *Store) GetCharge(ctx context.Context, id charging.ChargeID) (*charging.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE id = ?`, id)
	c, err := scanCharge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charging.NotFoundError{Kind: "charge", ID: int64(id)}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) CreateCharge(ctx context.Context, charge *charging.Charge) (*charging.Charge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	personnelJSON, err := marshalPersonnel(charge.Personnel)
	if err != nil {
		return nil, err
	}
	createdAt := charge.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO charges (site_id, category, name, amount, description, personnel_json, fee_date, fee_kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		charge.SiteID, string(charge.Category), charge.Name, charge.Amount.String(),
		nullString(charge.Description), personnelJSON, nullString(charge.FeeDate),
		nullString(string(charge.FeeKind)), createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, mapUniqueErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	stored := *charge
	stored.ID = charging.ChargeID(id)
	stored.CreatedAt = createdAt
	return &stored, nil
}

func (s *Store) UpdateCharge(ctx context.Context, id charging.ChargeID, charge *charging.Charge) (*charging.Charge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	personnelJSON, err := marshalPersonnel(charge.Personnel)
	if err != nil {
		return nil, err
	}

	// The row keeps its creation timestamp across updates; carry it into the
	// returned record rather than echoing the caller's (usually zero) value.
	var createdAtStr string
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at FROM charges WHERE id = ?`, id).Scan(&createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charging.NotFoundError{Kind: "charge", ID: int64(id)}
	}
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt created_at on charge %d: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE charges
		SET site_id = ?, category = ?, name = ?, amount = ?, description = ?, personnel_json = ?, fee_date = ?, fee_kind = ?
		WHERE id = ?`,
		charge.SiteID, string(charge.Category), charge.Name, charge.Amount.String(),
		nullString(charge.Description), personnelJSON, nullString(charge.FeeDate),
		nullString(string(charge.FeeKind)), id,
	)
	if err != nil {
		return nil, mapUniqueErr(err)
	}

	stored := *charge
	stored.ID = id
	stored.CreatedAt = createdAt
	return &stored, nil
}

func (s *Store) DeleteCharge(ctx context.Context, id charging.ChargeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM charges WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &charging.NotFoundError{Kind: "charge", ID: int64(id)}
	}
	return nil
}

func (s *Store) FindAllocatedFee(ctx context.Context, siteID charging.SiteID, feeDate string, kind charging.FeeKind) (*charging.Charge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+chargeColumns+` FROM charges WHERE site_id = ? AND fee_date = ? AND fee_kind = ?`,
		siteID, feeDate, string(kind))
	c, err := scanCharge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) SiteTotals(ctx context.Context, siteID charging.SiteID) (map[charging.Category]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, amount FROM charges WHERE site_id = ?`, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Amounts are stored as decimal strings, so the sum happens here rather
	// than in SQL to avoid float coercion.
	totals := make(map[charging.Category]decimal.Decimal)
	for rows.Next() {
		var category, amountStr string
		if err := rows.Scan(&category, &amountStr); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount for site %d: %w", siteID, err)
		}
		cat := charging.Category(category)
		totals[cat] = totals[cat].Add(amount)
	}
	return totals, rows.Err()
}

// =============================================================================
// JOB SITE STORE
// =============================================================================

func (s *Store) GetJobSite(ctx context.Context, id charging.SiteID) (*charging.JobSite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, status, start_date, end_date FROM job_sites WHERE id = ?`, id)
	site, err := scanJobSite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charging.NotFoundError{Kind: "job site", ID: int64(id)}
	}
	if err != nil {
		return nil, err
	}
	return site, nil
}

func (s *Store) ListJobSites(ctx context.Context) ([]charging.JobSite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, start_date, end_date FROM job_sites ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []charging.JobSite
	for rows.Next() {
		site, err := scanJobSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

func (s *Store) CreateJobSite(ctx context.Context, site *charging.JobSite) (*charging.JobSite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := site.Status
	if status == "" {
		status = charging.SiteActive
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_sites (name, status, start_date, end_date) VALUES (?, ?, ?, ?)`,
		site.Name, string(status), nullDay(site.StartDate), nullDay(site.EndDate))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	stored := *site
	stored.ID = charging.SiteID(id)
	stored.Status = status
	return &stored, nil
}

func (s *Store) UpdateJobSite(ctx context.Context, id charging.SiteID, site *charging.JobSite) (*charging.JobSite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE job_sites SET name = ?, status = ?, start_date = ?, end_date = ? WHERE id = ?`,
		site.Name, string(site.Status), nullDay(site.StartDate), nullDay(site.EndDate), id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, &charging.NotFoundError{Kind: "job site", ID: int64(id)}
	}
	stored := *site
	stored.ID = id
	return &stored, nil
}

// =============================================================================
// WORKER STORE
// =============================================================================

func (s *Store) GetWorker(ctx context.Context, id charging.WorkerID) (*charging.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, hourly_rate, has_vehicle FROM workers WHERE id = ?`, id)
	w, err := scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charging.NotFoundError{Kind: "worker", ID: int64(id)}
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]charging.Worker, error) {
	return s.listWorkers(ctx, `SELECT id, name, hourly_rate, has_vehicle FROM workers ORDER BY id`)
}

func (s *Store) ListVehicleEquipped(ctx context.Context) ([]charging.Worker, error) {
	return s.listWorkers(ctx, `SELECT id, name, hourly_rate, has_vehicle FROM workers WHERE has_vehicle = 1 ORDER BY id`)
}

func (s *Store) listWorkers(ctx context.Context, query string) ([]charging.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []charging.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, *w)
	}
	return workers, rows.Err()
}

func (s *Store) CreateWorker(ctx context.Context, worker *charging.Worker) (*charging.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO workers (name, hourly_rate, has_vehicle) VALUES (?, ?, ?)`,
		worker.Name, worker.HourlyRate.String(), boolToInt(worker.HasVehicle))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	stored := *worker
	stored.ID = charging.WorkerID(id)
	return &stored, nil
}

// =============================================================================
// TRANSPORT CONFIG STORE
// =============================================================================

func (s *Store) GetTransportConfig(ctx context.Context) (*charging.TransportConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT truck, insurance, fuel, custom_json FROM transport_config WHERE id = 1`)

	var truck, insurance, fuel, customJSON string
	err := row.Scan(&truck, &insurance, &fuel, &customJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return &charging.TransportConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	cfg := &charging.TransportConfig{}
	if cfg.Truck, err = decimal.NewFromString(truck); err != nil {
		return nil, err
	}
	if cfg.Insurance, err = decimal.NewFromString(insurance); err != nil {
		return nil, err
	}
	if cfg.Fuel, err = decimal.NewFromString(fuel); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(customJSON), &cfg.Custom); err != nil {
		return nil, fmt.Errorf("corrupt transport config: %w", err)
	}
	return cfg, nil
}

func (s *Store) PutTransportConfig(ctx context.Context, cfg *charging.TransportConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	custom := cfg.Custom
	if custom == nil {
		custom = []charging.CostComponent{}
	}
	customJSON, err := json.Marshal(custom)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transport_config (id, truck, insurance, fuel, custom_json, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			truck = excluded.truck,
			insurance = excluded.insurance,
			fuel = excluded.fuel,
			custom_json = excluded.custom_json,
			updated_at = excluded.updated_at`,
		cfg.Truck.String(), cfg.Insurance.String(), cfg.Fuel.String(),
		string(customJSON), time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// OVERHEAD REGISTRY STORE
// =============================================================================

func (s *Store) GetOverheadRegistry(ctx context.Context) (*charging.OverheadRegistry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT financial_fees, loan, accounting, rent, general_expenses, social_charges, custom_json
		FROM overhead_registry WHERE id = 1`)

	var fields [6]string
	var customJSON string
	err := row.Scan(&fields[0], &fields[1], &fields[2], &fields[3], &fields[4], &fields[5], &customJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return &charging.OverheadRegistry{}, nil
	}
	if err != nil {
		return nil, err
	}

	reg := &charging.OverheadRegistry{}
	for i, dst := range []*decimal.Decimal{
		&reg.FinancialFees, &reg.Loan, &reg.Accounting,
		&reg.Rent, &reg.GeneralExpenses, &reg.SocialCharges,
	} {
		if *dst, err = decimal.NewFromString(fields[i]); err != nil {
			return nil, fmt.Errorf("corrupt overhead registry: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(customJSON), &reg.Custom); err != nil {
		return nil, fmt.Errorf("corrupt overhead registry: %w", err)
	}
	return reg, nil
}

func (s *Store) PutOverheadRegistry(ctx context.Context, reg *charging.OverheadRegistry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	custom := reg.Custom
	if custom == nil {
		custom = []charging.CostComponent{}
	}
	customJSON, err := json.Marshal(custom)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO overhead_registry (id, financial_fees, loan, accounting, rent, general_expenses, social_charges, custom_json, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			financial_fees = excluded.financial_fees,
			loan = excluded.loan,
			accounting = excluded.accounting,
			rent = excluded.rent,
			general_expenses = excluded.general_expenses,
			social_charges = excluded.social_charges,
			custom_json = excluded.custom_json,
			updated_at = excluded.updated_at`,
		reg.FinancialFees.String(), reg.Loan.String(), reg.Accounting.String(),
		reg.Rent.String(), reg.GeneralExpenses.String(), reg.SocialCharges.String(),
		string(customJSON), time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharges(rows *sql.Rows) ([]charging.Charge, error) {
	var charges []charging.Charge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		charges = append(charges, *c)
	}
	return charges, rows.Err()
}

func scanCharge(row rowScanner) (*charging.Charge, error) {
	var (
		c             charging.Charge
		amountStr     string
		description   sql.NullString
		personnelJSON sql.NullString
		feeDate       sql.NullString
		feeKind       sql.NullString
		createdAt     string
	)
	err := row.Scan(&c.ID, &c.SiteID, (*string)(&c.Category), &c.Name,
		&amountStr, &description, &personnelJSON, &feeDate, &feeKind, &createdAt)
	if err != nil {
		return nil, err
	}

	if c.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("corrupt amount on charge %d: %w", c.ID, err)
	}
	c.Description = description.String
	c.FeeDate = feeDate.String
	c.FeeKind = charging.FeeKind(feeKind.String)
	if personnelJSON.Valid && personnelJSON.String != "" {
		if err := json.Unmarshal([]byte(personnelJSON.String), &c.Personnel); err != nil {
			return nil, fmt.Errorf("corrupt personnel payload on charge %d: %w", c.ID, err)
		}
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at on charge %d: %w", c.ID, err)
	}
	return &c, nil
}

func scanJobSite(row rowScanner) (*charging.JobSite, error) {
	var (
		site       charging.JobSite
		start, end sql.NullString
	)
	err := row.Scan(&site.ID, &site.Name, (*string)(&site.Status), &start, &end)
	if err != nil {
		return nil, err
	}
	site.StartDate = parseNullDay(start)
	site.EndDate = parseNullDay(end)
	return &site, nil
}

func scanWorker(row rowScanner) (*charging.Worker, error) {
	var (
		w       charging.Worker
		rateStr string
		vehicle int
	)
	err := row.Scan(&w.ID, &w.Name, &rateStr, &vehicle)
	if err != nil {
		return nil, err
	}
	if w.HourlyRate, err = decimal.NewFromString(rateStr); err != nil {
		return nil, fmt.Errorf("corrupt rate on worker %d: %w", w.ID, err)
	}
	w.HasVehicle = vehicle != 0
	return &w, nil
}

func marshalPersonnel(assignments []charging.PersonnelAssignment) (sql.NullString, error) {
	if assignments == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(assignments)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDay(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: charging.FormatDay(*t), Valid: true}
}

func parseNullDay(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, ok := charging.ParseDay(s.String)
	if !ok {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// mapUniqueErr surfaces the (site, fee date, fee kind) constraint as the
// sentinel the allocators count as a skip.
func mapUniqueErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return charging.ErrDuplicateAllocatedFee
	}
	return err
}

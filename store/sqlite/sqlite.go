/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store, poka.Store, and production.Store on a single
  SQLite database. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

STRUCTURE:
  Store owns the connection and migration; Ledgers(), Pokas() and
  ProductionLog() hand out views implementing the per-package interfaces.

KEY TABLES:
  ledger_entries:     One row per (kind, date); quantities stored as
                      decimal strings, outflows as a JSON object
  pokas:              Finished units; poka_no globally unique
  production_entries: One row per date; machine records as JSON

INDEXES:
  - UNIQUE(kind, date) on ledger_entries: the one-entry-per-date rule
  - (kind, created_at) for the latest-created lookup the poka coupling uses
  - UNIQUE(poka_no) and (location, status) on pokas
  - UNIQUE(date) on production_entries

ATOMICITY:
  SaveAll and InsertMany run inside one database transaction: either the
  whole batch commits or none of it does.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/millstock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := ledger.NewService(store.Ledgers())

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go, poka/store.go, production/store.go: interfaces
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/weftworks/millstock/ledger"
	"github.com/weftworks/millstock/poka"
	"github.com/weftworks/millstock/production"
)

// Store owns the SQLite connection shared by the per-package views.
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

// Ledgers returns the ledger.Store view.
func (s *Store) Ledgers() *LedgerStore { return &LedgerStore{s} }

// Pokas returns the poka.Store view.
func (s *Store) Pokas() *PokaStore { return &PokaStore{s} }

// ProductionLog returns the production.Store view.
func (s *Store) ProductionLog() *ProductionStore { return &ProductionStore{s} }

func (s *Store) migrate() error {
	schema := `
	-- Daily running-balance ledgers (yarn, unfinished goods)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id              TEXT PRIMARY KEY,
		kind            TEXT NOT NULL,
		date            TEXT NOT NULL,
		opening_balance TEXT NOT NULL,
		inflow          TEXT NOT NULL,
		total           TEXT NOT NULL,
		outflows        TEXT NOT NULL,
		balance         TEXT NOT NULL,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);

	-- One entry per date per ledger
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_kind_date
		ON ledger_entries(kind, date);

	-- Latest-created lookup (poka coupling hot path)
	CREATE INDEX IF NOT EXISTS idx_ledger_kind_created
		ON ledger_entries(kind, created_at DESC);

	-- Finished units
	CREATE TABLE IF NOT EXISTS pokas (
		id               TEXT PRIMARY KEY,
		date             TEXT NOT NULL,
		poka_no          TEXT NOT NULL,
		shade_no         TEXT NOT NULL,
		meter            TEXT NOT NULL,
		kg               TEXT NOT NULL,
		location         TEXT NOT NULL,
		status           TEXT NOT NULL,
		sale_date        TEXT NOT NULL DEFAULT '',
		transfer_date    TEXT NOT NULL DEFAULT '',
		received_date    TEXT NOT NULL DEFAULT '',
		transferred_from TEXT NOT NULL DEFAULT '',
		sale_price       TEXT,
		customer_name    TEXT NOT NULL DEFAULT '',
		remarks          TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_pokas_no
		ON pokas(poka_no);
	CREATE INDEX IF NOT EXISTS idx_pokas_location_status
		ON pokas(location, status);

	-- Daily machine-production log
	CREATE TABLE IF NOT EXISTS production_entries (
		id               TEXT PRIMARY KEY,
		date             TEXT NOT NULL,
		machines         TEXT NOT NULL,
		total_production TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_production_date
		ON production_entries(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// LEDGER STORE - implements ledger.Store
// =============================================================================

// LedgerStore is the ledger_entries view.
type LedgerStore struct {
	*Store
}

const ledgerColumns = `id, kind, date, opening_balance, inflow, total, outflows, balance, created_at, updated_at`

func (s *LedgerStore) FindByDate(ctx context.Context, kind ledger.Kind, date string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE kind = ? AND date = ?`,
		string(kind), date)
	return scanLedgerRow(row)
}

func (s *LedgerStore) FindBefore(ctx context.Context, kind ledger.Kind, date string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		 WHERE kind = ? AND date < ?
		 ORDER BY date DESC LIMIT 1`,
		string(kind), date)
	return scanLedgerRow(row)
}

func (s *LedgerStore) FindFrom(ctx context.Context, kind ledger.Kind, from string) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLedger(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		 WHERE kind = ? AND date >= ?
		 ORDER BY date ASC`,
		string(kind), from)
}

func (s *LedgerStore) Latest(ctx context.Context, kind ledger.Kind) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		 WHERE kind = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		string(kind))
	return scanLedgerRow(row)
}

func (s *LedgerStore) Get(ctx context.Context, kind ledger.Kind, id string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE kind = ? AND id = ?`,
		string(kind), id)
	return scanLedgerRow(row)
}

func (s *LedgerStore) List(ctx context.Context, kind ledger.Kind) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryLedger(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		 WHERE kind = ?
		 ORDER BY created_at DESC, rowid DESC`,
		string(kind))
}

func (s *LedgerStore) Insert(ctx context.Context, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outflows, err := marshalOutflows(e)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger_entries (`+ledgerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Date,
		e.OpeningBalance.String(), e.Inflow.String(), e.Total.String(),
		outflows, e.Balance.String(),
		e.CreatedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return &ledger.DuplicateEntryError{Kind: e.Kind, Date: e.Date}
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

func (s *LedgerStore) Save(ctx context.Context, e *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLedgerEntry(ctx, s.db, e)
}

// SaveAll persists a recalculated run of entries in one transaction.
func (s *LedgerStore) SaveAll(ctx context.Context, entries []ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range entries {
		if err := saveLedgerEntry(ctx, tx, &entries[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *LedgerStore) Delete(ctx context.Context, kind ledger.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ledger_entries WHERE kind = ? AND id = ?`,
		string(kind), id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

func saveLedgerEntry(ctx context.Context, db execer, e *ledger.Entry) error {
	outflows, err := marshalOutflows(e)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE ledger_entries
		 SET date = ?, opening_balance = ?, inflow = ?, total = ?,
		     outflows = ?, balance = ?, updated_at = ?
		 WHERE kind = ? AND id = ?`,
		e.Date, e.OpeningBalance.String(), e.Inflow.String(), e.Total.String(),
		outflows, e.Balance.String(),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(e.Kind), e.ID)
	if err != nil {
		return fmt.Errorf("failed to save ledger entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrEntryNotFound
	}
	return nil
}

func (s *LedgerStore) queryLedger(ctx context.Context, query string, args ...any) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanLedgerEntry(r rowScanner) (*ledger.Entry, error) {
	var (
		e                                         ledger.Entry
		kind                                      string
		opening, inflow, total, outflows, balance string
		createdAt, updatedAt                      string
	)
	err := r.Scan(&e.ID, &kind, &e.Date, &opening, &inflow, &total,
		&outflows, &balance, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	e.Kind = ledger.Kind(kind)
	e.OpeningBalance = parseDecimal(opening)
	e.Inflow = parseDecimal(inflow)
	e.Total = parseDecimal(total)
	e.Balance = parseDecimal(balance)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)

	var m map[string]string
	if err := json.Unmarshal([]byte(outflows), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal outflows: %w", err)
	}
	// Rebuild in schema order so entries round-trip deterministically.
	for _, def := range e.Kind.Schema().Outflows {
		e.Outflows = append(e.Outflows, ledger.Outflow{Name: def.Name, Qty: parseDecimal(m[def.Name])})
	}
	return &e, nil
}

func scanLedgerRow(row *sql.Row) (*ledger.Entry, error) {
	e, err := scanLedgerEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}
	return e, nil
}

func marshalOutflows(e *ledger.Entry) (string, error) {
	m := make(map[string]string, len(e.Outflows))
	for _, f := range e.Outflows {
		m[f.Name] = f.Qty.String()
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to marshal outflows: %w", err)
	}
	return string(b), nil
}

// =============================================================================
// POKA STORE - implements poka.Store
// =============================================================================

// PokaStore is the pokas view.
type PokaStore struct {
	*Store
}

const pokaColumns = `id, date, poka_no, shade_no, meter, kg, location, status,
	sale_date, transfer_date, received_date, transferred_from,
	sale_price, customer_name, remarks, created_at, updated_at`

func (s *PokaStore) Find(ctx context.Context, f poka.Filter) ([]poka.Poka, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + pokaColumns + ` FROM pokas WHERE 1=1`
	var args []any
	if f.Location != nil {
		query += ` AND location = ?`
		args = append(args, string(*f.Location))
	}
	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*f.Status))
	}
	if f.TransferredFrom != nil {
		query += ` AND transferred_from = ?`
		args = append(args, string(*f.TransferredFrom))
	}
	if f.SaleDate != nil {
		query += ` AND sale_date = ?`
		args = append(args, *f.SaleDate)
	}
	if f.TransferDate != nil {
		query += ` AND transfer_date = ?`
		args = append(args, *f.TransferDate)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	return s.queryPokas(ctx, query, args...)
}

func (s *PokaStore) FindByID(ctx context.Context, id string) (*poka.Poka, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+pokaColumns+` FROM pokas WHERE id = ?`, id)
	p, err := scanPoka(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan poka: %w", err)
	}
	return p, nil
}

func (s *PokaStore) FindByNumbers(ctx context.Context, nos []string) ([]poka.Poka, error) {
	if len(nos) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(nos)), ",")
	args := make([]any, len(nos))
	for i, no := range nos {
		args[i] = no
	}
	return s.queryPokas(ctx,
		`SELECT `+pokaColumns+` FROM pokas WHERE poka_no IN (`+placeholders+`)`,
		args...)
}

// InsertMany persists a production batch in one transaction.
func (s *PokaStore) InsertMany(ctx context.Context, units []poka.Poka) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range units {
		p := &units[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pokas (`+pokaColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Date, p.PokaNo, p.ShadeNo, p.Meter.String(), p.Kg.String(),
			string(p.Location), string(p.Status),
			p.SaleDate, p.TransferDate, p.ReceivedDate, string(p.TransferredFrom),
			decimalPtr(p.SalePrice), p.CustomerName, p.Remarks,
			p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
		if err != nil {
			if isUniqueViolation(err) {
				return &poka.DuplicatePokaNumberError{Numbers: []string{p.PokaNo}}
			}
			return fmt.Errorf("failed to insert poka: %w", err)
		}
	}
	return tx.Commit()
}

// UpdateMany applies the patch to all matching ids and returns the number
// of rows changed.
func (s *PokaStore) UpdateMany(ctx context.Context, ids []string, patch poka.Patch) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var sets []string
	var args []any
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, string(*patch.Location))
	}
	if patch.SaleDate != nil {
		sets = append(sets, "sale_date = ?")
		args = append(args, *patch.SaleDate)
	}
	if patch.TransferDate != nil {
		sets = append(sets, "transfer_date = ?")
		args = append(args, *patch.TransferDate)
	}
	if patch.TransferredFrom != nil {
		sets = append(sets, "transferred_from = ?")
		args = append(args, string(*patch.TransferredFrom))
	}
	if patch.SalePrice != nil {
		sets = append(sets, "sale_price = ?")
		args = append(args, patch.SalePrice.String())
	}
	if patch.CustomerName != nil {
		sets = append(sets, "customer_name = ?")
		args = append(args, *patch.CustomerName)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pokas SET `+strings.Join(sets, ", ")+` WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update pokas: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *PokaStore) Save(ctx context.Context, p *poka.Poka) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE pokas
		 SET date = ?, poka_no = ?, shade_no = ?, meter = ?, kg = ?,
		     location = ?, status = ?,
		     sale_date = ?, transfer_date = ?, received_date = ?, transferred_from = ?,
		     sale_price = ?, customer_name = ?, remarks = ?, updated_at = ?
		 WHERE id = ?`,
		p.Date, p.PokaNo, p.ShadeNo, p.Meter.String(), p.Kg.String(),
		string(p.Location), string(p.Status),
		p.SaleDate, p.TransferDate, p.ReceivedDate, string(p.TransferredFrom),
		decimalPtr(p.SalePrice), p.CustomerName, p.Remarks,
		p.UpdatedAt.Format(time.RFC3339Nano), p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return &poka.DuplicatePokaNumberError{Numbers: []string{p.PokaNo}}
		}
		return fmt.Errorf("failed to save poka: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return poka.ErrPokaNotFound
	}
	return nil
}

func (s *PokaStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM pokas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete poka: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return poka.ErrPokaNotFound
	}
	return nil
}

func (s *PokaStore) queryPokas(ctx context.Context, query string, args ...any) ([]poka.Poka, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pokas: %w", err)
	}
	defer rows.Close()

	var units []poka.Poka
	for rows.Next() {
		p, err := scanPoka(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poka: %w", err)
		}
		units = append(units, *p)
	}
	return units, rows.Err()
}

func scanPoka(r rowScanner) (*poka.Poka, error) {
	var (
		p                      poka.Poka
		meter, kg              string
		location, status, from string
		salePrice              sql.NullString
		createdAt, updatedAt   string
	)
	err := r.Scan(&p.ID, &p.Date, &p.PokaNo, &p.ShadeNo, &meter, &kg,
		&location, &status,
		&p.SaleDate, &p.TransferDate, &p.ReceivedDate, &from,
		&salePrice, &p.CustomerName, &p.Remarks, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.Meter = parseDecimal(meter)
	p.Kg = parseDecimal(kg)
	p.Location = poka.Location(location)
	p.Status = poka.Status(status)
	p.TransferredFrom = poka.Location(from)
	if salePrice.Valid {
		price := parseDecimal(salePrice.String)
		p.SalePrice = &price
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// =============================================================================
// PRODUCTION STORE - implements production.Store
// =============================================================================

// ProductionStore is the production_entries view.
type ProductionStore struct {
	*Store
}

const productionColumns = `id, date, machines, total_production, created_at, updated_at`

func (s *ProductionStore) FindByDate(ctx context.Context, date string) (*production.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+productionColumns+` FROM production_entries WHERE date = ?`, date)
	return scanProductionRow(row)
}

func (s *ProductionStore) Get(ctx context.Context, id string) (*production.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+productionColumns+` FROM production_entries WHERE id = ?`, id)
	return scanProductionRow(row)
}

func (s *ProductionStore) List(ctx context.Context, f production.Filter) ([]production.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + productionColumns + ` FROM production_entries`
	var args []any
	if f.DatePrefix != "" {
		query += ` WHERE date LIKE ?`
		args = append(args, f.DatePrefix+"%")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query production entries: %w", err)
	}
	defer rows.Close()

	var entries []production.Entry
	for rows.Next() {
		e, err := scanProduction(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *ProductionStore) Insert(ctx context.Context, e *production.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := json.Marshal(e.Machines)
	if err != nil {
		return fmt.Errorf("failed to marshal machines: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO production_entries (`+productionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date, string(machines), e.TotalProduction.String(),
		e.CreatedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return production.ErrEntryExists
		}
		return fmt.Errorf("failed to insert production entry: %w", err)
	}
	return nil
}

func (s *ProductionStore) Save(ctx context.Context, e *production.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	machines, err := json.Marshal(e.Machines)
	if err != nil {
		return fmt.Errorf("failed to marshal machines: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE production_entries
		 SET date = ?, machines = ?, total_production = ?, updated_at = ?
		 WHERE id = ?`,
		e.Date, string(machines), e.TotalProduction.String(),
		time.Now().UTC().Format(time.RFC3339Nano), e.ID)
	if err != nil {
		return fmt.Errorf("failed to save production entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return production.ErrEntryNotFound
	}
	return nil
}

func (s *ProductionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM production_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete production entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return production.ErrEntryNotFound
	}
	return nil
}

func scanProduction(r rowScanner) (*production.Entry, error) {
	var (
		e                    production.Entry
		machines, total      string
		createdAt, updatedAt string
	)
	err := r.Scan(&e.ID, &e.Date, &machines, &total, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(machines), &e.Machines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal machines: %w", err)
	}
	e.TotalProduction = parseDecimal(total)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

func scanProductionRow(row *sql.Row) (*production.Entry, error) {
	e, err := scanProduction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan production entry: %w", err)
	}
	return e, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func decimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/gohmmer/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; also keeps a ":memory:" database on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath and
// brings its schema up to date
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Run operations

func createRun(ctx context.Context, q querier, run *Run) error {
	query := `
		INSERT INTO runs (model_name, model_accession, model_length, seq_source,
		                  n_seqs, n_residues, z, dom_z, n_reported, n_included, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		run.ModelName, run.ModelAccession, run.ModelLength, run.SeqSource,
		run.NSeqs, run.NResidues, run.Z, run.DomZ, run.NReported, run.NIncluded, now)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id
	run.CreatedAt = now
	return nil
}

const runColumns = `id, model_name, model_accession, model_length, seq_source,
	n_seqs, n_residues, z, dom_z, n_reported, n_included, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var acc sql.NullString
	err := row.Scan(&run.ID, &run.ModelName, &acc, &run.ModelLength, &run.SeqSource,
		&run.NSeqs, &run.NResidues, &run.Z, &run.DomZ, &run.NReported, &run.NIncluded, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.ModelAccession = acc.String
	return &run, nil
}

func getRun(ctx context.Context, q querier, runID int64) (*Run, error) {
	run, err := scanRun(q.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", runID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// listRuns returns the newest runs first. limit <= 0 returns all of them.
func listRuns(ctx context.Context, q querier, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func deleteRun(ctx context.Context, q querier, runID int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Hit operations

func saveHit(ctx context.Context, q querier, runID int64, rec *types.HitRecord) (*Hit, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hit %q: %w", rec.Name, err)
	}

	var z float64
	err := q.QueryRowContext(ctx, "SELECT z FROM runs WHERE id = ?", runID).Scan(&z)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO hits (run_id, rank, name, accession, description, score, ln_p, reported, included)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, runID, rec.Rank, rec.Name, rec.Accession, rec.Description, rec.Score, rec.LnP, rec.Reported, rec.Included)
	if err != nil {
		return nil, fmt.Errorf("failed to save hit %q: %w", rec.Name, err)
	}
	hitID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, d := range rec.Domains {
		_, err := q.ExecContext(ctx, `
			INSERT INTO domains (hit_id, idx, bit_score, ln_p, env_from, env_to,
			                     ali_from, ali_to, hmm_from, hmm_to, reported, included)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, hitID, d.Index, d.BitScore, d.LnP, d.EnvFrom, d.EnvTo,
			d.AliFrom, d.AliTo, d.HMMFrom, d.HMMTo, d.Reported, d.Included)
		if err != nil {
			return nil, fmt.Errorf("failed to save domain %d of %q: %w", d.Index, rec.Name, err)
		}
	}

	return &Hit{
		ID:          hitID,
		RunID:       runID,
		Rank:        rec.Rank,
		Name:        rec.Name,
		Accession:   rec.Accession,
		Description: rec.Description,
		Score:       rec.Score,
		LnP:         rec.LnP,
		EValue:      evalue(rec.LnP, z),
		Reported:    rec.Reported,
		Included:    rec.Included,
		NDomains:    len(rec.Domains),
	}, nil
}

// listHits returns the hits of a run in rank order
func listHits(ctx context.Context, q querier, runID int64) ([]*Hit, error) {
	query := `
		SELECT h.id, h.run_id, h.rank, h.name, h.accession, h.description,
		       h.score, h.ln_p, h.reported, h.included, r.z,
		       (SELECT COUNT(*) FROM domains d WHERE d.hit_id = h.id)
		FROM hits h
		JOIN runs r ON h.run_id = r.id
		WHERE h.run_id = ?
		ORDER BY h.rank
	`
	rows, err := q.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []*Hit
	for rows.Next() {
		var h Hit
		var acc, desc sql.NullString
		var z float64
		if err := rows.Scan(&h.ID, &h.RunID, &h.Rank, &h.Name, &acc, &desc,
			&h.Score, &h.LnP, &h.Reported, &h.Included, &z, &h.NDomains); err != nil {
			return nil, err
		}
		h.Accession = acc.String
		h.Description = desc.String
		h.EValue = evalue(h.LnP, z)
		hits = append(hits, &h)
	}
	return hits, rows.Err()
}

// listDomains returns the domains of a hit in sequence order
func listDomains(ctx context.Context, q querier, hitID int64) ([]*Domain, error) {
	query := `
		SELECT d.id, d.hit_id, d.idx, d.bit_score, d.ln_p, d.env_from, d.env_to,
		       d.ali_from, d.ali_to, d.hmm_from, d.hmm_to, d.reported, d.included, r.z
		FROM domains d
		JOIN hits h ON d.hit_id = h.id
		JOIN runs r ON h.run_id = r.id
		WHERE d.hit_id = ?
		ORDER BY d.idx
	`
	rows, err := q.QueryContext(ctx, query, hitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []*Domain
	for rows.Next() {
		var d Domain
		var z float64
		if err := rows.Scan(&d.ID, &d.HitID, &d.Index, &d.BitScore, &d.LnP, &d.EnvFrom, &d.EnvTo,
			&d.AliFrom, &d.AliTo, &d.HMMFrom, &d.HMMTo, &d.Reported, &d.Included, &z); err != nil {
			return nil, err
		}
		d.EValue = evalue(d.LnP, z)
		domains = append(domains, &d)
	}
	return domains, rows.Err()
}

func (s *SQLiteStorage) CreateRun(ctx context.Context, run *Run) error {
	return createRun(ctx, s.db, run)
}

func (s *SQLiteStorage) GetRun(ctx context.Context, runID int64) (*Run, error) {
	return getRun(ctx, s.db, runID)
}

func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	return listRuns(ctx, s.db, limit)
}

func (s *SQLiteStorage) DeleteRun(ctx context.Context, runID int64) error {
	return deleteRun(ctx, s.db, runID)
}

func (s *SQLiteStorage) SaveHit(ctx context.Context, runID int64, rec *types.HitRecord) (*Hit, error) {
	return saveHit(ctx, s.db, runID, rec)
}

func (s *SQLiteStorage) ListHits(ctx context.Context, runID int64) ([]*Hit, error) {
	return listHits(ctx, s.db, runID)
}

func (s *SQLiteStorage) ListDomains(ctx context.Context, hitID int64) ([]*Domain, error) {
	return listDomains(ctx, s.db, hitID)
}

// sqliteTx wraps a SQL transaction. Every operation runs on the transaction;
// the pool holds a single connection, so touching the *sql.DB here would block.
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) CreateRun(ctx context.Context, run *Run) error {
	return createRun(ctx, t.tx, run)
}

func (t *sqliteTx) GetRun(ctx context.Context, runID int64) (*Run, error) {
	return getRun(ctx, t.tx, runID)
}

func (t *sqliteTx) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	return listRuns(ctx, t.tx, limit)
}

func (t *sqliteTx) DeleteRun(ctx context.Context, runID int64) error {
	return deleteRun(ctx, t.tx, runID)
}

func (t *sqliteTx) SaveHit(ctx context.Context, runID int64, rec *types.HitRecord) (*Hit, error) {
	return saveHit(ctx, t.tx, runID, rec)
}

func (t *sqliteTx) ListHits(ctx context.Context, runID int64) ([]*Hit, error) {
	return listHits(ctx, t.tx, runID)
}

func (t *sqliteTx) ListDomains(ctx context.Context, hitID int64) ([]*Domain, error) {
	return listDomains(ctx, t.tx, hitID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

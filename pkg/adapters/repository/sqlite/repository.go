package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"                                // Postgres driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

// SheetRepository keeps workbooks of named sheets in a SQL database.
// Each sheet is an ordered list of rows; row 1 is the header.
type SheetRepository struct {
	db      *sql.DB
	dialect dialect
}

func NewSheetRepository(dbURL string) (*SheetRepository, error) {
	d := dialectFor(dbURL)

	db, err := sql.Open(d.driver, dbURL)
	if err != nil {
		return nil, err
	}
	if d.driver == "sqlite" {
		// Appends are serialized by the single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	repo := &SheetRepository{db: db, dialect: d}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSheetRepositoryFromDB wraps an already opened handle without migrating it.
func NewSheetRepositoryFromDB(db *sql.DB, driver string) *SheetRepository {
	return &SheetRepository{db: db, dialect: dialectByDriver(driver)}
}

func (r *SheetRepository) Close() error {
	return r.db.Close()
}

func (r *SheetRepository) migrate() error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (r *SheetRepository) EnsureSheet(ctx context.Context, workbook, name string, header []string) (ports.SheetHandle, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.q(`INSERT INTO sheets (workbook, name) VALUES (?, ?) ON CONFLICT (workbook, name) DO NOTHING`), workbook, name)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	created, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	var id int64
	if err := tx.QueryRowContext(ctx, r.q(`SELECT id FROM sheets WHERE workbook = ? AND name = ?`), workbook, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("lookup sheet: %w", err)
	}

	if created == 1 && len(header) > 0 {
		if err := r.appendRow(ctx, tx, id, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Sheet{repo: r, id: id, name: name}, nil
}

func (r *SheetRepository) FindSheet(ctx context.Context, workbook, name string) (ports.SheetHandle, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.q(`SELECT id FROM sheets WHERE workbook = ? AND name = ?`), workbook, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Sheet{repo: r, id: id, name: name}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// appendRow numbers the row inside the insert itself. It does not stop two
// writers from reading the same MAX(row_num): on sqlite the single
// connection serializes them, on postgres the caller holds the sheet lock.
func (r *SheetRepository) appendRow(ctx context.Context, ex execer, sheetID int64, cells []string) error {
	cellsJSON, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	query := `INSERT INTO sheet_rows (sheet_id, row_num, cells)
			  SELECT CAST(? AS BIGINT), COALESCE(MAX(row_num), 0) + 1, CAST(? AS TEXT) FROM sheet_rows WHERE sheet_id = ?`
	_, err = ex.ExecContext(ctx, r.q(query), sheetID, string(cellsJSON), sheetID)
	return err
}

// Sheet is the handle returned by EnsureSheet and FindSheet.
type Sheet struct {
	repo *SheetRepository
	id   int64
	name string
}

func (s *Sheet) Name() string { return s.name }

func (s *Sheet) AppendRow(ctx context.Context, cells []string) error {
	if !s.repo.dialect.lockSheet {
		return s.repo.appendRow(ctx, s.repo.db, s.id, cells)
	}

	tx, err := s.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, s.repo.q(`SELECT id FROM sheets WHERE id = ? FOR UPDATE`), s.id).Scan(&id); err != nil {
		return fmt.Errorf("lock sheet: %w", err)
	}
	if err := s.repo.appendRow(ctx, tx, s.id, cells); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Sheet) Rows(ctx context.Context, limit, offset int) ([]domain.Row, error) {
	query := `SELECT row_num, cells FROM sheet_rows WHERE sheet_id = ? ORDER BY row_num LIMIT ? OFFSET ?`
	rows, err := s.repo.db.QueryContext(ctx, s.repo.q(query), s.id, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Row{}
	for rows.Next() {
		var row domain.Row
		var cellsJSON string
		if err := rows.Scan(&row.Number, &cellsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cellsJSON), &row.Cells); err != nil {
			return nil, fmt.Errorf("row %d: %w", row.Number, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Sheet) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.repo.db.QueryRowContext(ctx, s.repo.q(`SELECT COUNT(*) FROM sheet_rows WHERE sheet_id = ?`), s.id).Scan(&count)
	return count, err
}

// q rewrites ? placeholders for drivers that need numbered ones.
func (r *SheetRepository) q(query string) string {
	if !r.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

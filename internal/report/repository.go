package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// NewReport holds the client-settable fields of a report at creation time.
type NewReport struct {
	ImageURL    *string
	Category    string
	Longitude   *float64
	Latitude    *float64
	Description *string
	Status      string
}

// Fields is a partial-update field set keyed by column name. Only keys in
// the allow-list below are ever written; anything else is dropped.
type Fields map[string]interface{}

// Repository handles all report database operations.
type Repository interface {
	List(ctx context.Context) ([]Report, error)
	GetByID(ctx context.Context, id string) (*Report, error)
	Insert(ctx context.Context, n NewReport) (*Report, error)
	Update(ctx context.Context, id string, fields Fields) (*Report, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// updatableColumns is the fixed allow-list for dynamic SET construction.
// Column names come from this slice only, never from caller-supplied text;
// values are always bound parameters. Order is fixed so placeholder
// numbering is deterministic.
var updatableColumns = []string{"image_url", "category", "longitude", "latitude", "description", "status"}

const reportColumns = "id, image_url, category, longitude, latitude, description, status, created_at"

// PgxRepository implements Repository on a PostgreSQL pool.
type PgxRepository struct {
	db *pgxpool.Pool
}

// NewPgxRepository creates a Repository backed by the given connection pool.
func NewPgxRepository(db *pgxpool.Pool) *PgxRepository {
	return &PgxRepository{db: db}
}

func scanReport(row pgx.Row) (*Report, error) {
	rep := &Report{}
	err := row.Scan(&rep.ID, &rep.ImageURL, &rep.Category, &rep.Longitude,
		&rep.Latitude, &rep.Description, &rep.Status, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// List returns every report, newest first.
func (r *PgxRepository) List(ctx context.Context) ([]Report, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// GetByID fetches a report by its UUID.
func (r *PgxRepository) GetByID(ctx context.Context, id string) (*Report, error) {
	rep, err := scanReport(r.db.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report by id: %w", err)
	}
	return rep, nil
}

// Insert creates a report and returns the stored row, including the
// generated id and created_at. Status defaults to "pending" when absent.
func (r *PgxRepository) Insert(ctx context.Context, n NewReport) (*Report, error) {
	if n.Status == "" {
		n.Status = "pending"
	}
	rep, err := scanReport(r.db.QueryRow(ctx,
		`INSERT INTO reports (image_url, category, longitude, latitude, description, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+reportColumns,
		n.ImageURL, n.Category, n.Longitude, n.Latitude, n.Description, n.Status))
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return rep, nil
}

// Update applies a partial update touching only the given fields and returns
// the updated row. An empty field set behaves as a read.
func (r *PgxRepository) Update(ctx context.Context, id string, fields Fields) (*Report, error) {
	setClause, args := buildSetClause(fields)
	if setClause == "" {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE reports SET %s WHERE id = $%d RETURNING %s`,
		setClause, len(args), reportColumns)

	rep, err := scanReport(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	return rep, nil
}

// Delete removes a report and reports whether a row was actually deleted.
func (r *PgxRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete report: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// buildSetClause renders "col = $n" pairs for the fields present, in the
// fixed allow-list order. Unknown keys are ignored.
func buildSetClause(fields Fields) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, col := range updatableColumns {
		val, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, val)
		parts = append(parts, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	return strings.Join(parts, ", "), args
}

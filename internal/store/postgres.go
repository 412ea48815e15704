package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"routekit/internal/geo"
	"routekit/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate applies the embedded migrations in file-name order, skipping those
// already recorded in schema_migrations.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (name text PRIMARY KEY, applied_at timestamptz NOT NULL DEFAULT now())`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		var done bool
		if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name=$1)`, name).Scan(&done); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if done {
			continue
		}
		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		tx, err := p.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

// CreateDataset inserts the dataset row and bulk-loads its points with COPY.
func (p *Postgres) CreateDataset(ctx context.Context, tenantID string, in model.DatasetIn) (model.Dataset, error) {
	id := uuid.New()
	ds := model.Dataset{ID: id.String(), TenantID: tenantID, Name: in.Name, Size: len(in.Points), CreatedAt: time.Now().UTC()}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return model.Dataset{}, err
	}
	defer func() { _ = conn.Close() }()

	err = conn.Raw(func(driverConn any) error {
		pc := driverConn.(*stdlib.Conn).Conn()
		tx, err := pc.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()
		if _, err := tx.Exec(ctx, `INSERT INTO datasets (id, tenant_id, name, size, created_at) VALUES ($1,$2,$3,$4,$5)`,
			id, tenantID, ds.Name, ds.Size, ds.CreatedAt); err != nil {
			return err
		}
		rows := make([][]any, len(in.Points))
		for i, pt := range in.Points {
			rows[i] = []any{id, i, pt.ID, pt.X, pt.Y}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"dataset_points"},
			[]string{"dataset_id", "seq", "point_id", "x", "y"}, pgx.CopyFromRows(rows)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return model.Dataset{}, fmt.Errorf("create dataset: %w", err)
	}
	return ds, nil
}

func (p *Postgres) GetDataset(ctx context.Context, tenantID, id string) (model.Dataset, error) {
	var ds model.Dataset
	err := p.db.QueryRowContext(ctx, `SELECT id::text, tenant_id, name, size, created_at FROM datasets WHERE tenant_id=$1 AND id::text=$2`, tenantID, id).
		Scan(&ds.ID, &ds.TenantID, &ds.Name, &ds.Size, &ds.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Dataset{}, ErrNotFound
	}
	return ds, err
}

func (p *Postgres) ListDatasets(ctx context.Context, tenantID, cursor string, limit int) ([]model.Dataset, string, error) {
	limit = clampLimit(limit)
	q, args := keysetQuery(`SELECT id::text, tenant_id, name, size, created_at FROM datasets WHERE tenant_id=$1`, []any{tenantID}, cursor, limit)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Dataset{}
	for rows.Next() {
		var ds model.Dataset
		if err := rows.Scan(&ds.ID, &ds.TenantID, &ds.Name, &ds.Size, &ds.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (p *Postgres) Coordinates(ctx context.Context, tenantID, datasetID string) ([]geo.Coordinate, error) {
	if _, err := p.GetDataset(ctx, tenantID, datasetID); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT point_id, x, y FROM dataset_points WHERE dataset_id::text=$1 ORDER BY seq`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []geo.Coordinate
	for rows.Next() {
		var c geo.Coordinate
		if err := rows.Scan(&c.ID, &c.X, &c.Y); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveRun(ctx context.Context, run model.Run) (model.Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO runs (id, tenant_id, kind, dataset_id, status, cost, error, duration_ms, created_at, result)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (id) DO UPDATE SET status=$5, cost=$6, error=$7, duration_ms=$8, result=$10`,
		run.ID, run.TenantID, run.Kind, nullIfEmpty(run.DatasetID), run.Status, run.Cost, nullIfEmpty(run.Error),
		run.DurationMs, run.CreatedAt, jsonOrNil(run.Result))
	if err != nil {
		return model.Run{}, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

func (p *Postgres) GetRun(ctx context.Context, tenantID, id string) (model.Run, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+runColumns+`, result FROM runs WHERE tenant_id=$1 AND id::text=$2`, tenantID, id)
	var result []byte
	r, err := scanRun(row, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, ErrNotFound
	}
	if err != nil {
		return model.Run{}, err
	}
	r.Result = result
	return r, nil
}

func (p *Postgres) ListRuns(ctx context.Context, tenantID, kind, cursor string, limit int) ([]model.Run, string, error) {
	limit = clampLimit(limit)
	base := `SELECT ` + runColumns + ` FROM runs WHERE tenant_id=$1`
	args := []any{tenantID}
	if kind != "" {
		base += ` AND kind=$2`
		args = append(args, kind)
	}
	q, args := keysetQuery(base, args, cursor, limit)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (p *Postgres) GetSolverConfig(ctx context.Context, tenantID string) (map[string]any, error) {
	row := p.db.QueryRowContext(ctx, `SELECT config FROM solver_config WHERE tenant_id=$1`, tenantID)
	var js []byte
	if err := row.Scan(&js); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var cfg map[string]any
	if err := json.Unmarshal(js, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (p *Postgres) SaveSolverConfig(ctx context.Context, tenantID string, cfg map[string]any) error {
	js, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO solver_config (tenant_id, config, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (tenant_id) DO UPDATE SET config=$2, updated_at=now()`, tenantID, js)
	return err
}

const runColumns = `id::text, tenant_id, kind, COALESCE(dataset_id::text,''), status, cost, COALESCE(error,''), duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner, extra ...any) (model.Run, error) {
	var r model.Run
	dest := append([]any{&r.ID, &r.TenantID, &r.Kind, &r.DatasetID, &r.Status, &r.Cost, &r.Error, &r.DurationMs, &r.CreatedAt}, extra...)
	err := s.Scan(dest...)
	return r, err
}

// keysetQuery appends id-cursor pagination to base, whose placeholders are
// numbered 1..len(args).
func keysetQuery(base string, args []any, cursor string, limit int) (string, []any) {
	idx := len(args) + 1
	q := base
	if cursor != "" {
		q += fmt.Sprintf(` AND id::text > $%d`, idx)
		args = append(args, cursor)
		idx++
	}
	q += fmt.Sprintf(` ORDER BY id::text LIMIT $%d`, idx)
	return q, append(args, limit)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func jsonOrNil(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"protv/internal/utils"
	"protv/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationTableName = "applications"
	uniqueViolationCode  = "23505"
)

// key columns come from the db tags on types.Application; the full record
// lives in the jsonb document column.
var applicationKeyColumns = utils.StructTagValues(types.Application{})

type applicationRow struct {
	Document []byte `db:"document"`
}

type PostgresApplicationRepository struct {
	pool   *pgxpool.Pool
	schema string
}

func NewPostgresApplicationRepository(pool *pgxpool.Pool, schema string) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{pool: pool, schema: schema}
}

func (r *PostgresApplicationRepository) Insert(ctx context.Context, app *types.Application) error {
	query, args, err := insertApplicationQuery(app)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return postgresInsertError(app, err)
}

func postgresInsertError(app *types.Application, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("insert application %s: %w: %v", app.ApplicationID, types.ErrDuplicateApplication, err)
	}
	return fmt.Errorf("insert application %s: %w", app.ApplicationID, err)
}

func (r *PostgresApplicationRepository) ApplicationBySubmissionID(ctx context.Context, submissionID string) (*types.Application, error) {
	query, args, err := psql().
		Select("document").
		From(applicationTableName).
		Where(sq.Eq{"submission_id": submissionID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate application query: %w", err)
	}

	var row applicationRow
	err = pgxscan.Get(ctx, r.pool, &row, query, args...)
	if err != nil && pgxscan.NotFound(err) {
		return nil, types.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch application %s: %w", submissionID, err)
	}

	return decodeApplicationDocument(row.Document)
}

// ListCollections lists the tables of the configured schema.
func (r *PostgresApplicationRepository) ListCollections(ctx context.Context) ([]string, error) {
	query, args, err := listTablesQuery(r.schema)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := pgxscan.Select(ctx, r.pool, &names, query, args...); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

func (r *PostgresApplicationRepository) EnsureIndexes(ctx context.Context) error {
	schema := pgx.Identifier{r.schema}.Sanitize()
	table := pgx.Identifier{r.schema, applicationTableName}.Sanitize()

	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			submission_id  TEXT PRIMARY KEY,
			application_id TEXT NOT NULL UNIQUE,
			submitted_at   TIMESTAMPTZ NOT NULL,
			document       JSONB NOT NULL
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS applications_submitted_at_idx ON %s (submitted_at DESC)`, table),
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure applications table: %w", err)
		}
	}
	return nil
}

func (r *PostgresApplicationRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func insertApplicationQuery(app *types.Application) (string, []any, error) {
	document, err := json.Marshal(app)
	if err != nil {
		return "", nil, fmt.Errorf("marshal application document: %w", err)
	}

	values := utils.StructToMap(app)
	columns := make([]string, 0, len(applicationKeyColumns)+1)
	row := make([]any, 0, len(applicationKeyColumns)+1)
	for _, column := range applicationKeyColumns {
		columns = append(columns, column)
		row = append(row, values[column])
	}
	columns = append(columns, "document")
	row = append(row, string(document))

	query, args, err := psql().
		Insert(applicationTableName).
		Columns(columns...).
		Values(row...).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate application insert: %w", err)
	}
	return query, args, nil
}

func listTablesQuery(schema string) (string, []any, error) {
	query, args, err := psql().
		Select("table_name").
		From("information_schema.tables").
		Where(sq.Eq{"table_schema": schema}).
		OrderBy("table_name").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate table listing query: %w", err)
	}
	return query, args, nil
}

func decodeApplicationDocument(document []byte) (*types.Application, error) {
	var app = new(types.Application)
	if err := json.Unmarshal(document, app); err != nil {
		return nil, fmt.Errorf("decode application document: %w", err)
	}

	if app.Files == nil {
		app.Files = make(map[types.FileSlot]*types.FileDescriptor)
	}
	return app, nil
}

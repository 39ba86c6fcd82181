package sql

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/intelliment/puppet-integration/internal/domain"
	"github.com/intelliment/puppet-integration/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
}

var _ storage.Storage = (*Store)(nil)

// New creates a new SQL store and runs pending migrations.
// driver is "sqlite3" or "postgres".
func New(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ============================================
// Change history
// ============================================

type changeRow struct {
	ID                 string    `db:"id"`
	ScenarioID         string    `db:"scenario_id"`
	ScenarioName       string    `db:"scenario_name"`
	EndpointURL        string    `db:"endpoint_url"`
	Action             string    `db:"action"`
	RequirementIDsJSON string    `db:"requirement_ids"`
	Status             string    `db:"status"`
	Error              string    `db:"error"`
	Operator           string    `db:"operator"`
	CreatedAt          time.Time `db:"created_at"`
}

const changeColumns = `id, scenario_id, scenario_name, endpoint_url, action, requirement_ids, status, error, operator, created_at`

func rowToChange(row *changeRow) (*domain.ChangeRecord, error) {
	change := &domain.ChangeRecord{
		ID:           row.ID,
		ScenarioID:   row.ScenarioID,
		ScenarioName: row.ScenarioName,
		EndpointURL:  row.EndpointURL,
		Action:       domain.ChangeAction(row.Action),
		Status:       row.Status,
		Error:        row.Error,
		Operator:     row.Operator,
		CreatedAt:    row.CreatedAt.UTC(),
	}
	if row.RequirementIDsJSON != "" {
		if err := json.Unmarshal([]byte(row.RequirementIDsJSON), &change.RequirementIDs); err != nil {
			return nil, fmt.Errorf("decoding requirement ids of change %s: %w", row.ID, err)
		}
	}
	return change, nil
}

func (s *Store) CreateChange(ctx context.Context, change *domain.ChangeRecord) error {
	ids := change.RequirementIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding requirement ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO change_records (`+changeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		change.ID, change.ScenarioID, change.ScenarioName, change.EndpointURL, string(change.Action),
		string(idsJSON), change.Status, change.Error, change.Operator, change.CreatedAt.UTC())
	return wrapUniqueError(err)
}

func (s *Store) GetChange(ctx context.Context, id string) (*domain.ChangeRecord, error) {
	var row changeRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+changeColumns+` FROM change_records WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToChange(&row)
}

func (s *Store) ListChanges(ctx context.Context, limit, offset int) ([]*domain.ChangeRecord, error) {
	var rows []changeRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+changeColumns+` FROM change_records
		 ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}

	changes := make([]*domain.ChangeRecord, 0, len(rows))
	for i := range rows {
		change, err := rowToChange(&rows[i])
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (s *Store) CountChanges(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM change_records`)
	return count, err
}

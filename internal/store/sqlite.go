package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/estimate-cli/internal/catalog"
	"github.com/sells-group/estimate-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS estimates (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	doc         TEXT NOT NULL,
	parts       INTEGER NOT NULL DEFAULT 0,
	grand_total REAL NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS catalog_items (
	code        TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	category    TEXT,
	unit        TEXT,
	rate        REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_estimates_name ON estimates(name);
CREATE INDEX IF NOT EXISTS idx_estimates_updated_at ON estimates(updated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveEstimate(ctx context.Context, tree *model.EstimateTree) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	doc, err := json.Marshal(tree)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal estimate")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO estimates (id, name, doc, parts, grand_total, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, tree.Name, string(doc), len(tree.Parts), tree.General.GrandTotal, now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert estimate")
	}
	return id, nil
}

func (s *SQLiteStore) UpdateEstimate(ctx context.Context, id string, tree *model.EstimateTree) error {
	doc, err := json.Marshal(tree)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal estimate")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE estimates SET name = ?, doc = ?, parts = ?, grand_total = ?, updated_at = ? WHERE id = ?`,
		tree.Name, string(doc), len(tree.Parts), tree.General.GrandTotal, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update estimate %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) GetEstimate(ctx context.Context, id string) (*model.EstimateTree, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM estimates WHERE id = ?`, id,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(model.ErrNotFound, "sqlite: estimate %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get estimate %s", id)
	}

	var tree model.EstimateTree
	if err := json.Unmarshal([]byte(doc), &tree); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal estimate")
	}
	return &tree, nil
}

func (s *SQLiteStore) ListEstimates(ctx context.Context, filter ListFilter) ([]EstimateSummary, error) {
	query := `SELECT id, name, parts, grand_total, updated_at FROM estimates WHERE 1=1`
	var args []any

	if filter.Name != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+filter.Name+"%")
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list estimates")
	}
	defer rows.Close()

	var summaries []EstimateSummary
	for rows.Next() {
		var e EstimateSummary
		if err := rows.Scan(&e.ID, &e.Name, &e.Parts, &e.GrandTotal, &e.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan estimate")
		}
		summaries = append(summaries, e)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: list estimates iterate")
}

func (s *SQLiteStore) DeleteEstimate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM estimates WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete estimate %s", id)
	}
	return checkRowsAffected(res, id)
}

// SaveCatalog replaces the stored catalog wholesale. Rate schedules are
// published as complete revisions, so a partial update never makes sense.
func (s *SQLiteStore) SaveCatalog(ctx context.Context, items []catalog.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin catalog tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_items`); err != nil {
		return eris.Wrap(err, "sqlite: clear catalog")
	}
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_items (code, description, category, unit, rate) VALUES (?, ?, ?, ?, ?)`,
			item.Code, item.Description, item.Category, item.Unit, item.Rate,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert catalog item %s", item.Code)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit catalog")
}

func (s *SQLiteStore) LoadCatalog(ctx context.Context) ([]catalog.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, description, category, unit, rate FROM catalog_items ORDER BY code`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load catalog")
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var item catalog.Item
		var category, unit sql.NullString
		if err := rows.Scan(&item.Code, &item.Description, &category, &unit, &item.Rate); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan catalog item")
		}
		item.Category = category.String
		item.Unit = unit.String
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: load catalog iterate")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(model.ErrNotFound, "estimate %s", id)
	}
	return nil
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/sqlite"
)

// ErrNotFound is returned when a keyed lookup finds no record.
var ErrNotFound = errors.NewSentinel("record not found")

// CaseRepository reads and writes case documents. The case content is a
// single JSON document parsed once per lookup; a malformed document
// degrades to empty sections instead of failing the whole case.
type CaseRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewCaseRepository(dbs *sqlite.Database, logger *slog.Logger) *CaseRepository {
	return &CaseRepository{
		dbs:    dbs,
		logger: logger.With("source", "CaseRepository"),
	}
}

type caseRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Access      string `db:"access"`
	ContentJSON string `db:"content_json"`
}

// Get returns the case document for the given id.
func (r *CaseRepository) Get(ctx context.Context, caseID string) (models.Case, error) {
	var row caseRow
	stmt := `SELECT id, title, access, content_json FROM cases WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, caseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Case{}, errors.Wrap(ErrNotFound, "case not found", slog.String("case_id", caseID))
		}
		return models.Case{}, errors.Wrap(err, "read case")
	}
	return r.parse(ctx, row), nil
}

// List returns all stored cases.
func (r *CaseRepository) List(ctx context.Context) ([]models.Case, error) {
	var rows []caseRow
	stmt := `SELECT id, title, access, content_json FROM cases ORDER BY id`
	if err := r.dbs.ReadOnly.SelectContext(ctx, &rows, stmt); err != nil {
		return nil, errors.Wrap(err, "list cases")
	}
	cases := make([]models.Case, 0, len(rows))
	for _, row := range rows {
		cases = append(cases, r.parse(ctx, row))
	}
	return cases, nil
}

// Put stores or replaces a case document.
func (r *CaseRepository) Put(ctx context.Context, c models.Case) error {
	content, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal case content")
	}
	access := c.Access
	if access == "" {
		access = models.AccessFree
	}
	stmt := `INSERT INTO cases (id, title, access, content_json)
	VALUES (@id, @title, @access, @content_json)
	ON CONFLICT (id) DO UPDATE SET title = @title, access = @access, content_json = @content_json`
	params := []any{
		sql.Named("id", c.ID),
		sql.Named("title", c.Title),
		sql.Named("access", string(access)),
		sql.Named("content_json", string(content)),
	}
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, params...); err != nil {
		return errors.Wrap(err, "upsert case")
	}
	return nil
}

// parse decodes the content document. The column values for id, title and
// access are authoritative over whatever the document carries.
func (r *CaseRepository) parse(ctx context.Context, row caseRow) models.Case {
	var c models.Case
	if err := json.Unmarshal([]byte(row.ContentJSON), &c); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "malformed case content, using empty sections",
			slog.String("case_id", row.ID), errors.SlogError(err))
		c = models.Case{}
	}
	c.ID = row.ID
	c.Title = row.Title
	c.Access = models.Access(row.Access)
	return c
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/sqlite"
	"github.com/jmoiron/sqlx"
)

// ResultRepository persists game results. A result is written exactly once
// per session; the unique index on session_id enforces it at the store.
type ResultRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewResultRepository(dbs *sqlite.Database, logger *slog.Logger) *ResultRepository {
	return &ResultRepository{
		dbs:    dbs,
		logger: logger.With("source", "ResultRepository"),
	}
}

type resultRow struct {
	ID              string         `db:"id"`
	SessionID       string         `db:"session_id"`
	CaseID          string         `db:"case_id"`
	PlayerID        sql.NullString `db:"player_id"`
	AnswerJSON      string         `db:"answer_json"`
	SkillsJSON      string         `db:"skills_json"`
	IsCorrect       bool           `db:"is_correct"`
	DurationSeconds int64          `db:"duration_seconds"`
}

// Insert stores a new result.
func (r *ResultRepository) Insert(ctx context.Context, result models.Result) error {
	return insertResult(ctx, r.dbs.ReadWrite, result)
}

// insertResult writes the result row through db, which may be a transaction.
func insertResult(ctx context.Context, db sqlx.ExecerContext, result models.Result) error {
	answerJSON, err := json.Marshal(result.Verdict)
	if err != nil {
		return errors.Wrap(err, "marshal verdict")
	}
	skillsJSON, err := json.Marshal(result.Skills)
	if err != nil {
		return errors.Wrap(err, "marshal skills")
	}

	stmt := `INSERT INTO game_results (id, session_id, case_id, player_id, answer_json, skills_json, is_correct, duration_seconds)
	VALUES (@id, @session_id, @case_id, @player_id, @answer_json, @skills_json, @is_correct, @duration_seconds)`
	params := []any{
		sql.Named("id", result.ID),
		sql.Named("session_id", result.SessionID),
		sql.Named("case_id", result.CaseID),
		sql.Named("player_id", nullString(result.PlayerID)),
		sql.Named("answer_json", string(answerJSON)),
		sql.Named("skills_json", string(skillsJSON)),
		sql.Named("is_correct", result.Correct),
		sql.Named("duration_seconds", result.DurationSeconds),
	}
	if _, err = db.ExecContext(ctx, stmt, params...); err != nil {
		return errors.Wrap(err, "insert result", slog.String("session_id", result.SessionID))
	}
	return nil
}

// Get re-reads a persisted result.
func (r *ResultRepository) Get(ctx context.Context, resultID string) (models.Result, error) {
	var row resultRow
	stmt := `SELECT id, session_id, case_id, player_id, answer_json, skills_json, is_correct, duration_seconds
	FROM game_results
	WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, resultID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Result{}, errors.Wrap(ErrNotFound, "result not found", slog.String("result_id", resultID))
		}
		return models.Result{}, errors.Wrap(err, "read result")
	}

	result := models.Result{
		ID:              row.ID,
		SessionID:       row.SessionID,
		CaseID:          row.CaseID,
		Correct:         row.IsCorrect,
		DurationSeconds: row.DurationSeconds,
	}
	if row.PlayerID.Valid {
		playerID := row.PlayerID.String
		result.PlayerID = &playerID
	}
	if err := json.Unmarshal([]byte(row.AnswerJSON), &result.Verdict); err != nil {
		return models.Result{}, errors.Wrap(err, "unmarshal verdict")
	}
	if err := json.Unmarshal([]byte(row.SkillsJSON), &result.Skills); err != nil {
		return models.Result{}, errors.Wrap(err, "unmarshal skills")
	}
	return result, nil
}

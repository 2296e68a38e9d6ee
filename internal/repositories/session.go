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

// SessionRepository persists sessions. The conversation log is stored as one
// JSON document in the session row so status and log always change together
// in a single atomic write.
type SessionRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewSessionRepository(dbs *sqlite.Database, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{
		dbs:    dbs,
		logger: logger.With("source", "SessionRepository"),
	}
}

type sessionRow struct {
	ID       string         `db:"id"`
	CaseID   string         `db:"case_id"`
	PlayerID sql.NullString `db:"player_id"`
	Status   string         `db:"status"`
	LogJSON  string         `db:"log_json"`
}

// logDocument is the stored shape of the conversation log.
type logDocument struct {
	Turns []models.Turn `json:"turns"`
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	logJSON, err := marshalLog(session.Turns)
	if err != nil {
		return err
	}
	stmt := `INSERT INTO game_sessions (id, case_id, player_id, status, log_json)
	VALUES (@id, @case_id, @player_id, @status, @log_json)`
	params := []any{
		sql.Named("id", session.ID),
		sql.Named("case_id", session.CaseID),
		sql.Named("player_id", nullString(session.PlayerID)),
		sql.Named("status", string(session.Status)),
		sql.Named("log_json", logJSON),
	}
	if _, err = r.dbs.ReadWrite.ExecContext(ctx, stmt, params...); err != nil {
		return errors.Wrap(err, "insert session")
	}
	return nil
}

// Get returns the session with its conversation log. An empty or malformed
// log document degrades to an empty log.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (models.Session, error) {
	var row sessionRow
	stmt := `SELECT id, case_id, player_id, status, log_json FROM game_sessions WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &row, stmt, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, errors.Wrap(ErrNotFound, "session not found", slog.String("session_id", sessionID))
		}
		return models.Session{}, errors.Wrap(err, "read session")
	}

	session := models.Session{
		ID:     row.ID,
		CaseID: row.CaseID,
		Status: models.Status(row.Status),
	}
	if row.PlayerID.Valid {
		playerID := row.PlayerID.String
		session.PlayerID = &playerID
	}

	var doc logDocument
	if row.LogJSON != "" {
		if err := json.Unmarshal([]byte(row.LogJSON), &doc); err != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "malformed session log, using empty log",
				slog.String("session_id", row.ID), errors.SlogError(err))
		}
	}
	session.Turns = doc.Turns

	return session, nil
}

// Put overwrites the whole session record. Status and log are written in one
// statement so a reader never observes one without the other.
func (r *SessionRepository) Put(ctx context.Context, session models.Session) error {
	return updateSession(ctx, r.dbs.ReadWrite, session)
}

// FinishWithResult stores the game result and the finished session in one
// transaction. Either both writes land or neither does, so a failed finish
// leaves the session retryable without an orphaned result blocking the
// unique session index.
func (r *SessionRepository) FinishWithResult(ctx context.Context, session models.Session, result models.Result) error {
	tx, err := r.dbs.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin finish transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err = insertResult(ctx, tx, result); err != nil {
		return err
	}
	if err = updateSession(ctx, tx, session); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit finish transaction", slog.String("session_id", session.ID))
	}
	return nil
}

// updateSession writes the session row through db, which may be a transaction.
func updateSession(ctx context.Context, db sqlx.ExecerContext, session models.Session) error {
	logJSON, err := marshalLog(session.Turns)
	if err != nil {
		return err
	}
	stmt := `UPDATE game_sessions
	SET status = @status, log_json = @log_json, updated_at = CURRENT_TIMESTAMP
	WHERE id = @id`
	params := []any{
		sql.Named("id", session.ID),
		sql.Named("status", string(session.Status)),
		sql.Named("log_json", logJSON),
	}
	result, err := db.ExecContext(ctx, stmt, params...)
	if err != nil {
		return errors.Wrap(err, "update session")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if affected == 0 {
		return errors.Wrap(ErrNotFound, "session not found", slog.String("session_id", session.ID))
	}
	return nil
}

func marshalLog(turns []models.Turn) (string, error) {
	if turns == nil {
		turns = []models.Turn{}
	}
	logJSON, err := json.Marshal(logDocument{Turns: turns})
	if err != nil {
		return "", errors.Wrap(err, "marshal session log")
	}
	return string(logJSON), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

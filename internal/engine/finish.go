package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jkorri/gumshoe/internal/analysis"
	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/repositories"
)

// maxFacts bounds the fact digest sent to the analysis service.
const maxFacts = 12

// Finish scores the game and closes the session. The analysis service is
// tried with the primary engine, then the fallback engine; if both fail the
// game is still finished with zero-default skills. A session that is already
// finished is rejected: a result is written exactly once.
func (e *Engine) Finish(
	ctx context.Context,
	sessionID string,
	verdict map[string]any,
	clientSkills map[string]any,
	timings analysis.Timings,
) (models.Result, error) {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Result{}, errors.Wrap(ErrSessionNotFound, "finish", slog.String("session_id", sessionID))
		}
		return models.Result{}, errors.Wrap(err, "load session")
	}
	if session.Status != models.StatusPlaying {
		return models.Result{}, errors.Wrap(ErrSessionClosed, "finish", slog.String("session_id", sessionID))
	}

	c, err := e.cases.Get(ctx, session.CaseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Result{}, errors.Wrap(ErrCaseNotFound, "finish", slog.String("case_id", session.CaseID))
		}
		return models.Result{}, errors.Wrap(err, "load case")
	}

	if verdict == nil {
		return models.Result{}, errors.Wrap(ErrInvalidVerdict, "finish", slog.String("session_id", sessionID))
	}

	analysisSkills := e.analyze(ctx, session, c, verdict, timings)
	skills := resolveSkills(clientSkills, analysisSkills)
	correct := verdictCorrect(c, verdict)

	result := models.Result{
		ID:              uuid.NewString(),
		SessionID:       session.ID,
		CaseID:          c.ID,
		PlayerID:        session.PlayerID,
		Verdict:         verdict,
		Skills:          skills,
		Correct:         correct,
		DurationSeconds: timings.DurationSeconds,
	}

	// Result and status land in one atomic store write; a failure leaves
	// the session PLAYING with no result row, so the client can retry.
	session.Status = models.StatusFinished
	if err = e.sessions.FinishWithResult(ctx, session, result); err != nil {
		return models.Result{}, persistenceFailed(err)
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "session finished",
		slog.String("session_id", session.ID),
		slog.String("result_id", result.ID),
		slog.Bool("correct", correct))

	return result, nil
}

// analyze calls the analysis service with the primary engine and retries
// once with the fallback engine. Failures are non-fatal; a nil return means
// no analysis skills are available.
func (e *Engine) analyze(
	ctx context.Context,
	session models.Session,
	c models.Case,
	verdict map[string]any,
	timings analysis.Timings,
) map[string]any {
	req := analysis.Request{
		SessionID:   session.ID,
		CaseTitle:   c.Title,
		CaseSummary: c.Summary,
		Turns:       session.Turns,
		Facts:       factDigest(c),
		Verdict:     verdict,
		Timings:     timings,
	}

	for _, engineName := range []string{analysis.EnginePrimary, analysis.EngineFallback} {
		req.Engine = engineName
		resp, err := e.analyzer.Analyze(ctx, req)
		if err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "analysis call failed",
				slog.String("engine", engineName), errors.SlogError(err))
			continue
		}
		return resp.Skills
	}
	return nil
}

// resolveSkills applies the score resolution policy as an ordered list of
// sources: client-submitted skills win, then analysis skills, then the
// all-zero default. The first present source is coerced to the five bounded
// metrics.
func resolveSkills(clientSkills, analysisSkills map[string]any) models.Skills {
	sources := []map[string]any{clientSkills, analysisSkills}
	for _, source := range sources {
		if source != nil {
			return CoerceSkills(source)
		}
	}
	return models.Skills{}
}

// verdictCorrect compares the submitted culprit against ground truth. The
// submission may be a character id or a display name. Any resolution failure
// yields false, never an error.
func verdictCorrect(c models.Case, verdict map[string]any) bool {
	truth := c.Answer.Culprit
	if truth == "" {
		return false
	}
	submitted, ok := verdict["culprit"].(string)
	if !ok {
		return false
	}
	return c.ResolveCulpritID(submitted) == truth
}

// factDigest flattens the case into natural-language fact strings for the
// analysis service: character alibis first, then evidence, then timeline, in
// case-document order, truncated to the first maxFacts entries.
func factDigest(c models.Case) []string {
	facts := make([]string, 0, maxFacts)
	add := func(fact string) bool {
		if len(facts) >= maxFacts {
			return false
		}
		facts = append(facts, fact)
		return true
	}

	for _, ch := range c.Characters {
		fact := fmt.Sprintf("%s's alibi: %s, %s (%s)", ch.Name, ch.Alibi.Location, ch.Alibi.Time, ch.Alibi.Detail)
		if !add(fact) {
			return facts
		}
	}
	for _, ev := range c.Evidence {
		if !add(fmt.Sprintf("%s: %s", ev.Name, ev.Description)) {
			return facts
		}
	}
	for _, event := range c.Timeline {
		if !add(fmt.Sprintf("%s: %s", event.Time, event.Event)) {
			return facts
		}
	}
	return facts
}

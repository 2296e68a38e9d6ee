// Package trigger decides how much a character may reveal in response to a
// player question by matching the question against the case facts.
package trigger

import (
	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/textmatch"
)

// Detect matches text against the case's evidence, timeline and locations
// and computes the disclosure level. Precedence is strict: any evidence hit
// yields L3, otherwise any time or location hit yields L2, otherwise L1.
// Fired lists keep case-document order. Pure function of (text, case).
func Detect(text string, c models.Case) models.TriggerMeta {
	query := textmatch.NewQuery(text)

	var firedEvidence []string
	for _, ev := range c.Evidence {
		if ev.ID == "" {
			continue
		}
		if evidenceHits(query, ev) {
			firedEvidence = append(firedEvidence, ev.ID)
		}
	}

	var firedTimes []string
	for _, event := range c.Timeline {
		if query.Hits(event.Time) {
			firedTimes = append(firedTimes, event.Time)
		}
	}

	var firedLocations []string
	for _, loc := range c.Locations {
		if query.Hits(loc.Name) {
			firedLocations = append(firedLocations, loc.Name)
		}
	}

	level := models.LevelBaseline
	switch {
	case len(firedEvidence) > 0:
		level = models.LevelEvidence
	case len(firedTimes) > 0 || len(firedLocations) > 0:
		level = models.LevelContext
	}

	return models.TriggerMeta{
		Level:            level,
		FiredEvidenceIDs: firedEvidence,
		FiredTimes:       firedTimes,
		FiredLocations:   firedLocations,
	}
}

// Echo derives the trigger metadata attached to the character's answer. The
// fired facts belong to the question; the answer carries the level it was
// allowed to speak at.
func Echo(meta models.TriggerMeta) models.TriggerMeta {
	return models.TriggerMeta{Level: meta.Level}
}

func evidenceHits(query textmatch.Query, ev models.Evidence) bool {
	if query.Hits(ev.Name) {
		return true
	}
	for _, keyword := range ev.Keywords {
		if query.Hits(keyword) {
			return true
		}
	}
	return false
}

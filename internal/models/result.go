package models

// Skills is the reconciled score vector of a finished game. Every metric is
// an integer in [0,100]; absent or unparseable upstream values default to 0.
type Skills struct {
	Logic      int `json:"logic"`
	Creativity int `json:"creativity"`
	Focus      int `json:"focus"`
	Diversity  int `json:"diversity"`
	Depth      int `json:"depth"`
}

// Result is produced exactly once per finished session and is immutable
// once written.
type Result struct {
	ID              string         `json:"id"`
	SessionID       string         `json:"session_id"`
	CaseID          string         `json:"case_id"`
	PlayerID        *string        `json:"player_id,omitempty"`
	Verdict         map[string]any `json:"verdict"`
	Skills          Skills         `json:"skills"`
	Correct         bool           `json:"correct"`
	DurationSeconds int64          `json:"duration_seconds"`
}

package models

import "strings"

// Access controls who may start a session for a case.
type Access string

const (
	AccessFree   Access = "FREE"
	AccessMember Access = "MEMBER"
)

// Case is the immutable definition of a mystery. It is owned by the case
// store and parsed once per request from the stored case document. Missing
// sections decode to empty values rather than failing the whole case.
type Case struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Summary    string          `json:"summary"`
	Objective  string          `json:"objective"`
	Rules      []string        `json:"rules"`
	Access     Access          `json:"access"`
	Characters []Character     `json:"characters"`
	Evidence   []Evidence      `json:"evidence"`
	Timeline   []TimelineEvent `json:"timeline"`
	Locations  []Location      `json:"locations"`
	Answer     Answer          `json:"answer"`
}

// Answer holds the ground truth of the case.
type Answer struct {
	Culprit     string   `json:"culprit"`
	Motive      string   `json:"motive,omitempty"`
	Method      string   `json:"method,omitempty"`
	KeyEvidence []string `json:"key_evidence,omitempty"`
}

// Character is a suspect the player can interrogate.
type Character struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Job           string `json:"job"`
	Personality   string `json:"personality"`
	SpeakingStyle string `json:"speaking_style"`
	Outfit        string `json:"outfit"`
	Alibi         Alibi  `json:"alibi"`
	Mission       string `json:"mission"`
	SampleLine    string `json:"sample_line,omitempty"`
}

// Alibi is where a character claims to have been.
type Alibi struct {
	Location string `json:"location"`
	Time     string `json:"time"`
	Detail   string `json:"detail"`
}

// Evidence is a named clue with optional keyword aliases for trigger matching.
type Evidence struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"desc"`
	Keywords    []string `json:"keywords,omitempty"`
}

// TimelineEvent pairs a time label with what happened then.
type TimelineEvent struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

// Location is a named place in the case.
type Location struct {
	Name string `json:"name"`
}

// IsCulprit reports whether the character is the true culprit. The flag is
// never stored on the character; it is derived from the case answer.
func (c Case) IsCulprit(ch Character) bool {
	return ch.ID != "" && ch.ID == c.Answer.Culprit
}

// CharacterByName resolves a character by exact display name.
func (c Case) CharacterByName(name string) (Character, bool) {
	for _, ch := range c.Characters {
		if ch.Name == name {
			return ch, true
		}
	}
	return Character{}, false
}

// ResolveCulpritID maps a verdict submission to a character identifier.
// The submission may be a character id or a display name; display names are
// compared after trimming whitespace.
func (c Case) ResolveCulpritID(submitted string) string {
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return ""
	}
	for _, ch := range c.Characters {
		if ch.ID == submitted {
			return ch.ID
		}
	}
	for _, ch := range c.Characters {
		if ch.Name == submitted {
			return ch.ID
		}
	}
	return ""
}

package models

// Status is the lifecycle state of a session.
type Status string

const (
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

// Speaker identifies who uttered a message in the conversation log.
type Speaker string

const (
	SpeakerPlayer    Speaker = "PLAYER"
	SpeakerCharacter Speaker = "CHARACTER"
)

// DisclosureLevel gates how much case detail a character may reveal.
type DisclosureLevel string

const (
	// LevelBaseline allows only mundane, harmless facts.
	LevelBaseline DisclosureLevel = "L1"
	// LevelContext allows specifics when the question names a matching time or place.
	LevelContext DisclosureLevel = "L2"
	// LevelEvidence allows admissions in response to an explicitly named evidence trigger.
	LevelEvidence DisclosureLevel = "L3"
)

// TriggerMeta records which case facts a player utterance fired and the
// disclosure level they add up to. Fired lists keep case-document order.
type TriggerMeta struct {
	Level            DisclosureLevel `json:"level"`
	FiredEvidenceIDs []string        `json:"fired_evidence_ids,omitempty"`
	FiredTimes       []string        `json:"fired_times,omitempty"`
	FiredLocations   []string        `json:"fired_locations,omitempty"`
}

// Utterance is one message in the conversation log.
type Utterance struct {
	Speaker       Speaker     `json:"speaker"`
	CharacterID   string      `json:"character_id"`
	CharacterName string      `json:"character_name"`
	Message       string      `json:"message"`
	Meta          TriggerMeta `json:"meta"`
	Timestamp     int64       `json:"ts"`
}

// Turn pairs one player utterance with the character's answer. Turns are
// always appended as a pair, never singly, and share the turn number.
type Turn struct {
	Number    int       `json:"turn"`
	Player    Utterance `json:"player"`
	Character Utterance `json:"character"`
}

// Session is one player's playthrough of a case. The conversation log is
// append-only: turns are never edited or removed and numbers are gapless.
type Session struct {
	ID       string  `json:"id"`
	CaseID   string  `json:"case_id"`
	PlayerID *string `json:"player_id,omitempty"`
	Status   Status  `json:"status"`
	Turns    []Turn  `json:"turns"`
}

// AppendTurn adds a paired player/character exchange with the next turn
// number. Callers must hold the per-session serialization before reading
// the session they append to.
func (s *Session) AppendTurn(player, character Utterance) Turn {
	turn := Turn{
		Number:    len(s.Turns) + 1,
		Player:    player,
		Character: character,
	}
	s.Turns = append(s.Turns, turn)
	return turn
}

package domain

import "time"

type Move struct {
	SessionID string    `json:"-"`
	Order     int       `json:"order"`
	Column    int       `json:"column"`
	Color     Color     `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the authoritative game unit. ParticipantA plays Red and moves
// first; ParticipantB stays empty while the session is WAITING.
type Session struct {
	ID           string
	Status       SessionStatus
	Mode         Mode
	Difficulty   Difficulty
	ParticipantA string
	ParticipantB string
	Winner       Outcome
	IsTie        bool
	Moves        []Move
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Session) Turn() Color {
	return TurnOf(len(s.Moves))
}

// ColorOf maps a participant id to the color it plays.
func (s *Session) ColorOf(participantID string) (Color, bool) {
	switch {
	case participantID == "":
		return Empty, false
	case participantID == s.ParticipantA:
		return Red, true
	case participantID == s.ParticipantB:
		return Blue, true
	}
	return Empty, false
}

func (s *Session) ParticipantFor(color Color) string {
	if color == Red {
		return s.ParticipantA
	}
	if color == Blue {
		return s.ParticipantB
	}
	return ""
}

func (s *Session) HasParticipant(id string) bool {
	_, ok := s.ColorOf(id)
	return ok
}

// OpponentOf returns the other participant's id.
func (s *Session) OpponentOf(participantID string) string {
	if participantID == s.ParticipantA {
		return s.ParticipantB
	}
	return s.ParticipantA
}

func (s *Session) IsComputerTurn() bool {
	return s.Status == StatusActive && IsComputerID(s.ParticipantFor(s.Turn()))
}

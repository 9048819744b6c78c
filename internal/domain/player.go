package domain

import (
	"regexp"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

func ValidateUsername(name string) error {
	if !usernamePattern.MatchString(name) {
		return ErrUsernameInvalidFormat
	}
	return nil
}

// GuestName is the name a new player starts with.
func GuestName(playerID string) string {
	short := playerID
	if len(short) > 6 {
		short = short[:6]
	}
	return "Guest-" + short
}

package uid

import "github.com/google/uuid"

// GenerateGameID returns a random session id.
func GenerateGameID() string {
	return uuid.NewString()
}

// GeneratePlayerID returns a random guest player id.
func GeneratePlayerID() string {
	return uuid.NewString()
}

// IsValid reports whether id looks like one of ours.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

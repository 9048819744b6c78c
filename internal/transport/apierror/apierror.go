package apierror

import (
	"errors"
	"net/http"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeCorrupted    = "game_state_corrupted"
	CodeInternal     = "internal_error"
)

// Response is the body of every error reply.
type Response struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type mapping struct {
	status int
	code   string
}

var userErrors = map[domain.Error]mapping{
	domain.ErrInvalidColumn:         {http.StatusBadRequest, "invalid_column"},
	domain.ErrColumnFull:            {http.StatusBadRequest, "column_full"},
	domain.ErrInvalidDifficulty:     {http.StatusBadRequest, "invalid_difficulty"},
	domain.ErrInvalidMode:           {http.StatusBadRequest, "invalid_mode"},
	domain.ErrUsernameInvalidFormat: {http.StatusBadRequest, "username_invalid"},
	domain.ErrSessionNotFound:       {http.StatusNotFound, "session_not_found"},
	domain.ErrPlayerNotFound:        {http.StatusNotFound, "player_not_found"},
	domain.ErrNotYourTurn:           {http.StatusConflict, "not_your_turn"},
	domain.ErrSessionNotActive:      {http.StatusConflict, "session_not_active"},
	domain.ErrUsernameTaken:         {http.StatusConflict, "username_taken"},
	domain.ErrMoveConflict:          {http.StatusConflict, "move_conflict"},
	domain.ErrMoveRejected:          {http.StatusConflict, "move_conflict"},
}

// FromError maps err to an HTTP status and response body. Internal failures
// never leak their message.
func FromError(err error) (int, Response) {
	var domainErr domain.Error
	if errors.As(err, &domainErr) {
		if m, ok := userErrors[domainErr]; ok {
			return m.status, Response{Error: m.code, Message: domainErr.Error()}
		}
	}

	if domain.IsConsistencyError(err) {
		return http.StatusInternalServerError, Response{Error: CodeCorrupted, Message: "game state could not be reconstructed"}
	}
	return http.StatusInternalServerError, Response{Error: CodeInternal, Message: "internal server error"}
}

func BadRequest(message string) Response {
	return Response{Error: CodeBadRequest, Message: message}
}

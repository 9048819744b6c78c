package apierror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid column", domain.ErrInvalidColumn, http.StatusBadRequest, "invalid_column"},
		{"wrapped not your turn", fmt.Errorf("submit: %w", domain.ErrNotYourTurn), http.StatusConflict, "not_your_turn"},
		{"not found", domain.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{"move conflict", domain.ErrMoveConflict, http.StatusConflict, "move_conflict"},
		{"move rejected", domain.ErrMoveRejected, http.StatusConflict, "move_conflict"},
		{"username taken", domain.ErrUsernameTaken, http.StatusConflict, "username_taken"},
		{"consistency", &domain.ConsistencyError{SessionID: "s1", Order: 3, Reason: "bad"}, http.StatusInternalServerError, CodeCorrupted},
		{"other", fmt.Errorf("dial tcp: connection refused"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err)
			if status != tt.wantStatus || resp.Error != tt.wantCode {
				t.Errorf("FromError = (%d, %s), want (%d, %s)", status, resp.Error, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestInternalMessagesDoNotLeak(t *testing.T) {
	_, resp := FromError(fmt.Errorf("pq: password authentication failed for user admin"))
	if resp.Message != "internal server error" {
		t.Errorf("message = %q", resp.Message)
	}
	_, resp = FromError(&domain.ConsistencyError{SessionID: "s1", Reason: "column 3 is not playable"})
	if resp.Message == "" || resp.Message == "column 3 is not playable" {
		t.Errorf("consistency message = %q", resp.Message)
	}
}

package game

import (
	"context"
	"time"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// Store persists sessions and their move logs. Implementations must make
// JoinSession a compare-and-swap and reject a second move with an order
// that already exists.
type Store interface {
	CreateSession(ctx context.Context, session *domain.Session) error

	// FindOldestWaiting returns nil when no WAITING session exists that
	// excludeParticipant does not own.
	FindOldestWaiting(ctx context.Context, excludeParticipant string) (*domain.Session, error)

	// JoinSession sets participant B and flips the session to ACTIVE only if
	// it is still WAITING without a participant B. The bool reports whether
	// this call won.
	JoinSession(ctx context.Context, sessionID, participantB string) (bool, error)

	// WithdrawWaiting abandons a session only if participantA still waits
	// in it alone. The bool reports whether this call won.
	WithdrawWaiting(ctx context.Context, sessionID, participantA string) (bool, error)

	// AppendMove records move with the order it carries. A non-empty outcome
	// completes the session in the same transaction. A taken order, a stale
	// order or a session that is no longer ACTIVE yields ErrMoveConflict.
	AppendMove(ctx context.Context, move domain.Move, outcome domain.Outcome) error

	// UpdateStatus moves an unfinished session to status; finished sessions
	// yield ErrSessionNotActive.
	UpdateStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error

	// GetSession loads a session with its moves sorted by order.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	FindWaitingByParticipant(ctx context.Context, participantID string) (*domain.Session, error)

	// AbandonStale marks WAITING sessions created before waitingBefore and
	// ACTIVE sessions untouched since activeBefore as ABANDONED.
	AbandonStale(ctx context.Context, waitingBefore, activeBefore time.Time) (int64, error)

	CountByStatus(ctx context.Context) (map[domain.SessionStatus]int, error)

	// ListCompletedByParticipant returns finished sessions without moves,
	// newest first.
	ListCompletedByParticipant(ctx context.Context, participantID string) ([]*domain.Session, error)
}

// Opponent picks the computer's column.
type Opponent interface {
	ChooseColumn(ctx context.Context, board domain.Board, color domain.Color, difficulty domain.Difficulty) (int, string)
}

// ResultRecorder is told about every session that reached COMPLETED.
type ResultRecorder interface {
	RecordResult(ctx context.Context, session *domain.Session) error
}

type MatchRequest struct {
	Mode       domain.Mode       `json:"mode"`
	Difficulty domain.Difficulty `json:"difficulty"`
}

// Snapshot is the reconstructed, read-only view of a session.
type Snapshot struct {
	SessionID    string               `json:"sessionId"`
	Status       domain.SessionStatus `json:"status"`
	Mode         domain.Mode          `json:"mode"`
	Difficulty   domain.Difficulty    `json:"difficulty,omitempty"`
	ParticipantA string               `json:"participantA"`
	ParticipantB string               `json:"participantB,omitempty"`
	Board        domain.Board         `json:"board"`
	Turn         *domain.Color        `json:"turn"`
	Winner       domain.Outcome       `json:"winner,omitempty"`
	IsTie        bool                 `json:"isTie"`
	MoveCount    int                  `json:"moveCount"`
	LastMove     *domain.Move         `json:"lastMove,omitempty"`
	Moves        []domain.Move        `json:"-"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

type MoveResult struct {
	Move     domain.Move          `json:"move"`
	Board    domain.Board         `json:"board"`
	NextTurn *domain.Color        `json:"nextTurn"`
	Outcome  domain.Outcome       `json:"outcome,omitempty"`
	Status   domain.SessionStatus `json:"status"`

	// Reply is the computer's answer in computer games.
	Reply       *MoveResult `json:"reply,omitempty"`
	ReplySource string      `json:"replySource,omitempty"`
}

type LobbyCounts struct {
	Playing int `json:"playing"`
	Waiting int `json:"waiting"`
}

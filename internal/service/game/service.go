package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/uid"
)

// maxMatchAttempts bounds how often matchmaking goes round again after
// losing a join race or giving way to an older waiting session.
const maxMatchAttempts = 3

// Service is the session state machine. It keeps no session state of its
// own: every operation reloads the session and replays its moves.
type Service struct {
	store    Store
	opponent Opponent
	recorder ResultRecorder
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(store Store, opponent Opponent, recorder ResultRecorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		opponent: opponent,
		recorder: recorder,
		logger:   logger.Named("game"),
		now:      time.Now,
		newID:    uid.GenerateGameID,
	}
}

// RequestMatch finds or creates a session for requesterID.
func (s *Service) RequestMatch(ctx context.Context, requesterID string, req MatchRequest) (*Snapshot, error) {
	mode, err := domain.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}

	if mode == domain.ModeComputer {
		difficulty, err := domain.ParseDifficulty(string(req.Difficulty))
		if err != nil {
			return nil, err
		}
		return s.startComputerGame(ctx, requesterID, difficulty)
	}

	var own *domain.Session
	for attempt := 0; attempt < maxMatchAttempts; attempt++ {
		matchedID, err := s.joinOldest(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if matchedID != "" {
			return s.GetStatus(ctx, matchedID)
		}

		own, err = s.store.FindWaitingByParticipant(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("failed to find own waiting session: %w", err)
		}
		if own == nil {
			if own, err = s.createWaiting(ctx, requesterID); err != nil {
				return nil, err
			}
		}

		// Two requests that both found nobody each open a session. The
		// newer one gives way so the pair still meets.
		older, err := s.store.FindOldestWaiting(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("failed to find waiting session: %w", err)
		}
		if older == nil || !waitingBefore(older, own) || attempt == maxMatchAttempts-1 {
			break
		}
		withdrawn, err := s.store.WithdrawWaiting(ctx, own.ID, requesterID)
		if err != nil {
			return nil, fmt.Errorf("failed to withdraw session %s: %w", own.ID, err)
		}
		if !withdrawn {
			// joined (or closed) while we looked around
			break
		}
		s.logger.Debug("older waiting session found, giving way",
			zap.String("session", own.ID),
			zap.String("older", older.ID),
			zap.Int("attempt", attempt+1))
	}

	return s.GetStatus(ctx, own.ID)
}

// joinOldest joins the oldest session someone else is waiting in and returns
// its id, or "" when there was nothing to join or the join was lost. The
// requester's own waiting session is withdrawn first so nobody can seat them
// in a second game.
func (s *Service) joinOldest(ctx context.Context, requesterID string) (string, error) {
	waiting, err := s.store.FindOldestWaiting(ctx, requesterID)
	if err != nil {
		return "", fmt.Errorf("failed to find waiting session: %w", err)
	}
	if waiting == nil {
		return "", nil
	}

	own, err := s.store.FindWaitingByParticipant(ctx, requesterID)
	if err != nil {
		return "", fmt.Errorf("failed to find own waiting session: %w", err)
	}
	if own != nil {
		withdrawn, err := s.store.WithdrawWaiting(ctx, own.ID, requesterID)
		if err != nil {
			return "", fmt.Errorf("failed to withdraw session %s: %w", own.ID, err)
		}
		if !withdrawn {
			current, err := s.store.GetSession(ctx, own.ID)
			if err != nil {
				return "", fmt.Errorf("failed to reload session %s: %w", own.ID, err)
			}
			if current.Status == domain.StatusActive {
				// someone joined it first
				return own.ID, nil
			}
		}
	}

	joined, err := s.store.JoinSession(ctx, waiting.ID, requesterID)
	if err != nil {
		return "", fmt.Errorf("failed to join session %s: %w", waiting.ID, err)
	}
	if !joined {
		s.logger.Debug("lost join race", zap.String("session", waiting.ID), zap.String("player", requesterID))
		return "", nil
	}

	s.logger.Info("match found",
		zap.String("session", waiting.ID),
		zap.String("red", waiting.ParticipantA),
		zap.String("blue", requesterID))
	return waiting.ID, nil
}

func (s *Service) createWaiting(ctx context.Context, requesterID string) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:           s.newID(),
		Status:       domain.StatusWaiting,
		Mode:         domain.ModePvP,
		ParticipantA: requesterID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("waiting for opponent", zap.String("session", session.ID), zap.String("player", requesterID))
	return session, nil
}

// waitingBefore orders waiting sessions by creation time, then id.
func waitingBefore(a, b *domain.Session) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (s *Service) startComputerGame(ctx context.Context, requesterID string, difficulty domain.Difficulty) (*Snapshot, error) {
	now := s.now()
	session := &domain.Session{
		ID:           s.newID(),
		Status:       domain.StatusActive,
		Mode:         domain.ModeComputer,
		Difficulty:   difficulty,
		ParticipantA: requesterID,
		ParticipantB: domain.ComputerID(difficulty),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create computer session: %w", err)
	}

	s.logger.Info("computer game started",
		zap.String("session", session.ID),
		zap.String("player", requesterID),
		zap.String("difficulty", string(difficulty)))
	return s.GetStatus(ctx, session.ID)
}

// SubmitMove validates and records requesterID's move, then lets the
// computer answer in computer games.
func (s *Service) SubmitMove(ctx context.Context, sessionID, requesterID string, column int) (*MoveResult, error) {
	if err := s.catchUpComputer(ctx, sessionID); err != nil {
		return nil, err
	}

	result, err := s.applyMove(ctx, sessionID, requesterID, column)
	if errors.Is(err, domain.ErrMoveConflict) {
		s.logger.Info("move conflict, retrying once", zap.String("session", sessionID), zap.String("player", requesterID))
		result, err = s.applyMove(ctx, sessionID, requesterID, column)
		if errors.Is(err, domain.ErrMoveConflict) {
			return nil, domain.ErrMoveRejected
		}
	}
	if err != nil {
		return nil, err
	}

	if result.Status != domain.StatusActive {
		return result, nil
	}

	reply, source, err := s.playComputerTurn(ctx, sessionID)
	if err != nil {
		// the human's move stands; the computer catches up on the next call
		s.logger.Error("computer reply failed", zap.String("session", sessionID), zap.Error(err))
		return result, nil
	}
	result.Reply = reply
	result.ReplySource = source
	return result, nil
}

// catchUpComputer plays a computer move left pending by an earlier failure.
func (s *Service) catchUpComputer(ctx context.Context, sessionID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsComputerTurn() {
		return nil
	}

	s.logger.Warn("computer move pending, playing it first", zap.String("session", sessionID))
	_, _, err = s.playComputerTurn(ctx, sessionID)
	if errors.Is(err, domain.ErrMoveConflict) {
		// a concurrent request played it
		return nil
	}
	return err
}

// playComputerTurn returns a nil result when it is not the computer's turn.
func (s *Service) playComputerTurn(ctx context.Context, sessionID string) (*MoveResult, string, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if !session.IsComputerTurn() {
		return nil, "", nil
	}

	board, err := s.replay(session)
	if err != nil {
		return nil, "", err
	}

	// no transaction is open while the opponent thinks
	color := session.Turn()
	column, source := s.opponent.ChooseColumn(ctx, board, color, session.Difficulty)

	result, err := s.applyMove(ctx, sessionID, session.ParticipantFor(color), column)
	if err != nil {
		return nil, "", fmt.Errorf("failed to apply computer move: %w", err)
	}

	s.logger.Debug("computer moved",
		zap.String("session", sessionID),
		zap.Int("column", column),
		zap.String("source", source))
	return result, source, nil
}

func (s *Service) applyMove(ctx context.Context, sessionID, participantID string, column int) (*MoveResult, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.StatusActive {
		return nil, domain.ErrSessionNotActive
	}

	color, ok := session.ColorOf(participantID)
	if !ok || color != session.Turn() {
		return nil, domain.ErrNotYourTurn
	}

	board, err := s.replay(session)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidMove(board, column) {
		return nil, domain.ErrInvalidColumn
	}

	next, _, err := domain.DropDisk(board, column, color)
	if err != nil {
		return nil, domain.ErrInvalidColumn
	}

	outcome := domain.OutcomeNone
	switch domain.Evaluate(next, color) {
	case domain.Win:
		outcome = domain.OutcomeFor(color)
	case domain.Tie:
		outcome = domain.OutcomeTie
	}

	move := domain.Move{
		SessionID: sessionID,
		Order:     len(session.Moves),
		Column:    column,
		Color:     color,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMove(ctx, move, outcome); err != nil {
		return nil, err
	}

	result := &MoveResult{
		Move:    move,
		Board:   next,
		Outcome: outcome,
		Status:  domain.StatusActive,
	}
	if outcome == domain.OutcomeNone {
		turn := color.Opponent()
		result.NextTurn = &turn
		return result, nil
	}

	result.Status = domain.StatusCompleted
	s.logger.Info("game over",
		zap.String("session", sessionID),
		zap.String("outcome", string(outcome)),
		zap.Int("moves", move.Order+1))
	s.recordResult(ctx, sessionID)
	return result, nil
}

// recordResult is best effort: a failed rating update never fails the move.
func (s *Service) recordResult(ctx context.Context, sessionID string) {
	if s.recorder == nil {
		return
	}
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn("failed to reload finished session", zap.String("session", sessionID), zap.Error(err))
		return
	}
	if err := s.recorder.RecordResult(ctx, session); err != nil {
		s.logger.Warn("failed to record result", zap.String("session", sessionID), zap.Error(err))
	}
}

// GetStatus rebuilds the session view from the move log. It never writes.
func (s *Service) GetStatus(ctx context.Context, sessionID string) (*Snapshot, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	board, err := s.replay(session)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		SessionID:    session.ID,
		Status:       session.Status,
		Mode:         session.Mode,
		Difficulty:   session.Difficulty,
		ParticipantA: session.ParticipantA,
		ParticipantB: session.ParticipantB,
		Board:        board,
		Winner:       session.Winner,
		IsTie:        session.IsTie,
		MoveCount:    len(session.Moves),
		Moves:        session.Moves,
		UpdatedAt:    session.UpdatedAt,
	}
	if session.Status == domain.StatusActive {
		turn := session.Turn()
		snap.Turn = &turn
	}
	if n := len(session.Moves); n > 0 {
		last := session.Moves[n-1]
		snap.LastMove = &last
	}
	return snap, nil
}

// Abandon lets a participant walk away from an unfinished session.
func (s *Service) Abandon(ctx context.Context, sessionID, requesterID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.HasParticipant(requesterID) {
		return domain.ErrSessionNotFound
	}
	if session.Status.IsFinished() {
		return domain.ErrSessionNotActive
	}

	if err := s.store.UpdateStatus(ctx, sessionID, domain.StatusAbandoned); err != nil {
		return err
	}
	s.logger.Info("session abandoned", zap.String("session", sessionID), zap.String("player", requesterID))
	return nil
}

// AbandonStale closes sessions nobody has touched for too long.
func (s *Service) AbandonStale(ctx context.Context, waitingTTL, activeTTL time.Duration) (int64, error) {
	now := s.now()
	count, err := s.store.AbandonStale(ctx, now.Add(-waitingTTL), now.Add(-activeTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to abandon stale sessions: %w", err)
	}
	return count, nil
}

// Counts reports how many players are in games and how many are waiting.
func (s *Service) Counts(ctx context.Context) (*LobbyCounts, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	return &LobbyCounts{
		Playing: counts[domain.StatusActive] * 2,
		Waiting: counts[domain.StatusWaiting],
	}, nil
}

func (s *Service) replay(session *domain.Session) (domain.Board, error) {
	board, err := domain.Replay(session.Moves)
	if err != nil {
		var ce *domain.ConsistencyError
		if errors.As(err, &ce) {
			ce.SessionID = session.ID
		}
		s.logger.Error("move log does not replay", zap.String("session", session.ID), zap.Error(err))
		return board, err
	}
	return board, nil
}

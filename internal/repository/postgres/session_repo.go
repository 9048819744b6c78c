package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/game"
)

var _ game.Store = (*SessionRepo)(nil)

type SessionRepo struct {
	DB  *DB
	now func() time.Time
}

func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{DB: db, now: time.Now}
}

const sessionSelectFields = `id, status, mode, difficulty, participant_a, participant_b, winner, is_tie, created_at, updated_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var s domain.Session
	var participantB sql.NullString
	err := row.Scan(
		&s.ID,
		&s.Status,
		&s.Mode,
		&s.Difficulty,
		&s.ParticipantA,
		&participantB,
		&s.Winner,
		&s.IsTie,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.ParticipantB = participantB.String
	return &s, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// CreateSession inserts the session and any moves it already carries. The
// session's timestamps are rounded to what the database keeps.
func (r *SessionRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	session.CreatedAt = timestamp(session.CreatedAt)
	session.UpdatedAt = timestamp(session.UpdatedAt)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO game_sessions (id, status, mode, difficulty, participant_a, participant_b, winner, is_tie, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = tx.ExecContext(ctx, r.DB.rebind(query),
		session.ID,
		string(session.Status),
		string(session.Mode),
		string(session.Difficulty),
		session.ParticipantA,
		nullable(session.ParticipantB),
		string(session.Winner),
		session.IsTie,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	for _, move := range session.Moves {
		if err := r.insertMove(ctx, tx, session.ID, move); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *SessionRepo) FindOldestWaiting(ctx context.Context, excludeParticipant string) (*domain.Session, error) {
	query := `SELECT ` + sessionSelectFields + ` FROM game_sessions
	WHERE status = 'WAITING' AND participant_b IS NULL AND participant_a <> ?
	ORDER BY created_at ASC, id ASC
	LIMIT 1;`
	session, err := scanSession(r.DB.QueryRowContext(ctx, r.DB.rebind(query), excludeParticipant))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting session: %w", err)
	}
	return session, nil
}

// JoinSession is a compare-and-swap: only the update that still sees the
// session WAITING without participant B affects a row.
func (r *SessionRepo) JoinSession(ctx context.Context, sessionID, participantB string) (bool, error) {
	query := `
	UPDATE game_sessions
	SET participant_b = ?, status = 'ACTIVE', updated_at = ?
	WHERE id = ? AND status = 'WAITING' AND participant_b IS NULL AND participant_a <> ?;
	`
	result, err := r.DB.ExecContext(ctx, r.DB.rebind(query), participantB, timestamp(r.now()), sessionID, participantB)
	if err != nil {
		return false, fmt.Errorf("failed to join session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read join result: %w", err)
	}
	return rows == 1, nil
}

// WithdrawWaiting is the compare-and-swap counterpart of JoinSession for the
// session's owner.
func (r *SessionRepo) WithdrawWaiting(ctx context.Context, sessionID, participantA string) (bool, error) {
	query := `
	UPDATE game_sessions
	SET status = 'ABANDONED', updated_at = ?
	WHERE id = ? AND participant_a = ? AND status = 'WAITING' AND participant_b IS NULL;
	`
	result, err := r.DB.ExecContext(ctx, r.DB.rebind(query), timestamp(r.now()), sessionID, participantA)
	if err != nil {
		return false, fmt.Errorf("failed to withdraw session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read withdraw result: %w", err)
	}
	return rows == 1, nil
}

// AppendMove locks the session row by touching it, checks the move order
// against the stored log and inserts the move. The terminal status, if any,
// commits with the move.
func (r *SessionRepo) AppendMove(ctx context.Context, move domain.Move, outcome domain.Outcome) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	touch := `UPDATE game_sessions SET updated_at = ? WHERE id = ? AND status = 'ACTIVE';`
	result, err := tx.ExecContext(ctx, r.DB.rebind(touch), timestamp(r.now()), move.SessionID)
	if err != nil {
		return fmt.Errorf("failed to lock session: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read lock result: %w", err)
	} else if rows == 0 {
		return domain.ErrMoveConflict
	}

	var count int
	countQuery := `SELECT COUNT(*) FROM moves WHERE session_id = ?;`
	if err := tx.QueryRowContext(ctx, r.DB.rebind(countQuery), move.SessionID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count moves: %w", err)
	}
	if count != move.Order {
		return domain.ErrMoveConflict
	}

	if err := r.insertMove(ctx, tx, move.SessionID, move); err != nil {
		return err
	}

	if outcome != domain.OutcomeNone {
		finish := `
		UPDATE game_sessions
		SET status = 'COMPLETED', winner = ?, is_tie = ?
		WHERE id = ?;
		`
		if _, err := tx.ExecContext(ctx, r.DB.rebind(finish), string(outcome), outcome == domain.OutcomeTie, move.SessionID); err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrMoveConflict
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *SessionRepo) insertMove(ctx context.Context, tx *sql.Tx, sessionID string, move domain.Move) error {
	query := `
	INSERT INTO moves (session_id, move_order, column_index, color, created_at)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err := tx.ExecContext(ctx, r.DB.rebind(query), sessionID, move.Order, move.Column, move.Color.String(), timestamp(move.CreatedAt))
	if isUniqueViolation(err) {
		return domain.ErrMoveConflict
	}
	if err != nil {
		return fmt.Errorf("failed to insert move: %w", err)
	}
	return nil
}

func (r *SessionRepo) UpdateStatus(ctx context.Context, sessionID string, status domain.SessionStatus) error {
	query := `
	UPDATE game_sessions
	SET status = ?, updated_at = ?
	WHERE id = ? AND status IN ('WAITING', 'ACTIVE');
	`
	result, err := r.DB.ExecContext(ctx, r.DB.rebind(query), string(status), timestamp(r.now()), sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 1 {
		return nil
	}

	if _, err := r.GetSession(ctx, sessionID); err != nil {
		return err
	}
	return domain.ErrSessionNotActive
}

func (r *SessionRepo) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `SELECT ` + sessionSelectFields + ` FROM game_sessions WHERE id = ?;`
	session, err := scanSession(r.DB.QueryRowContext(ctx, r.DB.rebind(query), sessionID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	moves, err := r.getMoves(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Moves = moves
	return session, nil
}

func (r *SessionRepo) getMoves(ctx context.Context, sessionID string) ([]domain.Move, error) {
	query := `
	SELECT move_order, column_index, color, created_at
	FROM moves
	WHERE session_id = ?
	ORDER BY move_order ASC;
	`
	rows, err := r.DB.QueryContext(ctx, r.DB.rebind(query), sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}
	defer rows.Close()

	var moves []domain.Move
	for rows.Next() {
		move := domain.Move{SessionID: sessionID}
		var color string
		if err := rows.Scan(&move.Order, &move.Column, &color, &move.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		if move.Color, err = domain.ParseColor(color); err != nil {
			return nil, &domain.ConsistencyError{SessionID: sessionID, Order: move.Order, Reason: err.Error()}
		}
		moves = append(moves, move)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read moves: %w", err)
	}
	return moves, nil
}

func (r *SessionRepo) FindWaitingByParticipant(ctx context.Context, participantID string) (*domain.Session, error) {
	query := `SELECT ` + sessionSelectFields + ` FROM game_sessions
	WHERE status = 'WAITING' AND participant_a = ?
	ORDER BY created_at ASC
	LIMIT 1;`
	session, err := scanSession(r.DB.QueryRowContext(ctx, r.DB.rebind(query), participantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find waiting session: %w", err)
	}
	return session, nil
}

func (r *SessionRepo) AbandonStale(ctx context.Context, waitingBefore, activeBefore time.Time) (int64, error) {
	query := `
	UPDATE game_sessions
	SET status = 'ABANDONED', updated_at = ?
	WHERE (status = 'WAITING' AND created_at < ?)
	   OR (status = 'ACTIVE' AND updated_at < ?);
	`
	result, err := r.DB.ExecContext(ctx, r.DB.rebind(query), timestamp(r.now()), timestamp(waitingBefore), timestamp(activeBefore))
	if err != nil {
		return 0, fmt.Errorf("failed to abandon stale sessions: %w", err)
	}
	return result.RowsAffected()
}

func (r *SessionRepo) CountByStatus(ctx context.Context) (map[domain.SessionStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM game_sessions GROUP BY status;`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.SessionStatus]int)
	for rows.Next() {
		var status domain.SessionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *SessionRepo) ListCompletedByParticipant(ctx context.Context, participantID string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionSelectFields + ` FROM game_sessions
	WHERE status = 'COMPLETED' AND (participant_a = ? OR participant_b = ?)
	ORDER BY updated_at DESC;`
	rows, err := r.DB.QueryContext(ctx, r.DB.rebind(query), participantID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

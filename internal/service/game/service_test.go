package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

// Now advances by a millisecond per call so creation order is strict.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedOpponent plays the first playable column of its script.
type scriptedOpponent struct {
	mu      sync.Mutex
	columns []int
	calls   int
}

func (o *scriptedOpponent) ChooseColumn(ctx context.Context, board domain.Board, color domain.Color, difficulty domain.Difficulty) (int, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	for _, col := range o.columns {
		if domain.IsValidMove(board, col) {
			return col, "script"
		}
	}
	return domain.GetValidMoves(board)[0], "script"
}

type recorderSpy struct {
	mu       sync.Mutex
	sessions []*domain.Session
}

func (r *recorderSpy) RecordResult(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
	return nil
}

type testEnv struct {
	svc      *Service
	store    *MemoryStore
	clock    *fakeClock
	opponent *scriptedOpponent
	recorder *recorderSpy
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newFakeClock()
	store := NewMemoryStore()
	store.now = clock.Now
	return newTestEnvWithStore(t, store, clock)
}

func newTestEnvWithStore(t *testing.T, store Store, clock *fakeClock) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:    clock,
		opponent: &scriptedOpponent{columns: []int{6}},
		recorder: &recorderSpy{},
	}
	if ms, ok := store.(*MemoryStore); ok {
		env.store = ms
	}
	env.svc = NewService(store, env.opponent, env.recorder, nil)
	env.svc.now = clock.Now

	var mu sync.Mutex
	next := 0
	env.svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("session-%d", next)
	}
	return env
}

// startPvP pairs alice (RED) and bob (BLUE) and returns the session id.
func (e *testEnv) startPvP(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	waiting, err := e.svc.RequestMatch(ctx, "alice", MatchRequest{Mode: domain.ModePvP})
	if err != nil {
		t.Fatalf("RequestMatch(alice): %v", err)
	}
	if waiting.Status != domain.StatusWaiting {
		t.Fatalf("first request status = %s, want WAITING", waiting.Status)
	}
	joined, err := e.svc.RequestMatch(ctx, "bob", MatchRequest{Mode: domain.ModePvP})
	if err != nil {
		t.Fatalf("RequestMatch(bob): %v", err)
	}
	if joined.SessionID != waiting.SessionID || joined.Status != domain.StatusActive {
		t.Fatalf("bob got %s/%s, want to join %s", joined.SessionID, joined.Status, waiting.SessionID)
	}
	return joined.SessionID
}

// play submits columns alternating alice and bob, starting with alice.
func (e *testEnv) play(t *testing.T, sessionID string, columns ...int) *MoveResult {
	t.Helper()
	var last *MoveResult
	for i, col := range columns {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		res, err := e.svc.SubmitMove(context.Background(), sessionID, player, col)
		if err != nil {
			t.Fatalf("move %d (%s, column %d): %v", i, player, col, err)
		}
		last = res
	}
	return last
}

func TestVerticalWinCompletesSession(t *testing.T) {
	env := newTestEnv(t)
	id := env.startPvP(t)

	res := env.play(t, id, 3, 4, 3, 4, 3, 4, 3)
	if res.Outcome != domain.OutcomeRed || res.Status != domain.StatusCompleted || res.NextTurn != nil {
		t.Fatalf("final move result = %+v", res)
	}

	snap, err := env.svc.GetStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !domain.CheckWin(snap.Board, domain.Red) {
		t.Error("board does not show RED's win")
	}
	if snap.Status != domain.StatusCompleted || snap.Winner != domain.OutcomeRed || snap.IsTie || snap.Turn != nil {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.MoveCount != 7 || snap.LastMove == nil || snap.LastMove.Column != 3 {
		t.Errorf("move count %d, last move %+v", snap.MoveCount, snap.LastMove)
	}
	if len(env.recorder.sessions) != 1 || env.recorder.sessions[0].Winner != domain.OutcomeRed {
		t.Errorf("recorder saw %d sessions", len(env.recorder.sessions))
	}

	if _, err := env.svc.SubmitMove(context.Background(), id, "bob", 0); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Errorf("move after win err = %v, want ErrSessionNotActive", err)
	}
}

func TestConcurrentMatchRequestsNeverShareASession(t *testing.T) {
	for round := 0; round < 50; round++ {
		env := newTestEnv(t)
		ctx := context.Background()
		waiting, err := env.svc.RequestMatch(ctx, "carol", MatchRequest{})
		if err != nil {
			t.Fatalf("RequestMatch(carol): %v", err)
		}

		var wg sync.WaitGroup
		start := make(chan struct{})
		results := make(map[string]*Snapshot)
		var mu sync.Mutex
		for _, player := range []string{"alice", "bob"} {
			wg.Add(1)
			go func(player string) {
				defer wg.Done()
				<-start
				snap, err := env.svc.RequestMatch(ctx, player, MatchRequest{Mode: domain.ModePvP})
				if err != nil {
					t.Errorf("RequestMatch(%s): %v", player, err)
					return
				}
				mu.Lock()
				results[player] = snap
				mu.Unlock()
			}(player)
		}
		close(start)
		wg.Wait()

		if len(results) != 2 {
			t.Fatalf("round %d: got %d results", round, len(results))
		}
		joined, created := 0, 0
		for player, snap := range results {
			switch {
			case snap.SessionID == waiting.SessionID:
				joined++
				if snap.Status != domain.StatusActive || snap.ParticipantA != "carol" || snap.ParticipantB != player {
					t.Errorf("round %d: joined snapshot = %+v", round, snap)
				}
			case snap.Status == domain.StatusWaiting && snap.ParticipantA == player:
				created++
			default:
				t.Errorf("round %d: unexpected snapshot for %s: %+v", round, player, snap)
			}
		}
		if joined != 1 || created != 1 {
			t.Fatalf("round %d: joined=%d created=%d, want 1 and 1", round, joined, created)
		}
	}
}

func TestFullColumnRejectedWithoutAppending(t *testing.T) {
	env := newTestEnv(t)
	id := env.startPvP(t)
	env.play(t, id, 0, 0, 0, 0, 0, 0)

	before, _ := env.svc.GetStatus(context.Background(), id)
	if _, err := env.svc.SubmitMove(context.Background(), id, "alice", 0); !errors.Is(err, domain.ErrInvalidColumn) {
		t.Fatalf("err = %v, want ErrInvalidColumn", err)
	}
	after, _ := env.svc.GetStatus(context.Background(), id)
	if after.MoveCount != before.MoveCount || after.Status != domain.StatusActive || after.Board != before.Board {
		t.Errorf("state changed: before %d moves, after %d moves, status %s", before.MoveCount, after.MoveCount, after.Status)
	}

	for _, col := range []int{-1, 7, 100} {
		if _, err := env.svc.SubmitMove(context.Background(), id, "alice", col); !errors.Is(err, domain.ErrInvalidColumn) {
			t.Errorf("column %d err = %v, want ErrInvalidColumn", col, err)
		}
	}
}

func TestFullBoardEndsInTie(t *testing.T) {
	env := newTestEnv(t)
	id := env.startPvP(t)

	res := env.play(t, id,
		0, 1, 1, 0, 1, 0, 0, 1, 0, 1, 1, 0,
		2, 3, 3, 2, 3, 2, 2, 3, 2, 3, 3, 2,
		4, 5, 5, 4, 5, 4, 4, 5, 6, 5, 5, 6, 4, 6, 6, 4, 6, 6,
	)
	if res.Outcome != domain.OutcomeTie || res.Status != domain.StatusCompleted {
		t.Fatalf("last result = %+v", res)
	}

	snap, err := env.svc.GetStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if snap.Status != domain.StatusCompleted || snap.Winner != domain.OutcomeTie || !snap.IsTie {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.MoveCount != domain.Rows*domain.Columns || !domain.CheckTie(snap.Board) {
		t.Errorf("move count = %d", snap.MoveCount)
	}
}

func TestOutOfTurnMoveRejected(t *testing.T) {
	env := newTestEnv(t)
	id := env.startPvP(t)
	ctx := context.Background()

	if _, err := env.svc.SubmitMove(ctx, id, "bob", 3); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("BLUE moving first err = %v, want ErrNotYourTurn", err)
	}
	env.play(t, id, 3)
	if _, err := env.svc.SubmitMove(ctx, id, "alice", 3); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("RED moving twice err = %v, want ErrNotYourTurn", err)
	}
	if _, err := env.svc.SubmitMove(ctx, id, "mallory", 3); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("outsider err = %v, want ErrNotYourTurn", err)
	}

	snap, _ := env.svc.GetStatus(ctx, id)
	if snap.MoveCount != 1 || *snap.Turn != domain.Blue {
		t.Errorf("state changed: %d moves, turn %v", snap.MoveCount, snap.Turn)
	}
}

func TestSubmitMoveSessionErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.SubmitMove(ctx, "missing", "alice", 3); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("unknown session err = %v", err)
	}

	waiting, _ := env.svc.RequestMatch(ctx, "alice", MatchRequest{})
	if _, err := env.svc.SubmitMove(ctx, waiting.SessionID, "alice", 3); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Errorf("waiting session err = %v", err)
	}
}

func TestRequestMatchReusesOwnWaitingSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _ := env.svc.RequestMatch(ctx, "alice", MatchRequest{})
	second, err := env.svc.RequestMatch(ctx, "alice", MatchRequest{})
	if err != nil {
		t.Fatalf("RequestMatch: %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Errorf("got a second waiting session %s, want %s", second.SessionID, first.SessionID)
	}
}

// barrier holds its first n callers until all of them have arrived.
type barrier struct {
	mu        sync.Mutex
	remaining int
	release   chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{remaining: n, release: make(chan struct{})}
}

func (b *barrier) wait() {
	b.mu.Lock()
	if b.remaining == 0 {
		b.mu.Unlock()
		return
	}
	b.remaining--
	if b.remaining == 0 {
		close(b.release)
	}
	b.mu.Unlock()
	<-b.release
}

// lockstepStore lets two match requests scan and create in lockstep, so both
// see an empty lobby and both open a session.
type lockstepStore struct {
	*MemoryStore
	finds   *barrier
	creates *barrier
}

func (l *lockstepStore) FindOldestWaiting(ctx context.Context, excludeParticipant string) (*domain.Session, error) {
	s, err := l.MemoryStore.FindOldestWaiting(ctx, excludeParticipant)
	l.finds.wait()
	return s, err
}

func (l *lockstepStore) CreateSession(ctx context.Context, session *domain.Session) error {
	err := l.MemoryStore.CreateSession(ctx, session)
	l.creates.wait()
	return err
}

func TestSimultaneousFirstRequestsArePaired(t *testing.T) {
	for round := 0; round < 20; round++ {
		clock := newFakeClock()
		mem := NewMemoryStore()
		mem.now = clock.Now
		store := &lockstepStore{MemoryStore: mem, finds: newBarrier(2), creates: newBarrier(2)}
		env := newTestEnvWithStore(t, store, clock)
		ctx := context.Background()

		var wg sync.WaitGroup
		results := make(map[string]*Snapshot)
		var mu sync.Mutex
		for _, player := range []string{"alice", "bob"} {
			wg.Add(1)
			go func(player string) {
				defer wg.Done()
				snap, err := env.svc.RequestMatch(ctx, player, MatchRequest{})
				if err != nil {
					t.Errorf("RequestMatch(%s): %v", player, err)
					return
				}
				mu.Lock()
				results[player] = snap
				mu.Unlock()
			}(player)
		}
		wg.Wait()

		if len(results) != 2 {
			t.Fatalf("round %d: got %d results", round, len(results))
		}
		if results["alice"].SessionID != results["bob"].SessionID {
			t.Fatalf("round %d: alice=%s bob=%s, want one shared session",
				round, results["alice"].SessionID, results["bob"].SessionID)
		}

		shared, err := mem.GetSession(ctx, results["alice"].SessionID)
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if shared.Status != domain.StatusActive || !shared.HasParticipant("alice") || !shared.HasParticipant("bob") {
			t.Errorf("round %d: shared session = %+v", round, shared)
		}
		counts, _ := mem.CountByStatus(ctx)
		if counts[domain.StatusActive] != 1 || counts[domain.StatusWaiting] != 0 || counts[domain.StatusAbandoned] != 1 {
			t.Errorf("round %d: counts = %v", round, counts)
		}
	}
}

func TestJoiningWithdrawsOwnWaitingSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	own, err := env.svc.RequestMatch(ctx, "alice", MatchRequest{})
	if err != nil {
		t.Fatalf("RequestMatch(alice): %v", err)
	}
	// carol has been waiting longer than alice
	older := &domain.Session{
		ID:           "carol-session",
		Status:       domain.StatusWaiting,
		Mode:         domain.ModePvP,
		ParticipantA: "carol",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := env.store.CreateSession(ctx, older); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	joined, err := env.svc.RequestMatch(ctx, "alice", MatchRequest{})
	if err != nil {
		t.Fatalf("RequestMatch(alice) again: %v", err)
	}
	if joined.SessionID != older.ID || joined.Status != domain.StatusActive || joined.ParticipantB != "alice" {
		t.Fatalf("alice got %+v, want to join %s", joined, older.ID)
	}

	withdrawn, _ := env.svc.GetStatus(ctx, own.SessionID)
	if withdrawn.Status != domain.StatusAbandoned {
		t.Errorf("alice's own session status = %s, want ABANDONED", withdrawn.Status)
	}

	dave, err := env.svc.RequestMatch(ctx, "dave", MatchRequest{})
	if err != nil {
		t.Fatalf("RequestMatch(dave): %v", err)
	}
	if dave.SessionID == own.SessionID || dave.Status != domain.StatusWaiting {
		t.Errorf("dave got %+v, want a fresh waiting session", dave)
	}
}

func TestRequestMatchValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.RequestMatch(ctx, "alice", MatchRequest{Mode: "solo"}); !errors.Is(err, domain.ErrInvalidMode) {
		t.Errorf("bad mode err = %v", err)
	}
	if _, err := env.svc.RequestMatch(ctx, "alice", MatchRequest{Mode: domain.ModeComputer, Difficulty: "godlike"}); !errors.Is(err, domain.ErrInvalidDifficulty) {
		t.Errorf("bad difficulty err = %v", err)
	}
}

func TestComputerGameReplies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	snap, err := env.svc.RequestMatch(ctx, "alice", MatchRequest{Mode: domain.ModeComputer, Difficulty: domain.DifficultyHard})
	if err != nil {
		t.Fatalf("RequestMatch: %v", err)
	}
	if snap.Status != domain.StatusActive || snap.ParticipantB != domain.ComputerID(domain.DifficultyHard) || *snap.Turn != domain.Red {
		t.Fatalf("computer session = %+v", snap)
	}

	res, err := env.svc.SubmitMove(ctx, snap.SessionID, "alice", 3)
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Reply == nil {
		t.Fatal("no computer reply")
	}
	if res.Reply.Move.Color != domain.Blue || res.Reply.Move.Order != 1 || res.Reply.Move.Column != 6 || res.ReplySource != "script" {
		t.Errorf("reply = %+v (source %s)", res.Reply.Move, res.ReplySource)
	}
	if res.Reply.NextTurn == nil || *res.Reply.NextTurn != domain.Red {
		t.Errorf("reply next turn = %v", res.Reply.NextTurn)
	}

	after, _ := env.svc.GetStatus(ctx, snap.SessionID)
	if after.MoveCount != 2 || *after.Turn != domain.Red {
		t.Errorf("after reply: %d moves, turn %v", after.MoveCount, after.Turn)
	}
}

func TestComputerReplyCanWin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	snap, _ := env.svc.RequestMatch(ctx, "alice", MatchRequest{Mode: domain.ModeComputer, Difficulty: domain.DifficultyEasy})

	var res *MoveResult
	for _, col := range []int{0, 1, 2} {
		var err error
		if res, err = env.svc.SubmitMove(ctx, snap.SessionID, "alice", col); err != nil {
			t.Fatalf("SubmitMove(%d): %v", col, err)
		}
	}
	if res.Reply == nil || res.Reply.Status != domain.StatusActive {
		t.Fatalf("third reply = %+v", res.Reply)
	}

	res, err := env.svc.SubmitMove(ctx, snap.SessionID, "alice", 5)
	if err != nil {
		t.Fatalf("SubmitMove(5): %v", err)
	}
	if res.Reply == nil || res.Reply.Outcome != domain.OutcomeBlue || res.Reply.Status != domain.StatusCompleted {
		t.Fatalf("winning reply = %+v", res.Reply)
	}
	final, _ := env.svc.GetStatus(ctx, snap.SessionID)
	if final.Winner != domain.OutcomeBlue || final.Status != domain.StatusCompleted {
		t.Errorf("final snapshot = %+v", final)
	}
}

// flakyStore fails selected AppendMove calls before delegating.
type flakyStore struct {
	*MemoryStore
	mu    sync.Mutex
	fails []error
	match func(domain.Move) bool
}

func (f *flakyStore) AppendMove(ctx context.Context, move domain.Move, outcome domain.Outcome) error {
	f.mu.Lock()
	if len(f.fails) > 0 && (f.match == nil || f.match(move)) {
		err := f.fails[0]
		f.fails = f.fails[1:]
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	return f.MemoryStore.AppendMove(ctx, move, outcome)
}

func TestMoveConflictRetriedOnce(t *testing.T) {
	clock := newFakeClock()
	mem := NewMemoryStore()
	mem.now = clock.Now
	store := &flakyStore{MemoryStore: mem, fails: []error{domain.ErrMoveConflict}}
	env := newTestEnvWithStore(t, store, clock)
	id := env.startPvP(t)

	res, err := env.svc.SubmitMove(context.Background(), id, "alice", 3)
	if err != nil {
		t.Fatalf("SubmitMove after one conflict: %v", err)
	}
	if res.Move.Order != 0 {
		t.Errorf("order = %d", res.Move.Order)
	}

	store.fails = []error{domain.ErrMoveConflict, domain.ErrMoveConflict}
	if _, err := env.svc.SubmitMove(context.Background(), id, "bob", 3); !errors.Is(err, domain.ErrMoveRejected) || !domain.IsUserError(err) {
		t.Errorf("two conflicts err = %v, want ErrMoveRejected", err)
	}
	snap, _ := env.svc.GetStatus(context.Background(), id)
	if snap.MoveCount != 1 {
		t.Errorf("move count = %d, want 1", snap.MoveCount)
	}
}

func TestPendingComputerMoveIsCaughtUp(t *testing.T) {
	clock := newFakeClock()
	mem := NewMemoryStore()
	mem.now = clock.Now
	store := &flakyStore{
		MemoryStore: mem,
		fails:       []error{errors.New("connection reset")},
		match:       func(m domain.Move) bool { return m.Color == domain.Blue },
	}
	env := newTestEnvWithStore(t, store, clock)
	ctx := context.Background()

	snap, _ := env.svc.RequestMatch(ctx, "alice", MatchRequest{Mode: domain.ModeComputer, Difficulty: domain.DifficultyMedium})
	res, err := env.svc.SubmitMove(ctx, snap.SessionID, "alice", 3)
	if err != nil {
		t.Fatalf("human move failed with the computer: %v", err)
	}
	if res.Reply != nil {
		t.Fatalf("reply = %+v, want none after a store failure", res.Reply)
	}

	res, err = env.svc.SubmitMove(ctx, snap.SessionID, "alice", 3)
	if err != nil {
		t.Fatalf("SubmitMove after catch-up: %v", err)
	}
	if res.Move.Order != 2 || res.Reply == nil || res.Reply.Move.Order != 3 {
		t.Errorf("orders = %d / %+v", res.Move.Order, res.Reply)
	}
}

// racedStore loses the first computer append and reports the second as a
// conflict after a concurrent request has already written it.
type racedStore struct {
	*MemoryStore
	mu       sync.Mutex
	computer int
}

func (r *racedStore) AppendMove(ctx context.Context, move domain.Move, outcome domain.Outcome) error {
	if move.Color != domain.Blue {
		return r.MemoryStore.AppendMove(ctx, move, outcome)
	}
	r.mu.Lock()
	r.computer++
	n := r.computer
	r.mu.Unlock()
	switch n {
	case 1:
		return errors.New("connection reset")
	case 2:
		if err := r.MemoryStore.AppendMove(ctx, move, outcome); err != nil {
			return err
		}
		return domain.ErrMoveConflict
	}
	return r.MemoryStore.AppendMove(ctx, move, outcome)
}

func TestCatchUpConflictMeansAlreadyPlayed(t *testing.T) {
	clock := newFakeClock()
	mem := NewMemoryStore()
	mem.now = clock.Now
	env := newTestEnvWithStore(t, &racedStore{MemoryStore: mem}, clock)
	ctx := context.Background()

	snap, _ := env.svc.RequestMatch(ctx, "alice", MatchRequest{Mode: domain.ModeComputer, Difficulty: domain.DifficultyMedium})
	if _, err := env.svc.SubmitMove(ctx, snap.SessionID, "alice", 3); err != nil {
		t.Fatalf("first move: %v", err)
	}

	res, err := env.svc.SubmitMove(ctx, snap.SessionID, "alice", 3)
	if err != nil {
		t.Fatalf("SubmitMove after a raced catch-up: %v", err)
	}
	if res.Move.Order != 2 || res.Reply == nil || res.Reply.Move.Order != 3 {
		t.Errorf("orders = %d / %+v", res.Move.Order, res.Reply)
	}
}

func TestCorruptedMoveLogIsAConsistencyError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_ = env.store.CreateSession(ctx, &domain.Session{
		ID:           "corrupt",
		Status:       domain.StatusActive,
		Mode:         domain.ModePvP,
		ParticipantA: "alice",
		ParticipantB: "bob",
		Moves: []domain.Move{
			{SessionID: "corrupt", Order: 0, Column: 3, Color: domain.Red},
			{SessionID: "corrupt", Order: 1, Column: 3, Color: domain.Red},
		},
	})

	_, err := env.svc.GetStatus(ctx, "corrupt")
	var ce *domain.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("GetStatus err = %v, want *ConsistencyError", err)
	}
	if ce.SessionID != "corrupt" || ce.Order != 1 {
		t.Errorf("consistency error = %+v", ce)
	}
	if domain.IsUserError(err) {
		t.Error("consistency error classified as user error")
	}

	if _, err := env.svc.SubmitMove(ctx, "corrupt", "alice", 2); !domain.IsConsistencyError(err) {
		t.Errorf("SubmitMove err = %v, want consistency error", err)
	}
}

func TestAbandon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.startPvP(t)

	if err := env.svc.Abandon(ctx, id, "mallory"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("outsider abandon err = %v", err)
	}
	if err := env.svc.Abandon(ctx, id, "bob"); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	snap, _ := env.svc.GetStatus(ctx, id)
	if snap.Status != domain.StatusAbandoned || snap.Turn != nil {
		t.Errorf("snapshot = %+v", snap)
	}
	if err := env.svc.Abandon(ctx, id, "alice"); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Errorf("second abandon err = %v", err)
	}
	if _, err := env.svc.SubmitMove(ctx, id, "alice", 3); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Errorf("move in abandoned game err = %v", err)
	}
}

func TestAbandonStaleAndCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.startPvP(t)
	waiting, _ := env.svc.RequestMatch(ctx, "carol", MatchRequest{})

	counts, err := env.svc.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Playing != 2 || counts.Waiting != 1 {
		t.Errorf("counts = %+v, want 2 playing and 1 waiting", counts)
	}

	if n, _ := env.svc.AbandonStale(ctx, 10*time.Minute, 30*time.Minute); n != 0 {
		t.Errorf("abandoned %d fresh sessions", n)
	}

	env.clock.Advance(15 * time.Minute)
	n, err := env.svc.AbandonStale(ctx, 10*time.Minute, 30*time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("AbandonStale after 15m = (%d, %v), want 1", n, err)
	}
	snap, _ := env.svc.GetStatus(ctx, waiting.SessionID)
	if snap.Status != domain.StatusAbandoned {
		t.Errorf("waiting session status = %s", snap.Status)
	}

	env.clock.Advance(30 * time.Minute)
	if n, _ := env.svc.AbandonStale(ctx, 10*time.Minute, 30*time.Minute); n != 1 {
		t.Errorf("idle active session not abandoned, n = %d", n)
	}
}

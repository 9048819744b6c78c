package watch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/game"
)

const DefaultInterval = 2 * time.Second

type EventType string

const (
	EventSnapshot      EventType = "snapshot"
	EventStatusChanged EventType = "status_changed"
	EventTurnChanged   EventType = "turn_changed"
	EventBoardChanged  EventType = "board_changed"
	EventGameEnded     EventType = "game_ended"
)

// Event carries the snapshot it was derived from. NewMoves is set on
// board_changed events only.
type Event struct {
	Type     EventType      `json:"type"`
	Snapshot *game.Snapshot `json:"snapshot"`
	NewMoves []domain.Move  `json:"newMoves,omitempty"`
}

// StatusSource is satisfied by *game.Service.
type StatusSource interface {
	GetStatus(ctx context.Context, sessionID string) (*game.Snapshot, error)
}

// Poller turns repeated status reads into change events.
type Poller struct {
	Source   StatusSource
	Interval time.Duration
	Logger   *zap.Logger
}

func NewPoller(source StatusSource, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{Source: source, Interval: interval, Logger: logger.Named("watch")}
}

// Watch polls sessionID until ctx is cancelled or the game has ended. The
// returned channel is closed when the watcher goroutine exits.
func (p *Poller) Watch(ctx context.Context, sessionID string) <-chan Event {
	events := make(chan Event, 8)
	go p.run(ctx, sessionID, events)
	return events
}

func (p *Poller) run(ctx context.Context, sessionID string, events chan<- Event) {
	defer close(events)

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev *game.Snapshot
	for {
		snap, err := p.Source.GetStatus(ctx, sessionID)
		switch {
		case err != nil && ctx.Err() != nil:
			return
		case err != nil:
			logger.Warn("status read failed", zap.String("session", sessionID), zap.Error(err))
		default:
			for _, ev := range Diff(prev, snap) {
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}
			prev = snap
			if snap.Status.IsFinished() {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Diff lists the events that lead from prev to next. A nil prev yields a
// single snapshot event.
func Diff(prev, next *game.Snapshot) []Event {
	if prev == nil {
		return []Event{{Type: EventSnapshot, Snapshot: next}}
	}

	var events []Event
	if next.MoveCount != prev.MoveCount || next.Board != prev.Board {
		ev := Event{Type: EventBoardChanged, Snapshot: next}
		if next.MoveCount > prev.MoveCount && len(next.Moves) == next.MoveCount {
			ev.NewMoves = next.Moves[prev.MoveCount:]
		}
		events = append(events, ev)
	}
	if next.Status != prev.Status {
		events = append(events, Event{Type: EventStatusChanged, Snapshot: next})
	}
	if !sameTurn(prev.Turn, next.Turn) {
		events = append(events, Event{Type: EventTurnChanged, Snapshot: next})
	}
	if next.Status.IsFinished() && !prev.Status.IsFinished() {
		events = append(events, Event{Type: EventGameEnded, Snapshot: next})
	}
	return events
}

func sameTurn(a, b *domain.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

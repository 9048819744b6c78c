package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

const topOpponents = 5

// Repository stores players. Get returns ErrPlayerNotFound for unknown ids;
// Create and UpdateName return ErrUsernameTaken when the name is in use.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Player, error)
	Create(ctx context.Context, player *domain.Player) error
	UpdateName(ctx context.Context, id, name string) error

	// UpdateRatings writes every rating in one transaction.
	UpdateRatings(ctx context.Context, ratings map[string]int) error
}

// GameHistory lists finished sessions, newest first.
type GameHistory interface {
	ListCompletedByParticipant(ctx context.Context, participantID string) ([]*domain.Session, error)
}

type OpponentCount struct {
	OpponentID string `json:"opponentId"`
	Name       string `json:"name"`
	Games      int    `json:"games"`
}

type Stats struct {
	PlayerID      string          `json:"playerId"`
	Name          string          `json:"name"`
	Rating        int             `json:"rating"`
	GamesPlayed   int             `json:"gamesPlayed"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	Ties          int             `json:"ties"`
	WinPercentage int             `json:"winPercentage"`
	MostBeaten    []OpponentCount `json:"mostBeaten"`
	MostLostTo    []OpponentCount `json:"mostLostTo"`
}

type Service struct {
	repo    Repository
	history GameHistory
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, history GameHistory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		history: history,
		logger:  logger.Named("player"),
		now:     time.Now,
	}
}

// EnsurePlayer returns the player with id, creating a guest on first sight.
func (s *Service) EnsurePlayer(ctx context.Context, id string) (*domain.Player, error) {
	existing, err := s.repo.Get(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	candidates := []string{domain.GuestName(id), "Guest-" + compactID(id, 12)}
	for _, name := range candidates {
		player := &domain.Player{
			ID:        id,
			Name:      name,
			Rating:    domain.InitialRating,
			CreatedAt: s.now(),
		}
		err := s.repo.Create(ctx, player)
		if err == nil {
			s.logger.Info("guest created", zap.String("player", id), zap.String("name", name))
			return player, nil
		}

		// a concurrent request may have created the same player
		if again, getErr := s.repo.Get(ctx, id); getErr == nil {
			return again, nil
		}
		if !errors.Is(err, domain.ErrUsernameTaken) {
			return nil, fmt.Errorf("failed to create player: %w", err)
		}
	}
	return nil, domain.ErrUsernameTaken
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Player, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Rename(ctx context.Context, id, name string) (*domain.Player, error) {
	name = strings.TrimSpace(name)
	if err := domain.ValidateUsername(name); err != nil {
		return nil, err
	}

	player, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if player.Name == name {
		return player, nil
	}

	if err := s.repo.UpdateName(ctx, id, name); err != nil {
		return nil, err
	}
	s.logger.Info("player renamed", zap.String("player", id), zap.String("from", player.Name), zap.String("to", name))
	player.Name = name
	return player, nil
}

// Stats aggregates the player's finished games.
func (s *Service) Stats(ctx context.Context, id string) (*Stats, error) {
	player, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sessions, err := s.history.ListCompletedByParticipant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game history: %w", err)
	}

	stats := &Stats{
		PlayerID:    player.ID,
		Name:        player.Name,
		Rating:      player.Rating,
		GamesPlayed: len(sessions),
	}
	beaten := make(map[string]int)
	lostTo := make(map[string]int)

	for _, session := range sessions {
		color, ok := session.ColorOf(id)
		if !ok {
			continue
		}
		opponent := session.OpponentOf(id)

		switch session.Winner {
		case domain.OutcomeTie:
			stats.Ties++
		case domain.OutcomeFor(color):
			stats.Wins++
			beaten[opponent]++
		default:
			stats.Losses++
			lostTo[opponent]++
		}
	}

	if decided := stats.Wins + stats.Losses; decided > 0 {
		stats.WinPercentage = int(math.Round(float64(stats.Wins) * 100 / float64(decided)))
	}
	stats.MostBeaten = s.rankOpponents(ctx, beaten)
	stats.MostLostTo = s.rankOpponents(ctx, lostTo)
	return stats, nil
}

func (s *Service) rankOpponents(ctx context.Context, counts map[string]int) []OpponentCount {
	ranked := make([]OpponentCount, 0, len(counts))
	for opponentID, games := range counts {
		ranked = append(ranked, OpponentCount{OpponentID: opponentID, Name: s.displayName(ctx, opponentID), Games: games})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Games != ranked[j].Games {
			return ranked[i].Games > ranked[j].Games
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topOpponents {
		ranked = ranked[:topOpponents]
	}
	return ranked
}

func (s *Service) displayName(ctx context.Context, id string) string {
	if domain.IsComputerID(id) {
		return domain.GetComputerName(domain.Difficulty(strings.TrimPrefix(id, domain.ComputerID(""))))
	}
	player, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.GuestName(id)
	}
	return player.Name
}

// RecordResult updates both ratings after a completed game between two
// human players. Computer games leave ratings untouched.
func (s *Service) RecordResult(ctx context.Context, session *domain.Session) error {
	if session.Status != domain.StatusCompleted || session.Mode != domain.ModePvP {
		return nil
	}
	if domain.IsComputerID(session.ParticipantA) || domain.IsComputerID(session.ParticipantB) {
		return nil
	}

	red, err := s.repo.Get(ctx, session.ParticipantA)
	if err != nil {
		return fmt.Errorf("failed to load red player: %w", err)
	}
	blue, err := s.repo.Get(ctx, session.ParticipantB)
	if err != nil {
		return fmt.Errorf("failed to load blue player: %w", err)
	}

	newRed, newBlue := domain.RateOutcome(red.Rating, blue.Rating, session.Winner)
	if err := s.repo.UpdateRatings(ctx, map[string]int{red.ID: newRed, blue.ID: newBlue}); err != nil {
		return fmt.Errorf("failed to update ratings: %w", err)
	}

	s.logger.Info("ratings updated",
		zap.String("session", session.ID),
		zap.String("outcome", string(session.Winner)),
		zap.Int("red", newRed),
		zap.Int("blue", newBlue))
	return nil
}

func compactID(id string, n int) string {
	compact := strings.ReplaceAll(id, "-", "")
	if len(compact) > n {
		compact = compact[:n]
	}
	return compact
}

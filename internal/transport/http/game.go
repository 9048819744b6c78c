package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/advisor"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/game"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/http/middleware"
)

// Chatter answers questions about a position. *advisor.OpenAIAdvisor
// satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req advisor.ChatRequest) (string, error)
}

type GameHandler struct {
	Games  *game.Service
	Chat   Chatter
	Logger *zap.Logger
}

func NewGameHandler(games *game.Service, chat Chatter, logger *zap.Logger) *GameHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameHandler{Games: games, Chat: chat, Logger: logger.Named("http")}
}

func (h *GameHandler) Counts(c *gin.Context) {
	counts, err := h.Games.Counts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// RequestMatch accepts an empty body as a PvP request.
func (h *GameHandler) RequestMatch(c *gin.Context) {
	var req game.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid match request")
		return
	}

	snap, err := h.Games.RequestMatch(c.Request.Context(), middleware.PlayerID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *GameHandler) SubmitMove(c *gin.Context) {
	var req struct {
		Column *int `json:"column" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "column is required")
		return
	}

	result, err := h.Games.SubmitMove(c.Request.Context(), c.Param("id"), middleware.PlayerID(c), *req.Column)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *GameHandler) GetStatus(c *gin.Context) {
	snap, err := h.Games.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *GameHandler) Abandon(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	if err := h.Games.Abandon(ctx, sessionID, middleware.PlayerID(c)); err != nil {
		writeError(c, err)
		return
	}
	snap, err := h.Games.GetStatus(ctx, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type adviceRequest struct {
	Question string                `json:"question"`
	History  []advisor.ChatMessage `json:"history"`
}

type adviceResponse struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Advice answers a participant's question about the current position. When
// the assistant is unavailable the player gets the fallback reply.
func (h *GameHandler) Advice(c *gin.Context) {
	var req adviceRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		badRequest(c, "question is required")
		return
	}

	ctx := c.Request.Context()
	playerID := middleware.PlayerID(c)
	snap, err := h.Games.GetStatus(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	myColor := domain.Empty
	switch playerID {
	case snap.ParticipantA:
		myColor = domain.Red
	case snap.ParticipantB:
		myColor = domain.Blue
	default:
		writeError(c, domain.ErrSessionNotFound)
		return
	}

	if h.Chat == nil {
		c.JSON(http.StatusOK, adviceResponse{Reply: advisor.FallbackReply, Fallback: true})
		return
	}

	turn := domain.Empty
	if snap.Turn != nil {
		turn = *snap.Turn
	}
	reply, err := h.Chat.Chat(ctx, advisor.ChatRequest{
		Board:      snap.Board,
		Turn:       turn,
		MyColor:    myColor,
		Difficulty: snap.Difficulty,
		History:    req.History,
		Question:   req.Question,
	})
	if err != nil {
		h.Logger.Warn("advice chat failed", zap.String("session", snap.SessionID), zap.Error(err))
		c.JSON(http.StatusOK, adviceResponse{Reply: advisor.FallbackReply, Fallback: true})
		return
	}
	c.JSON(http.StatusOK, adviceResponse{Reply: reply})
}

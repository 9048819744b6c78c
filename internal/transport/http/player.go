package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/player"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/http/middleware"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/auth"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/httputil"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/uid"
)

type PlayerHandler struct {
	Players      *player.Service
	Tokens       *auth.TokenManager
	TokenTTL     time.Duration
	IsProduction bool
}

func NewPlayerHandler(players *player.Service, tokens *auth.TokenManager, tokenTTL time.Duration, isProduction bool) *PlayerHandler {
	return &PlayerHandler{
		Players:      players,
		Tokens:       tokens,
		TokenTTL:     tokenTTL,
		IsProduction: isProduction,
	}
}

type playerResponse struct {
	Player *domain.Player `json:"player"`
	Token  string         `json:"token,omitempty"`
}

// Register returns the caller's guest player, creating one when the request
// carries no valid token. A fresh token is issued either way.
func (h *PlayerHandler) Register(c *gin.Context) {
	playerID := ""
	if tokenString, err := httputil.GetTokenFromRequest(c.Request); err == nil {
		if claims, err := h.Tokens.ValidateToken(tokenString); err == nil && uid.IsValid(claims.PlayerID) {
			playerID = claims.PlayerID
		}
	}
	if playerID == "" {
		playerID = uid.GeneratePlayerID()
	}

	p, err := h.Players.EnsurePlayer(c.Request.Context(), playerID)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.Tokens.GenerateToken(p.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	httputil.SetAuthCookie(c.Writer, token, h.TokenTTL, h.IsProduction)
	c.JSON(http.StatusOK, playerResponse{Player: p, Token: token})
}

func (h *PlayerHandler) Me(c *gin.Context) {
	p, err := h.Players.EnsurePlayer(c.Request.Context(), middleware.PlayerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, playerResponse{Player: p})
}

func (h *PlayerHandler) Rename(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	p, err := h.Players.Rename(c.Request.Context(), middleware.PlayerID(c), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, playerResponse{Player: p})
}

func (h *PlayerHandler) Stats(c *gin.Context) {
	stats, err := h.Players.Stats(c.Request.Context(), middleware.PlayerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

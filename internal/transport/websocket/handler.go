package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/game"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/service/watch"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/apierror"
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/http/middleware"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/httputil"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type GameService interface {
	GetStatus(ctx context.Context, sessionID string) (*game.Snapshot, error)
	SubmitMove(ctx context.Context, sessionID, playerID string, column int) (*game.MoveResult, error)
}

// Watcher is satisfied by *watch.Poller.
type Watcher interface {
	Watch(ctx context.Context, sessionID string) <-chan watch.Event
}

type ClientMessage struct {
	Type   string `json:"type"`
	Column *int   `json:"column,omitempty"`
}

type ServerMessage struct {
	Type    string           `json:"type"`
	Event   *watch.Event     `json:"event,omitempty"`
	Result  *game.MoveResult `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Handler manages WebSocket dependencies
type Handler struct {
	ConnManager *ConnectionManager
	Games       GameService
	Watcher     Watcher
	Tokens      middleware.TokenValidator
	Logger      *zap.Logger
	Upgrader    websocket.Upgrader
}

func NewHandler(cm *ConnectionManager, games GameService, watcher Watcher, tokens middleware.TokenValidator, allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &Handler{
		ConnManager: cm,
		Games:       games,
		Watcher:     watcher,
		Tokens:      tokens,
		Logger:      logger.Named("ws"),
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleGameStream authenticates, checks the session exists and upgrades
// the connection to a stream of watcher events.
func (h *Handler) HandleGameStream(c *gin.Context) {
	tokenString, err := httputil.GetTokenFromRequest(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Response{Error: apierror.CodeUnauthorized, Message: "missing token"})
		return
	}
	claims, err := h.Tokens.ValidateToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Response{Error: apierror.CodeUnauthorized, Message: "invalid token"})
		return
	}

	sessionID := c.Param("id")
	if _, err := h.Games.GetStatus(c.Request.Context(), sessionID); err != nil {
		status, resp := apierror.FromError(err)
		c.AbortWithStatusJSON(status, resp)
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := h.ConnManager.AddConnection(conn, claims.PlayerID, sessionID)
	h.Logger.Info("stream opened",
		zap.String("session", sessionID),
		zap.String("player", claims.PlayerID),
		zap.Int("watchers", h.ConnManager.Watchers(sessionID)))
	h.handleConnection(client)
}

// handleConnection pumps watcher events and pings until the game ends, the
// peer goes away or the connection is closed from outside.
func (h *Handler) handleConnection(client *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer h.ConnManager.RemoveConnection(client)

	// Set read deadline to detect stale connections
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.readLoop(ctx, cancel, client)

	events := h.Watcher.Watch(ctx, client.sessionID)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					client.closeWith(websocket.CloseNormalClosure, "game over")
				}
				h.Logger.Info("stream closed", zap.String("session", client.sessionID), zap.String("player", client.playerID))
				return
			}
			if err := client.Send(ServerMessage{Type: "event", Event: &ev}); err != nil {
				h.Logger.Debug("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, client *Client) {
	defer cancel()

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.Logger.Info("client disconnected unexpectedly", zap.String("player", client.playerID), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(client, apierror.BadRequest("invalid message format"))
			continue
		}
		h.processMessage(ctx, client, msg)
	}
}

func (h *Handler) processMessage(ctx context.Context, client *Client, msg ClientMessage) {
	switch msg.Type {
	case "make_move":
		if msg.Column == nil {
			h.sendError(client, apierror.BadRequest("column is required"))
			return
		}
		result, err := h.Games.SubmitMove(ctx, client.sessionID, client.playerID, *msg.Column)
		if err != nil {
			_, resp := apierror.FromError(err)
			if resp.Error == apierror.CodeInternal || resp.Error == apierror.CodeCorrupted {
				h.Logger.Error("move failed", zap.String("session", client.sessionID), zap.Error(err))
			}
			h.sendError(client, resp)
			return
		}
		_ = client.Send(ServerMessage{Type: "move_accepted", Result: result})

	default:
		h.sendError(client, apierror.BadRequest("unknown message type"))
	}
}

func (h *Handler) sendError(client *Client, resp apierror.Response) {
	_ = client.Send(ServerMessage{Type: "error", Error: resp.Error, Message: resp.Message})
}

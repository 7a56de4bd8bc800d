package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/app"
	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/config"
	"github.com/exortc/server/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket endpoint; all decisions are delegated
// to the coordinator, the controller only decodes and dispatches.
type Controller struct {
	Coord *app.Coordinator
	Cfg   *config.Config

	joins *JoinRateLimiter
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	return &Controller{
		Coord: coord,
		Cfg:   cfg,
		joins: NewJoinRateLimiter(10, 10*time.Second),
	}
}

// WsConn wraps a websocket with a buffered outbound queue. TrySend
// never blocks; a full queue is reported as backpressure.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal authenticates the bearer credential, upgrades to a
// websocket and starts the read/write pumps. A rejected credential
// never reaches any handler.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	// Browsers cannot set headers on a websocket handshake, so the
	// token also comes as a query parameter.
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c.GetHeader("Authorization"))
	}
	user, err := ctl.Coord.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperr.MessageOf(err)})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := &WsConn{conn: ws, send: make(chan core.Frame, 32)}
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Coord.Connect(sid, user, conn, cancel)
	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("user", string(user.ID)).Str("username", user.Username).Msg("session connected")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *WsConn, msg string) {
	ctl.sendJSON(c, core.ErrorEvent{Type: core.EvError, Message: msg})
}

package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/core"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid core.SessionID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Coord.Disconnect(ctx, sid)
		ctl.joins.Forget(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleMessage(ctx, sid, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(ctx context.Context, sid core.SessionID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "subscribe-server":
		ctl.handleSubscribe(sid, c, data, true)
	case "unsubscribe-server":
		ctl.handleSubscribe(sid, c, data, false)
	case "join-room":
		ctl.handleJoin(ctx, sid, c, data)
	case "leave-room":
		ctl.handleLeave(ctx, sid)
	case "offer", "answer", "ice-candidate":
		ctl.handleRelay(sid, env.Type, data)
	case "speaking":
		ctl.handleSpeaking(sid, data)
	case "shout-start":
		ctl.handleShoutStart(ctx, sid, c, data)
	case "shout-end":
		ctl.handleShoutEnd(ctx, sid, c, data)
	case "mute-user":
		ctl.handleMute(ctx, sid, c, data)
	case "unmute-user":
		ctl.handleUnmute(ctx, sid, c, data)
	case "kick-user":
		ctl.handleKick(ctx, sid, c, data)
	case "ping":
		ctl.handlePing(sid, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown message")
	}
}

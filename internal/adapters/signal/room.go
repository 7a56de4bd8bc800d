package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

func (ctl *Controller) handleSubscribe(sid core.SessionID, c *WsConn, data []byte, subscribe bool) {
	var p struct {
		ServerID string `json:"serverId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" {
		ctl.sendError(c, "bad payload")
		return
	}
	if subscribe {
		ctl.Coord.SubscribeServer(sid, domain.ServerID(p.ServerID))
	} else {
		ctl.Coord.UnsubscribeServer(sid, domain.ServerID(p.ServerID))
	}
}

func (ctl *Controller) handleJoin(ctx context.Context, sid core.SessionID, c *WsConn, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		ctl.sendError(c, "bad payload")
		return
	}
	if !ctl.joins.Allow(sid) {
		ctl.sendError(c, "Too many join attempts")
		return
	}
	if err := ctl.Coord.JoinRoom(ctx, sid, domain.RoomID(p.RoomID)); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("join denied")
		ctl.sendError(c, apperr.MessageOf(err))
	}
}

func (ctl *Controller) handleLeave(ctx context.Context, sid core.SessionID) {
	ctl.Coord.LeaveRoom(ctx, sid)
}

package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

type moderationPayload struct {
	ServerID string `json:"serverId"`
	UserID   string `json:"userId"`
	Duration int    `json:"duration,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func decodeModeration(data []byte) (moderationPayload, bool) {
	var p moderationPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" || p.UserID == "" {
		return p, false
	}
	return p, true
}

func (ctl *Controller) handleMute(ctx context.Context, sid core.SessionID, c *WsConn, data []byte) {
	p, ok := decodeModeration(data)
	if !ok {
		ctl.sendError(c, "bad payload")
		return
	}
	err := ctl.Coord.Mute(ctx, sid, domain.ServerID(p.ServerID), domain.UserID(p.UserID), p.Reason)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("mute denied")
		ctl.sendError(c, apperr.MessageOf(err))
	}
}

func (ctl *Controller) handleUnmute(ctx context.Context, sid core.SessionID, c *WsConn, data []byte) {
	p, ok := decodeModeration(data)
	if !ok {
		ctl.sendError(c, "bad payload")
		return
	}
	err := ctl.Coord.Unmute(ctx, sid, domain.ServerID(p.ServerID), domain.UserID(p.UserID))
	if err != nil {
		ctl.sendError(c, apperr.MessageOf(err))
	}
}

func (ctl *Controller) handleKick(ctx context.Context, sid core.SessionID, c *WsConn, data []byte) {
	p, ok := decodeModeration(data)
	if !ok {
		ctl.sendError(c, "bad payload")
		return
	}
	err := ctl.Coord.Kick(ctx, sid, domain.ServerID(p.ServerID), domain.UserID(p.UserID), p.Duration, p.Reason)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("kick denied")
		ctl.sendError(c, apperr.MessageOf(err))
	}
}

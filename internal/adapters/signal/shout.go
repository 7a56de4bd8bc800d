package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

func decodeShout(data []byte) (domain.ServerID, bool) {
	var p struct {
		ServerID string `json:"serverId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.ServerID == "" {
		return "", false
	}
	return domain.ServerID(p.ServerID), true
}

func (ctl *Controller) handleShoutStart(ctx context.Context, sid core.SessionID, c *WsConn, data []byte) {
	serverID, ok := decodeShout(data)
	if !ok {
		ctl.sendError(c, "bad payload")
		return
	}
	if err := ctl.Coord.StartShout(ctx, sid, serverID); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("shout denied")
		ctl.sendError(c, apperr.MessageOf(err))
	}
}

func (ctl *Controller) handleShoutEnd(ctx context.Context, sid core.SessionID, c *WsConn, data []byte) {
	serverID, ok := decodeShout(data)
	if !ok {
		ctl.sendError(c, "bad payload")
		return
	}
	if err := ctl.Coord.EndShout(ctx, sid, serverID); err != nil {
		ctl.sendError(c, apperr.MessageOf(err))
	}
}

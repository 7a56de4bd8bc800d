package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

// handleRelay covers offer, answer and ice-candidate. The signal blob
// is forwarded untouched; a target without a live session is dropped
// without an error back to the sender.
func (ctl *Controller) handleRelay(sid core.SessionID, kind string, data []byte) {
	var p struct {
		TargetUserID string          `json:"targetUserId"`
		Signal       json.RawMessage `json:"signal"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.TargetUserID == "" {
		log.Warn().Str("module", "signal").Str("kind", kind).Msg("bad relay payload")
		return
	}
	ctl.Coord.Relay(sid, kind, domain.UserID(p.TargetUserID), p.Signal)
}

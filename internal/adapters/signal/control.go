package signal

import (
	"encoding/json"

	"github.com/exortc/server/internal/core"
)

func (ctl *Controller) handleSpeaking(sid core.SessionID, data []byte) {
	var p struct {
		IsSpeaking bool `json:"isSpeaking"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Coord.Speaking(sid, p.IsSpeaking)
}

// handlePing runs on a ~2s client cadence. The optional rtt field is
// the client's last measured round-trip; when present it updates the
// session's latency scalar.
func (ctl *Controller) handlePing(sid core.SessionID, data []byte) {
	var p struct {
		Timestamp int64 `json:"timestamp"`
		RTT       int64 `json:"rtt,omitempty"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	ctl.Coord.Ping(sid, p.Timestamp, p.RTT)
}

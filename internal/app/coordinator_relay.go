package app

import (
	"encoding/json"

	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

// Relay forwards an offer, answer or ice-candidate payload verbatim to
// the target user's live session. A missing target is silently dropped:
// signaling is best-effort and the caller's WebRTC stack times out on
// its own. The payload is never parsed.
func (c *Coordinator) Relay(sid core.SessionID, kind string, target domain.UserID, payload json.RawMessage) {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return
	}
	tp, ok := c.Registry.FindByUserID(target)
	if !ok {
		return
	}
	ev := core.Signal{Type: kind, FromUserID: string(p.UserID), Payload: payload}
	// Only the initial offer carries the username; the client uses it to
	// label the incoming peer.
	if kind == core.EvOffer {
		ev.FromUsername = p.Username
	}
	c.send(tp.Conn, ev)
}

// Speaking broadcasts a voice-activity flag to the sender's room peers.
// No permission gate: PTT versus open-mic is a client concern.
func (c *Coordinator) Speaking(sid core.SessionID, isSpeaking bool) {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return
	}
	roomID, ok := c.Registry.RoomOf(sid)
	if !ok {
		return
	}
	c.broadcastRoom(roomID, sid, core.UserSpeaking{
		Type:       core.EvUserSpeaking,
		UserID:     string(p.UserID),
		Username:   p.Username,
		IsSpeaking: isSpeaking,
	})
}

// Ping echoes the client timestamp immediately. When the client reports
// its last measured round-trip, that scalar is overwritten on the
// session and pushed to room peers so their UIs can render live ping.
// This path runs every couple of seconds; it must not grow state.
func (c *Coordinator) Ping(sid core.SessionID, timestamp, rttMs int64) {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return
	}
	c.send(p.Conn, core.Pong{Type: core.EvPong, Timestamp: timestamp})

	if rttMs <= 0 {
		return
	}
	c.Registry.RecordLatency(sid, rttMs)
	if roomID, ok := c.Registry.RoomOf(sid); ok {
		c.broadcastRoom(roomID, sid, core.UserPing{
			Type:   core.EvUserPing,
			UserID: string(p.UserID),
			Ping:   rttMs,
		})
	}
}

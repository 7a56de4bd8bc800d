package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

// StartShout fans a shout-incoming event out to every qualifying
// listener with a live session and replies to the shouter alone with
// the target list that drives its peer-connection fan-out. Listeners
// qualify by role, regardless of which room they occupy.
func (c *Coordinator) StartShout(ctx context.Context, sid core.SessionID, serverID domain.ServerID) error {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return apperr.Internal("session not bound")
	}
	role, err := c.Store.RoleOf(ctx, serverID, p.UserID)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}
	if !CanShout(role) {
		return apperr.Forbidden("Shout permission required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	listeners, err := c.shoutListenersLocked(ctx, serverID, p.UserID)
	if err != nil {
		return err
	}

	shouterRoom, _ := c.Registry.RoomOf(sid)
	incoming := core.ShoutIncoming{
		Type:          core.EvShoutIncoming,
		FromUserID:    string(p.UserID),
		FromUsername:  p.Username,
		ServerID:      string(serverID),
		ShouterRoomID: string(shouterRoom),
	}

	targets := make([]core.ShoutTarget, 0, len(listeners))
	for _, l := range listeners {
		c.send(l.Conn, incoming)
		targets = append(targets, core.ShoutTarget{UserID: string(l.UserID), Username: l.Username})
	}
	c.send(p.Conn, core.ShoutTargets{Type: core.EvShoutTargets, Targets: targets})

	log.Info().Str("module", "app.coordinator").Str("server", string(serverID)).
		Str("from", string(p.UserID)).Int("targets", len(targets)).Msg("shout started")
	return nil
}

// EndShout recomputes the listener set and notifies each listener once.
// No gate here: a shouter whose role changed mid-shout must still be
// able to end it.
func (c *Coordinator) EndShout(ctx context.Context, sid core.SessionID, serverID domain.ServerID) error {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return apperr.Internal("session not bound")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	listeners, err := c.shoutListenersLocked(ctx, serverID, p.UserID)
	if err != nil {
		return err
	}
	ended := core.ShoutEnded{Type: core.EvShoutEnded, FromUserID: string(p.UserID)}
	for _, l := range listeners {
		c.send(l.Conn, ended)
	}
	return nil
}

// shoutListenersLocked: members of the server who pass the shout gate,
// minus the shouter, with a live session. One session per listener even
// when the user holds several connections.
func (c *Coordinator) shoutListenersLocked(ctx context.Context, serverID domain.ServerID, shouter domain.UserID) ([]Peer, error) {
	members, err := c.Store.ServerMembers(ctx, serverID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}
	out := make([]Peer, 0)
	for _, m := range members {
		if m.UserID == shouter || !CanShout(m.Role) {
			continue
		}
		if p, ok := c.Registry.FindByUserID(m.UserID); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

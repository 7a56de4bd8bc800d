package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

// Mute persists a server-wide mute, announces it to server subscribers
// and, when the target is connected, orders its client to cut outgoing
// audio. Re-muting refreshes metadata; it never duplicates state.
func (c *Coordinator) Mute(ctx context.Context, sid core.SessionID, serverID domain.ServerID, target domain.UserID, reason string) error {
	actor, err := c.requireManager(ctx, sid, serverID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m := &domain.Mute{
		ServerID: serverID,
		UserID:   target,
		MutedBy:  actor.UserID,
		Reason:   reason,
		MutedAt:  c.Now(),
	}
	if err := c.Store.UpsertMute(ctx, m); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}

	c.publishServer(serverID, core.MuteChanged{Type: core.EvUserMuted, ServerID: string(serverID), UserID: string(target)})
	if tp, ok := c.Registry.FindByUserID(target); ok {
		c.send(tp.Conn, core.YouAreMuted{Type: core.EvYouAreMuted, ServerID: string(serverID)})
	}
	log.Info().Str("module", "app.coordinator").Str("server", string(serverID)).
		Str("target", string(target)).Str("by", string(actor.UserID)).Msg("user muted")
	return nil
}

// Unmute is an idempotent no-op when the target is not muted: no error,
// no events.
func (c *Coordinator) Unmute(ctx context.Context, sid core.SessionID, serverID domain.ServerID, target domain.UserID) error {
	if _, err := c.requireManager(ctx, sid, serverID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.Store.DeleteMute(ctx, serverID, target)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}
	if !removed {
		return nil
	}

	c.publishServer(serverID, core.MuteChanged{Type: core.EvUserUnmuted, ServerID: string(serverID), UserID: string(target)})
	if tp, ok := c.Registry.FindByUserID(target); ok {
		c.send(tp.Conn, core.YouAreMuted{Type: core.EvYouAreUnmuted, ServerID: string(serverID)})
	}
	return nil
}

// Kick records a timed ban, notifies subscribers and the target, and
// forcibly evicts the target from any room of this server it occupies.
// A target that is offline stays banned at its next join attempt; expiry
// is checked lazily there, no background sweep.
func (c *Coordinator) Kick(ctx context.Context, sid core.SessionID, serverID domain.ServerID, target domain.UserID, durationMinutes int, reason string) error {
	actor, err := c.requireManager(ctx, sid, serverID)
	if err != nil {
		return err
	}
	if durationMinutes <= 0 {
		return apperr.InvalidArg("Kick duration must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	k := &domain.Kick{
		ID:        uuid.NewString(),
		ServerID:  serverID,
		UserID:    target,
		KickedBy:  actor.UserID,
		Reason:    reason,
		KickedAt:  now,
		ExpiresAt: now.Add(time.Duration(durationMinutes) * time.Minute),
	}
	if err := c.Store.InsertKick(ctx, k); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}

	c.publishServer(serverID, core.UserKicked{Type: core.EvUserKicked, ServerID: string(serverID), UserID: string(target)})

	if tp, ok := c.Registry.FindByUserID(target); ok {
		c.send(tp.Conn, core.YouAreKicked{
			Type:     core.EvYouAreKicked,
			ServerID: string(serverID),
			Duration: durationMinutes,
			Reason:   reason,
		})
		if roomID, ok := c.Registry.RoomOf(tp.SID); ok {
			if room, err := c.Store.RoomByID(ctx, roomID); err == nil && room.ServerID == serverID {
				c.leaveLocked(ctx, tp.SID, false)
			}
		}
	}
	log.Info().Str("module", "app.coordinator").Str("server", string(serverID)).
		Str("target", string(target)).Int("minutes", durationMinutes).Msg("user kicked")
	return nil
}

// requireManager resolves the acting session and gates on the member
// management predicate.
func (c *Coordinator) requireManager(ctx context.Context, sid core.SessionID, serverID domain.ServerID) (Peer, error) {
	p, ok := c.Registry.Get(sid)
	if !ok {
		return Peer{}, apperr.Internal("session not bound")
	}
	role, err := c.Store.RoleOf(ctx, serverID, p.UserID)
	if err != nil {
		return Peer{}, apperr.Wrap(apperr.CodeInternal, "internal error", err)
	}
	if !CanManageMembers(role) {
		return Peer{}, apperr.Forbidden("Permission denied: cannot manage members")
	}
	return p, nil
}

package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

type sessionEntry struct {
	sid      core.SessionID
	userID   domain.UserID
	username string
	conn     core.SignalConnection
	cancel   context.CancelFunc

	roomID    domain.RoomID
	latencyMs int64
	subs      map[domain.ServerID]struct{}
}

// Peer is a read-only snapshot of a live session, safe to use after the
// registry lock is released.
type Peer struct {
	SID       core.SessionID
	UserID    domain.UserID
	Username  string
	Conn      core.SignalConnection
	LatencyMs int64
}

func (e *sessionEntry) snapshot() Peer {
	return Peer{
		SID:       e.sid,
		UserID:    e.userID,
		Username:  e.username,
		Conn:      e.conn,
		LatencyMs: e.latencyMs,
	}
}

// Registry maps live connections to identities and tracks their current
// room, latency and server subscriptions. It is the single shared index
// all handlers mutate, so every access goes through the lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	byUser   map[domain.UserID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		byUser:   make(map[domain.UserID]map[core.SessionID]struct{}),
	}
}

// Bind associates exactly one identity with exactly one live connection.
// A user may hold several connections; each is an independent session.
func (r *Registry) Bind(sid core.SessionID, user *domain.User, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		sid:      sid,
		userID:   user.ID,
		username: user.Username,
		conn:     conn,
		cancel:   cancel,
		subs:     make(map[domain.ServerID]struct{}),
	}
	sids, ok := r.byUser[user.ID]
	if !ok {
		sids = make(map[core.SessionID]struct{})
		r.byUser[user.ID] = sids
	}
	sids[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("bound session")
}

// Unbind removes the session and cancels its connection context, so
// the read/write pumps stop even when the unbind did not originate
// from the socket closing.
func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return
	}
	delete(r.sessions, sid)
	if sids, ok := r.byUser[e.userID]; ok {
		delete(sids, sid)
		if len(sids) == 0 {
			delete(r.byUser, e.userID)
		}
	}
	if e.cancel != nil {
		e.cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbound session")
}

func (r *Registry) Get(sid core.SessionID) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.snapshot(), true
	}
	return Peer{}, false
}

// FindByUserID returns any live session of the user. Targeted relay and
// moderation only need one endpoint per user.
func (r *Registry) FindByUserID(userID domain.UserID) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sid := range r.byUser[userID] {
		if e, ok := r.sessions[sid]; ok {
			return e.snapshot(), true
		}
	}
	return Peer{}, false
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.roomID == "" {
		return "", false
	}
	return e.roomID, true
}

func (r *Registry) SetRoom(sid core.SessionID, roomID domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.roomID = roomID
	return true
}

func (r *Registry) ClearRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.roomID = ""
	}
}

// MembersOfRoom computes the roster fresh from current occupancy.
func (r *Registry) MembersOfRoom(roomID domain.RoomID) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Peer, 0)
	for _, e := range r.sessions {
		if e.roomID == roomID {
			out = append(out, e.snapshot())
		}
	}
	return out
}

// OccupantCounts is used by the room listing API.
func (r *Registry) OccupantCounts() map[domain.RoomID]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.RoomID]int)
	for _, e := range r.sessions {
		if e.roomID != "" {
			out[e.roomID]++
		}
	}
	return out
}

// RecordLatency overwrites the single latency scalar; the ping path runs
// every couple of seconds and must not accumulate state.
func (r *Registry) RecordLatency(sid core.SessionID, rttMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.latencyMs = rttMs
	}
}

func (r *Registry) Subscribe(sid core.SessionID, serverID domain.ServerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.subs[serverID] = struct{}{}
	}
}

func (r *Registry) Unsubscribe(sid core.SessionID, serverID domain.ServerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		delete(e.subs, serverID)
	}
}

// Subscribers snapshots the sessions listening for a server's events.
func (r *Registry) Subscribers(serverID domain.ServerID) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Peer, 0)
	for _, e := range r.sessions {
		if _, ok := e.subs[serverID]; ok {
			out = append(out, e.snapshot())
		}
	}
	return out
}

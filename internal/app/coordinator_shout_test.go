package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/core"
	"github.com/exortc/server/internal/domain"
)

func TestStartShoutFansOutToQualifyingListeners(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	server := domain.ServerID("s1")
	w.store.addRoom("r1", server)
	w.store.addRoom("r2", server)

	owner := w.store.addUser("u-owner", "owner")
	leader := w.store.addUser("u-leader", "leader")
	grunt := w.store.addUser("u-grunt", "grunt")
	offline := w.store.addUser("u-offline", "offline")
	w.store.setRole(server, owner.ID, domain.RoleOwner)
	w.store.setRole(server, leader.ID, domain.RoleSquadLeader)
	w.store.setRole(server, grunt.ID, domain.RoleMember)
	w.store.setRole(server, offline.ID, domain.RoleAdmin)

	oSID, oConn := w.connect(owner)
	lSID, lConn := w.connect(leader)
	gSID, gConn := w.connect(grunt)
	require.NoError(t, w.coord.JoinRoom(ctx, oSID, "r1"))
	require.NoError(t, w.coord.JoinRoom(ctx, lSID, "r2"))
	require.NoError(t, w.coord.JoinRoom(ctx, gSID, "r2"))

	oConn.frames, lConn.frames, gConn.frames = nil, nil, nil
	require.NoError(t, w.coord.StartShout(ctx, oSID, server))

	// Leader qualifies and is in another room: reached anyway.
	incoming := lConn.events(t)
	require.Len(t, incoming, 1)
	assert.Equal(t, core.EvShoutIncoming, incoming[0]["type"])
	assert.Equal(t, "u-owner", incoming[0]["fromUserId"])
	assert.Equal(t, "r1", incoming[0]["shouterRoomId"])

	// Plain members and offline admins get nothing.
	assert.Empty(t, gConn.frames)

	// The shouter receives the exact target list.
	reply := oConn.events(t)
	require.Len(t, reply, 1)
	assert.Equal(t, core.EvShoutTargets, reply[0]["type"])
	targets := reply[0]["targets"].([]any)
	require.Len(t, targets, 1)
	assert.Equal(t, "u-leader", targets[0].(map[string]any)["userId"])
}

func TestStartShoutRequiresRole(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	server := domain.ServerID("s1")

	grunt := w.store.addUser("u-grunt", "grunt")
	w.store.setRole(server, grunt.ID, domain.RoleMember)
	gSID, gConn := w.connect(grunt)

	err := w.coord.StartShout(ctx, gSID, server)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	assert.Empty(t, gConn.frames)
}

func TestEndShoutNotifiesListenersWithoutGate(t *testing.T) {
	ctx := context.Background()
	w := newWorld()
	server := domain.ServerID("s1")

	leader := w.store.addUser("u-leader", "leader")
	admin := w.store.addUser("u-admin", "admin")
	w.store.setRole(server, leader.ID, domain.RoleSquadLeader)
	w.store.setRole(server, admin.ID, domain.RoleAdmin)

	lSID, _ := w.connect(leader)
	_, aConn := w.connect(admin)

	// Demoted mid-shout: ending must still reach the listeners.
	w.store.setRole(server, leader.ID, domain.RoleMember)
	require.NoError(t, w.coord.EndShout(ctx, lSID, server))

	evs := aConn.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, core.EvShoutEnded, evs[0]["type"])
	assert.Equal(t, "u-leader", evs[0]["fromUserId"])
}

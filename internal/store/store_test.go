package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mkUser(t *testing.T, db *DB, username string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(username, username+"@example.com")
	require.NoError(t, err)
	u.PasswordHash = "x"
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func mkServer(t *testing.T, db *DB, owner *domain.User) *domain.Server {
	t.Helper()
	s := domain.NewServer("base", owner.ID)
	require.NoError(t, db.CreateServer(context.Background(), s))
	return s
}

func TestCreateUserAndLookups(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	u := mkUser(t, db, "alice")

	got, err := db.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	assert.Equal(t, domain.DefaultProfileColor, got.ProfileColor)

	byName, err := db.UserByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := db.UserByLogin(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = db.UserByID(ctx, "nope")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCreateUserDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	mkUser(t, db, "alice")

	dup, err := domain.NewUser("alice", "other@example.com")
	require.NoError(t, err)
	dup.PasswordHash = "x"
	err = db.CreateUser(ctx, dup)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	dup2, err := domain.NewUser("someone", "alice@example.com")
	require.NoError(t, err)
	dup2.PasswordHash = "x"
	err = db.CreateUser(ctx, dup2)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestUpdateProfileColor(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	u := mkUser(t, db, "alice")

	require.NoError(t, db.UpdateProfileColor(ctx, u.ID, "#00FF00"))
	got, err := db.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "#00FF00", got.ProfileColor)

	err = db.UpdateProfileColor(ctx, "nope", "#000000")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCreateServerAssignsOwnerMembership(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := mkUser(t, db, "owner")
	s := mkServer(t, db, owner)

	role, err := db.RoleOf(ctx, s.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	list, err := db.ServersByUserID(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)
}

func TestServerByInviteCodeNormalizes(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := mkUser(t, db, "owner")
	s := mkServer(t, db, owner)

	got, err := db.ServerByInviteCode(ctx, "  "+s.InviteCode+" ")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = db.ServerByInviteCode(ctx, "ZZZZZZ")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestAddMemberAndRoles(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := mkUser(t, db, "owner")
	joiner := mkUser(t, db, "joiner")
	s := mkServer(t, db, owner)

	require.NoError(t, db.AddMember(ctx, s.ID, joiner.ID, domain.RoleMember))
	err := db.AddMember(ctx, s.ID, joiner.ID, domain.RoleMember)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	role, err := db.RoleOf(ctx, s.ID, joiner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)

	// Non-members resolve to no role, not an error.
	stranger := mkUser(t, db, "stranger")
	role, err = db.RoleOf(ctx, s.ID, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleNone, role)

	members, err := db.ServerMembers(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestUpdateMemberRoleProtectsOwner(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := mkUser(t, db, "owner")
	joiner := mkUser(t, db, "joiner")
	s := mkServer(t, db, owner)
	require.NoError(t, db.AddMember(ctx, s.ID, joiner.ID, domain.RoleMember))

	changed, err := db.UpdateMemberRole(ctx, s.ID, joiner.ID, domain.RoleSquadLeader)
	require.NoError(t, err)
	assert.True(t, changed)
	role, _ := db.RoleOf(ctx, s.ID, joiner.ID)
	assert.Equal(t, domain.RoleSquadLeader, role)

	changed, err = db.UpdateMemberRole(ctx, s.ID, owner.ID, domain.RoleMember)
	require.NoError(t, err)
	assert.False(t, changed)
	role, _ = db.RoleOf(ctx, s.ID, owner.ID)
	assert.Equal(t, domain.RoleOwner, role)
}

func TestRoomCRUD(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := mkUser(t, db, "owner")
	s := mkServer(t, db, owner)

	r := domain.NewRoom(s.ID, "alpha", domain.VoiceOpen)
	require.NoError(t, db.CreateRoom(ctx, r))

	got, err := db.RoomByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name)
	assert.Equal(t, domain.VoiceOpen, got.VoiceMode)

	require.NoError(t, db.CreateRoom(ctx, domain.NewRoom(s.ID, "bravo", domain.VoicePTT)))
	rooms, err := db.RoomsByServer(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	deleted, err := db.DeleteRoom(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = db.DeleteRoom(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = db.RoomByID(ctx, r.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestMuteLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := mkUser(t, db, "owner")
	target := mkUser(t, db, "target")
	s := mkServer(t, db, owner)

	muted, err := db.IsMuted(ctx, s.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, muted)

	m := &domain.Mute{ServerID: s.ID, UserID: target.ID, MutedBy: owner.ID, Reason: "one", MutedAt: time.Now().UTC()}
	require.NoError(t, db.UpsertMute(ctx, m))
	m.Reason = "two"
	require.NoError(t, db.UpsertMute(ctx, m))

	muted, err = db.IsMuted(ctx, s.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, muted)

	set, err := db.MutedSet(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, map[domain.UserID]bool{target.ID: true}, set)

	removed, err := db.DeleteMute(ctx, s.ID, target.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = db.DeleteMute(ctx, s.ID, target.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestActiveKickLazyExpiry(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	owner := mkUser(t, db, "owner")
	target := mkUser(t, db, "target")
	s := mkServer(t, db, owner)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	old := &domain.Kick{
		ID: "k-old", ServerID: s.ID, UserID: target.ID, KickedBy: owner.ID,
		KickedAt: base.Add(-2 * time.Hour), ExpiresAt: base.Add(-time.Hour),
	}
	fresh := &domain.Kick{
		ID: "k-new", ServerID: s.ID, UserID: target.ID, KickedBy: owner.ID,
		Reason: "again", KickedAt: base, ExpiresAt: base.Add(30 * time.Minute),
	}
	require.NoError(t, db.InsertKick(ctx, old))
	require.NoError(t, db.InsertKick(ctx, fresh))

	k, err := db.ActiveKick(ctx, s.ID, target.ID, base)
	require.NoError(t, err)
	require.NotNil(t, k)
	assert.Equal(t, "k-new", k.ID)
	assert.Equal(t, "again", k.Reason)

	// Expired rows stay in the table but are never selected.
	k, err = db.ActiveKick(ctx, s.ID, target.ID, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, k)

	// Scoped per server and per user.
	k, err = db.ActiveKick(ctx, "other-server", target.ID, base)
	require.NoError(t, err)
	assert.Nil(t, k)
	k, err = db.ActiveKick(ctx, s.ID, owner.ID, base)
	require.NoError(t, err)
	assert.Nil(t, k)
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/exortc/server/internal/app"
	"github.com/exortc/server/internal/domain"
	"github.com/exortc/server/internal/store"
)

type ServerHandler struct {
	DB    *store.DB
	Coord *app.Coordinator
}

func (h *ServerHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Server name is required"})
		return
	}

	user := currentUser(c)
	server := domain.NewServer(req.Name, user.ID)
	if err := h.DB.CreateServer(c.Request.Context(), server); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"server": server})
}

func (h *ServerHandler) List(c *gin.Context) {
	servers, err := h.DB.ServersByUserID(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

func (h *ServerHandler) Join(c *gin.Context) {
	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.InviteCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invite code is required"})
		return
	}

	ctx := c.Request.Context()
	server, err := h.DB.ServerByInviteCode(ctx, req.InviteCode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invite code"})
		return
	}

	user := currentUser(c)
	// An unexpired kick blocks re-joining for the rest of the window.
	kick, err := h.DB.ActiveKick(ctx, server.ID, user.ID, time.Now())
	if err != nil {
		respondErr(c, err)
		return
	}
	if kick != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are kicked from this server"})
		return
	}

	if err := h.DB.AddMember(ctx, server.ID, user.ID, domain.RoleMember); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"server": server})
}

func (h *ServerHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	server, err := h.DB.ServerByID(ctx, domain.ServerID(c.Param("id")))
	if err != nil {
		respondErr(c, err)
		return
	}
	members, err := h.memberViews(c, server.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"server": server, "members": members})
}

func (h *ServerHandler) Members(c *gin.Context) {
	members, err := h.memberViews(c, domain.ServerID(c.Param("id")))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *ServerHandler) UpdateRole(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid user_id and role required"})
		return
	}
	role := domain.Role(req.Role)
	if !role.Assignable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid user_id and role required"})
		return
	}

	ctx := c.Request.Context()
	serverID := domain.ServerID(c.Param("id"))
	actorRole, err := h.DB.RoleOf(ctx, serverID, currentUser(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !app.CanManageMembers(actorRole) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied: cannot manage members"})
		return
	}

	ok, err := h.DB.UpdateMemberRole(ctx, serverID, domain.UserID(req.UserID), role)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": ok})
}

type memberView struct {
	UserID        domain.UserID `json:"user_id"`
	Username      string        `json:"username"`
	Role          domain.Role   `json:"role"`
	IsServerMuted bool          `json:"isServerMuted"`
}

func (h *ServerHandler) memberViews(c *gin.Context, serverID domain.ServerID) ([]memberView, error) {
	ctx := c.Request.Context()
	members, err := h.DB.ServerMembers(ctx, serverID)
	if err != nil {
		return nil, err
	}
	muted, err := h.DB.MutedSet(ctx, serverID)
	if err != nil {
		return nil, err
	}
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		out = append(out, memberView{
			UserID:        m.UserID,
			Username:      m.Username,
			Role:          m.Role,
			IsServerMuted: muted[m.UserID],
		})
	}
	return out, nil
}

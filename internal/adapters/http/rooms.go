package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/exortc/server/internal/app"
	"github.com/exortc/server/internal/domain"
	"github.com/exortc/server/internal/store"
)

type RoomHandler struct {
	DB    *store.DB
	Coord *app.Coordinator
}

type roomView struct {
	domain.Room
	MemberCount int `json:"member_count"`
}

// List returns the server's rooms with live occupant counts. Occupancy
// is runtime state, so counts come from the coordinator, not the store.
func (h *RoomHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	serverID := domain.ServerID(c.Param("id"))
	if _, err := h.DB.ServerByID(ctx, serverID); err != nil {
		respondErr(c, err)
		return
	}
	rooms, err := h.DB.RoomsByServer(ctx, serverID)
	if err != nil {
		respondErr(c, err)
		return
	}

	counts := h.Coord.Registry.OccupantCounts()
	out := make([]roomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomView{Room: r, MemberCount: counts[r.ID]})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

func (h *RoomHandler) Create(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		VoiceMode string `json:"voice_mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name is required"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if len(name) > domain.MaxRoomNameLen {
		name = name[:domain.MaxRoomNameLen]
	}

	ctx := c.Request.Context()
	serverID := domain.ServerID(c.Param("id"))
	role, err := h.DB.RoleOf(ctx, serverID, currentUser(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !app.CanCreateOrDeleteRooms(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied: cannot manage rooms"})
		return
	}

	room := domain.NewRoom(serverID, name, domain.VoiceMode(req.VoiceMode))
	if err := h.DB.CreateRoom(ctx, room); err != nil {
		respondErr(c, err)
		return
	}
	h.Coord.NotifyRoomsUpdated(serverID)
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.DB.RoomByID(c.Request.Context(), domain.RoomID(c.Param("id")))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *RoomHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	room, err := h.DB.RoomByID(ctx, domain.RoomID(c.Param("id")))
	if err != nil {
		respondErr(c, err)
		return
	}

	role, err := h.DB.RoleOf(ctx, room.ServerID, currentUser(c).ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if !app.CanCreateOrDeleteRooms(role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied: cannot manage rooms"})
		return
	}

	if err := h.Coord.DeleteRoom(ctx, room); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exortc/server/internal/adapters/signal"
	"github.com/exortc/server/internal/app"
	"github.com/exortc/server/internal/apperr"
	"github.com/exortc/server/internal/auth"
	"github.com/exortc/server/internal/config"
	"github.com/exortc/server/internal/domain"
	"github.com/exortc/server/internal/store"
)

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, db *store.DB, tokens *auth.Tokens) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := &AuthHandler{DB: db, Tokens: tokens}
	serverH := &ServerHandler{DB: db, Coord: coord}
	roomH := &RoomHandler{DB: db, Coord: coord}
	wsCtl := signal.NewController(coord, cfg)

	api := r.Group("/api")

	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)

	api.GET("/ws", func(c *gin.Context) {
		wsCtl.HandleSignal(ctx, c)
	})

	authed := api.Group("", AuthRequired(coord))
	{
		authed.GET("/auth/me", authH.Me)
		authed.PUT("/auth/profile/color", authH.UpdateColor)

		authed.POST("/servers", serverH.Create)
		authed.GET("/servers", serverH.List)
		authed.POST("/servers/join", serverH.Join)
		authed.GET("/servers/:id", serverH.Get)
		authed.GET("/servers/:id/members", serverH.Members)
		authed.POST("/servers/:id/role", serverH.UpdateRole)

		authed.GET("/servers/:id/rooms", roomH.List)
		authed.POST("/servers/:id/rooms", roomH.Create)
		authed.GET("/rooms/:id", roomH.Get)
		authed.DELETE("/rooms/:id", roomH.Delete)
	}

	return r
}

// AuthRequired resolves the Bearer header to a user and stores it in
// the request context. Unauthenticated requests stop here.
func AuthRequired(coord *app.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}
		user, err := coord.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.MessageOf(err)})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Get("user")
	user, _ := u.(*domain.User)
	return user
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

func respondErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidArgument:
		status = http.StatusBadRequest
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeConflict:
		status = http.StatusBadRequest
	case apperr.CodeForbidden:
		status = http.StatusForbidden
	case apperr.CodeUnauthenticated:
		status = http.StatusUnauthorized
	}
	c.JSON(status, gin.H{"error": apperr.MessageOf(err)})
}

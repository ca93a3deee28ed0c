// Package httpapi exposes the REST surface for room management and
// the websocket entry point.
package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/inklink/boardserver/internal/auth"
	"github.com/inklink/boardserver/internal/room"
	"github.com/inklink/boardserver/internal/session"
	"github.com/inklink/boardserver/internal/store"
)

// API carries the handlers' collaborators.
type API struct {
	rooms  *room.Registry
	hub    *session.Hub
	store  store.SnapshotStore
	tokens *auth.JWTManager // nil disables token auth, everyone is a guest
	log    zerolog.Logger
}

func New(rooms *room.Registry, hub *session.Hub, snapshots store.SnapshotStore, tokens *auth.JWTManager, log zerolog.Logger) *API {
	return &API{
		rooms:  rooms,
		hub:    hub,
		store:  snapshots,
		tokens: tokens,
		log:    log,
	}
}

// Register mounts all routes on the echo instance.
func (a *API) Register(e *echo.Echo) {
	e.GET("/healthz", a.health)
	e.GET("/ws", a.websocket)

	api := e.Group("/api")
	api.POST("/rooms", a.createRoom)
	api.GET("/rooms/join/:code", a.joinByCode)
	api.GET("/rooms/:id", a.getRoom)
	api.PATCH("/rooms/:id/canvas", a.saveCanvas)
	api.DELETE("/rooms/:id", a.deleteRoom)
}

type createRoomRequest struct {
	Name string `json:"name"`
}

type roomSummary struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Members   int       `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

func summarize(rm *room.Room) roomSummary {
	return roomSummary{
		ID:        rm.ID,
		Code:      rm.Code,
		Name:      rm.Name,
		Members:   rm.MemberCount(),
		CreatedAt: rm.CreatedAt,
	}
}

func (a *API) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  a.rooms.Count(),
	})
}

func (a *API) createRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	rm, err := a.rooms.Create(req.Name)
	if err != nil {
		a.log.Error().Err(err).Msg("create room failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create room")
	}
	a.log.Info().Str("room", rm.ID).Str("code", rm.Code).Msg("room created")
	return c.JSON(http.StatusCreated, summarize(rm))
}

func (a *API) joinByCode(c echo.Context) error {
	rm, ok := a.rooms.GetByCode(c.Param("code"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "room not found")
	}
	return c.JSON(http.StatusOK, summarize(rm))
}

func (a *API) getRoom(c echo.Context) error {
	rm, ok := a.rooms.Resolve(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "room not found")
	}
	return c.JSON(http.StatusOK, summarize(rm))
}

type saveCanvasRequest struct {
	CanvasData string `json:"canvasData"`
}

func (a *API) saveCanvas(c echo.Context) error {
	rm, ok := a.rooms.Resolve(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "room not found")
	}
	var req saveCanvasRequest
	if err := c.Bind(&req); err != nil || req.CanvasData == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "canvasData required")
	}
	if err := a.store.Save(c.Request().Context(), rm.Code, req.CanvasData); err != nil {
		a.log.Error().Err(err).Str("room", rm.ID).Msg("canvas save failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not save canvas")
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) deleteRoom(c echo.Context) error {
	rm, ok := a.rooms.Resolve(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "room not found")
	}
	a.rooms.Delete(rm.ID)
	a.log.Info().Str("room", rm.ID).Msg("room deleted")
	return c.NoContent(http.StatusNoContent)
}

// websocket resolves the caller's identity and hands the connection to
// the hub. A bad or missing token degrades to a guest name rather than
// rejecting the connection.
func (a *API) websocket(c echo.Context) error {
	username := a.resolveUsername(c)
	return a.hub.ServeWS(c.Response().Writer, c.Request(), username)
}

func (a *API) resolveUsername(c echo.Context) string {
	if a.tokens != nil {
		if token := c.QueryParam("token"); token != "" {
			if username, err := a.tokens.Verify(token); err == nil {
				return username
			}
			a.log.Debug().Msg("invalid token, falling back to guest")
		}
	}
	if username := c.QueryParam("username"); username != "" {
		return username
	}
	return auth.GuestName()
}

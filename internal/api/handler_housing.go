package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
)

// ListBuildings handles GET /api/buildings?address=.
func (h *Handler) ListBuildings(c *gin.Context) {
	list, err := h.registry.ListBuildings(c.Request.Context(), store.BuildingFilter{Address: c.Query("address")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetBuilding(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.registry.GetBuilding(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CreateBuilding(c *gin.Context) {
	var b model.Building
	if !bindJSON(c, &b) {
		return
	}
	if err := h.registry.CreateBuilding(c.Request.Context(), &b); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) UpdateBuilding(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var b model.Building
	if !bindJSON(c, &b) {
		return
	}
	updated, err := h.registry.UpdateBuilding(c.Request.Context(), id, b)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteBuilding(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.guards.DeleteBuilding(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRooms handles GET /api/rooms?building_id=.
func (h *Handler) ListRooms(c *gin.Context) {
	var f store.RoomFilter
	if raw := c.Query("building_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, apperr.NewValidation("building_id", "некорректный идентификатор"))
			return
		}
		f.BuildingID = id
	}
	rooms, err := h.registry.ListRooms(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	room, err := h.registry.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var room model.Room
	if !bindJSON(c, &room) {
		return
	}
	if err := h.registry.CreateRoom(c.Request.Context(), &room); err != nil {
		respondError(c, err)
		return
	}
	created, err := h.registry.GetRoom(c.Request.Context(), room.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var room model.Room
	if !bindJSON(c, &room) {
		return
	}
	updated, err := h.registry.UpdateRoom(c.Request.Context(), id, room)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.guards.DeleteRoom(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormitory-backend/internal/occupancy"
)

type occupancyResponse struct {
	RoomID      int64                 `json:"room_id"`
	Occupancy   int                   `json:"occupancy"`
	Capacity    int                   `json:"capacity"`
	Free        int                   `json:"free"`
	Composition occupancy.Composition `json:"composition"`
}

// GetRoomOccupancy handles GET /api/rooms/:id/occupancy.
func (h *Handler) GetRoomOccupancy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	room, err := h.registry.GetRoom(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	state, err := h.engine.RoomState(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	free := room.Capacity - state.Occupancy
	if free < 0 {
		free = 0
	}
	c.JSON(http.StatusOK, occupancyResponse{
		RoomID:      id,
		Occupancy:   state.Occupancy,
		Capacity:    room.Capacity,
		Free:        free,
		Composition: state.Composition,
	})
}

// AdmitCheckin handles POST /api/checkins.
func (h *Handler) AdmitCheckin(c *gin.Context) {
	var req occupancy.Admission
	if !bindJSON(c, &req) {
		return
	}
	checkin, err := h.engine.AdmitCheckin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkin)
}

// AdmitCheckout handles POST /api/checkouts.
func (h *Handler) AdmitCheckout(c *gin.Context) {
	var req occupancy.Release
	if !bindJSON(c, &req) {
		return
	}
	checkout, err := h.engine.AdmitCheckout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkout)
}

func (h *Handler) ListCheckins(c *gin.Context) {
	rows, err := h.engine.AllCheckins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) ListActiveCheckins(c *gin.Context) {
	rows, err := h.engine.ActiveCheckins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) ListCheckouts(c *gin.Context) {
	rows, err := h.engine.AllCheckouts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

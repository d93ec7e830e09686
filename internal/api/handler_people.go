package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
)

// ListStudents handles GET /api/students?group=&gender=.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.registry.ListStudents(c.Request.Context(), store.StudentFilter{
		Group:  c.Query("group"),
		Gender: model.Gender(c.Query("gender")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s, err := h.registry.GetStudent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var s model.Student
	if !bindJSON(c, &s) {
		return
	}
	if err := h.registry.CreateStudent(c.Request.Context(), &s); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) UpdateStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var s model.Student
	if !bindJSON(c, &s) {
		return
	}
	updated, err := h.registry.UpdateStudent(c.Request.Context(), id, s)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.guards.DeleteStudent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchStudents handles GET /api/students/search?q=&limit=.
func (h *Handler) SearchStudents(c *gin.Context) {
	var q struct {
		Query string `form:"q"`
		Limit int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, apperr.NewValidation("limit", "должно быть целым числом"))
		return
	}
	res, err := h.search.Students(c.Request.Context(), q.Query, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListCommandants(c *gin.Context) {
	list, err := h.registry.ListCommandants(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetCommandant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cmd, err := h.registry.GetCommandant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

func (h *Handler) CreateCommandant(c *gin.Context) {
	var cmd model.Commandant
	if !bindJSON(c, &cmd) {
		return
	}
	if err := h.registry.CreateCommandant(c.Request.Context(), &cmd); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cmd)
}

func (h *Handler) UpdateCommandant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var cmd model.Commandant
	if !bindJSON(c, &cmd) {
		return
	}
	updated, err := h.registry.UpdateCommandant(c.Request.Context(), id, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteCommandant(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.guards.DeleteCommandant(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

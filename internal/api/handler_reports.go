package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"dormitory-backend/internal/export"
	"dormitory-backend/internal/store"
)

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	d, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// ExportStudents handles GET /api/export/students.csv.
func (h *Handler) ExportStudents(c *gin.Context) {
	students, err := h.registry.ListStudents(c.Request.Context(), store.StudentFilter{})
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "students.csv")
	if err := export.Students(c.Writer, students); err != nil {
		log.Printf("export students: %v", err)
	}
}

// ExportCheckins handles GET /api/export/checkins.csv.
func (h *Handler) ExportCheckins(c *gin.Context) {
	rows, err := h.engine.AllCheckins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, "checkins.csv")
	if err := export.Checkins(c.Writer, rows); err != nil {
		log.Printf("export checkins: %v", err)
	}
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dormitory-backend/internal/apperr"
)

// respondError writes err as {"error", "code", "details"} with a status
// matching its kind. Store failures get a generic message.
func respondError(c *gin.Context, err error) {
	status, body := errorBody(err)
	c.AbortWithStatusJSON(status, body)
}

func errorBody(err error) (int, gin.H) {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		full       *apperr.RoomFullError
		mismatch   *apperr.GenderMismatchError
		closed     *apperr.AlreadyCheckedOutError
		housed     *apperr.AlreadyHousedError
		conflict   *apperr.ReferentialConflictError
	)
	code := apperr.CodeOf(err)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, gin.H{"error": "validation failed", "code": code, "details": validation.Fields}
	case errors.As(err, &notFound):
		return http.StatusNotFound, gin.H{"error": err.Error(), "code": code, "details": gin.H{
			"entity": notFound.Entity, "id": notFound.ID,
		}}
	case errors.As(err, &full):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": code, "details": gin.H{
			"room_id": full.RoomID, "occupancy": full.Occupancy, "capacity": full.Capacity,
		}}
	case errors.As(err, &mismatch):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": code, "details": gin.H{
			"room_id": mismatch.RoomID, "student_gender": mismatch.StudentGender, "room_gender": mismatch.RoomGender,
		}}
	case errors.As(err, &closed):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": code, "details": gin.H{
			"checkin_id": closed.CheckinID,
		}}
	case errors.As(err, &housed):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": code, "details": gin.H{
			"student_id": housed.StudentID, "checkin_id": housed.CheckinID,
		}}
	case errors.As(err, &conflict):
		return http.StatusConflict, gin.H{"error": err.Error(), "code": code, "details": gin.H{
			"entity": conflict.Entity, "id": conflict.ID, "relation": conflict.Relation, "count": conflict.Count,
		}}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, gin.H{"error": "request timed out"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "internal error", "code": apperr.CodeStore}
	}
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.NewValidation("id", "некорректный идентификатор"))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the request body into v.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperr.NewValidation("body", err.Error()))
		return false
	}
	return true
}

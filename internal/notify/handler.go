package notify

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	job *Job
	now func() time.Time
}

// RegisterRoutes mounts the manual batch trigger. Callers must already be
// authenticated as ADMIN.
func RegisterRoutes(r gin.IRoutes, job *Job) {
	h := &Handler{job: job, now: time.Now}
	r.POST("/summaries/run", h.runSummaries)
}

type runRequest struct {
	Date string `json:"date"` // YYYY-MM-DD, defaults to today
}

func (h *Handler) runSummaries(c *gin.Context) {
	var req runRequest
	_ = c.ShouldBindJSON(&req)

	asOf := h.now()
	if req.Date != "" {
		t, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ARGUMENT", "message": "date must be YYYY-MM-DD"})
			return
		}
		asOf = t
	}

	stats, err := h.job.RunDailySummary(c.Request.Context(), asOf)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

package participation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/participations", h.OpenRound)
	r.PUT("/participations/:id/close", h.CloseRound)
	r.GET("/participations/open", h.OpenRounds)
	r.POST("/participation-requests", h.SubmitBid)
	r.GET("/participation-requests", h.ListBidsByQuery)
	r.GET("/participations/:id/requests", h.ListBids)
	r.POST("/participation-requests/evaluate", h.Evaluate)
}

type OpenRoundRequest struct {
	SessionID  uint64 `json:"course_schedule_id" binding:"required"`
	LecturerID uint64 `json:"lecturer_id" binding:"required"`
	Topic      string `json:"topic"`
}

// POST /participations
func (h *Handler) OpenRound(c *gin.Context) {
	var req OpenRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errInvalid("invalid json or missing required fields"))
		return
	}

	round, err := h.svc.OpenRound(c.Request.Context(), req.SessionID, req.LecturerID, req.Topic)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, round)
}

// PUT /participations/:id/close
func (h *Handler) CloseRound(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roundID == 0 {
		c.JSON(http.StatusBadRequest, errInvalid("invalid participation id"))
		return
	}

	round, err := h.svc.CloseRound(c.Request.Context(), roundID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, round)
}

// GET /participations/open?course_schedule_id=
func (h *Handler) OpenRounds(c *gin.Context) {
	sessionID, err := strconv.ParseUint(c.Query("course_schedule_id"), 10, 64)
	if err != nil || sessionID == 0 {
		c.JSON(http.StatusBadRequest, errInvalid("course_schedule_id is required"))
		return
	}

	rounds, err := h.svc.OpenRounds(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, rounds)
}

type SubmitBidRequest struct {
	RoundID   uint64 `json:"participation_id" binding:"required"`
	StudentID uint64 `json:"student_id" binding:"required"`
}

// POST /participation-requests
func (h *Handler) SubmitBid(c *gin.Context) {
	var req SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errInvalid("invalid json or missing required fields"))
		return
	}

	bid, err := h.svc.SubmitBid(c.Request.Context(), req.RoundID, req.StudentID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// GET /participation-requests?participation_id=
func (h *Handler) ListBidsByQuery(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Query("participation_id"), 10, 64)
	if err != nil || roundID == 0 {
		c.JSON(http.StatusBadRequest, errInvalid("participation_id is required"))
		return
	}
	h.listBids(c, roundID)
}

// GET /participations/:id/requests
func (h *Handler) ListBids(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roundID == 0 {
		c.JSON(http.StatusBadRequest, errInvalid("invalid participation id"))
		return
	}
	h.listBids(c, roundID)
}

func (h *Handler) listBids(c *gin.Context, roundID uint64) {
	bids, err := h.svc.Bids(c.Request.Context(), roundID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, bids)
}

type EvaluateRequest struct {
	Evaluates []BidScore `json:"evaluates" binding:"required"`
}

// POST /participation-requests/evaluate
func (h *Handler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errInvalid("invalid json or missing required fields"))
		return
	}

	outcomes := h.svc.Evaluate(c.Request.Context(), req.Evaluates)
	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}

func errorFromErr(err error) *APIError {
	if api, ok := err.(*APIError); ok {
		return api
	}
	return errInternal(err.Error())
}

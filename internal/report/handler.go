package report

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/reports/:courseId", h.getReport)
	r.GET("/reports/:courseId/export", h.exportReport)
}

func (h *Handler) getReport(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errInvalid("invalid course id"))
		return
	}
	rep, err := h.svc.BuildReport(c.Request.Context(), courseID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) exportReport(c *gin.Context) {
	courseID, err := strconv.ParseUint(c.Param("courseId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errInvalid("invalid course id"))
		return
	}
	blob, filename, err := h.svc.Export(c.Request.Context(), courseID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorBody(err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", blob)
}

func errorBody(err error) *APIError {
	if api, ok := err.(*APIError); ok {
		return api
	}
	return errInternal(err.Error())
}

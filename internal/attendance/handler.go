package attendance

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Recognizer resolves a face image to a student id. Implemented by the
// faceclient package; the matching itself lives in an external service.
type Recognizer interface {
	Recognize(ctx context.Context, filename string, image io.Reader) (uint64, error)
}

type Handler struct {
	svc  *Service
	face Recognizer
}

func RegisterRoutes(r gin.IRoutes, svc *Service, face Recognizer) {
	h := &Handler{svc: svc, face: face}

	// kiosk check-in: face image + course/schedule ids (multipart)
	r.POST("/attendances/check-in", h.CheckIn)
	// cumulative summary for one student in one course
	r.GET("/attendances/summary", h.GetSummary)
}

// POST /attendances/check-in
func (h *Handler) CheckIn(c *gin.Context) {
	courseID, err1 := strconv.ParseUint(c.PostForm("course_id"), 10, 64)
	sessionID, err2 := strconv.ParseUint(c.PostForm("course_schedule_id"), 10, 64)
	if err1 != nil || err2 != nil || courseID == 0 || sessionID == 0 {
		c.JSON(http.StatusBadRequest, errInvalid("course_id and course_schedule_id are required"))
		return
	}

	ctx := c.Request.Context()

	// either a pre-resolved student id or a face image to recognize
	studentID, _ := strconv.ParseUint(c.PostForm("student_id"), 10, 64)
	if studentID == 0 {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, errInvalid("student_id or file is required"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, errInvalid("cannot read uploaded file"))
			return
		}
		defer file.Close()

		studentID, err = h.face.Recognize(ctx, fileHeader.Filename, file)
		if err != nil {
			c.JSON(http.StatusBadGateway, errInternal("face recognition failed: "+err.Error()))
			return
		}
	}

	rec, err := h.svc.RecordCheckIn(ctx, studentID, courseID, sessionID, h.svc.now())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, rec.toCheckInResponse())
}

// GET /attendances/summary?student_id=&course_id=
func (h *Handler) GetSummary(c *gin.Context) {
	studentID, err1 := strconv.ParseUint(c.Query("student_id"), 10, 64)
	courseID, err2 := strconv.ParseUint(c.Query("course_id"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, errInvalid("student_id and course_id are required"))
		return
	}

	sum, err := h.svc.GetSummary(c.Request.Context(), studentID, courseID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	if sum == nil {
		c.JSON(http.StatusNotFound, &APIError{Code: CodeNotFound, Message: "summary not found"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func errorFromErr(err error) *APIError {
	if api, ok := err.(*APIError); ok {
		return api
	}
	return errInternal(err.Error())
}

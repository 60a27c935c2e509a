package faceclient

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	client *Client
}

func RegisterRoutes(r gin.IRoutes, client *Client) {
	h := &Handler{client: client}
	r.POST("/face-register", h.RegisterFace)
}

// POST /face-register (multipart: user_id, files)
func (h *Handler) RegisterFace(c *gin.Context) {
	userID, err := strconv.ParseUint(c.PostForm("user_id"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ARGUMENT", "message": "user_id is required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ARGUMENT", "message": "at least one files entry is required"})
		return
	}

	ctx := c.Request.Context()
	for _, fh := range form.File["files"] {
		file, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ARGUMENT", "message": "cannot read uploaded file"})
			return
		}
		err = h.client.Register(ctx, userID, fh.Filename, file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"code": "INTERNAL", "message": "face register failed: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "Success", "user_id": userID})
}

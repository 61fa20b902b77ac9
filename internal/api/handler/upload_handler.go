package handler

import (
	"errors"
	"net/http"

	"garage_config/internal/domain"
	"garage_config/internal/service"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService *service.UploadService
	githubService *service.GitHubService
}

func NewUploadHandler(us *service.UploadService, gh *service.GitHubService) *UploadHandler {
	return &UploadHandler{uploadService: us, githubService: gh}
}

// POST /api/upload (multipart: file, optional garageId)
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read uploaded file", "details": err.Error()})
		return
	}
	defer src.Close()

	upload, err := h.uploadService.Save(fh.Filename, src, c.PostForm("garageId"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidUpload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, upload)
}

// POST /api/github/push
func (h *UploadHandler) PushToGitHub(c *gin.Context) {
	var req domain.GitHubPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.githubService.Push(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

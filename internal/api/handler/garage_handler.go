package handler

import (
	"errors"
	"fmt"
	"net/http"

	"garage_config/internal/domain"
	"garage_config/internal/service"

	"github.com/gin-gonic/gin"
	"gopkg.in/guregu/null.v4"
)

// MaxImportBytes caps the body of an import request.
const MaxImportBytes = 5 << 20

type GarageHandler struct {
	garageService *service.GarageService
}

func NewGarageHandler(gs *service.GarageService) *GarageHandler {
	return &GarageHandler{garageService: gs}
}

// GET /api/garages
func (h *GarageHandler) GetAllGarages(c *gin.Context) {
	status := c.Query("status")
	garages, err := h.garageService.List(c.Request.Context(), domain.GarageFilter{Status: null.NewString(status, status != "")})
	if err != nil {
		writeServiceError(c, err, "Failed to list garages")
		return
	}
	c.JSON(http.StatusOK, garages)
}

// GET /api/garages/:id
func (h *GarageHandler) GetGarageByID(c *gin.Context) {
	garage, err := h.garageService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "Failed to load garage")
		return
	}
	c.JSON(http.StatusOK, garage)
}

// POST /api/garages
func (h *GarageHandler) CreateGarage(c *gin.Context) {
	var dto domain.GarageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	garage, err := h.garageService.Create(c.Request.Context(), dto)
	if err != nil {
		writeServiceError(c, err, "Failed to create garage")
		return
	}
	c.JSON(http.StatusCreated, garage)
}

// PUT /api/garages/:id
func (h *GarageHandler) UpdateGarage(c *gin.Context) {
	var dto domain.GarageUpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	garage, err := h.garageService.Update(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		writeServiceError(c, err, "Failed to update garage")
		return
	}
	c.JSON(http.StatusOK, garage)
}

// DELETE /api/garages/:id
func (h *GarageHandler) DeleteGarage(c *gin.Context) {
	if err := h.garageService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err, "Failed to delete garage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Garage deleted successfully"})
}

// GET /api/garages/:id/export?format=yaml|json
func (h *GarageHandler) ExportGarage(c *gin.Context) {
	format, err := service.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := h.garageService.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		writeServiceError(c, err, "Failed to export garage")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// POST /api/garages/import?format=yaml|json
func (h *GarageHandler) ImportGarage(c *gin.Context) {
	format := service.FormatFromContentType(c.ContentType())
	if q := c.Query("format"); q != "" {
		var err error
		if format, err = service.ParseFormat(q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImportBytes)
	body, err := c.GetRawData()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Garage config is too large", "details": err.Error()})
		return
	}
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request body must contain a garage config"})
		return
	}
	garage, err := h.garageService.Import(c.Request.Context(), body, format)
	if err != nil {
		writeServiceError(c, err, "Failed to import garage")
		return
	}
	c.JSON(http.StatusCreated, garage)
}

type resizeLevelsRequest struct {
	Levels int `json:"levels" binding:"required"`
}

// PUT /api/garages/:id/levels
func (h *GarageHandler) ResizeLevels(c *gin.Context) {
	var req resizeLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	garage, err := h.garageService.ResizeLevels(c.Request.Context(), c.Param("id"), req.Levels)
	if err != nil {
		writeServiceError(c, err, "Failed to resize garage")
		return
	}
	c.JSON(http.StatusOK, garage)
}

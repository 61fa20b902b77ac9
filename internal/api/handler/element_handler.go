package handler

import (
	"net/http"

	"garage_config/internal/domain"
	"garage_config/internal/service"

	"github.com/gin-gonic/gin"
)

// ElementHandler exposes the level editor over REST. Each call loads the
// garage, applies one edit and saves it.
type ElementHandler struct {
	garageService *service.GarageService
}

func NewElementHandler(gs *service.GarageService) *ElementHandler {
	return &ElementHandler{garageService: gs}
}

type addElementRequest struct {
	Type     string         `json:"type" binding:"required"`
	Position domain.Vector3 `json:"position"`
}

type moveElementRequest struct {
	Position *domain.Vector3 `json:"position" binding:"required"`
}

// editResult reports whether the addressed element existed. Edits of a
// missing element succeed without changing anything.
type editResult struct {
	Found  bool           `json:"found"`
	Garage *domain.Garage `json:"garage"`
}

// POST /api/garages/:id/levels/:level/elements
func (h *ElementHandler) AddElement(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	var req addElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	placed, err := h.garageService.AddElement(c.Request.Context(), c.Param("id"), level, req.Type, req.Position)
	if err != nil {
		writeServiceError(c, err, "Failed to add element")
		return
	}
	c.JSON(http.StatusCreated, placed)
}

// PATCH /api/garages/:id/levels/:level/elements/:type/:elementId
func (h *ElementHandler) UpdateElement(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	var patch domain.ElementPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	garage, found, err := h.garageService.UpdateElement(c.Request.Context(), c.Param("id"), level, c.Param("type"), c.Param("elementId"), patch)
	if err != nil {
		writeServiceError(c, err, "Failed to update element")
		return
	}
	c.JSON(http.StatusOK, editResult{Found: found, Garage: garage})
}

// DELETE /api/garages/:id/levels/:level/elements/:type/:elementId
func (h *ElementHandler) DeleteElement(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	garage, found, err := h.garageService.DeleteElement(c.Request.Context(), c.Param("id"), level, c.Param("type"), c.Param("elementId"))
	if err != nil {
		writeServiceError(c, err, "Failed to delete element")
		return
	}
	c.JSON(http.StatusOK, editResult{Found: found, Garage: garage})
}

// PUT /api/garages/:id/levels/:level/elements/:elementId/position
func (h *ElementHandler) MoveElement(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	var req moveElementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	garage, found, err := h.garageService.MoveElement(c.Request.Context(), c.Param("id"), level, c.Param("elementId"), *req.Position)
	if err != nil {
		writeServiceError(c, err, "Failed to move element")
		return
	}
	c.JSON(http.StatusOK, editResult{Found: found, Garage: garage})
}

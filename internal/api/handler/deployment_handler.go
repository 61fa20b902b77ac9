package handler

import (
	"errors"
	"net/http"

	"garage_config/internal/service"

	"github.com/gin-gonic/gin"
)

type DeploymentHandler struct {
	deployService *service.DeployService
}

func NewDeploymentHandler(ds *service.DeployService) *DeploymentHandler {
	return &DeploymentHandler{deployService: ds}
}

// POST /api/garages/:id/deploy
func (h *DeploymentHandler) DeployGarage(c *gin.Context) {
	d, err := h.deployService.Deploy(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, d)
	case errors.Is(err, service.ErrPublisherUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDeployFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "deployment": d})
	default:
		writeServiceError(c, err, "Failed to deploy garage config")
	}
}

// GET /api/deployments
func (h *DeploymentHandler) GetDeployments(c *gin.Context) {
	deployments, err := h.deployService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list deployments", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, deployments)
}

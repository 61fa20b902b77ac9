package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type DeploymentStatus string

const (
	DeploymentPending DeploymentStatus = "pending"
	DeploymentSuccess DeploymentStatus = "success"
	DeploymentFailed  DeploymentStatus = "failed"
)

// Deployment records one attempt to push a garage config to its devices.
type Deployment struct {
	ID         string           `json:"id"`
	GarageID   string           `json:"garageId"`
	GarageName string           `json:"garage"`
	Version    string           `json:"version"`
	Topic      string           `json:"topic"`
	Status     DeploymentStatus `json:"status"`
	Error      null.String      `json:"error"`
	DeployedAt time.Time        `json:"deployedAt"`
}

// Upload describes a file stored by the upload endpoint.
type Upload struct {
	Filename string      `json:"filename"`
	Path     string      `json:"path"`
	Size     int64       `json:"size"`
	GarageID null.String `json:"garageId"`
}

type GitHubPushRequest struct {
	GarageID string `json:"garageId" binding:"required"`
	Content  string `json:"content"`
}

type GitHubPushResult struct {
	Message string `json:"message"`
	Repo    string `json:"repo"`
	File    string `json:"file"`
}

package service

import (
	"errors"
	"fmt"

	"garage_config/internal/config"
	"garage_config/internal/domain"
)

var ErrGitHubNotConfigured = errors.New("GitHub configuration missing. Please set environment variables.")

// GitHubService acknowledges config pushes. It checks the repository
// settings and reports where the file would go; nothing is pushed.
type GitHubService struct {
	token string
	owner string
	repo  string
}

func NewGitHubService(cfg *config.Config) *GitHubService {
	return &GitHubService{token: cfg.GitHubToken, owner: cfg.GitHubRepoOwner, repo: cfg.GitHubRepoName}
}

func (s *GitHubService) Push(req domain.GitHubPushRequest) (*domain.GitHubPushResult, error) {
	if s.token == "" || s.owner == "" || s.repo == "" {
		return nil, ErrGitHubNotConfigured
	}
	return &domain.GitHubPushResult{
		Message: "Config would be pushed to GitHub",
		Repo:    fmt.Sprintf("%s/%s", s.owner, s.repo),
		File:    fmt.Sprintf("configs/garage-%s.yaml", req.GarageID),
	}, nil
}

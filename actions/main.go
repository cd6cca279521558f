package actions

import (
	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/service"
)

// Actions structure
type Actions struct {
	cfg            config.Config
	service        *service.Service
	jwtTokenSecret string
	webhookSecret  string
	adminAPIKey    string
}

// NewActions constructor
func NewActions(cfg config.Config, srv *service.Service) *Actions {
	return &Actions{
		cfg:            cfg,
		service:        srv,
		jwtTokenSecret: cfg.Server.API.JWTTokenSecret,
		webhookSecret:  cfg.Server.API.WebhookSecret,
		adminAPIKey:    cfg.Server.API.AdminAPIKey,
	}
}

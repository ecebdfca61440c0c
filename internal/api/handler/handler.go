package handler

import (
	"hogis-registration/config"
	"hogis-registration/internal/service"
)

// Handler aggregate of every HTTP handler
type Handler struct {
	Auth         *AuthHandler
	Registration *RegistrationHandler
	Admin        *AdminHandler
	Export       *ExportHandler
	Notify       *NotifyHandler
	Health       *HealthHandler
}

// NewHandler builds all handlers
func NewHandler(cfg *config.Config, svc *service.Service, pinger Pinger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth),
		Registration: NewRegistrationHandler(svc.Submission),
		Admin:        NewAdminHandler(svc.Triage),
		Export:       NewExportHandler(svc.Export),
		Notify:       NewNotifyHandler(svc.Notify),
		Health:       NewHealthHandler(pinger),
	}
}

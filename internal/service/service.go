package service

import (
	"go.uber.org/zap"

	"hogis-registration/config"
	"hogis-registration/internal/repository"
	"hogis-registration/pkg/blobstore"
	"hogis-registration/pkg/imaging"
	"hogis-registration/pkg/jwt"
	"hogis-registration/pkg/notify"
	"hogis-registration/pkg/sheets"
)

// Deps external collaborators; nil Blob, Roster and Blacklist are allowed
type Deps struct {
	Encoder   *imaging.Encoder
	Blob      blobstore.Store
	Notifier  notify.Dispatcher
	Roster    sheets.Roster
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
}

// Service aggregate of every service
type Service struct {
	Auth       AuthService
	Submission SubmissionService
	Triage     TriageService
	Export     ExportService
	Notify     NotifyService
}

// NewService wires all services
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(cfg, deps.JWT, deps.Blacklist, logger),
		Submission: NewSubmissionService(cfg, repo, deps.Encoder, deps.Blob, deps.Notifier, logger),
		Triage:     NewTriageService(cfg, repo, deps.Blob, deps.Notifier, deps.Roster, logger),
		Export:     NewExportService(cfg, repo, logger),
		Notify:     NewNotifyService(deps.Notifier, logger),
	}
}

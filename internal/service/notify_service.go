package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"hogis-registration/internal/dto"
	"hogis-registration/internal/model"
	"hogis-registration/pkg/metrics"
	"hogis-registration/pkg/notify"
)

// ErrInvalidNotifyStatus status notifications only exist for the two outcomes
var ErrInvalidNotifyStatus = errors.New("Status must be either ACCEPTED or REJECTED")

// NotifyService relays notification requests from other HOGIS services to
// the configured dispatcher
type NotifyService interface {
	Confirmation(ctx context.Context, req *dto.ConfirmationNotifyRequest) (*notify.Receipt, error)
	Status(ctx context.Context, req *dto.StatusNotifyRequest) (*notify.Receipt, error)
}

type notifyService struct {
	dispatcher notify.Dispatcher
	logger     *zap.Logger
}

// NewNotifyService creates a NotifyService
func NewNotifyService(dispatcher notify.Dispatcher, logger *zap.Logger) NotifyService {
	return &notifyService{dispatcher: dispatcher, logger: logger}
}

func (s *notifyService) Confirmation(ctx context.Context, req *dto.ConfirmationNotifyRequest) (*notify.Receipt, error) {
	if s.dispatcher == nil {
		return nil, notify.ErrNotConfigured
	}
	receipt, err := s.dispatcher.SendConfirmation(ctx, req.Email, req.Name)
	metrics.Notifications.WithLabelValues(string(notify.KindConfirmation), metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("confirmation relay failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	return receipt, nil
}

func (s *notifyService) Status(ctx context.Context, req *dto.StatusNotifyRequest) (*notify.Receipt, error) {
	status, err := model.ParseStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err != nil || !status.Terminal() {
		return nil, ErrInvalidNotifyStatus
	}
	if s.dispatcher == nil {
		return nil, notify.ErrNotConfigured
	}

	var (
		kind    notify.Kind
		receipt *notify.Receipt
	)
	if status == model.StatusAccepted {
		kind = notify.KindAcceptance
		receipt, err = s.dispatcher.SendAcceptance(ctx, req.Email, req.Name)
	} else {
		kind = notify.KindRejection
		receipt, err = s.dispatcher.SendRejection(ctx, req.Email, req.Name, req.Reason)
	}
	metrics.Notifications.WithLabelValues(string(kind), metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("status relay failed",
			zap.String("email", req.Email),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return nil, err
	}
	return receipt, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hogis-registration/config"
	"hogis-registration/internal/dto"
	"hogis-registration/internal/model"
	"hogis-registration/internal/repository"
	"hogis-registration/pkg/blobstore"
	"hogis-registration/pkg/imaging"
	"hogis-registration/pkg/metrics"
	"hogis-registration/pkg/notify"
)

// ── submission errors ──

// ErrPhotoEncoding wraps every imaging failure so callers can tell encoding
// problems apart from validation and persistence
var ErrPhotoEncoding = errors.New("passport photo could not be processed")

const (
	dateLayout     = "2006-01-02"
	notifyTimeout  = 15 * time.Second
	cleanupTimeout = 10 * time.Second
	defaultBackoff = 500 * time.Millisecond
)

// SubmissionService public registration intake
type SubmissionService interface {
	// Submit validates, encodes the photo, writes the record with retries and
	// sends a best-effort confirmation. photo is nil when none was uploaded.
	Submit(ctx context.Context, req *dto.SubmitRegistrationRequest, photo *imaging.File) (*dto.SubmitRegistrationResponse, error)
}

type submissionService struct {
	cfg      *config.SubmissionConfig
	repo     *repository.Repository
	encoder  *imaging.Encoder
	photos   *photoStore
	notifier notify.Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// NewSubmissionService creates a SubmissionService. blob may be nil, in
// which case photos are chunked into the database.
func NewSubmissionService(
	cfg *config.Config,
	repo *repository.Repository,
	encoder *imaging.Encoder,
	blob blobstore.Store,
	notifier notify.Dispatcher,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		cfg:      &cfg.Submission,
		repo:     repo,
		encoder:  encoder,
		photos:   newPhotoStore(blob, cfg.Photo.ChunkSize),
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// Submit
// ═══════════════════════════════════════════════════════════

func (s *submissionService) Submit(ctx context.Context, req *dto.SubmitRegistrationRequest, photo *imaging.File) (*dto.SubmitRegistrationResponse, error) {
	// 1. validate everything that does not need the photo decoded
	age, err := s.validate(req, photo)
	if err != nil {
		metrics.Submissions.WithLabelValues("validation").Inc()
		return nil, err
	}

	// 2. encode
	encoded, err := s.encoder.Encode(ctx, *photo)
	if err != nil {
		metrics.Submissions.WithLabelValues("encoding").Inc()
		return nil, fmt.Errorf("%w: %w", ErrPhotoEncoding, err)
	}
	if encoded.DataURI == "" {
		metrics.Submissions.WithLabelValues("validation").Inc()
		return nil, invalid("passport_photo", "Passport photograph is required")
	}
	metrics.PhotoBytes.Observe(float64(len(encoded.JPEG)))

	// 3. build the record and lay out the photo
	reg := s.buildRecord(req, age)
	s.photos.prepare(reg, encoded)

	// 4. write with retries
	if err := s.write(ctx, reg, encoded); err != nil {
		metrics.Submissions.WithLabelValues("persistence").Inc()
		pe := ClassifyPersistence(err)
		s.logger.Error("registration not saved",
			zap.String("kind", string(pe.Kind)),
			zap.String("email", reg.EmailAddress),
			zap.Error(err),
		)
		return nil, pe
	}
	metrics.Submissions.WithLabelValues("accepted").Inc()

	s.logger.Info("registration saved",
		zap.String("id", reg.ID),
		zap.Int("photo_chunks", reg.Photo.Chunks),
		zap.Bool("photo_blob", reg.Photo.Object != ""),
	)

	// 5. confirmation is best-effort and never fails the submission
	sent := s.sendConfirmation(ctx, reg)

	return &dto.SubmitRegistrationResponse{
		ID:               reg.ID,
		Status:           string(reg.Status),
		SubmissionDate:   reg.SubmissionDate.Format(time.RFC3339),
		ConfirmationSent: sent,
	}, nil
}

// validate returns the age derived from date of birth
func (s *submissionService) validate(req *dto.SubmitRegistrationRequest, photo *imaging.File) (int, error) {
	dob, err := time.Parse(dateLayout, strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		return 0, invalid("date_of_birth", "Date of birth must be a valid date (YYYY-MM-DD)")
	}
	age := DeriveAge(dob, s.now())
	if age < s.cfg.MinAge || age > s.cfg.MaxAge {
		return 0, invalid("age", "Age must be between %d and %d", s.cfg.MinAge, s.cfg.MaxAge)
	}
	if req.Age != nil && *req.Age != age {
		return 0, invalid("age", "Age does not match date of birth (expected %d)", age)
	}
	if !model.Category(req.Category).Valid() {
		return 0, invalid("category", "Please select a competition category")
	}
	if len([]rune(strings.TrimSpace(req.Motivation))) < s.cfg.MinMotivation {
		return 0, invalid("motivation", "Please tell us more (at least %d characters)", s.cfg.MinMotivation)
	}
	if photo == nil {
		return 0, invalid("passport_photo", "Passport photograph is required")
	}
	if age < s.cfg.ConsentAge {
		if strings.TrimSpace(req.ParentName) == "" {
			return 0, invalid("parent_name", "Parent/guardian name is required for applicants under %d", s.cfg.ConsentAge)
		}
		if strings.TrimSpace(req.ParentPhone) == "" {
			return 0, invalid("parent_phone", "Parent/guardian phone is required for applicants under %d", s.cfg.ConsentAge)
		}
	}
	if !req.Agreement {
		return 0, invalid("agreement", "You must agree to the competition rules")
	}
	return age, nil
}

func (s *submissionService) buildRecord(req *dto.SubmitRegistrationRequest, age int) *model.Registration {
	reg := &model.Registration{
		ID:                   uuid.NewString(),
		Status:               model.StatusPending,
		Surname:              strings.TrimSpace(req.Surname),
		OtherNames:           strings.TrimSpace(req.OtherNames),
		DateOfBirth:          strings.TrimSpace(req.DateOfBirth),
		Age:                  age,
		Gender:               req.Gender,
		PhoneNumber:          strings.TrimSpace(req.PhoneNumber),
		Address:              strings.TrimSpace(req.Address),
		EmailAddress:         strings.ToLower(strings.TrimSpace(req.EmailAddress)),
		Category:             model.Category(req.Category),
		CurrentSchool:        strings.TrimSpace(req.CurrentSchool),
		ClassLevel:           strings.TrimSpace(req.ClassLevel),
		Motivation:           strings.TrimSpace(req.Motivation),
		Agreement:            req.Agreement,
		ParticipantSignature: model.ParticipantSignatureMarker,
		SubmissionDate:       s.now().UTC(),
	}
	if age < s.cfg.ConsentAge {
		reg.Consent = model.ParentConsent{
			ParentName:      strings.TrimSpace(req.ParentName),
			ParentPhone:     strings.TrimSpace(req.ParentPhone),
			ParentSignature: model.ParentSignatureMarker,
		}
	}
	return reg
}

// write uploads the blob (if any) and inserts the row, retrying with a
// linear backoff of base delay × attempt
func (s *submissionService) write(ctx context.Context, reg *model.Registration, enc *imaging.Encoded) error {
	maxAttempts := s.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	base := s.cfg.BaseDelay
	if base <= 0 {
		base = defaultBackoff
	}

	attempt := 0
	uploaded := false
	op := func() error {
		attempt++
		err := s.photos.upload(ctx, reg, enc)
		if err == nil {
			uploaded = uploaded || reg.Photo.Object != ""
			err = s.repo.Registration.Insert(ctx, reg)
		}
		metrics.WriteAttempts.WithLabelValues(metrics.Result(err)).Inc()
		if err == nil {
			return nil
		}

		pe := ClassifyPersistence(err)
		s.logger.Warn("registration write attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.String("kind", string(pe.Kind)),
			zap.Error(err),
		)
		if !pe.Retryable() || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newLinearBackOff(base), uint64(maxAttempts-1)),
		ctx,
	)
	err := backoff.Retry(op, policy)
	if err != nil && uploaded {
		s.discardOrphan(ctx, reg)
	}
	return err
}

// discardOrphan removes an uploaded photo whose row never landed. The object
// is kept when the row cannot be confirmed absent.
func (s *submissionService) discardOrphan(ctx context.Context, reg *model.Registration) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	fields := []zap.Field{zap.String("id", reg.ID), zap.String("object", reg.Photo.Object)}
	if _, err := s.repo.Registration.GetByID(cctx, reg.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("photo object kept, row state unknown", append(fields, zap.Error(err))...)
		return
	}
	if err := s.photos.discard(cctx, reg); err != nil {
		s.logger.Warn("orphaned photo object not removed", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Info("orphaned photo object removed", fields...)
}

func (s *submissionService) sendConfirmation(ctx context.Context, reg *model.Registration) bool {
	if s.notifier == nil {
		return false
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	receipt, err := s.notifier.SendConfirmation(nctx, reg.EmailAddress, reg.FullName())
	metrics.Notifications.WithLabelValues(string(notify.KindConfirmation), metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("confirmation email failed, registration kept",
			zap.String("id", reg.ID),
			zap.Error(err),
		)
		return false
	}
	s.logger.Info("confirmation email sent",
		zap.String("id", reg.ID),
		zap.String("message_id", receipt.MessageID),
	)
	return true
}

// DeriveAge whole years between dob and now
func DeriveAge(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// ── linear backoff ──

// linearBackOff waits base × n before the n-th retry
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func newLinearBackOff(base time.Duration) *linearBackOff {
	return &linearBackOff{base: base}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

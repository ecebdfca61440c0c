package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"hogis-registration/config"
	"hogis-registration/internal/dto"
	"hogis-registration/internal/model"
	"hogis-registration/internal/repository"
	"hogis-registration/pkg/blobstore"
	pkgerrors "hogis-registration/pkg/errors"
	"hogis-registration/pkg/metrics"
	"hogis-registration/pkg/notify"
	"hogis-registration/pkg/sheets"
)

// ── triage errors ──

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrInvalidTarget        = errors.New("target status must be ACCEPTED or REJECTED")
	ErrInvalidTransition    = errors.New("only pending registrations can be accepted or rejected")
	ErrTransitionInProgress = errors.New("this registration is already being updated")
	ErrRecordMoved          = errors.New("registration was updated elsewhere, refresh and retry")
	ErrTransitionFailed     = errors.New("failed to update registration")
)

// Entry a record tagged with the container it was read from
type Entry struct {
	Reg       model.Registration
	Container model.Container
}

// source container; untagged entries are treated as registered
func (e Entry) source() model.Container {
	if e.Container == "" {
		return model.ContainerRegistered
	}
	return e.Container
}

// View merged snapshot of all three containers. Never patched in place;
// every refresh builds a new one.
type View struct {
	Entries     []Entry
	RefreshedAt time.Time
	byID        map[string]int
}

func newView(entries []Entry, at time.Time) *View {
	v := &View{Entries: entries, RefreshedAt: at, byID: make(map[string]int, len(entries))}
	for i, e := range entries {
		v.byID[e.Reg.ID] = i
	}
	return v
}

// Lookup entry by registration id
func (v *View) Lookup(id string) (Entry, bool) {
	i, ok := v.byID[id]
	if !ok {
		return Entry{}, false
	}
	return v.Entries[i], true
}

// Counts per-status totals over the whole view
func (v *View) Counts() dto.StatusCounts {
	var c dto.StatusCounts
	for _, e := range v.Entries {
		switch e.source().Status() {
		case model.StatusPending:
			c.Pending++
		case model.StatusAccepted:
			c.Accepted++
		case model.StatusRejected:
			c.Rejected++
		}
	}
	c.Total = len(v.Entries)
	return c
}

// Filter pure projection over entries: query matches full name, email or
// school case-insensitively; status "" or "ALL" keeps every status.
// The input slice is never modified.
func Filter(entries []Entry, query, status string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	status = strings.ToUpper(strings.TrimSpace(status))

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if status != "" && status != "ALL" && string(e.source().Status()) != status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Reg.FullName()), q) &&
			!strings.Contains(strings.ToLower(e.Reg.EmailAddress), q) &&
			!strings.Contains(strings.ToLower(e.Reg.CurrentSchool), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// TriageService admin review workflow
type TriageService interface {
	Refresh(ctx context.Context) (*View, error)
	List(ctx context.Context, req *dto.RegistrationListRequest) (*dto.RegistrationListResponse, error)
	Get(ctx context.Context, id string) (*dto.RegistrationDetailResponse, error)
	Transition(ctx context.Context, id string, target model.Status, req *dto.TransitionRequest) (*dto.TransitionResponse, error)
}

type triageService struct {
	cfg      *config.TriageConfig
	repo     *repository.Repository
	photos   *photoStore
	notifier notify.Dispatcher
	roster   sheets.Roster
	logger   *zap.Logger
	now      func() time.Time

	rosterTimeout time.Duration

	mu       sync.RWMutex
	view     *View
	viewGen  uint64        // generation of view
	gen      atomic.Uint64 // last generation handed to a refresh
	inflight sync.Map      // registration id → struct{}
}

// rosterTimeout bounds the Sheets append so a hung call cannot hold the
// per-id transition guard
const rosterTimeout = 10 * time.Second

// NewTriageService creates a TriageService. roster may be nil.
func NewTriageService(
	cfg *config.Config,
	repo *repository.Repository,
	blob blobstore.Store,
	notifier notify.Dispatcher,
	roster sheets.Roster,
	logger *zap.Logger,
) TriageService {
	if roster == nil {
		roster = sheets.Nop{}
	}
	return &triageService{
		cfg:      &cfg.Triage,
		repo:     repo,
		photos:   newPhotoStore(blob, cfg.Photo.ChunkSize),
		notifier: notifier,
		roster:   roster,
		logger:   logger,
		now:      time.Now,

		rosterTimeout: rosterTimeout,
	}
}

// ═══════════════════════════════════════════════════════════
// Read path
// ═══════════════════════════════════════════════════════════

// Refresh reads the three containers concurrently and replaces the view.
// A refresh that started before the installed view was read never
// overwrites it.
func (s *triageService) Refresh(ctx context.Context) (*View, error) {
	gen := s.gen.Add(1)
	results := make([][]model.Registration, len(model.Containers))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range model.Containers {
		i, c := i, c
		g.Go(func() error {
			regs, err := s.repo.Registration.ListByContainer(gctx, c)
			if err != nil {
				return fmt.Errorf("read %s: %w", c, err)
			}
			results[i] = regs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("admin view refresh failed", zap.Error(err))
		return nil, err
	}

	var entries []Entry
	for i, regs := range results {
		for _, r := range regs {
			entries = append(entries, Entry{Reg: r, Container: model.Containers[i]})
		}
	}
	view := newView(entries, s.now())

	s.mu.Lock()
	if gen < s.viewGen {
		view = s.view
		s.mu.Unlock()
		return view, nil
	}
	s.view, s.viewGen = view, gen
	s.mu.Unlock()

	counts := view.Counts()
	metrics.Registrations.WithLabelValues(string(model.StatusPending)).Set(float64(counts.Pending))
	metrics.Registrations.WithLabelValues(string(model.StatusAccepted)).Set(float64(counts.Accepted))
	metrics.Registrations.WithLabelValues(string(model.StatusRejected)).Set(float64(counts.Rejected))

	return view, nil
}

func (s *triageService) current(ctx context.Context, refresh bool) (*View, error) {
	if !refresh {
		s.mu.RLock()
		v := s.view
		s.mu.RUnlock()
		if v != nil {
			return v, nil
		}
	}
	return s.Refresh(ctx)
}

func (s *triageService) List(ctx context.Context, req *dto.RegistrationListRequest) (*dto.RegistrationListResponse, error) {
	view, err := s.current(ctx, req.Refresh)
	if err != nil {
		return nil, err
	}

	filtered := Filter(view.Entries, req.Q, req.Status)
	items := make([]dto.RegistrationSummary, 0, len(filtered))
	for _, e := range filtered {
		items = append(items, toSummary(e))
	}

	return &dto.RegistrationListResponse{
		Items:       items,
		Total:       len(items),
		Counts:      view.Counts(),
		RefreshedAt: view.RefreshedAt.Format(time.RFC3339),
	}, nil
}

// Get reads the full record, photo included, straight from the store
func (s *triageService) Get(ctx context.Context, id string) (*dto.RegistrationDetailResponse, error) {
	reg, err := s.repo.Registration.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("failed to load registration", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	photo, err := s.photos.load(ctx, reg)
	if err != nil {
		// the rest of the record is still useful to the reviewer
		s.logger.Warn("failed to load registration photo", zap.String("id", id), zap.Error(err))
	}
	return toDetail(reg, photo), nil
}

// ═══════════════════════════════════════════════════════════
// Transition
// ═══════════════════════════════════════════════════════════

func (s *triageService) Transition(ctx context.Context, id string, target model.Status, req *dto.TransitionRequest) (*dto.TransitionResponse, error) {
	if target != model.StatusAccepted && target != model.StatusRejected {
		return nil, ErrInvalidTarget
	}

	// one transition per id at a time
	if _, busy := s.inflight.LoadOrStore(id, struct{}{}); busy {
		metrics.Transitions.WithLabelValues(string(target), "busy").Inc()
		return nil, ErrTransitionInProgress
	}
	defer s.inflight.Delete(id)

	// 1. locate in the working set, re-reading once if it is stale
	entry, err := s.locate(ctx, id)
	if err != nil {
		return nil, err
	}

	// 2. source must be pending
	source := entry.source()
	if source.Status() != model.StatusPending {
		metrics.Transitions.WithLabelValues(string(target), "invalid").Inc()
		return nil, ErrInvalidTransition
	}

	// 3. move in one conditional update
	review := model.Review{
		Notes:      strings.TrimSpace(req.Notes),
		ReviewedAt: s.now().UTC(),
		ReviewedBy: s.cfg.Reviewer,
	}
	if target == model.StatusRejected {
		review.Reason = strings.TrimSpace(req.Reason)
	}

	if err := s.repo.Registration.Transition(ctx, id, source.Status(), target, review); err != nil {
		metrics.Transitions.WithLabelValues(string(target), "error").Inc()
		s.refreshQuietly(ctx)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRegistrationNotFound
		case errors.Is(err, pkgerrors.ErrStaleWrite):
			return nil, ErrRecordMoved
		}
		s.logger.Error("transition failed",
			zap.String("id", id),
			zap.String("target", string(target)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrTransitionFailed, err)
	}
	metrics.Transitions.WithLabelValues(string(target), "ok").Inc()

	s.logger.Info("registration reviewed",
		zap.String("id", id),
		zap.String("from", string(source.Status())),
		zap.String("to", string(target)),
		zap.String("reviewer", review.ReviewedBy),
	)

	resp := &dto.TransitionResponse{ID: id, Status: string(target)}

	// 4. notify; failure is a warning, the move is already committed
	if err := s.notify(ctx, entry.Reg, target, review.Reason); err != nil {
		resp.Warning = fmt.Sprintf("Registration %s, but the notification email could not be sent.", strings.ToLower(string(target)))
	} else {
		resp.NotificationSent = true
	}

	// 5. roster sync for accepted participants
	if target == model.StatusAccepted {
		s.syncRoster(ctx, entry.Reg, review)
	}

	// 6. rebuild the working set
	s.refreshQuietly(ctx)

	return resp, nil
}

func (s *triageService) locate(ctx context.Context, id string) (Entry, error) {
	view, err := s.current(ctx, false)
	if err != nil {
		return Entry{}, err
	}
	if e, ok := view.Lookup(id); ok {
		return e, nil
	}
	if view, err = s.Refresh(ctx); err != nil {
		return Entry{}, err
	}
	if e, ok := view.Lookup(id); ok {
		return e, nil
	}
	return Entry{}, ErrRegistrationNotFound
}

func (s *triageService) notify(ctx context.Context, reg model.Registration, target model.Status, reason string) error {
	if s.notifier == nil {
		return notify.ErrNotConfigured
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	var (
		kind    notify.Kind
		receipt *notify.Receipt
		err     error
	)
	if target == model.StatusAccepted {
		kind = notify.KindAcceptance
		receipt, err = s.notifier.SendAcceptance(nctx, reg.EmailAddress, reg.FullName())
	} else {
		kind = notify.KindRejection
		receipt, err = s.notifier.SendRejection(nctx, reg.EmailAddress, reg.FullName(), reason)
	}
	metrics.Notifications.WithLabelValues(string(kind), metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("status email failed, transition kept",
			zap.String("id", reg.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("status email sent", zap.String("id", reg.ID), zap.String("message_id", receipt.MessageID))
	return nil
}

func (s *triageService) syncRoster(ctx context.Context, reg model.Registration, review model.Review) {
	row := sheets.Row{
		ID:         reg.ID,
		Name:       reg.FullName(),
		Email:      reg.EmailAddress,
		Phone:      reg.PhoneNumber,
		Age:        reg.Age,
		Category:   string(reg.Category),
		School:     reg.CurrentSchool,
		ReviewedAt: review.ReviewedAt,
		Notes:      review.Notes,
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rosterTimeout)
	defer cancel()
	err := s.roster.Append(rctx, row)
	metrics.RosterSyncs.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Warn("roster sync failed", zap.String("id", reg.ID), zap.Error(err))
	}
}

func (s *triageService) refreshQuietly(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("view refresh after transition failed", zap.Error(err))
	}
}

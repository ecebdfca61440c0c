package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"hogis-registration/config"
	"hogis-registration/internal/model"
	"hogis-registration/internal/repository"
	"hogis-registration/pkg/blobstore"
	pkgerrors "hogis-registration/pkg/errors"
	"hogis-registration/pkg/notify"
	"hogis-registration/pkg/sheets"
)

// ── Mock RegistrationRepository ──

type mockRegistrationRepo struct {
	mu   sync.Mutex
	regs map[string]*model.Registration

	insertErrs    []error // consumed one per Insert call
	inserts       int
	listErr       error
	transitionErr error
	transitions   int

	afterList func(model.Container) // runs after the snapshot is taken, outside the lock
}

func newMockRegistrationRepo() *mockRegistrationRepo {
	return &mockRegistrationRepo{regs: make(map[string]*model.Registration)}
}

func (m *mockRegistrationRepo) seed(regs ...model.Registration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range regs {
		r := regs[i]
		m.regs[r.ID] = &r
	}
}

func (m *mockRegistrationRepo) get(id string) (model.Registration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok {
		return model.Registration{}, false
	}
	return *r, true
}

func (m *mockRegistrationRepo) ListByContainer(_ context.Context, container model.Container) ([]model.Registration, error) {
	out, err := m.snapshot(container)
	if m.afterList != nil {
		m.afterList(container)
	}
	return out, err
}

func (m *mockRegistrationRepo) snapshot(container model.Container) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Registration
	for _, r := range m.regs {
		if r.Status.Container() == container {
			c := *r
			c.Photo.Data = ""
			c.Chunks = nil
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate) })
	return out, nil
}

func (m *mockRegistrationRepo) GetByID(_ context.Context, id string) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *r
	return &c, nil
}

func (m *mockRegistrationRepo) Insert(_ context.Context, reg *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if len(m.insertErrs) > 0 {
		err := m.insertErrs[0]
		m.insertErrs = m.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, dup := m.regs[reg.ID]; dup {
		return gorm.ErrDuplicatedKey
	}
	c := *reg
	m.regs[reg.ID] = &c
	return nil
}

func (m *mockRegistrationRepo) DeleteByID(_ context.Context, container model.Container, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok || r.Status.Container() != container {
		return gorm.ErrRecordNotFound
	}
	delete(m.regs, id)
	return nil
}

func (m *mockRegistrationRepo) Transition(_ context.Context, id string, from, to model.Status, review model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions++
	if m.transitionErr != nil {
		return m.transitionErr
	}
	r, ok := m.regs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if r.Status != from {
		return pkgerrors.ErrStaleWrite
	}
	r.Status = to
	notes, by, at := review.Notes, review.ReviewedBy, review.ReviewedAt
	r.AdminNotes = &notes
	r.ReviewedBy = &by
	r.ReviewedAt = &at
	if to == model.StatusRejected {
		reason := review.Reason
		r.RejectionReason = &reason
	}
	return nil
}

func (m *mockRegistrationRepo) CountByStatus(_ context.Context) (map[model.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.Status]int)
	for _, r := range m.regs {
		out[r.Status]++
	}
	return out, nil
}

// ── Mock Dispatcher ──

type sentMail struct {
	Kind   notify.Kind
	Email  string
	Name   string
	Reason string
}

type mockDispatcher struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (d *mockDispatcher) record(kind notify.Kind, email, name, reason string) (*notify.Receipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	d.sent = append(d.sent, sentMail{Kind: kind, Email: email, Name: name, Reason: reason})
	return &notify.Receipt{MessageID: "msg-" + email}, nil
}

func (d *mockDispatcher) SendConfirmation(_ context.Context, email, name string) (*notify.Receipt, error) {
	return d.record(notify.KindConfirmation, email, name, "")
}

func (d *mockDispatcher) SendAcceptance(_ context.Context, email, name string) (*notify.Receipt, error) {
	return d.record(notify.KindAcceptance, email, name, "")
}

func (d *mockDispatcher) SendRejection(_ context.Context, email, name, reason string) (*notify.Receipt, error) {
	return d.record(notify.KindRejection, email, name, reason)
}

func (d *mockDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// ── Mock Roster ──

type mockRoster struct {
	mu     sync.Mutex
	rows   []sheets.Row
	err    error
	hang   bool  // block until ctx is done
	ctxErr error // ctx.Err() seen by a hung Append
}

func (r *mockRoster) Append(ctx context.Context, row sheets.Row) error {
	if r.hang {
		<-ctx.Done()
		r.mu.Lock()
		r.ctxErr = ctx.Err()
		r.mu.Unlock()
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

// ── Mock blob store ──

type mockBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte)}
}

func (b *mockBlobStore) Put(_ context.Context, key, _ string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[key] = append([]byte(nil), data...)
	return nil
}

func (b *mockBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return data, nil
}

func (b *mockBlobStore) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.objects, key)
	b.deleted = append(b.deleted, key)
	return nil
}

func (b *mockBlobStore) Close() error { return nil }

// ── Mock token blacklist ──

type mockBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{revoked: make(map[string]time.Duration)}
}

func (b *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.revoked[jti] = ttl
	return nil
}

func (b *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return false, b.err
	}
	_, ok := b.revoked[jti]
	return ok, nil
}

// ── shared fixtures ──

var errUnavailable = errors.New("database is locked")

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret-key-for-unit-testing-2025",
			TokenTTL:      24 * time.Hour,
			AdminUsername: "admin",
		},
		Database: config.DatabaseConfig{Timezone: "UTC"},
		Photo:    config.PhotoConfig{ChunkSize: 800000},
		Submission: config.SubmissionConfig{
			MaxAttempts:   3,
			BaseDelay:     time.Millisecond,
			MinAge:        10,
			MaxAge:        19,
			ConsentAge:    18,
			MinMotivation: 20,
		},
		Triage: config.TriageConfig{Reviewer: "Admin"},
	}
}

func newTestRepository(regs *mockRegistrationRepo) *repository.Repository {
	return &repository.Repository{Registration: regs}
}

func pendingRegistration(id, surname, otherNames, email, school string, submitted time.Time) model.Registration {
	return model.Registration{
		ID:             id,
		Status:         model.StatusPending,
		Surname:        surname,
		OtherNames:     otherNames,
		DateOfBirth:    "2008-03-14",
		Age:            17,
		PhoneNumber:    "08012345678",
		Address:        "12 Marina Road, Lagos",
		EmailAddress:   email,
		Category:       model.CategoryPublicSpeaking,
		CurrentSchool:  school,
		ClassLevel:     "SS2",
		Motivation:     "I want to become a confident speaker.",
		Agreement:      true,
		SubmissionDate: submitted,
	}
}

package repository_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hogis-registration/config"
	"hogis-registration/internal/model"
	"hogis-registration/internal/repository"
	"hogis-registration/pkg/database"
	pkgerrors "hogis-registration/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}
	db, err := database.NewDB(cfg, "silent", zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db, "sqlite", zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repository.NewRepository(db)
}

func newRegistration(surname string, submitted time.Time) *model.Registration {
	return &model.Registration{
		Surname:              surname,
		OtherNames:           "David",
		DateOfBirth:          "2009-03-14",
		Age:                  16,
		PhoneNumber:          "08011111111",
		Address:              "12 Marian Road, Calabar",
		EmailAddress:         strings.ToLower(surname) + "@example.com",
		Category:             model.CategoryPublicSpeaking,
		CurrentSchool:        "Hope Waddell Training Institute",
		ClassLevel:           "SS2",
		Motivation:           "I want to inspire my peers through speech.",
		Agreement:            true,
		ParticipantSignature: model.ParticipantSignatureMarker,
		SubmissionDate:       submitted,
		Photo:                model.Photo{Data: "data:image/jpeg;base64,AAAA", FileName: "me.jpg", Chunks: 1},
		Consent: model.ParentConsent{
			ParentName:      "Mrs " + surname,
			ParentPhone:     "08022222222",
			ParentSignature: model.ParentSignatureMarker,
		},
	}
}

// ═══════════════════════════════════════════════════════════
// Insert / GetByID
// ═══════════════════════════════════════════════════════════

func TestInsert_AssignsIDAndPending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := newRegistration("Okon", time.Now())
	if err := repo.Registration.Insert(ctx, reg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if reg.ID == "" {
		t.Fatal("expected generated id")
	}
	if reg.Status != model.StatusPending {
		t.Errorf("expected PENDING, got %s", reg.Status)
	}

	got, err := repo.Registration.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FullName() != "Okon David" {
		t.Errorf("unexpected name %s", got.FullName())
	}
	if got.Consent.ParentName != "Mrs Okon" {
		t.Errorf("consent not persisted: %+v", got.Consent)
	}
	if got.Photo.Data != "data:image/jpeg;base64,AAAA" {
		t.Errorf("photo not persisted: %q", got.Photo.Data)
	}
}

func TestInsert_ChunksStoredInOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := newRegistration("Chunky", time.Now())
	reg.Photo.Data = "AAA"
	reg.Photo.Chunks = 3
	reg.Chunks = []model.PhotoChunk{{Index: 2, Data: "CCC"}, {Index: 1, Data: "BBB"}}
	if err := repo.Registration.Insert(ctx, reg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.Registration.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Chunks) != 2 {
		t.Fatalf("expected 2 overflow chunks, got %d", len(got.Chunks))
	}
	if got.Chunks[0].Index != 1 || got.Chunks[0].Data != "BBB" || got.Chunks[1].Data != "CCC" {
		t.Errorf("chunks out of order: %+v", got.Chunks)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.Registration.GetByID(context.Background(), uuid.NewString()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Containers
// ═══════════════════════════════════════════════════════════

func TestListByContainer_NewestFirstWithoutPhotoPayload(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	older := newRegistration("Older", now.Add(-time.Hour))
	newer := newRegistration("Newer", now)
	for _, r := range []*model.Registration{older, newer} {
		if err := repo.Registration.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	regs, err := repo.Registration.ListByContainer(ctx, model.ContainerRegistered)
	if err != nil {
		t.Fatalf("ListByContainer failed: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(regs))
	}
	if regs[0].Surname != "Newer" {
		t.Errorf("expected newest first, got %s", regs[0].Surname)
	}
	if regs[0].Photo.Data != "" {
		t.Error("list should not load the photo payload")
	}

	accepted, err := repo.Registration.ListByContainer(ctx, model.ContainerAccepted)
	if err != nil {
		t.Fatalf("ListByContainer failed: %v", err)
	}
	if len(accepted) != 0 {
		t.Errorf("accepted container should be empty, got %d", len(accepted))
	}
}

func TestDeleteByID_ScopedToContainer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := newRegistration("Gone", time.Now())
	reg.Chunks = []model.PhotoChunk{{Index: 1, Data: "x"}}
	if err := repo.Registration.Insert(ctx, reg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := repo.Registration.DeleteByID(ctx, model.ContainerAccepted, reg.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("delete from wrong container should be not found, got %v", err)
	}
	if err := repo.Registration.DeleteByID(ctx, model.ContainerRegistered, reg.ID); err != nil {
		t.Fatalf("DeleteByID failed: %v", err)
	}
	if _, err := repo.Registration.GetByID(ctx, reg.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("record should be gone, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Transition
// ═══════════════════════════════════════════════════════════

func TestTransition_MovesExactlyOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := newRegistration("Okon", time.Now())
	if err := repo.Registration.Insert(ctx, reg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	review := model.Review{Notes: "Strong speech sample", ReviewedAt: time.Now(), ReviewedBy: "Admin"}
	if err := repo.Registration.Transition(ctx, reg.ID, model.StatusPending, model.StatusAccepted, review); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	got, err := repo.Registration.GetByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Errorf("expected ACCEPTED, got %s", got.Status)
	}
	if got.AdminNotes == nil || *got.AdminNotes != "Strong speech sample" {
		t.Errorf("unexpected notes %v", got.AdminNotes)
	}
	if got.ReviewedBy == nil || *got.ReviewedBy != "Admin" || got.ReviewedAt == nil {
		t.Error("review fields should be set")
	}
	if got.RejectionReason != nil {
		t.Errorf("acceptance must not carry a rejection reason, got %q", *got.RejectionReason)
	}

	// membership: exactly one container holds it
	seen := 0
	for _, c := range model.Containers {
		regs, err := repo.Registration.ListByContainer(ctx, c)
		if err != nil {
			t.Fatalf("ListByContainer failed: %v", err)
		}
		for _, r := range regs {
			if r.ID == reg.ID {
				seen++
				if c != model.ContainerAccepted {
					t.Errorf("record found in %s", c)
				}
			}
		}
	}
	if seen != 1 {
		t.Errorf("record should be in exactly one container, seen %d", seen)
	}

	// a second move from PENDING finds nothing to update
	err = repo.Registration.Transition(ctx, reg.ID, model.StatusPending, model.StatusRejected, review)
	if !errors.Is(err, pkgerrors.ErrStaleWrite) {
		t.Errorf("expected ErrStaleWrite, got %v", err)
	}
}

func TestTransition_RejectionReason(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := newRegistration("Eyo", time.Now())
	if err := repo.Registration.Insert(ctx, reg); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	review := model.Review{Notes: "n", Reason: "Incomplete form", ReviewedAt: time.Now(), ReviewedBy: "Admin"}
	if err := repo.Registration.Transition(ctx, reg.ID, model.StatusPending, model.StatusRejected, review); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	got, _ := repo.Registration.GetByID(ctx, reg.ID)
	if got.RejectionReason == nil || *got.RejectionReason != "Incomplete form" {
		t.Errorf("unexpected reason %v", got.RejectionReason)
	}
}

func TestTransition_Missing(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Registration.Transition(context.Background(), uuid.NewString(), model.StatusPending, model.StatusAccepted, model.Review{})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"Aa", "Bb", "Cc"} {
		r := newRegistration(name, time.Now())
		if err := repo.Registration.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		ids = append(ids, r.ID)
	}
	review := model.Review{ReviewedAt: time.Now(), ReviewedBy: "Admin"}
	if err := repo.Registration.Transition(ctx, ids[0], model.StatusPending, model.StatusAccepted, review); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	counts, err := repo.Registration.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[model.StatusPending] != 2 || counts[model.StatusAccepted] != 1 || counts[model.StatusRejected] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

package repository

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/apperr"
	"github.com/siakad/thesis-workflow/internal/domain/entity"
)

func TestSemproRepository_DocumentRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewSemproRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	p := seedProposal(t, db)
	s := seedSempro(t, db, p.ID, entity.SemproStatusRegistered)

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.FormDoc != s.FormDoc || got.PlagiarismDoc != s.PlagiarismDoc || got.DraftDoc != s.DraftDoc {
		t.Errorf("documents did not survive the round trip: %+v", got)
	}
	if len(got.RevisionSlots) != 0 {
		t.Errorf("fresh registration has revision slots %v, want none", got.RevisionSlots)
	}
}

func TestSemproRepository_Update_PreservesUntouchedDocuments(t *testing.T) {
	db := testDB(t)
	repo := NewSemproRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	p := seedProposal(t, db)
	s := seedSempro(t, db, p.ID, entity.SemproStatusRevisionRequired)

	originalForm := s.FormDoc
	newDraft := entity.Document{ID: "d2", URL: "https://files/d2", Name: "draft-v2.pdf", Type: "pdf"}
	s.DraftDoc = newDraft
	s.Status = entity.SemproStatusRegistered
	s.RevisionSlots = nil

	if err := repo.Update(ctx, s); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.DraftDoc != newDraft {
		t.Errorf("draft = %+v, want replaced %+v", got.DraftDoc, newDraft)
	}
	if got.FormDoc != originalForm {
		t.Errorf("form = %+v, want untouched %+v", got.FormDoc, originalForm)
	}
	if got.Status != entity.SemproStatusRegistered {
		t.Errorf("status = %s, want registered", got.Status)
	}
}

func TestSemproRepository_EvaluatedAliasNormalizedOnRead(t *testing.T) {
	db := testDB(t)
	repo := NewSemproRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	p := seedProposal(t, db)
	s := seedSempro(t, db, p.ID, entity.SemproStatusRegistered)

	// A row written by an older deployment.
	if _, err := db.Exec("UPDATE sempro_registrations SET status = 'evaluated' WHERE id = ?", s.ID); err != nil {
		t.Fatalf("failed to plant legacy status: %v", err)
	}

	got, err := repo.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.Status != entity.SemproStatusVerified {
		t.Errorf("status = %s, want normalized verified", got.Status)
	}

	// A transition guarded on verified must also accept the stored alias.
	updated, err := repo.UpdateStatus(ctx, s.ID, entity.SemproStatusScheduled, entity.SemproStatusVerified)
	if err != nil {
		t.Fatalf("UpdateStatus() from legacy alias error: %v", err)
	}
	if updated.Status != entity.SemproStatusScheduled {
		t.Errorf("status = %s, want scheduled", updated.Status)
	}
}

func TestSemproRepository_ApproveFinalBySlot(t *testing.T) {
	db := testDB(t)
	repo := NewSemproRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	p := seedProposal(t, db)
	s := seedSempro(t, db, p.ID, entity.SemproStatusCompleted)

	after1, err := repo.ApproveFinalBySlot(ctx, s.ID, entity.ReviewerSupervisor1)
	if err != nil {
		t.Fatalf("ApproveFinalBySlot(supervisor1) error: %v", err)
	}
	if after1.Status != entity.SemproStatusCompleted || !after1.ApproveSupervisor1 {
		t.Errorf("after first approval: status=%s flags=(%v,%v)", after1.Status, after1.ApproveSupervisor1, after1.ApproveSupervisor2)
	}

	after2, err := repo.ApproveFinalBySlot(ctx, s.ID, entity.ReviewerSupervisor2)
	if err != nil {
		t.Fatalf("ApproveFinalBySlot(supervisor2) error: %v", err)
	}
	if after2.Status != entity.SemproStatusApproved {
		t.Errorf("after both approvals: status = %s, want approved", after2.Status)
	}
}

func TestSemproRepository_ApproveFinalBySlot_GuardRejectsScheduled(t *testing.T) {
	db := testDB(t)
	repo := NewSemproRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	p := seedProposal(t, db)
	s := seedSempro(t, db, p.ID, entity.SemproStatusScheduled)

	_, err := repo.ApproveFinalBySlot(ctx, s.ID, entity.ReviewerSupervisor1)
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("ApproveFinalBySlot() before completion error = %v, want INVALID_STATE", err)
	}
}

func TestSemproRepository_RevisionNotes(t *testing.T) {
	db := testDB(t)
	repo := NewSemproRepository(db.DB, zap.NewNop())
	ctx := context.Background()
	p := seedProposal(t, db)
	s := seedSempro(t, db, p.ID, entity.SemproStatusCompleted)

	notes := []*entity.RevisionNote{
		{SemproID: s.ID, ReviewerRole: entity.ReviewerExaminer1, Note: "first pass", Major: true},
		{SemproID: s.ID, ReviewerRole: entity.ReviewerSupervisor2, Note: "minor wording", Major: false},
		{SemproID: s.ID, ReviewerRole: entity.ReviewerExaminer1, Note: "second pass", Major: false},
	}
	for _, n := range notes {
		if err := repo.AddRevisionNote(ctx, n); err != nil {
			t.Fatalf("AddRevisionNote() error: %v", err)
		}
	}

	got, err := repo.ListRevisionNotes(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListRevisionNotes() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListRevisionNotes() returned %d notes, want all 3 kept", len(got))
	}
	// Append-only, oldest first.
	if got[0].Note != "first pass" || got[2].Note != "second pass" {
		t.Errorf("notes out of order: %q ... %q", got[0].Note, got[2].Note)
	}
	if !got[0].Major || got[2].Major {
		t.Errorf("major flags lost: (%v,%v)", got[0].Major, got[2].Major)
	}
}

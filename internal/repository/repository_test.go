package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/siakad/thesis-workflow/internal/domain/entity"
	"github.com/siakad/thesis-workflow/pkg/database"
)

// testDB opens a fresh SQLite database in a temp directory and applies
// the real migrations.
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	if err := migrator.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func seedProposal(t *testing.T, db *database.DB) *entity.ThesisProposal {
	t.Helper()

	repo := NewProposalRepository(db.DB, zap.NewNop())
	p := &entity.ThesisProposal{
		Title:         "Indexing Strategies for Time-Series Workloads",
		ResearchField: "Databases",
		StudentID:     "student-1",
		Supervisor1ID: "sup-1",
		Supervisor2ID: "sup-2",
		Status:        entity.ProposalStatusSubmitted,
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed proposal: %v", err)
	}
	return p
}

func seedSempro(t *testing.T, db *database.DB, proposalID int64, status string) *entity.SemproRegistration {
	t.Helper()

	repo := NewSemproRepository(db.DB, zap.NewNop())
	s := &entity.SemproRegistration{
		ProposalID:    proposalID,
		StudentID:     "student-1",
		Status:        status,
		FormDoc:       entity.Document{ID: "f1", URL: "https://files/f1", Name: "form.pdf", Type: "pdf"},
		PlagiarismDoc: entity.Document{ID: "p1", URL: "https://files/p1", Name: "plag.pdf", Type: "pdf"},
		DraftDoc:      entity.Document{ID: "d1", URL: "https://files/d1", Name: "draft.pdf", Type: "pdf"},
	}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("failed to seed sempro: %v", err)
	}
	return s
}

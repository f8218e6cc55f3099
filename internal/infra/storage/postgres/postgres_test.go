package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ara-foundation/act-indexer/internal/core/domain"
	"github.com/ara-foundation/act-indexer/internal/infra/storage"
)

// Integration test against a real database. Set TEST_DATABASE_URL to run.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping database test. Set TEST_DATABASE_URL to run.")
	}

	db, err := NewDB(context.Background(), Config{URL: url})
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestProjectRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewProjectRepo(db)
	ctx := context.Background()

	projectID := time.Now().UnixNano()
	p := &domain.Project{
		ProjectID: projectID,
		NetworkID: 97,
		Name:      "integration",
		Sangha:    &domain.Sangha{OwnershipMinted: "0", Check: "0xcheck"},
	}
	if err := repo.Insert(ctx, p); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if p.ID == "" {
		t.Fatal("Insert() did not assign a surrogate id")
	}
	if err := repo.Insert(ctx, &domain.Project{ProjectID: projectID, NetworkID: 97}); err != storage.ErrDuplicate {
		t.Errorf("duplicate Insert() error = %v, want ErrDuplicate", err)
	}

	got, err := repo.GetByNetwork(ctx, projectID, 97)
	if err != nil {
		t.Fatalf("GetByNetwork() error = %v", err)
	}
	if got.Name != "integration" || got.Sangha == nil || got.Sangha.Check != "0xcheck" {
		t.Errorf("GetByNetwork() = %+v", got)
	}

	byCheck, err := repo.GetByCheck(ctx, "0xcheck", 97)
	if err != nil {
		t.Fatalf("GetByCheck() error = %v", err)
	}
	if byCheck.ProjectID != projectID {
		t.Errorf("GetByCheck() projectID = %d, want %d", byCheck.ProjectID, projectID)
	}

	got.Sangha.OwnershipMinted = "10"
	if err := repo.Replace(ctx, got); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	again, err := repo.GetByNetwork(ctx, projectID, 97)
	if err != nil {
		t.Fatalf("GetByNetwork() after replace error = %v", err)
	}
	if again.Sangha.OwnershipMinted != "10" {
		t.Errorf("OwnershipMinted = %q, want \"10\"", again.Sangha.OwnershipMinted)
	}
}

func TestWatermarkUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewWatermarkRepo(db)
	ctx := context.Background()

	w := domain.Watermark{EventType: domain.EventNewProject, DBTimestamp: "2025-01-01T00:00:00.000001"}
	if err := repo.Upsert(ctx, w); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	w.DBTimestamp = "2025-01-02T00:00:00.000001"
	if err := repo.Upsert(ctx, w); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	found := false
	for _, row := range all {
		if row.EventType == domain.EventNewProject {
			found = true
			if row.DBTimestamp != "2025-01-02T00:00:00.000001" {
				t.Errorf("DBTimestamp = %q", row.DBTimestamp)
			}
		}
	}
	if !found {
		t.Error("GetAll() missing upserted watermark")
	}
}

func TestProcessedEventMark(t *testing.T) {
	db := openTestDB(t)
	repo := NewProcessedEventRepo(db)
	ctx := context.Background()

	id := "97_" + time.Now().Format("20060102150405.000000") + "_1"
	seen, err := repo.Seen(ctx, id)
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Fatal("Seen() = true for fresh id")
	}

	if err := repo.Mark(ctx, id, domain.EventMint); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	// Marking twice must not error.
	if err := repo.Mark(ctx, id, domain.EventMint); err != nil {
		t.Fatalf("second Mark() error = %v", err)
	}

	seen, err = repo.Seen(ctx, id)
	if err != nil {
		t.Fatalf("Seen() after Mark error = %v", err)
	}
	if !seen {
		t.Error("Seen() = false after Mark")
	}
}

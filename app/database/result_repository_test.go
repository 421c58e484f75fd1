package database

import (
	"sync"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) ResultRepository {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewResultRepository(db)
}

func sampleResult(url string) Result {
	views, likes, comments := int64(100), int64(10), int64(5)
	creator := "alice"
	postedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return Result{
		Platform:       "youtube",
		URL:            url,
		Creator:        &creator,
		PostedAt:       &postedAt,
		Views:          &views,
		Likes:          &likes,
		Comments:       &comments,
		EngagementRate: 15.0,
		FetchedAt:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestInsertAndGetResult(t *testing.T) {
	repo := newTestRepo(t)

	saved, err := repo.InsertResult(sampleResult("https://youtu.be/abc123"))
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if saved.ID == 0 {
		t.Error("Expected assigned id")
	}

	loaded, err := repo.GetResultByID(saved.ID)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected result")
	}
	if loaded.URL != "https://youtu.be/abc123" || *loaded.Views != 100 {
		t.Errorf("Unexpected result: %+v", loaded)
	}
	if loaded.EngagementRate != 15.0 {
		t.Errorf("Expected engagement rate 15.0, got %v", loaded.EngagementRate)
	}
	if loaded.PostedAt == nil || !loaded.PostedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected posted_at: %v", loaded.PostedAt)
	}
}

func TestUpsertResultUpdatesByURL(t *testing.T) {
	repo := newTestRepo(t)

	first, err := repo.UpsertResult(sampleResult("https://youtu.be/abc123"))
	if err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	update := sampleResult("https://youtu.be/abc123")
	views := int64(250)
	update.Views = &views
	update.FetchedAt = update.FetchedAt.Add(time.Hour)

	second, err := repo.UpsertResult(update)
	if err != nil {
		t.Fatalf("Failed to upsert again: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("Expected same row on re-upsert, got ids %d and %d", first.ID, second.ID)
	}
	if *second.Views != 250 {
		t.Errorf("Expected updated views, got %d", *second.Views)
	}

	count, err := repo.GetResultCount()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single row, got %d", count)
	}
}

func TestUpsertResultPreservesCreatorAndPostedAt(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.UpsertResult(sampleResult("https://youtu.be/abc123")); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	update := sampleResult("https://youtu.be/abc123")
	update.Creator = nil
	update.PostedAt = nil

	saved, err := repo.UpsertResult(update)
	if err != nil {
		t.Fatalf("Failed to upsert again: %v", err)
	}

	if saved.Creator == nil || *saved.Creator != "alice" {
		t.Errorf("Expected existing creator preserved, got %v", saved.Creator)
	}
	if saved.PostedAt == nil {
		t.Error("Expected existing posted_at preserved")
	}
}

func TestUpsertResultConcurrentSameURL(t *testing.T) {
	repo := newTestRepo(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.UpsertResult(sampleResult("https://youtu.be/abc123")); err != nil {
				t.Errorf("Failed to upsert: %v", err)
			}
		}()
	}
	wg.Wait()

	count, err := repo.GetResultCount()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single row after concurrent upserts of one URL, got %d", count)
	}
}

func TestInsertResultKeepsHistory(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.InsertResult(sampleResult("https://youtu.be/abc123")); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := repo.InsertResult(sampleResult("https://youtu.be/abc123")); err != nil {
		t.Fatalf("Failed to insert second row: %v", err)
	}

	count, err := repo.GetResultCount()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 historical rows, got %d", count)
	}
}

func TestGetResultsFilterAndLimit(t *testing.T) {
	repo := newTestRepo(t)

	first := sampleResult("https://youtu.be/abc123")
	second := sampleResult("https://www.tiktok.com/@a/video/1")
	second.Platform = "tiktok"
	second.FetchedAt = first.FetchedAt.Add(time.Hour)

	if _, err := repo.InsertResult(first); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := repo.InsertResult(second); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	results, err := repo.GetResults(10, "")
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Platform != "tiktok" {
		t.Errorf("Expected most recently fetched first, got %q", results[0].Platform)
	}

	tiktokOnly, err := repo.GetResults(10, "tiktok")
	if err != nil {
		t.Fatalf("Failed to query with filter: %v", err)
	}
	if len(tiktokOnly) != 1 || tiktokOnly[0].Platform != "tiktok" {
		t.Errorf("Unexpected filtered results: %+v", tiktokOnly)
	}

	limited, err := repo.GetResults(1, "")
	if err != nil {
		t.Fatalf("Failed to query with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit applied, got %d results", len(limited))
	}
}

func TestGetStaleResults(t *testing.T) {
	repo := newTestRepo(t)

	old := sampleResult("https://youtu.be/old123")
	old.FetchedAt = time.Now().UTC().Add(-2 * time.Hour)
	fresh := sampleResult("https://youtu.be/new456")
	fresh.FetchedAt = time.Now().UTC()

	if _, err := repo.InsertResult(old); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if _, err := repo.InsertResult(fresh); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	stale, err := repo.GetStaleResults(time.Now().UTC().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("Failed to query stale results: %v", err)
	}
	if len(stale) != 1 || stale[0].URL != "https://youtu.be/old123" {
		t.Errorf("Unexpected stale results: %+v", stale)
	}
}

func TestUpdateNote(t *testing.T) {
	repo := newTestRepo(t)

	saved, err := repo.InsertResult(sampleResult("https://youtu.be/abc123"))
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	updated, err := repo.UpdateNote(saved.ID, "check engagement")
	if err != nil {
		t.Fatalf("Failed to update note: %v", err)
	}
	if updated == nil || updated.Notes == nil || *updated.Notes != "check engagement" {
		t.Errorf("Unexpected updated result: %+v", updated)
	}
}

func TestUpdateNoteMissingResult(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.InsertResult(sampleResult("https://youtu.be/abc123")); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	updated, err := repo.UpdateNote(9999, "noop")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated != nil {
		t.Error("Expected nil for missing id")
	}

	count, err := repo.GetResultCount()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected store unchanged, got %d rows", count)
	}
}

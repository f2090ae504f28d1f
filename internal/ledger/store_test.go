package ledger

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndQueryDownloads(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	records := []Record{
		{Workno: "RJ123456", Path: "book/page_0.jpg", Variant: "optimized", Bytes: 100, Descrambled: true, SessionID: "s1"},
		{Workno: "RJ123456", Path: "book/page_1.jpg", Variant: "optimized", Bytes: 120, Descrambled: true, SessionID: "s1"},
		{Workno: "RJ777777", Path: "track.mp3", Variant: "files", Bytes: 900, SessionID: "s2"},
	}
	for _, rec := range records {
		if err := store.RecordDownload(ctx, rec); err != nil {
			t.Fatalf("RecordDownload(%s): %v", rec.Path, err)
		}
	}

	got, err := store.Downloads(ctx, "RJ123456")
	if err != nil {
		t.Fatalf("Downloads: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Path != "book/page_0.jpg" || !got[0].Descrambled {
		t.Errorf("first record = %+v", got[0])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("created_at not round-tripped")
	}

	has, err := store.Has(ctx, "RJ123456", "book/page_1.jpg", "optimized")
	if err != nil || !has {
		t.Fatalf("Has = %v, %v", has, err)
	}
	has, err = store.Has(ctx, "RJ123456", "book/page_1.jpg", "files")
	if err != nil || has {
		t.Fatalf("Has for other variant = %v, %v", has, err)
	}

	done, err := store.Completed(ctx, "RJ123456", "optimized", 2)
	if err != nil || !done {
		t.Fatalf("Completed = %v, %v", done, err)
	}
	done, err = store.Completed(ctx, "RJ123456", "optimized", 3)
	if err != nil || done {
		t.Fatalf("Completed with higher total = %v, %v", done, err)
	}

	counts, err := store.Worknos(ctx)
	if err != nil {
		t.Fatalf("Worknos: %v", err)
	}
	if counts["RJ123456"] != 2 || counts["RJ777777"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestRecordDownloadUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := Record{Workno: "RJ1", Path: "a.jpg", Variant: "optimized", Bytes: 10, SessionID: "s1"}
	if err := store.RecordDownload(ctx, rec); err != nil {
		t.Fatalf("first record: %v", err)
	}
	rec.Bytes = 20
	rec.SessionID = "s2"
	if err := store.RecordDownload(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Downloads(ctx, "RJ1")
	if err != nil {
		t.Fatalf("Downloads: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 after upsert", len(got))
	}
	if got[0].Bytes != 20 || got[0].SessionID != "s2" {
		t.Errorf("record = %+v", got[0])
	}
}

func TestRecordDownloadValidation(t *testing.T) {
	store := openTestStore(t)
	if err := store.RecordDownload(context.Background(), Record{Workno: "RJ1"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.RecordDownload(ctx, Record{Workno: "RJ1", Path: "a", Variant: "optimized", SessionID: "s"}); err != nil {
		t.Fatalf("RecordDownload: %v", err)
	}
	store.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	has, err := reopened.Has(ctx, "RJ1", "a", "optimized")
	if err != nil || !has {
		t.Fatalf("Has after reopen = %v, %v", has, err)
	}
}

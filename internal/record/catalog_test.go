package record

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = catalog.Close() })
	return catalog
}

func TestCatalogLifecycle(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	meta := Meta{ID: "rec-1", Controller: "pad0", StartedAt: started}
	if err := catalog.Insert(ctx, meta); err != nil {
		t.Fatal(err)
	}

	got, err := catalog.Get(ctx, "rec-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusRecording {
		t.Errorf("fresh recording status = %q", got.Status)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("started_at = %s, want %s", got.StartedAt, started)
	}
	if got.StoppedAt != nil {
		t.Error("fresh recording must have nil StoppedAt")
	}

	stopped := started.Add(90 * time.Second)
	if err := catalog.Finish(ctx, "rec-1", stopped, 5400); err != nil {
		t.Fatal(err)
	}

	got, err = catalog.Get(ctx, "rec-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusDone || got.Frames != 5400 {
		t.Errorf("finished meta = %+v", got)
	}
	if got.StoppedAt == nil || !got.StoppedAt.Equal(stopped) {
		t.Errorf("stopped_at = %v, want %s", got.StoppedAt, stopped)
	}
}

func TestCatalogNotFound(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()

	if _, err := catalog.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get err = %v, want ErrNotFound", err)
	}
	if err := catalog.Finish(ctx, "missing", time.Now(), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Finish err = %v, want ErrNotFound", err)
	}
}

func TestCatalogListNewestFirst(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		meta := Meta{ID: id, Controller: "pad0", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := catalog.Insert(ctx, meta); err != nil {
			t.Fatal(err)
		}
	}

	list, err := catalog.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("list = %d entries", len(list))
	}
	if list[0].ID != "new" || list[2].ID != "old" {
		t.Errorf("order = %s, %s, %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestCatalogDelete(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()

	if err := catalog.Insert(ctx, Meta{ID: "rec-1", Controller: "pad0", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := catalog.Delete(ctx, "rec-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Get(ctx, "rec-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted recording err = %v, want ErrNotFound", err)
	}
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/storage"
)

func TestMemoryStore_Record(t *testing.T) {
	store := New(10)

	d := &storage.Diagnostic{
		Stage:   "purpose",
		Model:   "gemini-2.0-flash",
		Kind:    storage.KindMalformedResponse,
		Message: "not json",
		Raw:     "Sure thing!",
	}
	if err := store.Record(context.Background(), d); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if d.ID == "" {
		t.Error("Record() did not assign an ID")
	}
	if d.CreatedAt.IsZero() {
		t.Error("Record() did not assign CreatedAt")
	}

	got, err := store.List(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(got))
	}
	if got[0].Raw != "Sure thing!" {
		t.Errorf("Raw = %q, want %q", got[0].Raw, "Sure thing!")
	}
}

func TestMemoryStore_RingEvictsOldest(t *testing.T) {
	store := New(3)
	for i := 0; i < 5; i++ {
		_ = store.Record(context.Background(), &storage.Diagnostic{
			Kind:    storage.KindCandidateFailed,
			Message: fmt.Sprintf("failure %d", i),
		})
	}

	got, _ := store.List(context.Background(), storage.ListOptions{})
	if len(got) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(got))
	}
	want := []string{"failure 4", "failure 3", "failure 2"}
	for i, d := range got {
		if d.Message != want[i] {
			t.Errorf("record %d = %q, want %q", i, d.Message, want[i])
		}
	}
}

func TestMemoryStore_ListFilters(t *testing.T) {
	store := New(0)
	ctx := context.Background()
	_ = store.Record(ctx, &storage.Diagnostic{Kind: storage.KindCandidateFailed, Message: "a"})
	_ = store.Record(ctx, &storage.Diagnostic{Kind: storage.KindMalformedResponse, Message: "b"})
	_ = store.Record(ctx, &storage.Diagnostic{Kind: storage.KindCandidateFailed, Message: "c"})

	got, _ := store.List(ctx, storage.ListOptions{Kind: storage.KindCandidateFailed})
	if len(got) != 2 || got[0].Message != "c" || got[1].Message != "a" {
		t.Errorf("kind filter returned %+v", got)
	}

	got, _ = store.List(ctx, storage.ListOptions{Limit: 1})
	if len(got) != 1 || got[0].Message != "c" {
		t.Errorf("limit returned %+v", got)
	}
}

func TestMemoryStore_ListReturnsCopies(t *testing.T) {
	store := New(2)
	_ = store.Record(context.Background(), &storage.Diagnostic{Message: "original"})

	got, _ := store.List(context.Background(), storage.ListOptions{})
	got[0].Message = "changed"

	again, _ := store.List(context.Background(), storage.ListOptions{})
	if again[0].Message != "original" {
		t.Errorf("stored record was mutated through List result")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := New(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Record(context.Background(), &storage.Diagnostic{Message: fmt.Sprint(i)})
			_, _ = store.List(context.Background(), storage.ListOptions{Limit: 5})
		}(i)
	}
	wg.Wait()

	got, _ := store.List(context.Background(), storage.ListOptions{})
	if len(got) != 20 {
		t.Errorf("List() returned %d records, want 20", len(got))
	}
}

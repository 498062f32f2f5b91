package nats

import (
	"context"
	"os"
	"testing"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	s, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestStore_CreateListDelete(t *testing.T) {
	s := testConnect(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "hello passage", []string{"test", t.Name()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a non-empty passage id")
	}

	got, err := s.List(ctx, []string{t.Name()}, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("expected to find the created passage, got %+v", got)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err = s.List(ctx, []string{t.Name()}, 10)
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no passages after delete, got %+v", got)
	}
}

func TestStore_ListFiltersByTagSuperset(t *testing.T) {
	s := testConnect(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "a", []string{t.Name(), "alpha"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "b", []string{t.Name(), "beta"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.List(ctx, []string{t.Name(), "alpha"}, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Text != "a" {
		t.Fatalf("expected exactly the alpha-tagged passage, got %+v", got)
	}
}

func TestStore_ListRespectsLimitNewestFirst(t *testing.T) {
	s := testConnect(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Create(ctx, "p", []string{t.Name()}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := s.List(ctx, []string{t.Name()}, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected limit=1 to be respected, got %d", len(got))
	}
}

func TestStore_IsConnected(t *testing.T) {
	s := testConnect(t)

	if !s.IsConnected() {
		t.Error("IsConnected() = false after Connect, want true")
	}
}

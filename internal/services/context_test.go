package services_test

import (
	"context"
	"testing"

	"aotw/internal/services"
)

func TestScopeAccumulates(t *testing.T) {
	ctx := services.WithRequestID(context.Background(), "req-123")
	ctx = services.WithPicker(ctx, "DG")
	ctx = services.WithAlbumID(ctx, "6dVIqQ8qmQ5GBnJ9shOYGE")
	staged := services.WithStage(ctx, "ledger_append")

	want := services.Scope{RequestID: "req-123", Picker: "DG", Stage: "ledger_append", AlbumID: "6dVIqQ8qmQ5GBnJ9shOYGE"}
	if got := services.ScopeFrom(staged); got != want {
		t.Fatalf("unexpected scope %+v", got)
	}
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("parent context must not see the child stage")
	}
	if id, ok := services.RequestIDFromContext(staged); !ok || id != "req-123" {
		t.Fatalf("unexpected request id: %v %v", id, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := services.WithStage(context.Background(), "duplicate_check")
	if services.WithStage(ctx, "") != ctx || services.WithPicker(ctx, "") != ctx {
		t.Fatal("expected blank values to return the same context")
	}
	if stage, _ := services.StageFromContext(ctx); stage != "duplicate_check" {
		t.Fatalf("unexpected stage %q", stage)
	}
	if scope := services.ScopeFrom(context.Background()); scope != (services.Scope{}) {
		t.Fatalf("expected empty scope, got %+v", scope)
	}
}

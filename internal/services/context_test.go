package services_test

import (
	"context"
	"testing"

	"imgsauce/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithImageID(ctx, 42)
	ctx = services.WithStage(ctx, "scan")
	ctx = services.WithRunID(ctx, "run-123")

	if id, ok := services.ImageIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected image id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "scan" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

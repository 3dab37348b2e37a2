package services_test

import (
	"context"
	"testing"

	"mineardmg/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithHash(ctx, "ab12")
	ctx = services.WithStage(ctx, "decode")
	ctx = services.WithWorker(ctx, 3)
	ctx = services.WithRunID(ctx, "run-123")

	if hash, ok := services.HashFromContext(ctx); !ok || hash != "ab12" {
		t.Fatalf("unexpected hash: %v %v", hash, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "decode" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if worker, ok := services.WorkerFromContext(ctx); !ok || worker != 3 {
		t.Fatalf("unexpected worker: %v %v", worker, ok)
	}
	if rid, ok := services.RunIDFromContext(ctx); !ok || rid != "run-123" {
		t.Fatalf("unexpected run id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithHash(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.HashFromContext(ctx); ok {
		t.Fatal("expected no hash value")
	}
	if _, ok := services.WorkerFromContext(ctx); ok {
		t.Fatal("expected no worker value")
	}
}

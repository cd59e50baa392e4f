package observability

import (
	"context"
	"testing"
)

func TestOrReturnsNoOpForNil(t *testing.T) {
	if Or(nil) != NoOp {
		t.Fatal("expected Or(nil) to return NoOp")
	}
}

func TestNoOpProviderIsSafeToCall(t *testing.T) {
	ctx := context.Background()
	p := NoOp
	_, span := p.StartSpan(ctx, "test", String("k", "v"))
	span.SetAttributes(Int("n", 1))
	span.SetStatus(StatusOK, "")
	span.RecordError(nil)
	span.End()
	p.Counter("c").Add(ctx, 1)
	p.Histogram("h").Record(ctx, 1.0)
	p.Debug(ctx, "msg")
	p.Info(ctx, "msg")
	p.Warn(ctx, "msg")
	p.Error(ctx, "msg")
}

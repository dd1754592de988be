package ctxkeys

import (
	"context"
	"testing"
)

func TestWithValue_SetsAndGetsTypedKey(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), Role, "operator")
	got, ok := ctx.Value(Role).(string)
	if !ok {
		t.Fatalf("expected string value")
	}
	if got != "operator" {
		t.Fatalf("expected operator, got %q", got)
	}
}

func TestWithValue_KeysDoNotCollide(t *testing.T) {
	t.Parallel()

	ctx := WithValue(context.Background(), UserID, "u-1")
	ctx = WithValue(ctx, Role, "admin")

	if got := ctx.Value(UserID); got != "u-1" {
		t.Fatalf("expected u-1, got %v", got)
	}
	if got := ctx.Value(Role); got != "admin" {
		t.Fatalf("expected admin, got %v", got)
	}
}

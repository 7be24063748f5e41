package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Distrotech/asterisk/middleware"
)

func TestTimeout_CancelsContextAfterDeadline(t *testing.T) {
	mw := middleware.Timeout(10*time.Millisecond, slog.Default())
	a := newTestAttempt("SIP/4001", "chan-o1")

	err := mw(context.Background(), a, "support", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestTimeout_ZeroDisablesDeadline(t *testing.T) {
	mw := middleware.Timeout(0, slog.Default())
	a := newTestAttempt("SIP/4002", "chan-o2")

	called := false
	err := mw(context.Background(), a, "support", func(ctx context.Context) error {
		called = true
		if _, ok := ctx.Deadline(); ok {
			t.Error("expected no deadline when d is zero")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestTimeout_PassesThroughHandlerError(t *testing.T) {
	mw := middleware.Timeout(time.Second, slog.Default())
	a := newTestAttempt("SIP/4003", "chan-o3")
	want := errors.New("handler failed")

	err := mw(context.Background(), a, "support", func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

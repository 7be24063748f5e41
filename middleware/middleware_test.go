package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/Distrotech/asterisk/attempt"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/middleware"
	"github.com/Distrotech/asterisk/scope"
)

func newTestAttempt(iface, channelID string) *attempt.Attempt {
	m := &member.Member{Interface: iface}
	return attempt.New(m, nil, channelID, 1)
}

func TestChain_ExecutionOrder(t *testing.T) {
	var order []string

	mw1 := func(ctx context.Context, _ *attempt.Attempt, _ string, next middleware.Handler) error {
		order = append(order, "mw1-before")
		err := next(ctx)
		order = append(order, "mw1-after")
		return err
	}

	mw2 := func(ctx context.Context, _ *attempt.Attempt, _ string, next middleware.Handler) error {
		order = append(order, "mw2-before")
		err := next(ctx)
		order = append(order, "mw2-after")
		return err
	}

	chain := middleware.Chain(mw1, mw2)
	a := newTestAttempt("SIP/1001", "chan-1")
	handler := func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	}

	err := chain(context.Background(), a, "support", handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, want := range expected {
		if order[i] != want {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	chain := middleware.Chain()
	called := false
	handler := func(_ context.Context) error {
		called = true
		return nil
	}

	a := newTestAttempt("SIP/1001", "chan-1")
	err := chain(context.Background(), a, "support", handler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty chain")
	}
}

func TestChain_PropagatesError(t *testing.T) {
	mw := func(ctx context.Context, _ *attempt.Attempt, _ string, next middleware.Handler) error {
		return next(ctx)
	}
	chain := middleware.Chain(mw)
	want := errors.New("handler error")

	a := newTestAttempt("SIP/1001", "chan-1")
	err := chain(context.Background(), a, "support", func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Recover(logger)
	a := newTestAttempt("SIP/1002", "chan-2")

	err := mw(context.Background(), a, "support", func(_ context.Context) error {
		panic("test panic")
	})
	if err == nil {
		t.Fatal("expected error from panic recovery")
	}
	if got := err.Error(); got != "panic ringing SIP/1002: test panic" {
		t.Errorf("unexpected error message: %q", got)
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Recover(logger)
	a := newTestAttempt("SIP/1003", "chan-3")

	called := false
	err := mw(context.Background(), a, "support", func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_Success(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Logging(logger)
	a := newTestAttempt("SIP/1004", "chan-4")

	called := false
	err := mw(context.Background(), a, "support", func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_Error(t *testing.T) {
	logger := slog.Default()
	mw := middleware.Logging(logger)
	a := newTestAttempt("SIP/1005", "chan-5")
	want := errors.New("fail")

	err := mw(context.Background(), a, "support", func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestScope_RestoresFromAttempt(t *testing.T) {
	mw := middleware.Scope()
	a := newTestAttempt("SIP/1006", "chan-6")

	err := mw(context.Background(), a, "support", func(ctx context.Context) error {
		s, ok := scope.Capture(ctx)
		if !ok {
			t.Fatal("expected scope in context")
		}
		if got := s.Queue; got != "support" {
			t.Errorf("Queue = %q, want %q", got, "support")
		}
		if got := s.ChannelID; got != "chan-6" {
			t.Errorf("ChannelID = %q, want %q", got, "chan-6")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScope_NoOpWhenEmpty(t *testing.T) {
	mw := middleware.Scope()
	a := newTestAttempt("SIP/1007", "")

	err := mw(context.Background(), a, "", func(ctx context.Context) error {
		_, ok := scope.Capture(ctx)
		if ok {
			t.Fatal("expected no scope in context for unscoped attempt")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

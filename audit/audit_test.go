package audit

import (
	"context"
	"testing"
)

func TestRecordRoutesFieldsAndMetadata(t *testing.T) {
	var got *Event
	log := New(RecorderFunc(func(ctx context.Context, evt *Event) error {
		got = evt
		return nil
	}))

	log.Record(context.Background(), TagEnterQueue, "support", "channel", "chan-1", "position", 3)

	if got == nil || got.Tag != TagEnterQueue || got.Queue != "support" || got.Channel != "chan-1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.Metadata["position"] != 3 {
		t.Fatalf("expected position metadata, got %+v", got.Metadata)
	}
}

func TestWithTagsFiltersUnlistedTags(t *testing.T) {
	calls := 0
	log := New(RecorderFunc(func(ctx context.Context, evt *Event) error {
		calls++
		return nil
	}), WithTags(TagAbandon))

	log.Record(context.Background(), TagPause, "support")
	log.Record(context.Background(), TagAbandon, "support")

	if calls != 1 {
		t.Fatalf("expected only the enabled tag to record, got %d calls", calls)
	}
}

func TestRecordFailureDoesNotPanic(t *testing.T) {
	log := New(RecorderFunc(func(ctx context.Context, evt *Event) error {
		return context.DeadlineExceeded
	}))
	log.Record(context.Background(), TagPickup, "support")
}

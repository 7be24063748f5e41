package events

import "testing"

func TestPublishReachesQueueTopicAndFirehose(t *testing.T) {
	bus := NewBus()
	sub := NewSubscriber("s1", 4, 10)
	bus.Subscribe(QueueTopic("support"), sub)
	bus.Subscribe(TopicFirehose, sub)

	bus.PublishJoin("support", "chan-1", 1)

	select {
	case evt := <-sub.C():
		if evt.Kind != KindJoin {
			t.Fatalf("expected KindJoin, got %v", evt.Kind)
		}
	default:
		t.Fatal("expected an event to be delivered")
	}
}

func TestSubscriberCreditsGateDelivery(t *testing.T) {
	bus := NewBus()
	sub := NewSubscriber("s1", 4, 0)
	bus.Subscribe(TopicFirehose, sub)

	delivered := bus.PublishMemberAdded("support", "SIP/100")
	if delivered != 0 {
		t.Fatalf("expected 0 delivered with no credits, got %d", delivered)
	}

	sub.AddCredits(1)
	delivered = bus.PublishMemberAdded("support", "SIP/100")
	if delivered != 1 {
		t.Fatalf("expected 1 delivered after adding credits, got %d", delivered)
	}
}

func TestUnsubscribeAllRemovesFromEveryTopic(t *testing.T) {
	bus := NewBus()
	sub := NewSubscriber("s1", 4, 10)
	bus.Subscribe(QueueTopic("a"), sub)
	bus.Subscribe(QueueTopic("b"), sub)

	bus.UnsubscribeAll("s1")

	if bus.SubscriberCount(QueueTopic("a")) != 0 || bus.SubscriberCount(QueueTopic("b")) != 0 {
		t.Fatal("expected subscriber removed from all topics")
	}
}

func TestValidateTopic(t *testing.T) {
	if err := ValidateTopic(TopicFirehose); err != nil {
		t.Fatal(err)
	}
	if err := ValidateTopic(QueueTopic("support")); err != nil {
		t.Fatal(err)
	}
	if err := ValidateTopic("bogus"); err == nil {
		t.Fatal("expected error for malformed topic")
	}
}

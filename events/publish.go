package events

import (
	"encoding/json"
	"time"
)

func mustEvent(kind Kind, topic string, data any) *Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = json.RawMessage("{}")
	}
	return &Event{Kind: kind, Timestamp: time.Now().UTC(), Topic: topic, Data: raw}
}

// PublishJoin emits KindJoin on the caller's queue topic.
func (b *Bus) PublishJoin(queue, channelID string, position int) int {
	evt := mustEvent(KindJoin, QueueTopic(queue), CallerEventData{Queue: queue, ChannelID: channelID, Position: position})
	return b.Publish(evt)
}

// PublishLeave emits KindLeave.
func (b *Bus) PublishLeave(queue, channelID string, waited time.Duration) int {
	evt := mustEvent(KindLeave, QueueTopic(queue), CallerEventData{Queue: queue, ChannelID: channelID, WaitedMs: waited.Milliseconds()})
	return b.Publish(evt)
}

// PublishCallerAbandon emits KindCallerAbandon.
func (b *Bus) PublishCallerAbandon(queue, channelID string, position int, waited time.Duration) int {
	evt := mustEvent(KindCallerAbandon, QueueTopic(queue), CallerEventData{Queue: queue, ChannelID: channelID, Position: position, WaitedMs: waited.Milliseconds()})
	return b.Publish(evt)
}

// PublishMemberAdded emits KindMemberAdded.
func (b *Bus) PublishMemberAdded(queue, iface string) int {
	evt := mustEvent(KindMemberAdded, QueueTopic(queue), MemberEventData{Queue: queue, Interface: iface})
	return b.Publish(evt)
}

// PublishMemberRemoved emits KindMemberRemoved.
func (b *Bus) PublishMemberRemoved(queue, iface string) int {
	evt := mustEvent(KindMemberRemoved, QueueTopic(queue), MemberEventData{Queue: queue, Interface: iface})
	return b.Publish(evt)
}

// PublishMemberStatus emits KindMemberStatus.
func (b *Bus) PublishMemberStatus(queue, iface, status string) int {
	evt := mustEvent(KindMemberStatus, QueueTopic(queue), MemberEventData{Queue: queue, Interface: iface, Status: status})
	return b.Publish(evt)
}

// PublishMemberPaused emits KindMemberPaused.
func (b *Bus) PublishMemberPaused(queue, iface string, paused bool) int {
	evt := mustEvent(KindMemberPaused, QueueTopic(queue), MemberEventData{Queue: queue, Interface: iface, Paused: paused})
	return b.Publish(evt)
}

// PublishMemberPenalty emits KindMemberPenalty.
func (b *Bus) PublishMemberPenalty(queue, iface string, penalty int) int {
	evt := mustEvent(KindMemberPenalty, QueueTopic(queue), MemberEventData{Queue: queue, Interface: iface, Penalty: penalty})
	return b.Publish(evt)
}

// PublishAgentCalled emits KindAgentCalled.
func (b *Bus) PublishAgentCalled(queue, iface, channelID string) int {
	evt := mustEvent(KindAgentCalled, QueueTopic(queue), AgentEventData{Queue: queue, Interface: iface, ChannelID: channelID})
	return b.Publish(evt)
}

// PublishAgentConnect emits KindAgentConnect.
func (b *Bus) PublishAgentConnect(queue, iface, channelID string, holdtime time.Duration) int {
	evt := mustEvent(KindAgentConnect, QueueTopic(queue), AgentEventData{Queue: queue, Interface: iface, ChannelID: channelID, HoldtimeMs: holdtime.Milliseconds()})
	return b.Publish(evt)
}

// PublishAgentComplete emits KindAgentComplete.
func (b *Bus) PublishAgentComplete(queue, iface, channelID string, holdtime, talktime time.Duration) int {
	evt := mustEvent(KindAgentComplete, QueueTopic(queue), AgentEventData{Queue: queue, Interface: iface, ChannelID: channelID, HoldtimeMs: holdtime.Milliseconds(), TalktimeMs: talktime.Milliseconds()})
	return b.Publish(evt)
}

// PublishAgentRingNoAnswer emits KindAgentRingNoAnswer.
func (b *Bus) PublishAgentRingNoAnswer(queue, iface, channelID string) int {
	evt := mustEvent(KindAgentRingNoAnswer, QueueTopic(queue), AgentEventData{Queue: queue, Interface: iface, ChannelID: channelID})
	return b.Publish(evt)
}

// PublishAgentDump emits KindAgentDump.
func (b *Bus) PublishAgentDump(queue, iface, channelID, reason string) int {
	evt := mustEvent(KindAgentDump, QueueTopic(queue), AgentEventData{Queue: queue, Interface: iface, ChannelID: channelID, Reason: reason})
	return b.Publish(evt)
}

// PublishSummary emits KindSummary.
func (b *Bus) PublishSummary(queue string, waiting, available int, holdtimeAvg time.Duration) int {
	evt := mustEvent(KindSummary, QueueTopic(queue), SummaryEventData{Queue: queue, Waiting: waiting, Available: available, HoldtimeAvg: holdtimeAvg.Milliseconds()})
	return b.Publish(evt)
}

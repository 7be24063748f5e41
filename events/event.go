// Package events implements the event bus described in spec.md §6: a
// topic-based pub/sub carrying the queue lifecycle events named there
// (Join, Leave, abandon, member add/remove/status/pause/penalty, agent
// called/connect/complete/ring-no-answer/dump, and periodic queue
// summaries).
//
// Grounded on stream/broker.go's TopicRegistry/Subscriber pair
// (credit-based flow control, topic fan-out, firehose topic) kept
// almost unchanged in mechanism and repurposed from job/workflow topics
// to queue/caller topics.
package events

import (
	"encoding/json"
	"time"
)

// Kind identifies a queue lifecycle event, one of the 14 kinds below
// covering the events spec.md §6 names.
type Kind string

const (
	KindJoin                Kind = "queue.join"
	KindLeave               Kind = "queue.leave"
	KindCallerAbandon       Kind = "queue.caller_abandon"
	KindMemberAdded         Kind = "queue.member_added"
	KindMemberRemoved       Kind = "queue.member_removed"
	KindMemberStatus        Kind = "queue.member_status"
	KindMemberPaused        Kind = "queue.member_paused"
	KindMemberPenalty       Kind = "queue.member_penalty"
	KindAgentCalled         Kind = "queue.agent_called"
	KindAgentConnect        Kind = "queue.agent_connect"
	KindAgentComplete       Kind = "queue.agent_complete"
	KindAgentRingNoAnswer   Kind = "queue.agent_ring_no_answer"
	KindAgentDump           Kind = "queue.agent_dump"
	KindSummary             Kind = "queue.summary"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"ts"`
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data"`
}

// CallerEventData is the payload for Join/Leave/CallerAbandon.
type CallerEventData struct {
	Queue     string `json:"queue"`
	ChannelID string `json:"channel_id"`
	Position  int    `json:"position,omitempty"`
	WaitedMs  int64  `json:"waited_ms,omitempty"`
}

// MemberEventData is the payload for member lifecycle events.
type MemberEventData struct {
	Queue     string `json:"queue"`
	Interface string `json:"interface"`
	Penalty   int    `json:"penalty,omitempty"`
	Paused    bool   `json:"paused,omitempty"`
	Status    string `json:"status,omitempty"`
}

// AgentEventData is the payload for agent-side call events.
type AgentEventData struct {
	Queue      string `json:"queue"`
	Interface  string `json:"interface"`
	ChannelID  string `json:"channel_id"`
	HoldtimeMs int64  `json:"holdtime_ms,omitempty"`
	TalktimeMs int64  `json:"talktime_ms,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// SummaryEventData is the payload for periodic queue summaries.
type SummaryEventData struct {
	Queue       string `json:"queue"`
	Waiting     int    `json:"waiting"`
	Available   int    `json:"available"`
	HoldtimeAvg int64  `json:"holdtime_avg_ms"`
}

// Package audit implements the line-oriented audit log described in
// spec.md §6: one AuditEvent per queue action, tagged with one of the
// 20 named tags (ENTERQUEUE, ADDMEMBER, REMOVEMEMBER, PAUSE, UNPAUSE,
// PAUSEALL, UNPAUSEALL, PENALTY, RINGNOANSWER, CONNECT, COMPLETECALLER,
// COMPLETEAGENT, TRANSFER, ABANDON, AGENTDUMP, SYSCOMPAT, EXITEMPTY,
// EXITWITHTIMEOUT, EXITWITHKEY, PICKUP).
//
// Grounded on audit_src/extension.go's Recorder/AuditEvent/RecorderFunc
// pattern, kept unchanged: a backend-agnostic Recorder interface so the
// dispatch core never imports a concrete audit sink, with the
// lifecycle-hook dispatch table replaced by direct Record calls made
// from queue/dispatcher/management code at the point each tagged action
// occurs.
package audit

import (
	"context"
	"fmt"
	"log/slog"
)

// Tag identifies one of the 20 audit actions above.
type Tag string

const (
	TagEnterQueue      Tag = "ENTERQUEUE"
	TagAddMember       Tag = "ADDMEMBER"
	TagRemoveMember    Tag = "REMOVEMEMBER"
	TagPause           Tag = "PAUSE"
	TagUnpause         Tag = "UNPAUSE"
	TagPauseAll        Tag = "PAUSEALL"
	TagUnpauseAll      Tag = "UNPAUSEALL"
	TagPenalty         Tag = "PENALTY"
	TagRingNoAnswer    Tag = "RINGNOANSWER"
	TagConnect         Tag = "CONNECT"
	TagCompleteCaller  Tag = "COMPLETECALLER"
	TagCompleteAgent   Tag = "COMPLETEAGENT"
	TagTransfer        Tag = "TRANSFER"
	TagAbandon         Tag = "ABANDON"
	TagAgentDump       Tag = "AGENTDUMP"
	TagSysCompat       Tag = "SYSCOMPAT"
	TagExitEmpty       Tag = "EXITEMPTY"
	TagExitWithTimeout Tag = "EXITWITHTIMEOUT"
	TagExitWithKey     Tag = "EXITWITHKEY"
	TagPickup          Tag = "PICKUP"
)

// Recorder is the interface audit backends implement. Defined locally
// so this package carries no dependency on a concrete sink; callers
// inject one at wiring time, e.g. a RecorderFunc writing to a
// persistence.Backend or plain structured log line.
type Recorder interface {
	Record(ctx context.Context, event *Event) error
}

// Event is one audit log line.
type Event struct {
	Tag      Tag            `json:"tag"`
	Queue    string         `json:"queue"`
	Channel  string         `json:"channel,omitempty"`
	Member   string         `json:"member,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RecorderFunc adapts a plain function to a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error { return f(ctx, event) }

// Log wraps a Recorder with structured-logging fallback: a failed
// Record is logged rather than propagated, matching audit_src's policy
// that a broken audit sink must never block call handling.
type Log struct {
	recorder Recorder
	logger   *slog.Logger
	enabled  map[Tag]bool // nil = all enabled
}

// Option configures a Log.
type Option func(*Log)

// WithTags restricts the log to only the listed tags.
func WithTags(tags ...Tag) Option {
	return func(l *Log) {
		l.enabled = make(map[Tag]bool, len(tags))
		for _, t := range tags {
			l.enabled[t] = true
		}
	}
}

// WithLogger sets the fallback logger used when Record fails.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// New creates a Log that records through r.
func New(r Recorder, opts ...Option) *Log {
	l := &Log{recorder: r, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record emits one audit event, ignoring the call entirely if tag has
// been excluded via WithTags.
func (l *Log) Record(ctx context.Context, tag Tag, queue string, kvPairs ...any) {
	if l.enabled != nil && !l.enabled[tag] {
		return
	}

	evt := &Event{Tag: tag, Queue: queue, Metadata: make(map[string]any, len(kvPairs)/2)}
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		switch key {
		case "channel":
			if s, ok := kvPairs[i+1].(string); ok {
				evt.Channel = s
				continue
			}
		case "member":
			if s, ok := kvPairs[i+1].(string); ok {
				evt.Member = s
				continue
			}
		}
		evt.Metadata[key] = kvPairs[i+1]
	}

	if err := l.recorder.Record(ctx, evt); err != nil {
		l.logger.Warn("audit: failed to record event", slog.String("tag", string(tag)), slog.Any("error", err))
	}
}

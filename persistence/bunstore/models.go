package bunstore

import (
	"time"

	"github.com/uptrace/bun"
)

type kvRow struct {
	bun.BaseModel `bun:"table:queue_kv_bun"`

	Family    string    `bun:"family,pk"`
	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type memberDumpRow struct {
	bun.BaseModel `bun:"table:queue_member_dumps_bun"`

	Queue     string    `bun:"queue,pk"`
	Line      string    `bun:"line,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

type statsRow struct {
	bun.BaseModel `bun:"table:queue_stats_bun"`

	Queue         string    `bun:"queue,pk"`
	Completed     int64     `bun:"completed,notnull,default:0"`
	CompletedInSL int64     `bun:"completed_in_sl,notnull,default:0"`
	Abandoned     int64     `bun:"abandoned,notnull,default:0"`
	HoldtimeNS    int64     `bun:"holdtime_ns,notnull,default:0"`
	TalktimeNS    int64     `bun:"talktime_ns,notnull,default:0"`
	RecordedAt    time.Time `bun:"recorded_at,notnull,default:current_timestamp"`
}

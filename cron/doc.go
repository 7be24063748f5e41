// Package cron schedules periodic realtime-member reconciliation for
// each queue, implementing spec.md §4.2 and scenario S6: on every tick
// a queue's member.RealtimeSource is polled and the results are folded
// into its member.Set via ReconcileFrom, so realtime members that
// disappeared are swept and members still present survive unchanged.
//
// A call-queue engine runs inside one Asterisk process attached to one
// PBX instance — there is no multi-instance deployment to elect a
// leader across, so this drops the teacher's cluster-backed distributed
// lock and leader election entirely and schedules ticks with
// robfig/cron/v3's own in-process Cron scheduler.
package cron

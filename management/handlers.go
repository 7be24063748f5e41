package management

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Distrotech/asterisk/audit"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/persistence"
	"github.com/Distrotech/asterisk/queue"
)

// dumpDynamicMembers implements spec.md §4.6: on modification of dynamic
// members, serialize the queue's dynamic-member set and write it under
// the queue's key. Static and realtime members never appear here. A nil
// s.Persist leaves this a no-op.
func (s *Server) dumpDynamicMembers(ctx context.Context, name string, q *queue.Queue) {
	if s.Persist == nil {
		return
	}
	var records []persistence.DynamicMemberRecord
	for _, m := range q.Members.Members() {
		if m.Provenance != member.ProvenanceDynamic {
			continue
		}
		stateKey := ""
		if m.Dev != nil {
			stateKey = m.Dev.Key()
		}
		records = append(records, persistence.DynamicMemberRecord{
			Interface:   m.Interface,
			Penalty:     m.Penalty,
			Paused:      m.IsPaused(),
			DisplayName: m.DisplayName,
			StateKey:    stateKey,
			CallInUse:   m.CallInUse,
		})
	}
	line := persistence.EncodeDynamicMembers(records)
	if err := s.Persist.DumpMembers(ctx, name, line); err != nil {
		s.Logger.Error("dump dynamic members", "queue", name, "error", err)
	}
}

// queueView is the JSON shape returned by list/show queue.
type queueView struct {
	Name      string           `json:"name"`
	Strategy  string           `json:"strategy"`
	MaxLen    int              `json:"max_len"`
	Waiting   int              `json:"waiting"`
	Available int              `json:"available"`
	Stats     queue.Snapshot   `json:"stats"`
	Members   []memberView     `json:"members"`
}

type memberView struct {
	Interface string `json:"interface"`
	Penalty   int    `json:"penalty"`
	Paused    bool   `json:"paused"`
	CallInUse bool   `json:"call_in_use"`
	Calls     int64  `json:"calls"`
}

func toQueueView(q *queue.Queue) queueView {
	members := q.Members.Members()
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			Interface: m.Interface,
			Penalty:   m.Penalty,
			Paused:    m.IsPaused(),
			CallInUse: m.CallInUse,
			Calls:     m.CallCount(),
		})
	}
	return queueView{
		Name:      q.Name,
		Strategy:  q.Strategy.String(),
		MaxLen:    q.MaxLen,
		Waiting:   q.Data.Len(),
		Available: q.NumAvailableMembers(),
		Stats:     q.Data.Stats(),
		Members:   views,
	}
}

// handleListQueues implements "show queue" with no argument: every
// registered queue.
func (s *Server) handleListQueues(w http.ResponseWriter, r *http.Request) {
	snap := s.Queues.Snapshot()
	views := make([]queueView, 0, len(snap))
	for _, q := range snap {
		views = append(views, toQueueView(q))
	}
	writeJSON(w, http.StatusOK, views)
}

// handleShowQueue implements "show queue <name>".
func (s *Server) handleShowQueue(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	q, _ := s.Queues.Get(name)
	writeJSON(w, http.StatusOK, toQueueView(q))
}

type addMemberRequest struct {
	Interface   string `json:"interface"`
	Penalty     int    `json:"penalty"`
	DisplayName string `json:"display_name"`
}

// handleAddMember implements "queue add member".
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Interface == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, _ := s.Queues.Get(name)
	m := &member.Member{
		Interface:   req.Interface,
		DisplayName: req.DisplayName,
		Penalty:     req.Penalty,
		Provenance:  member.ProvenanceDynamic,
		Dev:         s.Devices.Acquire(req.Interface),
	}
	if _, err := q.Members.Insert(m); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.Audit.Record(r.Context(), audit.TagAddMember, name, "channel", req.Interface)
	s.Bus.PublishMemberAdded(name, req.Interface)
	s.dumpDynamicMembers(r.Context(), name, q)
	writeJSON(w, http.StatusCreated, nil)
}

// handleRemoveMember implements "queue remove member".
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	iface := mux.Vars(r)["iface"]
	q, _ := s.Queues.Get(name)
	removed := q.Members.Remove(iface)
	if removed == nil {
		writeError(w, http.StatusNotFound, "member not found: "+iface)
		return
	}
	if removed.Dev != nil {
		s.Devices.Release(removed.Dev)
	}
	s.Audit.Record(r.Context(), audit.TagRemoveMember, name, "channel", iface)
	s.Bus.PublishMemberRemoved(name, iface)
	s.dumpDynamicMembers(r.Context(), name, q)
	writeJSON(w, http.StatusOK, nil)
}

type pauseRequest struct {
	Paused bool   `json:"paused"`
	Reason string `json:"reason"`
}

// handlePause implements "queue pause member" / "queue unpause member".
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	iface := mux.Vars(r)["iface"]
	q, _ := s.Queues.Get(name)
	m, found := q.Members.Get(iface)
	if !found {
		writeError(w, http.StatusNotFound, "member not found: "+iface)
		return
	}
	var req pauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.SetPaused(req.Paused)
	tag := audit.TagUnpause
	if req.Paused {
		tag = audit.TagPause
	}
	s.Audit.Record(r.Context(), tag, name, "channel", iface, "reason", req.Reason)
	s.Bus.PublishMemberPaused(name, iface, req.Paused)
	s.dumpDynamicMembers(r.Context(), name, q)
	writeJSON(w, http.StatusOK, nil)
}

type penaltyRequest struct {
	Penalty int `json:"penalty"`
}

// handleSetPenalty implements "queue set penalty".
func (s *Server) handleSetPenalty(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	iface := mux.Vars(r)["iface"]
	q, _ := s.Queues.Get(name)
	m, found := q.Members.Get(iface)
	if !found {
		writeError(w, http.StatusNotFound, "member not found: "+iface)
		return
	}
	var req penaltyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.SetPenalty(req.Penalty)
	s.Audit.Record(r.Context(), audit.TagPenalty, name, "channel", iface, "penalty", req.Penalty)
	s.Bus.PublishMemberPenalty(name, iface, req.Penalty)
	s.dumpDynamicMembers(r.Context(), name, q)
	writeJSON(w, http.StatusOK, nil)
}

type callInUseRequest struct {
	CallInUse bool `json:"call_in_use"`
}

// handleSetCallInUse implements "queue set callinuse".
func (s *Server) handleSetCallInUse(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	iface := mux.Vars(r)["iface"]
	q, _ := s.Queues.Get(name)
	m, found := q.Members.Get(iface)
	if !found {
		writeError(w, http.StatusNotFound, "member not found: "+iface)
		return
	}
	var req callInUseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.CallInUse = req.CallInUse
	writeJSON(w, http.StatusOK, nil)
}

type logEventRequest struct {
	Tag      string         `json:"tag"`
	Channel  string         `json:"channel"`
	Member   string         `json:"member"`
	Metadata map[string]any `json:"metadata"`
}

// handleLogEvent implements "queue log custom event": an external
// system attaches an arbitrary audit-log line to a queue.
func (s *Server) handleLogEvent(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	var req logEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tag == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	kv := make([]any, 0, 4+2*len(req.Metadata))
	kv = append(kv, "channel", req.Channel, "member", req.Member)
	for k, v := range req.Metadata {
		kv = append(kv, k, v)
	}
	s.Audit.Record(r.Context(), audit.Tag(req.Tag), name, kv...)
	writeJSON(w, http.StatusAccepted, nil)
}

// handleReload implements "queue reload": apply a partial Config patch
// while sharing the queue's live Data and Members, per spec.md §9.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reloaded, err := s.Queues.Reload(name, func(cfg queue.Config) queue.Config {
		applyConfigPatch(&cfg, patch)
		return cfg
	})
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toQueueView(reloaded))
}

// applyConfigPatch mutates cfg in place from a JSON object of field
// overrides. Unrecognized keys are ignored.
func applyConfigPatch(cfg *queue.Config, patch map[string]any) {
	if v, ok := patch["max_len"].(float64); ok {
		cfg.MaxLen = int(v)
	}
	if v, ok := patch["weight"].(float64); ok {
		cfg.Weight = int(v)
	}
	if v, ok := patch["penalty_members_limit"].(float64); ok {
		cfg.PenaltyMembersLimit = int(v)
	}
	if v, ok := patch["ring_in_use"].(bool); ok {
		cfg.RingInUse = v
	}
	if v, ok := patch["default_rule_name"].(string); ok {
		cfg.DefaultRuleName = v
	}
}

// handleResetStats implements "queue reset stats".
func (s *Server) handleResetStats(w http.ResponseWriter, r *http.Request) {
	name, ok := s.queueOr404(w, r)
	if !ok {
		return
	}
	q, _ := s.Queues.Get(name)
	q.Data.ResetStats()
	writeJSON(w, http.StatusOK, nil)
}

type ruleView struct {
	Name  string              `json:"name"`
	Rules []member.PenaltyRule `json:"rules"`
}

// handleShowRules implements "queue show rules".
func (s *Server) handleShowRules(w http.ResponseWriter, r *http.Request) {
	sets := s.Rules.List()
	views := make([]ruleView, 0, len(sets))
	for _, rs := range sets {
		views = append(views, ruleView{Name: rs.Name, Rules: rs.Rules})
	}
	writeJSON(w, http.StatusOK, views)
}

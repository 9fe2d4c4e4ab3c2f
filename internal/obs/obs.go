// Package obs is the observability facade for routing decisions: process
// counters, a zerolog decision log, and an optional sqlite3-backed audit
// trail of recorded DecisionEvents (registry mutations are not recorded).
// Apart from NotePathSelection, which only bumps a counter and is called per
// packet from the data plane, none of this is on the packet hot path —
// DecisionEvents are recorded from the control plane after a failover
// evaluation or QoS-informed choice, not per packet.
package obs

import (
	"database/sql"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sugawarayuuta/sonnet"

	"github.com/aftahi334/alpha-smart-router/internal/routing/pop"
	"github.com/aftahi334/alpha-smart-router/internal/routing/qos"
)

// Counters are process-level counters for routing decisions.
type Counters struct {
	Decisions        atomic.Uint64
	FailoverTriggers atomic.Uint64
	DegradedChoices  atomic.Uint64
}

// Snapshot is a point-in-time copy of Counters, safe to log or serialize.
type Snapshot struct {
	Decisions        uint64 `json:"decisions"`
	FailoverTriggers uint64 `json:"failover_triggers"`
	DegradedChoices  uint64 `json:"degraded_choices"`
}

// DecisionEvent describes a single routing decision for observability.
type DecisionEvent struct {
	DecisionID   string      `json:"decision_id"`
	SelectedPath string      `json:"selected_path"`
	Class        qos.Class   `json:"class"`
	BestScore    float64     `json:"best_score"`
	StrictMode   bool        `json:"strict_mode"`
	Scored       []qos.Score `json:"scored"`
	Reason       string      `json:"reason"`
}

// Observer records decision events and reports counters. The zero value is
// ready to use; sqlite persistence is opt-in via EnableAuditLog.
type Observer struct {
	counters Counters
	db       *sql.DB
}

// New builds an Observer with no audit persistence.
func New() *Observer {
	return &Observer{}
}

// EnableAuditLog opens (creating if needed) a sqlite3 database at path and
// starts persisting every recorded DecisionEvent to it. Safe to call once
// during bootstrap; ops tooling reads the resulting file independently of
// the running process.
func (o *Observer) EnableAuditLog(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	const schema = `CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		decision_id TEXT,
		payload TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return err
	}
	o.db = db
	return nil
}

// Close releases the audit log connection, if any.
func (o *Observer) Close() error {
	if o.db == nil {
		return nil
	}
	return o.db.Close()
}

// Record logs e via zerolog, updates counters, and persists it to the audit
// log when enabled.
func (o *Observer) Record(e DecisionEvent) {
	o.counters.Decisions.Add(1)
	if e.Reason == "current_down" || e.Reason == "better_candidate_with_margin" ||
		e.Reason == "no_current_score" || e.Reason == "return_to_primary" {
		o.counters.FailoverTriggers.Add(1)
	}

	logEvent := log.Info()
	if e.Reason != "" {
		logEvent = log.Warn()
	}
	logEvent.
		Str("decision_id", e.DecisionID).
		Str("selected_path", e.SelectedPath).
		Uint8("class", uint8(e.Class)).
		Float64("best_score", e.BestScore).
		Str("reason", e.Reason).
		Msg("routing decision")

	if o.db != nil {
		payload, err := sonnet.Marshal(e)
		if err != nil {
			return
		}
		_, _ = o.db.Exec(`INSERT INTO decisions (decision_id, payload) VALUES (?, ?)`, e.DecisionID, string(payload))
	}
}

// NotePathSelection updates per-packet decision counters from the data
// plane. It is allocation-free and carries no logging or persistence, so
// it's safe to call from the hot path. selected is the path chosen by
// policybinding.SelectPath; a sentinel 0 means no usable path was found and
// increments DegradedChoices.
func (o *Observer) NotePathSelection(selected pop.PathId) {
	if selected == 0 {
		o.counters.DegradedChoices.Add(1)
	}
}

// Snapshot returns a copy of the current counters.
func (o *Observer) Snapshot() Snapshot {
	return Snapshot{
		Decisions:        o.counters.Decisions.Load(),
		FailoverTriggers: o.counters.FailoverTriggers.Load(),
		DegradedChoices:  o.counters.DegradedChoices.Load(),
	}
}

// ConfigureLogger sets the process-wide zerolog level, called once from
// bootstrap.
func ConfigureLogger(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

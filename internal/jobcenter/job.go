// Package jobcenter implements the priority job-queue scheduler (spec.md
// §3/§4.5-4.6 — CORE 2), grounded on the single-owner-coordinator design
// spec.md §9 prescribes in place of original_source's shared-mutable
// actor (original_source/src/job_center/{actor_scheduler,scheduler}/*.rs
// mixes a message-passing actor with directly-shared heap/job state; this
// package keeps only the message-passing half and gives the coordinator
// exclusive ownership of every map).
package jobcenter

import "encoding/json"

// State is a Job's lifecycle state (spec.md §3 Job Center).
type State int

const (
	StateReady State = iota
	StateGiven
	StateDeleted
)

// Job is one unit of work. Payload is kept as raw JSON since the
// scheduler never needs to interpret it, only store and return it.
type Job struct {
	ID       uint64
	Queue    string
	Priority uint64
	Payload  json.RawMessage
	State    State
	Client   int64 // valid only while State == StateGiven
}

// Package cron reads a tenant's scheduled-job list for display. Jobs are
// never validated, scheduled or executed here.
package cron

import "encoding/json"

// Job is one entry of the job file. Every field is optional.
//
// A Job decoded from a file marshals back to exactly the object it was read
// from, including fields not modelled here.
type Job struct {
	ID            *string   `json:"id,omitempty"`
	Name          *string   `json:"name,omitempty"`
	Enabled       *bool     `json:"enabled,omitempty"`
	SessionTarget *string   `json:"sessionTarget,omitempty"`
	CreatedAtMs   *int64    `json:"createdAtMs,omitempty"`
	UpdatedAtMs   *int64    `json:"updatedAtMs,omitempty"`
	Schedule      *Schedule `json:"schedule,omitempty"`
	Payload       *Payload  `json:"payload,omitempty"`
	Delivery      *Delivery `json:"delivery,omitempty"`
	State         *State    `json:"state,omitempty"`

	raw json.RawMessage
}

// Schedule describes when a job fires.
type Schedule struct {
	Kind    *string `json:"kind,omitempty"`
	Expr    *string `json:"expr,omitempty"`
	TZ      *string `json:"tz,omitempty"`
	EveryMs *int64  `json:"everyMs,omitempty"`
	AtMs    *int64  `json:"atMs,omitempty"`
}

// Payload is what the job sends when it fires.
type Payload struct {
	Kind           *string `json:"kind,omitempty"`
	Message        *string `json:"message,omitempty"`
	Text           *string `json:"text,omitempty"`
	TimeoutSeconds *int    `json:"timeoutSeconds,omitempty"`
}

// Delivery says where results go.
type Delivery struct {
	Mode    *string `json:"mode,omitempty"`
	Channel *string `json:"channel,omitempty"`
	To      *string `json:"to,omitempty"`
}

// State is the scheduler's bookkeeping for a job.
type State struct {
	NextRunAtMs    *int64  `json:"nextRunAtMs,omitempty"`
	LastRunAtMs    *int64  `json:"lastRunAtMs,omitempty"`
	LastStatus     *string `json:"lastStatus,omitempty"`
	LastDurationMs *int64  `json:"lastDurationMs,omitempty"`
}

type plainJob Job

// UnmarshalJSON decodes the modelled fields and keeps the raw object.
func (j *Job) UnmarshalJSON(data []byte) error {
	var p plainJob
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*j = Job(p)
	j.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the object the job was decoded from, if any.
func (j Job) MarshalJSON() ([]byte, error) {
	if len(j.raw) > 0 {
		return j.raw, nil
	}
	return json.Marshal(plainJob(j))
}

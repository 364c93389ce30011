// Package state tracks the lifecycle of long-running requests. Each request
// key owns one Slice; slices change only through the commands in this file,
// applied by a Store.
package state

import (
	"time"
)

// RequestState is the lifecycle stage of the latest request under a key
type RequestState string

const (
	Standby RequestState = "STANDBY"
	Pending RequestState = "PENDING"
	Success RequestState = "SUCCESS"
	Failure RequestState = "FAILURE"
)

// Slice is the state owned by one request key
type Slice struct {
	Key       string       `json:"key"`
	RequestID string       `json:"requestId,omitempty"`
	State     RequestState `json:"state"`
	InFlight  bool         `json:"inFlight"`
	Value     any          `json:"value,omitempty"`
	Error     string       `json:"error,omitempty"`
	StartedAt time.Time    `json:"startedAt,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt,omitempty"`
}

func newSlice(key string) *Slice {
	return &Slice{Key: key, State: Standby}
}

// Command mutates a slice. apply reports whether the slice changed.
type Command interface {
	apply(s *Slice, now time.Time) bool
}

// Started begins a new request and supersedes any earlier one.
type Started struct {
	RequestID string
}

// Succeeded records the value produced by a request.
type Succeeded struct {
	RequestID string
	Value     any
}

// Failed records the error a request ended with.
type Failed struct {
	RequestID string
	Err       error
}

// Finished clears the in-flight marker. It is always the last command of a request.
type Finished struct {
	RequestID string
}

func (c Started) apply(s *Slice, now time.Time) bool {
	s.RequestID = c.RequestID
	s.State = Pending
	s.InFlight = true
	s.Error = ""
	s.StartedAt = now
	s.UpdatedAt = now
	return true
}

func (c Succeeded) apply(s *Slice, now time.Time) bool {
	if s.RequestID != c.RequestID {
		return false
	}
	s.State = Success
	s.Value = c.Value
	s.Error = ""
	s.UpdatedAt = now
	return true
}

func (c Failed) apply(s *Slice, now time.Time) bool {
	if s.RequestID != c.RequestID {
		return false
	}
	s.State = Failure
	if c.Err != nil {
		s.Error = c.Err.Error()
	}
	s.UpdatedAt = now
	return true
}

func (c Finished) apply(s *Slice, now time.Time) bool {
	if s.RequestID != c.RequestID {
		return false
	}
	s.InFlight = false
	s.UpdatedAt = now
	return true
}

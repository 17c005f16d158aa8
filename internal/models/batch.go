package models

import (
	"time"
)

type BatchState string

const (
	BatchStateIdle     BatchState = "idle"
	BatchStateRunning  BatchState = "running"
	BatchStateDraining BatchState = "draining"
)

type BatchKind string

const (
	BatchKindTonemap BatchKind = "tonemap"
	BatchKindMerge   BatchKind = "merge"
)

// Outcome is the structured result of one processed item.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

func (o Outcome) Value() string {
	return string(o)
}

// BatchRequest carries everything needed to start a tone-mapping batch.
type BatchRequest struct {
	Inputs      []string
	Settings    []string
	OutputDir   string
	NumThreads  int
	Format      string
	JPEGQuality int
}

// MergeRequest carries everything needed to build HDR images from
// bracketed exposures.
type MergeRequest struct {
	Inputs       []string
	OutputDir    string
	NumBracketed int
	Align        bool
	MaxShift     int
}

// BatchStatus is a snapshot of the running (or last) batch.
type BatchStatus struct {
	ID         string
	State      BatchState
	Total      int
	Dispatched int
	Progress   int
	InFlight   int
	Capacity   int
	Succeeded  int
	Failed     int
	Cancelled  int
	StartedAt  time.Time
	Error      error
}

// ItemResult is a persisted record of one processed item.
type ItemResult struct {
	BatchID    string
	Index      int
	InputPath  string
	Settings   string
	OutputPath string
	Outcome    Outcome
	Error      string
	Duration   time.Duration
	FinishedAt time.Time
}

// BatchRecord is a persisted record of a finished batch.
type BatchRecord struct {
	ID         string
	Kind       BatchKind
	Total      int
	Succeeded  int
	Failed     int
	Cancelled  int
	NotStarted int
	StartedAt  time.Time
	FinishedAt time.Time
}

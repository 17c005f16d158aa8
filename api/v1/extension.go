package v1

import (
	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/pkg/logsink"
)

// NewBatchStatusFromModel converts a models.BatchStatus to an API BatchStatus.
func NewBatchStatusFromModel(m models.BatchStatus) BatchStatus {
	var state BatchStatusState
	switch m.State {
	case models.BatchStateRunning:
		state = BatchStatusStateRunning
	case models.BatchStateDraining:
		state = BatchStatusStateDraining
	default:
		state = BatchStatusStateIdle
	}

	s := BatchStatus{
		Id:         m.ID,
		State:      state,
		Total:      m.Total,
		Dispatched: m.Dispatched,
		Progress:   m.Progress,
		InFlight:   m.InFlight,
		Capacity:   m.Capacity,
		Succeeded:  m.Succeeded,
		Failed:     m.Failed,
		Cancelled:  m.Cancelled,
	}
	if !m.StartedAt.IsZero() {
		t := m.StartedAt
		s.StartedAt = &t
	}
	return s
}

// ToModel fills the unset fields of the request from defaults.
func (r StartBatchRequest) ToModel(defaults models.BatchRequest) models.BatchRequest {
	req := defaults
	req.Inputs = r.Inputs
	req.Settings = r.Settings
	req.OutputDir = r.OutputDir
	if r.Threads != nil {
		req.NumThreads = *r.Threads
	}
	if r.Format != nil {
		req.Format = *r.Format
	}
	if r.Quality != nil {
		req.JPEGQuality = *r.Quality
	}
	return req
}

func NewLogResponse(filter string, entries []logsink.Entry) LogResponse {
	out := LogResponse{Filter: filter, Entries: make([]LogEntry, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, LogEntry{Seq: e.Seq, Time: e.Time, Message: e.Message})
	}
	return out
}

func NewHistoryItemFromModel(m models.ItemResult) HistoryItem {
	it := HistoryItem{
		BatchId:    m.BatchID,
		Index:      m.Index,
		Input:      m.InputPath,
		Settings:   m.Settings,
		Outcome:    m.Outcome.Value(),
		DurationMs: m.Duration.Milliseconds(),
	}
	if m.OutputPath != "" {
		it.Output = &m.OutputPath
	}
	if m.Error != "" {
		it.Error = &m.Error
	}
	return it
}

func NewBatchRecordFromModel(m models.BatchRecord) BatchRecord {
	return BatchRecord{
		Id:         m.ID,
		Kind:       string(m.Kind),
		Total:      m.Total,
		Succeeded:  m.Succeeded,
		Failed:     m.Failed,
		Cancelled:  m.Cancelled,
		NotStarted: m.NotStarted,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
}

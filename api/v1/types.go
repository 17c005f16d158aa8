// Package v1 holds the wire types of the /api/v1 HTTP API.
package v1

import "time"

type BatchStatusState string

const (
	BatchStatusStateIdle     BatchStatusState = "idle"
	BatchStatusStateRunning  BatchStatusState = "running"
	BatchStatusStateDraining BatchStatusState = "draining"
)

// StartBatchRequest is the body of POST /tonemap.
type StartBatchRequest struct {
	Inputs    []string `json:"inputs" binding:"required,min=1"`
	Settings  []string `json:"settings" binding:"required,min=1"`
	OutputDir string   `json:"outputDir" binding:"required"`
	Threads   *int     `json:"threads,omitempty"`
	Format    *string  `json:"format,omitempty"`
	Quality   *int     `json:"quality,omitempty"`
}

type StartBatchResponse struct {
	Id string `json:"id"`
}

type BatchStatus struct {
	Id         string           `json:"id,omitempty"`
	State      BatchStatusState `json:"state"`
	Total      int              `json:"total"`
	Dispatched int              `json:"dispatched"`
	Progress   int              `json:"progress"`
	InFlight   int              `json:"inFlight"`
	Capacity   int              `json:"capacity"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Cancelled  int              `json:"cancelled"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
}

type LogEntry struct {
	Seq     int       `json:"seq"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

type LogResponse struct {
	Filter  string     `json:"filter"`
	Entries []LogEntry `json:"entries"`
}

// GetHistoryParams are the query parameters of GET /history.
type GetHistoryParams struct {
	Batch    *string   `form:"batch"`
	Outcome  []string  `form:"outcome"`
	Input    *string   `form:"input"`
	Page     *int      `form:"page"`
	PageSize *int      `form:"pageSize"`
}

type HistoryItem struct {
	BatchId    string  `json:"batchId"`
	Index      int     `json:"index"`
	Input      string  `json:"input"`
	Settings   string  `json:"settings"`
	Output     *string `json:"output,omitempty"`
	Outcome    string  `json:"outcome"`
	Error      *string `json:"error,omitempty"`
	DurationMs int64   `json:"durationMs"`
}

type HistoryResponse struct {
	Page      int           `json:"page"`
	PageCount int           `json:"pageCount"`
	Total     int           `json:"total"`
	Items     []HistoryItem `json:"items"`
}

type BatchRecord struct {
	Id         string    `json:"id"`
	Kind       string    `json:"kind"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Cancelled  int       `json:"cancelled"`
	NotStarted int       `json:"notStarted"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

type Error struct {
	Error string `json:"error"`
}

package store

// Batch queries
const (
	queryInsertBatch = `
		INSERT INTO batches (id, kind, total, succeeded, failed, cancelled, not_started, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetBatch = `
		SELECT id, kind, total, succeeded, failed, cancelled, not_started, started_at, finished_at
		FROM batches WHERE id = ?`
)

// Item queries
const (
	queryInsertItem = `
		INSERT INTO batch_items (batch_id, idx, input_path, settings, output_path, outcome, error, duration_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Package store implements the history layer for hdr-batch.
//
// Finished batches and the result of every dispatched item are kept in DuckDB
// so the history endpoint and CLI can report on past runs.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                          │
//	├─────────────────────────────────────────────────────────────────┤
//	│           BatchStore           │           ItemStore            │
//	│              ▼                 │              ▼                 │
//	│           batches              │          batch_items           │
//	├────────────────────────────────┴────────────────────────────────┤
//	│                QueryInterceptor (debug logging)                 │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Tables
//
//	┌────────────────────┬─────────────────────────────────────────────┐
//	│  Table             │  Purpose                                    │
//	├────────────────────┼─────────────────────────────────────────────┤
//	│  batches           │  One row per finished batch, with counters  │
//	│  batch_items       │  One row per dispatched item                │
//	│  schema_migrations │  Migration version tracking                 │
//	└────────────────────┴─────────────────────────────────────────────┘
//
// Items that were never dispatched are not stored; the batch row carries
// their count in not_started.
//
// # Initialization Flow
//
//	db, err := store.NewDB(path)        // retries the first ping with backoff
//	err = migrations.Run(ctx, db)       // creates batches, batch_items
//	s := store.NewStore(db)
//
// # List Options
//
// List and Count take ListOption functions that modify a squirrel
// SelectBuilder:
//
//	items, err := s.Items().List(ctx,
//	    store.ByBatch(id),
//	    store.ByOutcome("failed"),
//	    store.WithDefaultSort(),
//	    store.WithLimit(50),
//	    store.WithOffset(0),
//	)
//
// Filtering Options:
//
//   - ByBatch(ids ...string)       SQL: WHERE batch_id IN (...)
//   - ByOutcome(outcomes ...string) SQL: WHERE outcome IN (...)
//   - ByKind(kinds ...string)      SQL: WHERE kind IN (...) (batches only)
//   - ByInput(substr string)       SQL: WHERE input_path LIKE '%substr%'
//
// Pagination Options:
//
//   - WithLimit(limit uint64)
//   - WithOffset(offset uint64)
//
// # Writes
//
// SaveBatch inserts the batch row and its items in one transaction, so a
// batch is either fully recorded or not at all.
package store

// Package services implements the business logic layer for hdr-batch.
//
// Services sit between the presentation surfaces (HTTP handlers, cobra
// commands) and the core packages. They validate requests, build the work
// queue, drive a scheduler.Dispatcher and record finished batches.
//
// # Service Dependency Graph
//
//	Handlers / Commands
//	    │
//	    ▼
//	Services Layer
//	    ├── BatchService ───► tmoptions, Dispatcher, tonemap Backend, LogSink, Store
//	    ├── MergeService ───► Dispatcher (one slot), hdrmerge, LogSink, Store
//	    └── HistoryService ─► Store
//
// # BatchService
//
// BatchService runs one tone-mapping batch at a time.
//
// Start:
//  1. Validates the request; ConfigurationError for no inputs, no settings,
//     an unusable output directory, fewer than one thread or an unknown format
//  2. Parses every settings file; unparseable ones are logged and dropped
//  3. Builds the input x settings cross product, input-major
//  4. Logs "Using N thread(s)", "Saving using file format: X", "Start processing..."
//  5. Starts the dispatcher and returns the batch id
//
// A second Start while a batch runs returns BatchInProgressError. When the
// batch completes the duration percentiles are logged and the batch is
// written to the store.
//
// Usage:
//
//	svc := services.NewBatchService(factory, st, sink)
//	id, err := svc.Start(ctx, req)
//	status := svc.Status()
//	svc.Cancel()                   // cooperative
//	summary, err := svc.Wait(ctx)
//
// # MergeService
//
// MergeService sorts its inputs, splits them into sets of NumBracketed and
// merges the sets one after another through a single-slot dispatcher. Each set
// is written to <output>/<first exposure>.hdr. A failing set is logged and
// does not stop the others.
//
// # HistoryService
//
// HistoryService lists recorded item results with filters and pagination.
package services

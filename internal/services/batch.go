package services

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/store"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
	"github.com/luminancehdr/hdr-batch/pkg/logsink"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
	"github.com/luminancehdr/hdr-batch/pkg/tmoptions"
)

// BackendFactory builds the backend for one batch.
type BackendFactory func(format hdrio.Format, quality int) scheduler.Backend

// BatchService runs one tone-mapping batch at a time.
type BatchService struct {
	newBackend BackendFactory
	store      *store.Store
	sink       *logsink.Sink
	logger     *zap.SugaredLogger

	mu  sync.Mutex
	cur *batchRun
}

// batchRun is one started batch. summary is written once, before done is closed.
type batchRun struct {
	id         string
	startedAt  time.Time
	dispatcher *scheduler.Dispatcher
	done       chan struct{}
	summary    scheduler.Summary
}

// NewBatchService creates the service. st may be nil, in which case batches
// are not recorded.
func NewBatchService(newBackend BackendFactory, st *store.Store, sink *logsink.Sink) *BatchService {
	if sink == nil {
		sink = logsink.New()
	}
	return &BatchService{
		newBackend: newBackend,
		store:      st,
		sink:       sink,
		logger:     zap.S().Named("batch_service"),
	}
}

// Start validates req and starts the batch in the background. It returns the
// batch id.
func (s *BatchService) Start(ctx context.Context, req models.BatchRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a run is over once its summary is recorded, not when the dispatcher goes idle
	if s.cur != nil {
		select {
		case <-s.cur.done:
		default:
			return "", srvErrors.NewBatchInProgressError()
		}
	}

	format, err := validateRequest(req)
	if err != nil {
		return "", err
	}

	s.sink.Reset()

	options, errs := tmoptions.ParseAll(req.Settings)
	for _, err := range errs {
		s.sink.Appendf("error: %v", err)
		s.logger.Warnw("skipping settings file", "error", err)
	}
	if len(options) == 0 {
		return "", srvErrors.NewConfigurationError("no usable tone mapping settings")
	}

	items := scheduler.CrossProduct(req.Inputs, options, req.OutputDir)

	s.sink.Appendf("Using %d thread(s)", req.NumThreads)
	s.sink.Appendf("Saving using file format: %s", format)
	s.sink.Append("Start processing...")

	d := scheduler.NewDispatcher(s.newBackend(format, req.JPEGQuality), scheduler.WithLogSink(s.sink))
	future, err := d.Start(context.WithoutCancel(ctx), items, req.NumThreads)
	if err != nil {
		return "", err
	}

	run := &batchRun{
		id:         uuid.NewString(),
		startedAt:  time.Now(),
		dispatcher: d,
		done:       make(chan struct{}),
	}
	s.cur = run

	s.logger.Infow("batch started",
		"id", run.id,
		"inputs", len(req.Inputs),
		"settings", len(options),
		"items", len(items),
		"threads", req.NumThreads,
		"format", format)

	go s.await(run, future)

	return run.id, nil
}

func (s *BatchService) await(run *batchRun, future *scheduler.Future[scheduler.Summary]) {
	summary := <-future.C()

	if stats, ok := durationStats(summary.Results); ok {
		s.sink.Appendf("Timing: %s", stats)
	}

	if s.store != nil {
		rec, items := toRecords(run.id, models.BatchKindTonemap, run.startedAt, summary)
		if err := s.store.SaveBatch(context.Background(), rec, items); err != nil {
			s.logger.Errorw("failed to record batch", "id", run.id, "error", err)
		}
	}

	run.summary = summary
	close(run.done)
}

// Cancel stops the running batch. Items already inside the backend finish;
// nothing new is dispatched. Cancelling when idle is a no-op.
func (s *BatchService) Cancel() {
	s.mu.Lock()
	run := s.cur
	s.mu.Unlock()

	if run != nil && run.dispatcher.Running() {
		s.sink.Append("Cancelling...")
		run.dispatcher.Cancel()
	}
}

// Wait blocks until the current batch is fully recorded or ctx is done.
func (s *BatchService) Wait(ctx context.Context) (scheduler.Summary, error) {
	s.mu.Lock()
	run := s.cur
	s.mu.Unlock()

	if run == nil {
		return scheduler.Summary{}, srvErrors.NewResourceNotFoundError("batch", "")
	}

	select {
	case <-run.done:
		return run.summary, nil
	case <-ctx.Done():
		return scheduler.Summary{}, ctx.Err()
	}
}

func (s *BatchService) Status() models.BatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return models.BatchStatus{State: models.BatchStateIdle}
	}

	st := s.cur.dispatcher.Status()
	status := models.BatchStatus{
		ID:         s.cur.id,
		State:      st.State,
		Total:      st.Total,
		Dispatched: st.Cursor,
		Progress:   st.Progress,
		InFlight:   st.InFlight,
		Capacity:   st.Capacity,
		StartedAt:  s.cur.startedAt,
	}
	for _, r := range s.cur.dispatcher.Results() {
		switch r.Outcome {
		case models.OutcomeSucceeded:
			status.Succeeded++
		case models.OutcomeFailed:
			status.Failed++
		case models.OutcomeCancelled:
			status.Cancelled++
		}
	}
	return status
}

// Log returns the batch log entries matching filter.
func (s *BatchService) Log(filter string) ([]logsink.Entry, error) {
	entries, err := s.sink.Filter(filter)
	if err != nil {
		return nil, srvErrors.NewConfigurationError("invalid log filter %q: %v", filter, err)
	}
	return entries, nil
}

// Close cancels the running batch and waits for it to be recorded.
func (s *BatchService) Close() {
	s.mu.Lock()
	run := s.cur
	s.mu.Unlock()

	if run == nil {
		return
	}
	run.dispatcher.Close()
	<-run.done
}

func validateRequest(req models.BatchRequest) (hdrio.Format, error) {
	if req.NumThreads < 1 {
		return "", srvErrors.NewConfigurationError("number of threads must be at least 1, got %d", req.NumThreads)
	}
	if len(req.Inputs) == 0 {
		return "", srvErrors.NewConfigurationError("no input files")
	}
	if len(req.Settings) == 0 {
		return "", srvErrors.NewConfigurationError("no tone mapping settings files")
	}
	format, err := hdrio.FormatFromString(req.Format)
	if err != nil {
		return "", srvErrors.NewConfigurationError("%v", err)
	}
	if err := checkOutputDir(req.OutputDir); err != nil {
		return "", err
	}
	return format, nil
}

func checkOutputDir(dir string) error {
	if dir == "" {
		return srvErrors.NewConfigurationError("no output directory")
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return srvErrors.NewConfigurationError("output directory %s: %v", dir, err)
	}
	if !fi.IsDir() {
		return srvErrors.NewConfigurationError("output directory %s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".hdr-batch-*")
	if err != nil {
		return srvErrors.NewConfigurationError("output directory %s is not writable: %v", dir, err)
	}
	f.Close()
	os.Remove(f.Name())
	return nil
}

func toRecords(id string, kind models.BatchKind, startedAt time.Time, summary scheduler.Summary) (models.BatchRecord, []models.ItemResult) {
	rec := models.BatchRecord{
		ID:         id,
		Kind:       kind,
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Cancelled:  summary.Cancelled,
		NotStarted: summary.NotStarted,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(summary.Elapsed),
	}

	items := make([]models.ItemResult, 0, len(summary.Results))
	for _, r := range summary.Results {
		it := models.ItemResult{
			BatchID:    id,
			Index:      r.Item.Index,
			InputPath:  r.Item.InputPath,
			OutputPath: r.OutputPath,
			Outcome:    r.Outcome,
			Duration:   r.Duration,
			FinishedAt: rec.FinishedAt,
		}
		if r.Item.Options != nil {
			it.Settings = r.Item.Options.Postfix()
		}
		if r.Err != nil {
			it.Error = r.Err.Error()
		}
		items = append(items, it)
	}
	return rec, items
}

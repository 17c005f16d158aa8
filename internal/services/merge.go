package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/store"
	srvErrors "github.com/luminancehdr/hdr-batch/pkg/errors"
	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
	"github.com/luminancehdr/hdr-batch/pkg/hdrmerge"
	"github.com/luminancehdr/hdr-batch/pkg/logsink"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
)

// Merger turns one bracketed set into an HDR file at out.
type Merger interface {
	Merge(ctx context.Context, group []string, out string, opts hdrmerge.Options) error
}

type hdrMerger struct{}

func (hdrMerger) Merge(ctx context.Context, group []string, out string, opts hdrmerge.Options) error {
	img, err := hdrmerge.Create(ctx, group, opts)
	if err != nil {
		return err
	}
	return hdrio.WriteHDR(out, img)
}

// MergeService builds HDR images from bracketed exposures, one set at a time.
type MergeService struct {
	merger Merger
	store  *store.Store
	sink   *logsink.Sink
	logger *zap.SugaredLogger
}

// NewMergeService creates the service. A nil merger uses the built-in
// alignment and merge.
func NewMergeService(merger Merger, st *store.Store, sink *logsink.Sink) *MergeService {
	if merger == nil {
		merger = hdrMerger{}
	}
	if sink == nil {
		sink = logsink.New()
	}
	return &MergeService{
		merger: merger,
		store:  st,
		sink:   sink,
		logger: zap.S().Named("merge_service"),
	}
}

// Group sorts inputs and splits them into consecutive sets of n.
func Group(inputs []string, n int) ([][]string, error) {
	if n < 1 {
		return nil, srvErrors.NewConfigurationError("number of bracketed exposures must be at least 1, got %d", n)
	}
	if len(inputs) == 0 {
		return nil, srvErrors.NewConfigurationError("no input files")
	}
	if len(inputs)%n != 0 {
		return nil, srvErrors.NewConfigurationError("%d input file(s) cannot be split into sets of %d", len(inputs), n)
	}

	sorted := make([]string, len(inputs))
	copy(sorted, inputs)
	sort.Strings(sorted)

	groups := make([][]string, 0, len(sorted)/n)
	for i := 0; i < len(sorted); i += n {
		groups = append(groups, sorted[i:i+n])
	}
	return groups, nil
}

// MergeOutputPath is <dir>/<first exposure base>.hdr.
func MergeOutputPath(dir string, group []string) string {
	base := filepath.Base(group[0])
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".hdr")
}

// Run merges every set and blocks until done. A failing set is logged and
// the next one is attempted. Cancelling ctx stops after the set in progress.
func (s *MergeService) Run(ctx context.Context, req models.MergeRequest) (string, scheduler.Summary, error) {
	groups, err := Group(req.Inputs, req.NumBracketed)
	if err != nil {
		return "", scheduler.Summary{}, err
	}
	if err := checkOutputDir(req.OutputDir); err != nil {
		return "", scheduler.Summary{}, err
	}

	opts := hdrmerge.Options{Align: req.Align, MaxShift: req.MaxShift}
	items := make([]scheduler.WorkItem, len(groups))
	for i, g := range groups {
		items[i] = scheduler.WorkItem{Index: i, InputPath: g[0], OutputDir: req.OutputDir}
	}

	backend := scheduler.BackendFunc(func(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
		group := groups[item.Index]
		out := MergeOutputPath(item.OutputDir, group)
		if err := s.merger.Merge(ctx, group, out, opts); err != nil {
			return scheduler.Output{}, fmt.Errorf("%d exposure(s): %w", len(group), err)
		}
		return scheduler.Output{Path: out}, nil
	})

	s.sink.Reset()
	s.sink.Appendf("Creating %d HDR image(s) from sets of %d", len(groups), req.NumBracketed)
	s.sink.Append("Start processing...")

	id := uuid.NewString()
	startedAt := time.Now()
	s.logger.Infow("merge started", "id", id, "sets", len(groups), "bracketed", req.NumBracketed, "align", req.Align)

	d := scheduler.NewDispatcher(backend, scheduler.WithLogSink(s.sink))
	future, err := d.Start(ctx, items, 1)
	if err != nil {
		return "", scheduler.Summary{}, err
	}
	summary := <-future.C()

	if s.store != nil {
		rec, results := toRecords(id, models.BatchKindMerge, startedAt, summary)
		for i := range results {
			results[i].Settings = fmt.Sprintf("%d exposures", req.NumBracketed)
		}
		if err := s.store.SaveBatch(context.Background(), rec, results); err != nil {
			s.logger.Errorw("failed to record merge", "id", id, "error", err)
		}
	}

	return id, summary, nil
}

// Log returns the merge log entries matching filter.
func (s *MergeService) Log(filter string) ([]logsink.Entry, error) {
	entries, err := s.sink.Filter(filter)
	if err != nil {
		return nil, srvErrors.NewConfigurationError("invalid log filter %q: %v", filter, err)
	}
	return entries, nil
}

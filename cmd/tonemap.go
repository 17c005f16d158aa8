package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/services"
	"github.com/luminancehdr/hdr-batch/internal/util"
	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
	"github.com/luminancehdr/hdr-batch/pkg/logsink"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
	"github.com/luminancehdr/hdr-batch/pkg/tonemap"
)

type tonemapFlags struct {
	inputs      []string
	inputDir    string
	settings    []string
	settingsDir string
}

func newTonemapCommand(a *app) *cobra.Command {
	var f tonemapFlags

	cmd := &cobra.Command{
		Use:   "tonemap",
		Short: "Tone map every input with every settings file",
		Example: `  hdr-batch tonemap --input-dir ./hdr --settings soft.txt --settings punchy.yaml -o ./out -j 4
  hdr-batch tonemap -i a.hdr -i b.hdr --settings-dir ./presets -o ./out --format png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inputs, err := collect(f.inputs, f.inputDir, hdrio.IsHDRInput)
			if err != nil {
				return err
			}
			settings, err := collect(f.settings, f.settingsDir, hdrio.IsSettingsFile)
			if err != nil {
				return err
			}
			return a.runTonemap(cmd.Context(), cmd, inputs, settings)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&f.inputs, "input", "i", nil, "HDR input file (repeatable)")
	flags.StringVar(&f.inputDir, "input-dir", "", "directory of HDR input files")
	flags.StringSliceVarP(&f.settings, "settings", "s", nil, "tone mapping settings file (repeatable)")
	flags.StringVar(&f.settingsDir, "settings-dir", "", "directory of tone mapping settings files")
	flags.StringP("output", "o", "", "output directory")
	flags.IntP("threads", "j", a.cfg.Batch.NumThreads, "number of concurrent tone mapping jobs")
	flags.String("format", a.cfg.Batch.Format, "output format: jpg, png or tiff")
	flags.Int("quality", a.cfg.Batch.JPEGQuality, "JPEG quality, 1 to 100")
	bindKey(flags, "output", "batch.output")
	bindKey(flags, "threads", "batch.threads")
	bindKey(flags, "format", "batch.format")
	bindKey(flags, "quality", "batch.quality")

	return cmd
}

func (a *app) runTonemap(ctx context.Context, cmd *cobra.Command, inputs, settings []string) error {
	st, db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	sink := logsink.New(logsink.WithHook(printer(cmd.OutOrStdout())))
	svc := services.NewBatchService(func(format hdrio.Format, quality int) scheduler.Backend {
		return tonemap.NewBackend(format, quality)
	}, st, sink)
	defer svc.Close()

	if _, err := svc.Start(ctx, models.BatchRequest{
		Inputs:      inputs,
		Settings:    settings,
		OutputDir:   a.cfg.Batch.OutputDir,
		NumThreads:  a.cfg.Batch.NumThreads,
		Format:      a.cfg.Batch.Format,
		JPEGQuality: a.cfg.Batch.JPEGQuality,
	}); err != nil {
		return err
	}

	release := stopOnSignal(svc.Cancel)
	defer release()

	summary, err := svc.Wait(context.Background())
	if err != nil {
		return err
	}
	return summaryError(summary)
}

// stopOnSignal calls stop on the first SIGINT or SIGTERM until release is called.
func stopOnSignal(stop func()) (release func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			zap.S().Named("cli").Infow("interrupted, cancelling", "signal", sig.String())
			stop()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func summaryError(s scheduler.Summary) error {
	if s.Failed == 0 && s.Cancelled == 0 && s.NotStarted == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d item(s) did not succeed", s.Total-s.Succeeded, s.Total)
}

// collect merges explicit paths with the matching files of dir.
func collect(paths []string, dir string, match func(string) bool) ([]string, error) {
	out := append([]string(nil), paths...)
	if dir != "" {
		files, err := util.ListFiles(dir, match)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return util.Dedup(out), nil
}

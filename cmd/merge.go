package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/services"
	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
	"github.com/luminancehdr/hdr-batch/pkg/logsink"
)

func newMergeCommand(a *app) *cobra.Command {
	var (
		inputs   []string
		inputDir string
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Create HDR images from sets of bracketed exposures",
		Long: `Sorts the inputs by name, splits them into consecutive sets of
--bracketed exposures and writes one Radiance .hdr file per set, named after
the set's first file. Exposure times are read from EXIF.`,
		Example: `  hdr-batch merge --input-dir ./brackets --bracketed 3 -o ./hdr`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := collect(inputs, inputDir, hdrio.IsExposure)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, db, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			svc := services.NewMergeService(nil, st, logsink.New(logsink.WithHook(printer(cmd.OutOrStdout()))))

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			release := stopOnSignal(cancel)
			defer release()

			_, summary, err := svc.Run(ctx, models.MergeRequest{
				Inputs:       files,
				OutputDir:    a.cfg.Batch.OutputDir,
				NumBracketed: a.cfg.HDR.NumBracketed,
				Align:        a.cfg.HDR.Align,
				MaxShift:     a.cfg.HDR.MaxShift,
			})
			if err != nil {
				return err
			}
			return summaryError(summary)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&inputs, "input", "i", nil, "exposure file (repeatable)")
	flags.StringVar(&inputDir, "input-dir", "", "directory of exposure files")
	flags.StringP("output", "o", "", "output directory")
	flags.IntP("bracketed", "n", a.cfg.HDR.NumBracketed, "number of exposures per set")
	flags.Bool("align", a.cfg.HDR.Align, "align exposures before merging")
	flags.Int("max-shift", a.cfg.HDR.MaxShift, "largest alignment shift searched, in pixels")
	bindKey(flags, "output", "batch.output")
	bindKey(flags, "bracketed", "hdr.bracketed")
	bindKey(flags, "align", "hdr.align")
	bindKey(flags, "max-shift", "hdr.max-shift")

	return cmd
}

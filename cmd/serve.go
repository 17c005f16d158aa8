package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "github.com/luminancehdr/hdr-batch/api/v1"
	"github.com/luminancehdr/hdr-batch/internal/handlers"
	"github.com/luminancehdr/hdr-batch/internal/models"
	"github.com/luminancehdr/hdr-batch/internal/server"
	"github.com/luminancehdr/hdr-batch/internal/services"
	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
	"github.com/luminancehdr/hdr-batch/pkg/logsink"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
	"github.com/luminancehdr/hdr-batch/pkg/tonemap"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the batch API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.runServer(ctx)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", a.cfg.Server.HTTPPort, "HTTP port")
	flags.String("mode", a.cfg.Server.ServerMode, "server mode: dev or prod")
	flags.IntP("threads", "j", a.cfg.Batch.NumThreads, "default number of concurrent jobs")
	flags.String("format", a.cfg.Batch.Format, "default output format")
	flags.Int("quality", a.cfg.Batch.JPEGQuality, "default JPEG quality")
	bindKey(flags, "port", "server.http-port")
	bindKey(flags, "mode", "server.mode")
	bindKey(flags, "threads", "batch.threads")
	bindKey(flags, "format", "batch.format")
	bindKey(flags, "quality", "batch.quality")

	return cmd
}

func (a *app) runServer(ctx context.Context) error {
	logger := zap.S().Named("serve")

	st, db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	sink := logsink.New(logsink.WithLogger(zap.S().Named("batch_log")))
	batchSrv := services.NewBatchService(func(format hdrio.Format, quality int) scheduler.Backend {
		return tonemap.NewBackend(format, quality)
	}, st, sink)
	defer batchSrv.Close()

	h := handlers.New(batchSrv, services.NewHistoryService(st), models.BatchRequest{
		NumThreads:  a.cfg.Batch.NumThreads,
		Format:      a.cfg.Batch.Format,
		JPEGQuality: a.cfg.Batch.JPEGQuality,
	})

	srv, err := server.NewServer(a.cfg, func(router *gin.RouterGroup) {
		v1.RegisterHandlers(router, h)
	})
	if err != nil {
		return err
	}

	logger.Infow("api ready", "port", a.cfg.Server.HTTPPort, "mode", a.cfg.Server.ServerMode, "store", a.cfg.Store.Path)
	return srv.Start(ctx)
}

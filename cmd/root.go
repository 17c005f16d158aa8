package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/luminancehdr/hdr-batch/internal/config"
	"github.com/luminancehdr/hdr-batch/internal/store"
	"github.com/luminancehdr/hdr-batch/internal/store/migrations"
)

// viperKey is the flag annotation naming the configuration key a flag sets.
const viperKey = "viper-key"

// app holds the state shared by the commands of one root command.
type app struct {
	configFile string
	v          *viper.Viper
	cfg        *config.Configuration
}

func NewRootCommand() *cobra.Command {
	a := &app{
		v:   config.NewViper(),
		cfg: config.NewConfigurationWithDefaults(),
	}

	root := &cobra.Command{
		Use:           "hdr-batch",
		Short:         "Batch tone mapping and HDR creation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: cobrautil.CommandStack(
			cobrautil.SyncViperPreRunE("hdr-batch"),
			a.loadConfig,
		),
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "path to a configuration file")
	root.PersistentFlags().String("log-format", a.cfg.LogFormat, "log format: console or json")
	root.PersistentFlags().String("log-level", a.cfg.LogLevel, "log level: debug, info, warn, error")
	root.PersistentFlags().String("db", a.cfg.Store.Path, "DuckDB history file, :memory: keeps it in memory")
	bindKey(root.PersistentFlags(), "log-format", "log-format")
	bindKey(root.PersistentFlags(), "log-level", "log-level")
	bindKey(root.PersistentFlags(), "db", "store.path")

	root.AddCommand(
		newTonemapCommand(a),
		newMergeCommand(a),
		newServeCommand(a),
	)
	return root
}

func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func bindKey(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, viperKey, []string{key}); err != nil {
		panic(err)
	}
}

// loadConfig binds the annotated flags of the running command, loads the
// configuration and installs the global logger.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys, ok := f.Annotations[viperKey]
		if !ok || bindErr != nil {
			return
		}
		bindErr = a.v.BindPFlag(keys[0], f)
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zc zap.Config
	if format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	return zc.Build()
}

// openStore opens the history database and brings its schema up to date.
func (a *app) openStore(ctx context.Context) (*store.Store, *sql.DB, error) {
	db, err := store.NewDB(a.cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", a.cfg.Store.Path, err)
	}
	return store.NewStore(db), db, nil
}


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/PhantomStrikers/sanguoxianhua/internals/accounts"
	"github.com/PhantomStrikers/sanguoxianhua/internals/cliutil"
	"github.com/PhantomStrikers/sanguoxianhua/internals/conf"
	"github.com/PhantomStrikers/sanguoxianhua/internals/env"
	"github.com/PhantomStrikers/sanguoxianhua/internals/history"
	"github.com/PhantomStrikers/sanguoxianhua/internals/logging"
	"github.com/PhantomStrikers/sanguoxianhua/internals/notify"
	"github.com/PhantomStrikers/sanguoxianhua/internals/runlog"
	"github.com/PhantomStrikers/sanguoxianhua/internals/runner"
	"github.com/PhantomStrikers/sanguoxianhua/internals/summary"
	"github.com/PhantomStrikers/sanguoxianhua/internals/version"
)

var ErrUsage = errors.New("usage:\n  sanguoxianhua [run] [--config <path>] [--data-dir <dir>]\n  sanguoxianhua history [--limit <n>] [--data-dir <dir>]")

type globalFlags struct {
	configPath string
	dataDir    string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "sanguoxianhua",
		Short:         "Run the daily Sanguosha tasks for every configured account",
		Version:       version.Version(),
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaily(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default <data dir>/config.json)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default $SGS_DATA_DIR)")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n%v", ErrUsage, err)
	})

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Sign in, do the daily tasks and claim rewards",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaily(cmd.Context(), flags, cmd.OutOrStdout())
		},
	})
	root.AddCommand(newHistoryCommand(flags))
	return root
}

func newHistoryCommand(flags *globalFlags) *cobra.Command {
	limit := 10
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("%w\n--limit must be positive", ErrUsage)
			}
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return cliutil.PrintRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", limit, "number of runs to show")
	return cmd
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w\n%v", ErrUsage, err)
		}
		return nil
	}
}

func loadConfig(flags *globalFlags) (*conf.Config, *env.EnvStruct, error) {
	envs, err := env.Load()
	if err != nil {
		return nil, nil, err
	}
	dataDir := envs.DATA_DIR
	if flags.dataDir != "" {
		dataDir = flags.dataDir
	}
	configPath := envs.CONFIG_PATH
	if flags.configPath != "" {
		configPath = flags.configPath
	}
	cfg, err := conf.Load(dataDir, configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, envs, nil
}

func runDaily(ctx context.Context, flags *globalFlags, out io.Writer) error {
	cfg, envs, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, logFile, err := logging.Init(envs.LOG_LEVEL, cfg.DataDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	list, err := accounts.Parse(envs.TOKENS)
	if err != nil {
		return err
	}

	log := runlog.New(logger)
	r, err := runner.New(list, runner.SDKClients(cfg.API, nil), log, runner.ConfigFrom(cfg), nil)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	results := r.Run(ctx)
	finishedAt := time.Now()

	if !cfg.History.Disabled {
		saveHistory(ctx, cfg, logger, history.Run{
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Version:    cfg.Version,
			Accounts:   runner.Records(results),
		})
	}

	text := summary.Generate(results, finishedAt)
	notifier := notify.New(envs.NOTIFY_WEBHOOK, out, logger)
	return notifier.Notify(context.WithoutCancel(ctx), summary.Title, text)
}

func saveHistory(ctx context.Context, cfg *conf.Config, logger *slog.Logger, run history.Run) {
	ctx = context.WithoutCancel(ctx)
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		logger.Warn("open run history failed", slog.String("error", err.Error()))
		return
	}
	defer store.Close()
	id, err := store.SaveRun(ctx, run)
	if err != nil {
		logger.Warn("save run history failed", slog.String("error", err.Error()))
		return
	}
	logger.Debug("run saved", slog.String("run", id))
}

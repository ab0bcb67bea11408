package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/milk9111/cameraman/config"
	"github.com/milk9111/cameraman/director"
	"github.com/milk9111/cameraman/prefabs"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cameraman",
		Short:         "Mode-aware camera and behavior director",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSimulateCmd(), newValidateCmd())
	return root
}

// env holds what every subcommand needs from the environment.
type env struct {
	cfg    config.Config
	logger *slog.Logger
}

func loadEnv(cmd *cobra.Command) (env, error) {
	cfg, err := config.Load()
	if err != nil {
		return env{}, err
	}
	if dir, _ := cmd.Flags().GetString("prefabs"); dir != "" {
		cfg.PrefabDir = dir
	}
	prefabs.SetOverrideDir(cfg.PrefabDir)
	return env{cfg: cfg, logger: cfg.NewLogger(cmd.ErrOrStderr())}, nil
}

// loadDirectorConfig compiles the prefab bundle and applies process
// overrides from the environment.
func (e env) loadDirectorConfig() (*director.Config, error) {
	dcfg, err := director.LoadConfig()
	if err != nil {
		return nil, err
	}
	if e.cfg.ParallelAgents {
		dcfg.ParallelAgents = true
	}
	if e.cfg.Workers > 0 {
		dcfg.Workers = e.cfg.Workers
	}
	return dcfg, nil
}

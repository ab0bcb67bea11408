package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/milk9111/cameraman/prefabs"
	"github.com/milk9111/cameraman/scenario"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [scenario...]",
		Short: "Compile the prefab configuration and check scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			dcfg, err := e.loadDirectorConfig()
			if err != nil {
				return err
			}
			for _, name := range args {
				spec, err := prefabs.LoadScenario(name)
				if err != nil {
					return err
				}
				if err := scenario.WithObstacles(dcfg, spec, e.cfg.Tracer); err != nil {
					return err
				}
				if _, err := scenario.Setup(dcfg, spec, directorOptions(e)...); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: fallback %s, min hold %d ticks, %d scenario(s)\n",
				dcfg.Tree.Fallback(), dcfg.Tree.MinHoldTicks(), len(args))
			return nil
		},
	}
	cmd.Flags().String("prefabs", "", "prefab override directory")
	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/milk9111/cameraman/director"
	"github.com/milk9111/cameraman/prefabs"
	"github.com/milk9111/cameraman/record"
	"github.com/milk9111/cameraman/scenario"
)

type simulateOptions struct {
	scenario string
	db       string
	tracer   string
	watch    bool
	realtime bool
	jsonl    bool
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a scenario through the director",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if opts.db == "" {
				opts.db = e.cfg.RecordPath
			}
			if opts.tracer == "" {
				opts.tracer = e.cfg.Tracer
			}
			opts.watch = opts.watch || e.cfg.Watch
			return simulate(cmd.Context(), e, opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.String("prefabs", "", "prefab override directory")
	f.StringVar(&opts.scenario, "scenario", "scenarios/demo.yaml", "scenario file, relative to the prefab directory")
	f.StringVar(&opts.db, "db", "", "record ticks to this SQLite database")
	f.StringVar(&opts.tracer, "tracer", "", "collision backend: space or boxes")
	f.BoolVar(&opts.watch, "watch", false, "reload prefabs when they change")
	f.BoolVar(&opts.realtime, "realtime", false, "pace ticks to the scenario dt")
	f.BoolVar(&opts.jsonl, "jsonl", false, "print every tick as a JSON line")
	return cmd
}

func directorOptions(e env) []director.Option {
	return []director.Option{director.WithLogger(e.logger)}
}

func simulate(ctx context.Context, e env, opts simulateOptions, stdout io.Writer) error {
	spec, err := prefabs.LoadScenario(opts.scenario)
	if err != nil {
		return err
	}
	dcfg, err := e.loadDirectorConfig()
	if err != nil {
		return err
	}
	if err := scenario.WithObstacles(dcfg, spec, opts.tracer); err != nil {
		return err
	}
	d, err := scenario.Setup(dcfg, spec, directorOptions(e)...)
	if err != nil {
		return err
	}

	var rec *record.Recorder
	if opts.db != "" {
		rec, err = record.Open(opts.db)
		if err != nil {
			return err
		}
		defer rec.Close()
		if _, err := rec.StartRun(ctx, spec.Name); err != nil {
			return err
		}
		e.logger.Info("simulate: recording", "db", opts.db, "run", rec.Run())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	var changes <-chan string
	if opts.watch {
		w, err := prefabs.NewWatcher(e.cfg.PrefabDir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", e.cfg.PrefabDir, err)
		}
		changes = w.Events
		g.Go(func() error {
			w.Run(ctx)
			return nil
		})
		g.Go(func() error {
			for err := range w.Errors {
				e.logger.Warn("simulate: watcher error", "err", err)
			}
			return nil
		})
	}

	var pace *time.Ticker
	if opts.realtime && spec.DT > 0 {
		pace = time.NewTicker(time.Duration(spec.DT * float64(time.Second)))
		defer pace.Stop()
	}
	enc := json.NewEncoder(stdout)

	emit := func(out director.TickOutput) error {
		if rec != nil {
			if err := rec.Write(ctx, out); err != nil {
				return err
			}
		}
		if opts.jsonl {
			if err := enc.Encode(out); err != nil {
				return err
			}
		}
		drainReloads(e, d, spec, opts.tracer, changes)
		if pace != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-pace.C:
			}
		}
		return nil
	}

	var sum scenario.Summary
	g.Go(func() error {
		defer cancel()
		var err error
		sum, err = scenario.Run(ctx, d, spec, e.logger, emit)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if !opts.jsonl {
		fmt.Fprintf(stdout, "%s: %d ticks, %d camera switches, active rig %q, operator %q\n",
			spec.Name, sum.Ticks, sum.Switches, sum.Last.ActiveRig, sum.Last.Operator)
		for _, a := range sum.Last.Agents {
			fmt.Fprintf(stdout, "  agent %-10s %-15s %s\n", a.Name, a.Context, a.Leaf)
		}
		for _, r := range sum.Last.Rigs {
			fmt.Fprintf(stdout, "  rig   %-10s arm %7.1f fov %5.1f tier %-7s blocked %v\n",
				r.Name, r.ArmLength, r.FOV, r.Tier, r.Blocked)
		}
	}
	return nil
}

// drainReloads applies pending prefab edits. A configuration that fails to
// compile is logged and the running one stays in effect.
func drainReloads(e env, d *director.Director, spec prefabs.ScenarioSpec, backend string, changes <-chan string) {
	if changes == nil {
		return
	}
	var names []string
drain:
	for {
		select {
		case name, ok := <-changes:
			if !ok {
				break drain
			}
			names = append(names, name)
		default:
			break drain
		}
	}
	if len(names) == 0 {
		return
	}
	dcfg, err := e.loadDirectorConfig()
	if err == nil {
		err = scenario.WithObstacles(dcfg, spec, backend)
	}
	if err == nil {
		err = d.Reload(dcfg)
	}
	if err != nil {
		e.logger.Error("simulate: reload rejected, keeping current configuration", "files", names, "err", err)
		return
	}
	e.logger.Info("simulate: prefabs reloaded", "files", names)
}

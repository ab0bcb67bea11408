package system

import (
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/milk9111/cameraman/ecs"
	"github.com/milk9111/cameraman/ecs/component"
	"github.com/milk9111/cameraman/statetree"
)

// BehaviorSystem evaluates every agent's state tree once per tick. Agents
// are independent, so evaluation may fan out across goroutines; results are
// written back on the calling goroutine.
type BehaviorSystem struct {
	tree     *statetree.Tree
	parallel bool
	workers  int
	logger   *slog.Logger
}

func NewBehaviorSystem(tree *statetree.Tree, logger *slog.Logger) *BehaviorSystem {
	if logger == nil {
		logger = slog.Default()
	}
	return &BehaviorSystem{tree: tree, logger: logger}
}

// SetParallel enables concurrent evaluation with at most workers goroutines.
// workers <= 0 means no limit.
func (s *BehaviorSystem) SetParallel(on bool, workers int) {
	s.parallel = on
	s.workers = workers
}

// SetTree swaps the tree. Agents whose leaf no longer exists re-enter the
// new tree on their next evaluation.
func (s *BehaviorSystem) SetTree(tree *statetree.Tree) {
	s.tree = tree
}

type behaviorJob struct {
	entity ecs.Entity
	agent  *component.Agent
	beh    *component.Behavior
	ctx    statetree.EvalContext
	res    statetree.Result
}

func (s *BehaviorSystem) Update(w *ecs.World) {
	if w == nil || s.tree == nil {
		return
	}
	tick := w.Tick()

	var jobs []*behaviorJob
	ecs.ForEach3(w, component.AgentComponent.Kind(), component.BehaviorComponent.Kind(), component.ContextStateComponent.Kind(), func(e ecs.Entity, agent *component.Agent, beh *component.Behavior, cs *component.ContextState) {
		j := &behaviorJob{
			entity: e,
			agent:  agent,
			beh:    beh,
			ctx: statetree.EvalContext{
				Agent:   agent.Name,
				Tick:    tick.Frame,
				Context: cs.Current,
				Params:  beh.State.Params,
				Logger:  s.logger,
			},
		}
		if p, ok := ecs.Get(w, e, component.PerceptionComponent.Kind()); ok {
			j.ctx.Perception = p.Snapshot
		}
		jobs = append(jobs, j)
	})

	eval := func(j *behaviorJob) error {
		j.res = s.tree.Evaluate(j.beh.State, &j.ctx)
		if j.res.State.ActiveLeaf == "" {
			return fmt.Errorf("behavior: agent %s has no active leaf", j.agent.Name)
		}
		return nil
	}

	var err error
	if s.parallel && len(jobs) > 1 {
		var g errgroup.Group
		if s.workers > 0 {
			g.SetLimit(s.workers)
		}
		for _, j := range jobs {
			g.Go(func() error { return eval(j) })
		}
		err = g.Wait()
	} else {
		for _, j := range jobs {
			if e := eval(j); e != nil && err == nil {
				err = e
			}
		}
	}
	if err != nil {
		s.logger.Error("behavior: evaluation failed", "tick", tick.Frame, "error", err)
	}

	for _, j := range jobs {
		if j.res.State.ActiveLeaf == "" {
			continue
		}
		j.beh.State = j.res.State
		j.beh.Candidate = j.res.Candidate
		j.beh.UsedFallback = j.res.UsedFallback
		j.beh.Transitioned = j.res.Transitioned
		j.beh.Events = j.res.Events

		if j.res.Transitioned {
			w.Emit(EventTransition, Transition{Agent: j.agent.Name, From: j.res.From, To: j.res.State.ActiveLeaf})
		}
		for _, name := range j.res.Events {
			w.Emit(EventBehavior, BehaviorEvent{Agent: j.agent.Name, Node: j.res.State.ActiveLeaf, Name: name})
		}
	}
}
